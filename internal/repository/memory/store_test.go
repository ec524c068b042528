package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/repository"
)

func TestDocumentRepository_VersionedUpdate(t *testing.T) {
	store := NewStore()
	repo := store.Repos().Documents
	ctx := context.Background()

	doc := &domain.Document{ID: "d1", OwnerID: "c1", Kind: "passport", Status: domain.DocumentStatusPending, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, doc))
	assert.Equal(t, int32(1), doc.Version)

	t.Run("Success", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "d1")
		require.NoError(t, err)
		got.Status = domain.DocumentStatusVerified
		require.NoError(t, repo.Update(ctx, got))
		assert.Equal(t, int32(2), got.Version)
	})

	t.Run("StaleVersion", func(t *testing.T) {
		stale := *doc
		stale.Status = domain.DocumentStatusRejected
		err := repo.Update(ctx, &stale)
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("CountBlocking", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &domain.Document{ID: "d2", OwnerID: "c1", Status: domain.DocumentStatusPending}))
		n, err := repo.CountByOwnerAndStatus(ctx, "c1", domain.BlockingDocumentStatuses)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	repo := store.Repos().Verifications
	ctx := context.Background()

	rec := &domain.VerificationRecord{OwnerID: "e1", Role: domain.RoleEmployer, Status: domain.VerificationStatusPending, Profile: map[string]string{"company": "Acme"}}
	require.NoError(t, repo.Create(ctx, rec))
	rec.Profile["company"] = "Changed"

	got, err := repo.GetByOwner(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Profile["company"])
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Demands.Create(ctx, &domain.TalentDemand{ID: "t1", EmployerID: "e1", Status: domain.DemandStatusOpen}); err != nil {
			return err
		}
		_, err := repos.Pipeline.CreateIfAbsent(ctx, &domain.PipelineEntry{EmployerID: "e1", CandidateID: "c1", Status: domain.PipelineStatusPotential})
		if err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Repos().Demands.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Repos().Pipeline.Get(ctx, "e1", "c1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_WithinTxCommits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		return repos.Contacts.Upsert(ctx, &domain.Contact{UserID: "s1", Role: domain.RoleStaff, Email: "s1@example.com"})
	})
	require.NoError(t, err)

	staff, err := store.Repos().Contacts.ListByRole(ctx, domain.RoleStaff)
	require.NoError(t, err)
	assert.Len(t, staff, 1)
}

func TestPipelineRepository_CreateIfAbsent(t *testing.T) {
	store := NewStore()
	repo := store.Repos().Pipeline
	ctx := context.Background()

	first, err := repo.CreateIfAbsent(ctx, &domain.PipelineEntry{EmployerID: "e1", CandidateID: "c1", Status: domain.PipelineStatusShortlisted})
	require.NoError(t, err)
	second, err := repo.CreateIfAbsent(ctx, &domain.PipelineEntry{EmployerID: "e1", CandidateID: "c1", Status: domain.PipelineStatusPotential})
	require.NoError(t, err)

	assert.Equal(t, domain.PipelineStatusShortlisted, second.Status)
	assert.Equal(t, first.Version, second.Version)
}

func TestQuoteRepository_OneOpenPerPair(t *testing.T) {
	store := NewStore()
	repo := store.Repos().Quotes
	ctx := context.Background()

	q1 := &domain.QuoteRequest{ID: "q1", EmployerID: "e1", CandidateID: "c1", Status: domain.QuoteStatusPending, RequestedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, q1))

	t.Run("DuplicateOpen", func(t *testing.T) {
		err := repo.Create(ctx, &domain.QuoteRequest{ID: "q2", EmployerID: "e1", CandidateID: "c1", Status: domain.QuoteStatusPending})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("AfterRejection", func(t *testing.T) {
		q1.Status = domain.QuoteStatusRejected
		require.NoError(t, repo.Update(ctx, q1))
		err := repo.Create(ctx, &domain.QuoteRequest{ID: "q3", EmployerID: "e1", CandidateID: "c1", Status: domain.QuoteStatusPending})
		assert.NoError(t, err)

		open, err := repo.FindOpenForPair(ctx, "e1", "c1")
		require.NoError(t, err)
		assert.Equal(t, "q3", open.ID)
	})

	t.Run("PendingBefore", func(t *testing.T) {
		stale, err := repo.ListPendingBefore(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, stale, 1)
	})
}

func TestNotificationRepository_ListPaginates(t *testing.T) {
	store := NewStore()
	repo := store.Repos().Notifications
	ctx := context.Background()

	for _, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, repo.Create(ctx, &domain.Notification{ID: id, UserID: "u1", Title: id}))
	}

	notes, total, err := repo.List(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	require.Len(t, notes, 2)
	assert.Equal(t, "n3", notes[0].ID)

	require.NoError(t, repo.MarkAsRead(ctx, "n1", "u1"))
	assert.ErrorIs(t, repo.MarkAsRead(ctx, "n1", "someone-else"), repository.ErrNotFound)
}
