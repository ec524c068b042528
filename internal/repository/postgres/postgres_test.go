package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/repository"
	"hireflow/internal/repository/postgres"
)

func TestDocumentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewDocumentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		doc := &domain.Document{ID: "d1", OwnerID: "c1", Kind: "passport", BlobRef: "blob://1", Status: domain.DocumentStatusPending, CreatedAt: now, UpdatedAt: now}

		mock.ExpectExec("INSERT INTO documents").
			WithArgs("d1", "c1", "passport", "blob://1", domain.DocumentStatusPending, "", "", now, now, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, doc)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), doc.Version)
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO documents").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, &domain.Document{ID: "d1", OwnerID: "c1"})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewDocumentRepository(db)
	ctx := context.Background()
	columns := []string{"id", "owner_id", "kind", "blob_ref", "status", "rejection_reason", "reviewer_id", "created_at", "updated_at", "reviewed_at", "version"}

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("d1", "c1", "passport", "blob://1", "REJECTED", "blurry", "s1", time.Now(), time.Now(), time.Now(), 3)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
			WithArgs("d1").
			WillReturnRows(rows)

		doc, err := repo.GetByID(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusRejected, doc.Status)
		assert.Equal(t, "blurry", doc.RejectionReason)
		assert.NotNil(t, doc.ReviewedAt)
		assert.Equal(t, int32(3), doc.Version)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDocumentRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewDocumentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		doc := &domain.Document{ID: "d1", Status: domain.DocumentStatusVerified, Version: 2}
		mock.ExpectExec("UPDATE documents SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, doc))
		assert.Equal(t, int32(3), doc.Version)
	})

	t.Run("VersionConflict", func(t *testing.T) {
		doc := &domain.Document{ID: "d1", Status: domain.DocumentStatusVerified, Version: 1}
		mock.ExpectExec("UPDATE documents SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.Update(ctx, doc)
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		assert.Equal(t, int32(1), doc.Version)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.Update(ctx, &domain.Document{ID: "gone", Version: 1})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestVerificationRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewVerificationRepository(db)
	ctx := context.Background()

	t.Run("PersistsRole", func(t *testing.T) {
		now := time.Now()
		rec := &domain.VerificationRecord{OwnerID: "e1", Role: domain.RoleEmployer, Status: domain.VerificationStatusVerified, ReviewerID: "s1", UpdatedAt: now, Version: 1}
		mock.ExpectExec("UPDATE verification_records SET").
			WithArgs(domain.VerificationStatusVerified, "", "", sqlmock.AnyArg(), "s1", nil, nil, now, domain.RoleEmployer, "e1", int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, rec))
		assert.Equal(t, int32(2), rec.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPipelineRepository_CreateIfAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewPipelineRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO pipeline_entries (.+) ON CONFLICT").
		WithArgs("e1", "c1", domain.PipelineStatusPotential, now).
		WillReturnRows(sqlmock.NewRows([]string{"employer_id", "candidate_id", "status", "updated_at", "version"}).
			AddRow("e1", "c1", "SHORTLISTED", now, 4))

	entry, err := repo.CreateIfAbsent(context.Background(), &domain.PipelineEntry{
		EmployerID: "e1", CandidateID: "c1", Status: domain.PipelineStatusPotential, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineStatusShortlisted, entry.Status)
	assert.Equal(t, int32(4), entry.Version)
}

func TestQuoteRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewQuoteRepository(db)
	ctx := context.Background()

	t.Run("OpenPairExists", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO quote_requests").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_quote_requests_open_pair"})

		err := repo.Create(ctx, &domain.QuoteRequest{ID: "q2", EmployerID: "e1", CandidateID: "c1", Status: domain.QuoteStatusPending})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO quote_requests").
			WithArgs("q1", "e1", "c1", "", domain.QuoteStatusPending, "", []byte("[]"), "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		q := &domain.QuoteRequest{ID: "q1", EmployerID: "e1", CandidateID: "c1", Status: domain.QuoteStatusPending, RequestedAt: time.Now()}
		require.NoError(t, repo.Create(ctx, q))
		assert.Equal(t, int32(1), q.Version)
	})
}

func TestDemandRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewDemandRepository(db)
	rows := sqlmock.NewRows([]string{"id", "employer_id", "title", "description", "skills", "seniority", "location", "budget",
		"status", "suggested_candidate_ids", "manual_profiles", "created_at", "updated_at", "version"}).
		AddRow("t1", "e1", "Go engineer", "backend", "{go,sql}", "senior", "remote", "", "TREATING", "{c1}",
			[]byte(`[{"id":"manual-1","full_name":"Jane Roe","added_by":"s1","added_at":"2026-01-02T03:04:05Z"}]`),
			time.Now(), time.Now(), 2)
	mock.ExpectQuery("SELECT (.+) FROM talent_demands WHERE id = \\$1").
		WithArgs("t1").
		WillReturnRows(rows)

	d, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, d.Spec.Skills)
	assert.Equal(t, []string{"c1"}, d.SuggestedCandidateIDs)
	require.Len(t, d.ManualProfiles, 1)
	assert.Equal(t, "Jane Roe", d.ManualProfiles[0].FullName)
}

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO contacts").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(repos repository.Repositories) error {
			return repos.Contacts.Upsert(ctx, &domain.Contact{UserID: "s1", Role: domain.RoleStaff})
		})
		assert.NoError(t, err)
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(repos repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
