package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/service"
)

func TestVerificationService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	w := newWorkflow(service.DefaultPolicy())

	t.Run("GetBeforeAnyContact", func(t *testing.T) {
		rec, err := w.verifs.Get(ctx, candidate1, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)
	})

	t.Run("SubmitLocksProfile", func(t *testing.T) {
		_, err := w.verifs.UpdateProfile(ctx, candidate1, map[string]string{"headline": "Go developer"})
		require.NoError(t, err)

		rec, err := w.verifs.SubmitForVerification(ctx, candidate1)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusPending, rec.Status)
		assert.NotNil(t, rec.SubmittedAt)

		_, err = w.verifs.UpdateProfile(ctx, candidate1, map[string]string{"headline": "changed"})
		requireConflict(t, err)

		_, err = w.verifs.SubmitForVerification(ctx, candidate1)
		requireConflict(t, err)
	})

	t.Run("RevokeUnlocksProfile", func(t *testing.T) {
		rec, err := w.verifs.Revoke(ctx, candidate1)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)

		rec, err = w.verifs.UpdateProfile(ctx, candidate1, map[string]string{"headline": "", "city": "Lisbon"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"city": "Lisbon"}, rec.Profile)
	})

	t.Run("RejectNeedsReason", func(t *testing.T) {
		_, err := w.verifs.Reject(ctx, staff1, candidate1.ID, " ")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("RejectThenReopen", func(t *testing.T) {
		rec, err := w.verifs.Resolve(ctx, staff1, candidate1.ID, domain.DecisionReject, "incomplete profile", "")
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusRejected, rec.Status)
		assert.Equal(t, "incomplete profile", rec.RejectionReason)

		_, err = w.verifs.Verify(ctx, staff1, candidate1.ID, "")
		requireConflict(t, err)

		rec, err = w.verifs.Reopen(ctx, candidate1)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)
	})

	t.Run("VerifyWithCostHint", func(t *testing.T) {
		rec, err := w.verifs.Verify(ctx, staff1, candidate1.ID, "€80k")
		require.NoError(t, err)
		assert.Equal(t, "€80k", rec.CostHint)
	})

	t.Run("AdminRevoke", func(t *testing.T) {
		_, err := w.verifs.AdminRevoke(ctx, staff1, candidate1.ID, "")
		assert.True(t, domain.IsAuthorization(err))

		rec, err := w.verifs.AdminRevoke(ctx, admin1, candidate1.ID, "fraud report")
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)
		assert.Equal(t, "fraud report", rec.RejectionReason)

		_, err = w.verifs.AdminRevoke(ctx, admin1, candidate1.ID, "")
		requireConflict(t, err)
	})
}

func TestVerificationService_Authorization(t *testing.T) {
	ctx := context.Background()
	w := newWorkflow(service.DefaultPolicy())

	t.Run("SelfReview", func(t *testing.T) {
		_, err := w.verifs.Verify(ctx, staff1, staff1.ID, "")
		assert.True(t, domain.IsAuthorization(err))
	})

	t.Run("CostHintOnEmployer", func(t *testing.T) {
		_, err := w.verifs.SubmitForVerification(ctx, employer1)
		require.NoError(t, err)
		_, err = w.verifs.Verify(ctx, staff1, employer1.ID, "€1")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("UnknownOwner", func(t *testing.T) {
		_, err := w.verifs.Verify(ctx, staff1, "ghost", "")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("ReadOtherRecord", func(t *testing.T) {
		_, err := w.verifs.Get(ctx, candidate3, employer1.ID)
		assert.True(t, domain.IsAuthorization(err))
	})
}

func TestVerificationService_OwnerWithoutRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("VerifyCreatesRecord", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())

		rec, err := w.verifs.Verify(ctx, staff1, employer2.ID, "")
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusVerified, rec.Status)
		assert.Equal(t, staff1.ID, rec.ReviewerID)

		q, err := w.quotes.Request(ctx, employer2, employer2.ID, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusPending, q.Status)
	})

	t.Run("RejectCreatesRecord", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())

		rec, err := w.verifs.Reject(ctx, staff1, employer2.ID, "company not found")
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusRejected, rec.Status)
		assert.Empty(t, rec.Role)

		reopened, err := w.verifs.Reopen(ctx, employer2)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, reopened.Status)
		assert.Equal(t, domain.RoleEmployer, reopened.Role)
	})

	t.Run("DocumentFillsRole", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		_, err := w.verifs.Verify(ctx, staff1, candidate3.ID, "")
		require.NoError(t, err)

		_, err = w.docs.Submit(ctx, candidate3, "passport", "blob://p")
		require.NoError(t, err)

		rec, err := w.verifs.Get(ctx, staff1, candidate3.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCandidate, rec.Role)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)
	})
}
