package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/service"
)

func TestScenario_RejectedDocumentBlocksVerification(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	doc, err := w.docs.Submit(ctx, candidate1, "passport", "blob://passport")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusPending, doc.Status)

	doc, err = w.docs.Review(ctx, staff1, doc.ID, domain.DecisionReject, "blurry scan")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusRejected, doc.Status)
	assert.Equal(t, "blurry scan", doc.RejectionReason)

	_, err = w.verifs.Resolve(ctx, staff1, candidate1.ID, domain.DecisionApprove, "", "")
	conflict := requireConflict(t, err)
	assert.Contains(t, conflict.Reason, "1 blocking document")

	rec, err := w.verifs.Get(ctx, candidate1, candidate1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)
}

func TestScenario_ApprovedDocumentAllowsVerification(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	doc, err := w.docs.Submit(ctx, candidate1, "passport", "blob://passport")
	require.NoError(t, err)
	doc, err = w.docs.Review(ctx, staff1, doc.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusVerified, doc.Status)

	rec, err := w.verifs.Resolve(ctx, staff1, candidate1.ID, domain.DecisionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusVerified, rec.Status)
	assert.Equal(t, staff1.ID, rec.ReviewerID)
	assert.NotEmpty(t, w.notifier.To(candidate1.ID))
}

func TestScenario_QuoteRequestAdvancesPipeline(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()
	w.verify(t, employer1)

	q, err := w.quotes.Request(ctx, employer1, employer1.ID, candidate1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, q.Status)

	entry, err := w.pipeline.Get(ctx, employer1, employer1.ID, candidate1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineStatusAskedQuote, entry.Status)

	q, err = w.quotes.Resolve(ctx, staff1, q.ID, domain.DecisionApprove, "€5,000-€7,000", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusApproved, q.Status)
	assert.Equal(t, "€5,000-€7,000", q.CostEstimate)

	_, err = w.quotes.SelectOption(ctx, employer1, q.ID, "opt-1")
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestScenario_FirstSlotAcceptanceWins(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()
	w.verify(t, employer1)

	slotA := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	slotB := time.Date(2026, 11, 3, 14, 0, 0, 0, time.UTC)
	iv, err := w.interviews.Schedule(ctx, employer1, employer1.ID, candidate1.ID, "Screening", []domain.SlotProposal{
		{DateTime: slotA, DurationMinutes: 30},
		{DateTime: slotB, DurationMinutes: 30},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.InterviewStatusPending, iv.Status)
	assert.NotEmpty(t, iv.RoomToken)
	require.Len(t, iv.ProposedTimes, 2)

	iv, err = w.interviews.RespondToSlot(ctx, candidate1, iv.ID, iv.ProposedTimes[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.InterviewStatusConfirmed, iv.Status)
	require.NotNil(t, iv.ConfirmedTime)
	assert.True(t, iv.ConfirmedTime.Equal(slotA))

	_, err = w.interviews.RespondToSlot(ctx, candidate1, iv.ID, iv.ProposedTimes[1].ID, true)
	requireConflict(t, err)

	stored, err := w.interviews.Get(ctx, employer1, iv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConfirmedTime)
	assert.True(t, stored.ConfirmedTime.Equal(slotA))
	assert.Equal(t, 1, stored.AcceptedCount())
}

func TestScenario_DemandSuggestionIsDeduplicated(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	d, err := w.demands.Create(ctx, employer2, employer2.ID, domain.DemandSpec{Title: "Backend engineer", Skills: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, domain.DemandStatusOpen, d.Status)

	d, err = w.demands.SuggestPoolCandidate(ctx, staff1, d.ID, candidate3.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DemandStatusTreating, d.Status)
	assert.Equal(t, []string{candidate3.ID}, d.SuggestedCandidateIDs)

	quotes, err := w.quotes.ListByEmployer(ctx, staff1, employer2.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, candidate3.ID, quotes[0].CandidateID)
	assert.Equal(t, domain.QuoteStatusPending, quotes[0].Status)
	assert.Equal(t, d.ID, quotes[0].DemandID)

	d, err = w.demands.SuggestPoolCandidate(ctx, staff1, d.ID, candidate3.ID)
	require.NoError(t, err)
	assert.Len(t, d.SuggestedCandidateIDs, 1)

	quotes, err = w.quotes.ListByEmployer(ctx, staff1, employer2.ID)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}

func TestInvariant_VerifiedOwnerHasNoBlockingDocuments(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	doc, err := w.docs.Submit(ctx, candidate1, "passport", "blob://passport")
	require.NoError(t, err)
	_, err = w.docs.Approve(ctx, staff1, doc.ID)
	require.NoError(t, err)
	_, err = w.verifs.Verify(ctx, staff1, candidate1.ID, "€60k")
	require.NoError(t, err)

	t.Run("NewDocumentReopensReview", func(t *testing.T) {
		_, err := w.docs.Submit(ctx, candidate1, "diploma", "blob://diploma")
		require.NoError(t, err)

		rec, err := w.verifs.Get(ctx, candidate1, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusUnverified, rec.Status)

		elig, err := w.verifs.ComputeEligibility(ctx, candidate1.ID)
		require.NoError(t, err)
		assert.False(t, elig.CanVerify)
		assert.Equal(t, 1, elig.BlockingCount)
	})
}

func TestInvariant_ApprovedQuoteHasEstimate(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()
	w.verify(t, employer1)

	q, err := w.quotes.Request(ctx, employer1, employer1.ID, candidate1.ID)
	require.NoError(t, err)

	_, err = w.quotes.Resolve(ctx, staff1, q.ID, domain.DecisionApprove, "  ", nil)
	assert.True(t, domain.IsValidation(err), "got %v", err)

	stored, err := w.quotes.Get(ctx, employer1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, stored.Status)
}

func TestInvariant_OpenDemandIsEmpty(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	d, err := w.demands.Create(ctx, employer2, employer2.ID, domain.DemandSpec{Title: "Designer"})
	require.NoError(t, err)
	d, err = w.demands.AddManualProfile(ctx, staff1, d.ID, domain.ManualProfile{FullName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, domain.DemandStatusTreating, d.Status)

	_, err = w.demands.UpdateStatus(ctx, staff1, d.ID, domain.DemandStatusOpen)
	requireConflict(t, err)
}

func TestInvariant_DocumentReviewIsIdempotent(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	doc, err := w.docs.Submit(ctx, candidate1, "passport", "blob://passport")
	require.NoError(t, err)
	resolved, err := w.docs.Approve(ctx, staff1, doc.ID)
	require.NoError(t, err)

	for _, decision := range []domain.ReviewDecision{domain.DecisionApprove, domain.DecisionReject} {
		_, err := w.docs.Review(ctx, staff2, doc.ID, decision, "second look")
		conflict := requireConflict(t, err)
		assert.Equal(t, resolved, conflict.Current)
	}

	stored, err := w.docs.Get(ctx, candidate1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, resolved, stored)
}

func TestInvariant_PipelineStatusRoundTrip(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	for _, status := range []domain.PipelineStatus{
		domain.PipelineStatusShortlisted,
		domain.PipelineStatusHired,
		domain.PipelineStatusPotential,
	} {
		_, err := w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, status, nil)
		require.NoError(t, err)

		entry, err := w.pipeline.Get(ctx, employer1, employer1.ID, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, status, entry.Status)
	}
}

func TestConcurrentReviewsApplyOnce(t *testing.T) {
	w := newWorkflow(service.DefaultPolicy())
	ctx := context.Background()

	doc, err := w.docs.Submit(ctx, candidate1, "passport", "blob://passport")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicts := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reviewer := staff1
			if i%2 == 1 {
				reviewer = staff2
			}
			_, err := w.docs.Approve(ctx, reviewer, doc.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.IsConflict(err):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, conflicts)
}

func TestConcurrentQuoteRequestsOpenOne(t *testing.T) {
	w := newWorkflow(service.Policy{PipelineMode: domain.PipelineModePermissive, AllowUnverifiedEmployers: true})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.quotes.Request(ctx, employer1, employer1.ID, candidate1.ID)
		}(i)
	}
	wg.Wait()

	opened := 0
	for _, err := range errs {
		if err == nil {
			opened++
			continue
		}
		conflict := requireConflict(t, err)
		assert.IsType(t, &domain.QuoteRequest{}, conflict.Current)
	}
	assert.Equal(t, 1, opened)
}
