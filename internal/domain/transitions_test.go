package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, DocumentStatusPending.CanTransitionTo(DocumentStatusVerified))
	assert.True(t, DocumentStatusPending.CanTransitionTo(DocumentStatusRejected))
	assert.False(t, DocumentStatusVerified.CanTransitionTo(DocumentStatusRejected))
	assert.False(t, DocumentStatusRejected.CanTransitionTo(DocumentStatusVerified))
	assert.False(t, DocumentStatusVerified.CanTransitionTo(DocumentStatusVerified))
}

func TestVerificationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to VerificationStatus
		expected bool
	}{
		{VerificationStatusUnverified, VerificationStatusPending, true},
		{VerificationStatusPending, VerificationStatusUnverified, true},
		{VerificationStatusPending, VerificationStatusVerified, true},
		{VerificationStatusUnverified, VerificationStatusVerified, true},
		{VerificationStatusRejected, VerificationStatusUnverified, true},
		{VerificationStatusVerified, VerificationStatusUnverified, true},
		{VerificationStatusRejected, VerificationStatusVerified, false},
		{VerificationStatusVerified, VerificationStatusVerified, false},
		{VerificationStatusRejected, VerificationStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInterviewStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, InterviewStatusPending.CanTransitionTo(InterviewStatusConfirmed))
	assert.True(t, InterviewStatusConfirmed.CanTransitionTo(InterviewStatusCompleted))
	assert.True(t, InterviewStatusConfirmed.CanTransitionTo(InterviewStatusCancelled))
	assert.False(t, InterviewStatusPending.CanTransitionTo(InterviewStatusCompleted))
	assert.False(t, InterviewStatusCancelled.CanTransitionTo(InterviewStatusPending))
	assert.False(t, InterviewStatusCompleted.CanTransitionTo(InterviewStatusCancelled))
	assert.True(t, InterviewStatusCompleted.IsTerminal())
}

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, QuoteStatusPending.CanTransitionTo(QuoteStatusApproved))
	assert.True(t, QuoteStatusPending.CanTransitionTo(QuoteStatusRejected))
	assert.False(t, QuoteStatusApproved.CanTransitionTo(QuoteStatusRejected))
	assert.False(t, QuoteStatusRejected.CanTransitionTo(QuoteStatusApproved))
}

func TestPipelineStatus_CanTransitionTo(t *testing.T) {
	t.Run("Permissive allows backward", func(t *testing.T) {
		assert.True(t, PipelineStatusHired.CanTransitionTo(PipelineStatusPotential, PipelineModePermissive, false))
	})

	t.Run("Strict forward only", func(t *testing.T) {
		assert.True(t, PipelineStatusPotential.CanTransitionTo(PipelineStatusAskedQuote, PipelineModeStrict, false))
		assert.True(t, PipelineStatusAskedQuote.CanTransitionTo(PipelineStatusAskedQuote, PipelineModeStrict, false))
		assert.False(t, PipelineStatusInterviewed.CanTransitionTo(PipelineStatusShortlisted, PipelineModeStrict, false))
	})

	t.Run("Strict backward for staff", func(t *testing.T) {
		assert.True(t, PipelineStatusInterviewed.CanTransitionTo(PipelineStatusShortlisted, PipelineModeStrict, true))
	})

	t.Run("Unknown status", func(t *testing.T) {
		assert.False(t, PipelineStatusPotential.CanTransitionTo(PipelineStatus("BOGUS"), PipelineModePermissive, true))
	})
}

func TestDemandStatus_CanAutoAdvanceTo(t *testing.T) {
	assert.True(t, DemandStatusOpen.CanAutoAdvanceTo(DemandStatusTreating))
	assert.False(t, DemandStatusTreating.CanAutoAdvanceTo(DemandStatusTreating))
	assert.False(t, DemandStatusCancelled.CanAutoAdvanceTo(DemandStatusTreating))
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConflictError("document", "d1", nil, "already %s", "verified"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Contains(t, wrapped.Error(), "already verified")

	internal := NewInternalError("document.approve", errors.New("connection reset"))
	assert.True(t, IsInternal(internal))
	assert.NotContains(t, internal.Error(), "connection reset")
	assert.EqualError(t, errors.Unwrap(internal), "connection reset")

	assert.True(t, IsNotFound(NewNotFoundError("quote", "q1")))
	assert.True(t, IsAuthorization(NewAuthorizationError(Actor{ID: "c1", Role: RoleCandidate}, "resolve quote")))
}

func TestInterview_Helpers(t *testing.T) {
	iv := &Interview{
		EmployerID:  "e1",
		CandidateID: "c1",
		ProposedTimes: []ProposedTime{
			{ID: "a", Response: SlotResponseRejected},
			{ID: "b", Response: SlotResponseRejected},
		},
	}
	assert.True(t, iv.IsParty("c1"))
	assert.False(t, iv.IsParty("s1"))
	assert.True(t, iv.AllSlotsRejected())
	assert.Nil(t, iv.Slot("zzz"))
	iv.Slot("b").Response = SlotResponseAccepted
	assert.False(t, iv.AllSlotsRejected())
	assert.Equal(t, 1, iv.AcceptedCount())
}
