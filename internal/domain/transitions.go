package domain

// Each status type owns one allow-list; services must consult it before writing.

var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusPending: {DocumentStatusVerified, DocumentStatusRejected},
}

var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationStatusUnverified: {VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected},
	VerificationStatusPending:    {VerificationStatusUnverified, VerificationStatusVerified, VerificationStatusRejected},
	VerificationStatusVerified:   {VerificationStatusUnverified, VerificationStatusRejected},
	VerificationStatusRejected:   {VerificationStatusUnverified},
}

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusPending: {QuoteStatusApproved, QuoteStatusRejected},
}

var interviewTransitions = map[InterviewStatus][]InterviewStatus{
	InterviewStatusPending:   {InterviewStatusConfirmed, InterviewStatusCancelled},
	InterviewStatusConfirmed: {InterviewStatusCompleted, InterviewStatusCancelled},
}

var demandAutoTransitions = map[DemandStatus][]DemandStatus{
	DemandStatusOpen: {DemandStatusTreating},
}

var pipelineRank = map[PipelineStatus]int{
	PipelineStatusPotential:   0,
	PipelineStatusShortlisted: 1,
	PipelineStatusAskedQuote:  2,
	PipelineStatusInterviewed: 3,
	PipelineStatusHired:       4,
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return allowed(documentTransitions, s, next)
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusVerified, DocumentStatusRejected:
		return true
	}
	return false
}

func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	return allowed(verificationTransitions, s, next)
}

func (s VerificationStatus) Valid() bool {
	_, ok := verificationTransitions[s]
	return ok
}

func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	return allowed(quoteTransitions, s, next)
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected:
		return true
	}
	return false
}

func (s InterviewStatus) CanTransitionTo(next InterviewStatus) bool {
	return allowed(interviewTransitions, s, next)
}

func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewStatusCompleted || s == InterviewStatusCancelled
}

// CanAutoAdvanceTo covers the only implicit demand move (open -> treating).
// Explicit staff overrides are unrestricted apart from Valid.
func (s DemandStatus) CanAutoAdvanceTo(next DemandStatus) bool {
	return allowed(demandAutoTransitions, s, next)
}

func (s DemandStatus) Valid() bool {
	switch s {
	case DemandStatusOpen, DemandStatusTreating, DemandStatusTreated, DemandStatusCancelled:
		return true
	}
	return false
}

func (s PipelineStatus) Valid() bool {
	_, ok := pipelineRank[s]
	return ok
}

// Rank is the funnel position, potential = 0 through hired = 4.
func (s PipelineStatus) Rank() int {
	return pipelineRank[s]
}

// CanTransitionTo reports whether next is allowed from s under mode. Permissive
// mode accepts any valid status; strict mode accepts staying put or moving forward,
// and backward moves only when backward is true (staff corrections).
func (s PipelineStatus) CanTransitionTo(next PipelineStatus, mode PipelineMode, backward bool) bool {
	if !next.Valid() {
		return false
	}
	if mode != PipelineModeStrict {
		return true
	}
	if next.Rank() >= s.Rank() {
		return true
	}
	return backward
}
