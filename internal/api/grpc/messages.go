package grpc

import "hireflow/internal/domain"

type Empty struct{}

type SubmitDocumentRequest struct {
	Kind    string `json:"kind"`
	BlobRef string `json:"blob_ref"`
}

type ReviewDocumentRequest struct {
	DocumentID string                `json:"document_id"`
	Decision   domain.ReviewDecision `json:"decision"`
	Reason     string                `json:"reason,omitempty"`
}

type DocumentIDRequest struct {
	DocumentID string `json:"document_id"`
}

type OwnerRequest struct {
	OwnerID string `json:"owner_id"`
}

type DocumentList struct {
	Documents []domain.Document `json:"documents"`
}

type ResolveVerificationRequest struct {
	OwnerID  string                `json:"owner_id"`
	Decision domain.ReviewDecision `json:"decision"`
	Reason   string                `json:"reason,omitempty"`
	CostHint string                `json:"cost_hint,omitempty"`
}

type AdminRevokeRequest struct {
	OwnerID string `json:"owner_id"`
	Reason  string `json:"reason,omitempty"`
}

type UpdateProfileRequest struct {
	Fields map[string]string `json:"fields"`
}

type SetPipelineStatusRequest struct {
	EmployerID  string                 `json:"employer_id"`
	CandidateID string                 `json:"candidate_id"`
	Status      domain.PipelineStatus  `json:"status"`
	Expected    *domain.PipelineStatus `json:"expected,omitempty"`
}

type PairRequest struct {
	EmployerID  string `json:"employer_id"`
	CandidateID string `json:"candidate_id"`
}

type EmployerRequest struct {
	EmployerID string `json:"employer_id"`
}

type PipelineList struct {
	Entries []domain.PipelineEntry `json:"entries"`
}

type ResolveQuoteRequest struct {
	QuoteID      string                `json:"quote_id"`
	Decision     domain.ReviewDecision `json:"decision"`
	CostEstimate string                `json:"cost_estimate,omitempty"`
	Options      []domain.QuoteOption  `json:"options,omitempty"`
}

type AddQuoteOptionRequest struct {
	QuoteID string             `json:"quote_id"`
	Option  domain.QuoteOption `json:"option"`
}

type SelectQuoteOptionRequest struct {
	QuoteID  string `json:"quote_id"`
	OptionID string `json:"option_id"`
}

type QuoteIDRequest struct {
	QuoteID string `json:"quote_id"`
}

type UpdateQuoteStatusRequest struct {
	QuoteID string             `json:"quote_id"`
	Status  domain.QuoteStatus `json:"status"`
	Note    string             `json:"note,omitempty"`
}

type QuoteList struct {
	Quotes []domain.QuoteRequest `json:"quotes"`
}

type ScheduleInterviewRequest struct {
	EmployerID    string                `json:"employer_id"`
	CandidateID   string                `json:"candidate_id"`
	Title         string                `json:"title"`
	ProposedTimes []domain.SlotProposal `json:"proposed_times"`
	Notes         string                `json:"notes,omitempty"`
}

type RespondToSlotRequest struct {
	InterviewID string `json:"interview_id"`
	SlotID      string `json:"slot_id"`
	Accepted    bool   `json:"accepted"`
}

type ProposeSlotsRequest struct {
	InterviewID   string                `json:"interview_id"`
	ProposedTimes []domain.SlotProposal `json:"proposed_times"`
}

type CancelInterviewRequest struct {
	InterviewID string `json:"interview_id"`
	Reason      string `json:"reason,omitempty"`
}

type InterviewIDRequest struct {
	InterviewID string `json:"interview_id"`
}

type ParticipantRequest struct {
	ParticipantID string `json:"participant_id"`
}

type InterviewList struct {
	Interviews []domain.Interview `json:"interviews"`
}

type CreateDemandRequest struct {
	EmployerID string            `json:"employer_id"`
	Spec       domain.DemandSpec `json:"spec"`
}

type SuggestPoolCandidateRequest struct {
	DemandID    string `json:"demand_id"`
	CandidateID string `json:"candidate_id"`
}

type AddManualProfileRequest struct {
	DemandID string               `json:"demand_id"`
	Profile  domain.ManualProfile `json:"profile"`
}

type UpdateDemandStatusRequest struct {
	DemandID string              `json:"demand_id"`
	Status   domain.DemandStatus `json:"status"`
}

type DemandIDRequest struct {
	DemandID string `json:"demand_id"`
}

type DemandList struct {
	Demands []domain.TalentDemand `json:"demands"`
}

type GetNotificationsRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type GetNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	TotalCount    int32                 `json:"total_count"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notification_id"`
}

type MarkNotificationReadResponse struct {
	Success bool `json:"success"`
}

type UpdateContactRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
