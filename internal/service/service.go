package service

import (
	"context"
	"time"

	"hireflow/internal/config"
	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/repository"
)

type DocumentService interface {
	Submit(ctx context.Context, actor domain.Actor, kind, blobRef string) (*domain.Document, error)
	Approve(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error)
	Reject(ctx context.Context, actor domain.Actor, docID, reason string) (*domain.Document, error)
	Review(ctx context.Context, actor domain.Actor, docID string, decision domain.ReviewDecision, reason string) (*domain.Document, error)
	Withdraw(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error)
	Get(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error)
	ListByOwner(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Document, error)
}

type VerificationService interface {
	ComputeEligibility(ctx context.Context, ownerID string) (*domain.Eligibility, error)
	SubmitForVerification(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error)
	Verify(ctx context.Context, actor domain.Actor, ownerID, costHint string) (*domain.VerificationRecord, error)
	Reject(ctx context.Context, actor domain.Actor, ownerID, reason string) (*domain.VerificationRecord, error)
	Resolve(ctx context.Context, actor domain.Actor, ownerID string, decision domain.ReviewDecision, reason, costHint string) (*domain.VerificationRecord, error)
	Revoke(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error)
	Reopen(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error)
	AdminRevoke(ctx context.Context, actor domain.Actor, ownerID, reason string) (*domain.VerificationRecord, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, fields map[string]string) (*domain.VerificationRecord, error)
	Get(ctx context.Context, actor domain.Actor, ownerID string) (*domain.VerificationRecord, error)
}

type PipelineService interface {
	EnsureEntry(ctx context.Context, employerID, candidateID string) (*domain.PipelineEntry, error)
	// SetStatus upserts the entry. A non-nil expected makes the write a compare-and-swap.
	SetStatus(ctx context.Context, actor domain.Actor, employerID, candidateID string, status domain.PipelineStatus, expected *domain.PipelineStatus) (*domain.PipelineEntry, error)
	Get(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.PipelineEntry, error)
	ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.PipelineEntry, error)
}

type QuoteService interface {
	Request(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.QuoteRequest, error)
	Resolve(ctx context.Context, actor domain.Actor, requestID string, decision domain.ReviewDecision, costEstimate string, options []domain.QuoteOption) (*domain.QuoteRequest, error)
	AddOption(ctx context.Context, actor domain.Actor, requestID string, option domain.QuoteOption) (*domain.QuoteRequest, error)
	SelectOption(ctx context.Context, actor domain.Actor, requestID, optionID string) (*domain.QuoteRequest, error)
	MarkFinalized(ctx context.Context, actor domain.Actor, requestID string) (*domain.QuoteRequest, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, requestID string, status domain.QuoteStatus, note string) (*domain.QuoteRequest, error)
	Get(ctx context.Context, actor domain.Actor, requestID string) (*domain.QuoteRequest, error)
	FindOpenForPair(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.QuoteRequest, error)
	ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.QuoteRequest, error)
	// ExpireStale rejects pending requests made before cutoff and returns how many changed.
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type InterviewService interface {
	Schedule(ctx context.Context, actor domain.Actor, employerID, candidateID, title string, proposedTimes []domain.SlotProposal, notes string) (*domain.Interview, error)
	RespondToSlot(ctx context.Context, actor domain.Actor, interviewID, slotID string, accepted bool) (*domain.Interview, error)
	ProposeSlots(ctx context.Context, actor domain.Actor, interviewID string, proposedTimes []domain.SlotProposal) (*domain.Interview, error)
	Cancel(ctx context.Context, actor domain.Actor, interviewID, reason string) (*domain.Interview, error)
	Complete(ctx context.Context, actor domain.Actor, interviewID string) (*domain.Interview, error)
	Get(ctx context.Context, actor domain.Actor, interviewID string) (*domain.Interview, error)
	ListByParticipant(ctx context.Context, actor domain.Actor, participantID string) ([]domain.Interview, error)
	// ExpireStale cancels pending interviews created before cutoff and returns how many changed.
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type DemandService interface {
	Create(ctx context.Context, actor domain.Actor, employerID string, spec domain.DemandSpec) (*domain.TalentDemand, error)
	SuggestPoolCandidate(ctx context.Context, actor domain.Actor, demandID, candidateID string) (*domain.TalentDemand, error)
	AddManualProfile(ctx context.Context, actor domain.Actor, demandID string, profile domain.ManualProfile) (*domain.TalentDemand, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, demandID string, status domain.DemandStatus) (*domain.TalentDemand, error)
	Delete(ctx context.Context, actor domain.Actor, demandID string) (*domain.TalentDemand, error)
	Get(ctx context.Context, actor domain.Actor, demandID string) (*domain.TalentDemand, error)
	ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.TalentDemand, error)
}

type NotificationService interface {
	Notifier
	NotifyRole(ctx context.Context, role domain.Role, title, message string, attrs map[string]string)
	GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, actor domain.Actor, notificationID string) error
	UpdateContact(ctx context.Context, actor domain.Actor, email, name string) (*domain.Contact, error)
}

// Notifier delivers a message to one user. Delivery failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, attrs map[string]string)
}

type EmailService interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}

type PushService interface {
	Push(ctx context.Context, userID, title, body string, data map[string]string) error
}

// Policy holds the configurable workflow rules.
type Policy struct {
	PipelineMode             domain.PipelineMode
	QuotePendingTTL          time.Duration
	InterviewPendingTTL      time.Duration
	AllSlotsRejected         domain.SlotRejectionPolicy
	AllowUnverifiedEmployers bool
}

// NewPolicy builds the workflow policy from its configuration section.
func NewPolicy(cfg config.WorkflowConfig) Policy {
	return Policy{
		PipelineMode:             cfg.PipelineMode,
		QuotePendingTTL:          cfg.QuotePendingTTL,
		InterviewPendingTTL:      cfg.InterviewPendingTTL,
		AllSlotsRejected:         cfg.AllSlotsRejected,
		AllowUnverifiedEmployers: cfg.AllowUnverifiedEmployers,
	}
}

func DefaultPolicy() Policy {
	return Policy{
		PipelineMode:     domain.PipelineModePermissive,
		AllSlotsRejected: domain.SlotRejectionKeepPending,
	}
}

// Services bundles the workflow services sharing one store, locker and notifier.
type Services struct {
	Documents     DocumentService
	Verifications VerificationService
	Pipeline      PipelineService
	Quotes        QuoteService
	Interviews    InterviewService
	Demands       DemandService
	Notifications NotificationService
}

func NewServices(store repository.Store, locker lock.Locker, email EmailService, push PushService, policy Policy) *Services {
	notes := NewNotificationService(store, email, push)
	return &Services{
		Documents:     NewDocumentService(store, locker, notes),
		Verifications: NewVerificationService(store, locker, notes),
		Pipeline:      NewPipelineService(store, locker, notes, policy),
		Quotes:        NewQuoteService(store, locker, notes, policy),
		Interviews:    NewInterviewService(store, locker, notes, policy),
		Demands:       NewDemandService(store, locker, notes, policy),
		Notifications: notes,
	}
}
