package repository

import (
	"context"
	"errors"
	"time"

	"hireflow/internal/domain"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrDuplicate       = errors.New("record already exists")
)

// Updates are optimistic: the caller's Version must match the stored row, and
// on success the stored and caller versions are both incremented.

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	CountByOwnerAndStatus(ctx context.Context, ownerID string, statuses []domain.DocumentStatus) (int, error)
	CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error)
}

type VerificationRepository interface {
	Create(ctx context.Context, rec *domain.VerificationRecord) error
	GetByOwner(ctx context.Context, ownerID string) (*domain.VerificationRecord, error)
	Update(ctx context.Context, rec *domain.VerificationRecord) error
	CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error)
}

type PipelineRepository interface {
	// CreateIfAbsent inserts entry unless the pair already exists and returns the stored row.
	CreateIfAbsent(ctx context.Context, entry *domain.PipelineEntry) (*domain.PipelineEntry, error)
	Get(ctx context.Context, employerID, candidateID string) (*domain.PipelineEntry, error)
	Update(ctx context.Context, entry *domain.PipelineEntry) error
	ListByEmployer(ctx context.Context, employerID string) ([]domain.PipelineEntry, error)
}

type QuoteRepository interface {
	Create(ctx context.Context, q *domain.QuoteRequest) error
	GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error)
	Update(ctx context.Context, q *domain.QuoteRequest) error
	// FindOpenForPair returns the pending or approved request for the pair, or ErrNotFound.
	FindOpenForPair(ctx context.Context, employerID, candidateID string) (*domain.QuoteRequest, error)
	ListByEmployer(ctx context.Context, employerID string) ([]domain.QuoteRequest, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.QuoteRequest, error)
	CountByStatus(ctx context.Context, status domain.QuoteStatus) (int, error)
}

type InterviewRepository interface {
	Create(ctx context.Context, iv *domain.Interview) error
	GetByID(ctx context.Context, id string) (*domain.Interview, error)
	Update(ctx context.Context, iv *domain.Interview) error
	ListByParticipant(ctx context.Context, actorID string) ([]domain.Interview, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Interview, error)
}

type DemandRepository interface {
	Create(ctx context.Context, d *domain.TalentDemand) error
	GetByID(ctx context.Context, id string) (*domain.TalentDemand, error)
	Update(ctx context.Context, d *domain.TalentDemand) error
	Delete(ctx context.Context, id string) error
	ListByEmployer(ctx context.Context, employerID string) ([]domain.TalentDemand, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID string) error
}

type ContactRepository interface {
	Upsert(ctx context.Context, c *domain.Contact) error
	GetByUserID(ctx context.Context, userID string) (*domain.Contact, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Contact, error)
}

// Repositories is the set of repositories bound to one connection or transaction.
type Repositories struct {
	Documents     DocumentRepository
	Verifications VerificationRepository
	Pipeline      PipelineRepository
	Quotes        QuoteRepository
	Interviews    InterviewRepository
	Demands       DemandRepository
	Notifications NotificationRepository
	Contacts      ContactRepository
}

// Store hands out repositories and runs units of work. Everything written through
// the repositories passed to fn is committed together or not at all.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
}
