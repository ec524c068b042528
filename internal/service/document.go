package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type documentService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
}

func NewDocumentService(store repository.Store, locker lock.Locker, notifier Notifier) DocumentService {
	return &documentService{store: store, locker: locker, notifier: notifier}
}

func (s *documentService) Submit(ctx context.Context, actor domain.Actor, kind, blobRef string) (*domain.Document, error) {
	if !actor.HasRole(domain.RoleCandidate, domain.RoleEmployer) {
		return nil, domain.NewAuthorizationError(actor, "submit document")
	}
	if err := requireNonEmpty("kind", kind); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("blob_ref", blobRef); err != nil {
		return nil, err
	}

	logger.EnterMethod("documentService.Submit", "ownerID", actor.ID, "kind", kind)
	doc, err := txResult(ctx, s.store, s.locker, []string{lock.OwnerKey(actor.ID)},
		func(repos repository.Repositories) (*domain.Document, error) {
			rec, err := ensureVerificationRecord(ctx, repos, actor.ID, actor.Role)
			if err != nil {
				return nil, err
			}
			// A new pending document reopens review for a verified owner.
			if rec.Status == domain.VerificationStatusVerified {
				rec.Status = domain.VerificationStatusUnverified
				rec.UpdatedAt = now()
				if err := repos.Verifications.Update(ctx, rec); err != nil {
					return nil, persistErr("update verification", "verification record", actor.ID, err)
				}
			}
			ts := now()
			doc := &domain.Document{
				ID:        newID(),
				OwnerID:   actor.ID,
				Kind:      strings.TrimSpace(kind),
				BlobRef:   blobRef,
				Status:    domain.DocumentStatusPending,
				CreatedAt: ts,
				UpdatedAt: ts,
			}
			if err := repos.Documents.Create(ctx, doc); err != nil {
				return nil, persistErr("create document", "document", doc.ID, err)
			}
			return doc, nil
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("documentService.Submit", err, "ownerID", actor.ID)
		return nil, err
	}

	logger.ExitMethod("documentService.Submit", "documentID", doc.ID)
	return doc, nil
}

func (s *documentService) Approve(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error) {
	return s.Review(ctx, actor, docID, domain.DecisionApprove, "")
}

func (s *documentService) Reject(ctx context.Context, actor domain.Actor, docID, reason string) (*domain.Document, error) {
	return s.Review(ctx, actor, docID, domain.DecisionReject, reason)
}

// Review resolves a pending document. Resolutions are terminal; a second
// review fails with the current document attached.
func (s *documentService) Review(ctx context.Context, actor domain.Actor, docID string, decision domain.ReviewDecision, reason string) (*domain.Document, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "review document")
	}
	var next domain.DocumentStatus
	switch decision {
	case domain.DecisionApprove:
		next = domain.DocumentStatusVerified
	case domain.DecisionReject:
		next = domain.DocumentStatusRejected
		if err := requireNonEmpty("reason", reason); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("decision", "unknown decision %q", decision)
	}

	current, err := s.load(ctx, s.store.Repos(), docID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID == actor.ID {
		return nil, domain.NewAuthorizationError(actor, "review own document")
	}

	logger.EnterMethod("documentService.Review", "documentID", docID, "decision", decision, "reviewerID", actor.ID)
	doc, err := txResult(ctx, s.store, s.locker, []string{lock.OwnerKey(current.OwnerID)},
		func(repos repository.Repositories) (*domain.Document, error) {
			doc, err := s.load(ctx, repos, docID)
			if err != nil {
				return nil, err
			}
			if !doc.Status.CanTransitionTo(next) {
				return nil, domain.NewConflictError("document", doc.ID, doc, "document is already %s", strings.ToLower(string(doc.Status)))
			}
			ts := now()
			logger.Transition("document", doc.ID, doc.Status, next, actor.ID)
			doc.Status = next
			doc.ReviewerID = actor.ID
			doc.ReviewedAt = &ts
			doc.UpdatedAt = ts
			if next == domain.DocumentStatusRejected {
				doc.RejectionReason = strings.TrimSpace(reason)
			}
			if err := repos.Documents.Update(ctx, doc); err != nil {
				return nil, persistErr("update document", "document", doc.ID, err)
			}
			return doc, nil
		}, s.reload(ctx, docID))
	if err != nil {
		logger.ExitMethodWithError("documentService.Review", err, "documentID", docID)
		return nil, err
	}

	message := fmt.Sprintf("Your %s document was approved.", doc.Kind)
	if doc.Status == domain.DocumentStatusRejected {
		message = fmt.Sprintf("Your %s document was rejected: %s", doc.Kind, doc.RejectionReason)
	}
	s.notifier.Notify(ctx, doc.OwnerID, "Document reviewed", message, map[string]string{
		"type":        "DOCUMENT_REVIEWED",
		"document_id": doc.ID,
		"status":      string(doc.Status),
	})

	logger.ExitMethod("documentService.Review", "documentID", doc.ID, "status", doc.Status)
	return doc, nil
}

// Withdraw deletes a still-pending document on behalf of its owner.
func (s *documentService) Withdraw(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error) {
	logger.EnterMethod("documentService.Withdraw", "documentID", docID, "actorID", actor.ID)

	doc, err := txResult(ctx, s.store, s.locker, []string{lock.OwnerKey(actor.ID)},
		func(repos repository.Repositories) (*domain.Document, error) {
			doc, err := s.load(ctx, repos, docID)
			if err != nil {
				return nil, err
			}
			if doc.OwnerID != actor.ID {
				return nil, domain.NewAuthorizationError(actor, "withdraw document")
			}
			if doc.Status != domain.DocumentStatusPending {
				return nil, domain.NewConflictError("document", doc.ID, doc, "only pending documents can be withdrawn")
			}
			if err := repos.Documents.Delete(ctx, doc.ID); err != nil {
				return nil, persistErr("delete document", "document", doc.ID, err)
			}
			return doc, nil
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("documentService.Withdraw", err, "documentID", docID)
		return nil, err
	}

	logger.ExitMethod("documentService.Withdraw", "documentID", docID)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, error) {
	doc, err := s.load(ctx, s.store.Repos(), docID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, doc.OwnerID) {
		return nil, domain.NewAuthorizationError(actor, "read document")
	}
	return doc, nil
}

func (s *documentService) ListByOwner(ctx context.Context, actor domain.Actor, ownerID string) ([]domain.Document, error) {
	if !canRead(actor, ownerID) {
		return nil, domain.NewAuthorizationError(actor, "list documents")
	}
	docs, err := s.store.Repos().Documents.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, asDomainError("list documents", err)
	}
	return docs, nil
}

func (s *documentService) load(ctx context.Context, repos repository.Repositories, docID string) (*domain.Document, error) {
	doc, err := repos.Documents.GetByID(ctx, docID)
	if err != nil {
		return nil, persistErr("load document", "document", docID, err)
	}
	return doc, nil
}

func (s *documentService) reload(ctx context.Context, docID string) func(repository.Repositories) (any, error) {
	return func(repos repository.Repositories) (any, error) {
		return s.load(ctx, repos, docID)
	}
}

// ensureVerificationRecord returns the owner's record, creating an unverified
// one on first contact.
func ensureVerificationRecord(ctx context.Context, repos repository.Repositories, ownerID string, role domain.Role) (*domain.VerificationRecord, error) {
	rec, err := repos.Verifications.GetByOwner(ctx, ownerID)
	if err == nil {
		if rec.Role == "" && role != "" {
			rec.Role = role
			rec.UpdatedAt = now()
			if err := repos.Verifications.Update(ctx, rec); err != nil {
				return nil, persistErr("update verification", "verification record", ownerID, err)
			}
		}
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, persistErr("load verification", "verification record", ownerID, err)
	}
	rec = &domain.VerificationRecord{
		OwnerID:   ownerID,
		Role:      role,
		Status:    domain.VerificationStatusUnverified,
		UpdatedAt: now(),
	}
	if err := repos.Verifications.Create(ctx, rec); err != nil {
		return nil, persistErr("create verification", "verification record", ownerID, err)
	}
	return rec, nil
}
