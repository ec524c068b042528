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

type verificationService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
}

func NewVerificationService(store repository.Store, locker lock.Locker, notifier Notifier) VerificationService {
	return &verificationService{store: store, locker: locker, notifier: notifier}
}

func (s *verificationService) ComputeEligibility(ctx context.Context, ownerID string) (*domain.Eligibility, error) {
	return eligibility(ctx, s.store.Repos(), ownerID)
}

func eligibility(ctx context.Context, repos repository.Repositories, ownerID string) (*domain.Eligibility, error) {
	n, err := repos.Documents.CountByOwnerAndStatus(ctx, ownerID, domain.BlockingDocumentStatuses)
	if err != nil {
		return nil, persistErr("count blocking documents", "document", ownerID, err)
	}
	return &domain.Eligibility{CanVerify: n == 0, BlockingCount: n}, nil
}

func (s *verificationService) SubmitForVerification(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error) {
	if !actor.HasRole(domain.RoleCandidate, domain.RoleEmployer) {
		return nil, domain.NewAuthorizationError(actor, "submit for verification")
	}

	logger.EnterMethod("verificationService.SubmitForVerification", "ownerID", actor.ID)
	rec, err := s.transition(ctx, actor.ID, actor.Role, func(rec *domain.VerificationRecord) error {
		if !rec.Status.CanTransitionTo(domain.VerificationStatusPending) {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "cannot submit while %s", strings.ToLower(string(rec.Status)))
		}
		ts := now()
		logger.Transition("verification record", rec.OwnerID, rec.Status, domain.VerificationStatusPending, actor.ID)
		rec.Status = domain.VerificationStatusPending
		rec.SubmittedAt = &ts
		rec.RejectionReason = ""
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("verificationService.SubmitForVerification", err, "ownerID", actor.ID)
		return nil, err
	}
	logger.ExitMethod("verificationService.SubmitForVerification", "ownerID", actor.ID)
	return rec, nil
}

// Verify requires staff, a different actor than the owner, and no blocking documents.
func (s *verificationService) Verify(ctx context.Context, actor domain.Actor, ownerID, costHint string) (*domain.VerificationRecord, error) {
	if err := s.authorizeReview(actor, ownerID, "verify"); err != nil {
		return nil, err
	}

	logger.EnterMethod("verificationService.Verify", "ownerID", ownerID, "reviewerID", actor.ID)
	rec, err := s.transition(ctx, ownerID, "", func(rec *domain.VerificationRecord) error {
		if !rec.Status.CanTransitionTo(domain.VerificationStatusVerified) {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "cannot verify while %s", strings.ToLower(string(rec.Status)))
		}
		if costHint != "" && rec.Role != domain.RoleCandidate {
			return domain.NewValidationError("cost_hint", "only candidate records carry a cost hint")
		}
		return nil
	}, func(ctx context.Context, repos repository.Repositories, rec *domain.VerificationRecord) error {
		elig, err := eligibility(ctx, repos, rec.OwnerID)
		if err != nil {
			return err
		}
		if !elig.CanVerify {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "%d blocking document(s) remain", elig.BlockingCount)
		}
		ts := now()
		logger.Transition("verification record", rec.OwnerID, rec.Status, domain.VerificationStatusVerified, actor.ID)
		rec.Status = domain.VerificationStatusVerified
		rec.ReviewerID = actor.ID
		rec.ResolvedAt = &ts
		rec.RejectionReason = ""
		if costHint != "" {
			rec.CostHint = strings.TrimSpace(costHint)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("verificationService.Verify", err, "ownerID", ownerID)
		return nil, err
	}

	s.notifier.Notify(ctx, ownerID, "Profile verified", "Your profile has been verified.", map[string]string{
		"type":   "VERIFICATION_RESOLVED",
		"status": string(rec.Status),
	})
	logger.ExitMethod("verificationService.Verify", "ownerID", ownerID)
	return rec, nil
}

func (s *verificationService) Reject(ctx context.Context, actor domain.Actor, ownerID, reason string) (*domain.VerificationRecord, error) {
	if err := s.authorizeReview(actor, ownerID, "reject"); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("reason", reason); err != nil {
		return nil, err
	}

	logger.EnterMethod("verificationService.Reject", "ownerID", ownerID, "reviewerID", actor.ID)
	rec, err := s.transition(ctx, ownerID, "", func(rec *domain.VerificationRecord) error {
		if !rec.Status.CanTransitionTo(domain.VerificationStatusRejected) {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "cannot reject while %s", strings.ToLower(string(rec.Status)))
		}
		ts := now()
		logger.Transition("verification record", rec.OwnerID, rec.Status, domain.VerificationStatusRejected, actor.ID)
		rec.Status = domain.VerificationStatusRejected
		rec.RejectionReason = strings.TrimSpace(reason)
		rec.ReviewerID = actor.ID
		rec.ResolvedAt = &ts
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("verificationService.Reject", err, "ownerID", ownerID)
		return nil, err
	}

	s.notifier.Notify(ctx, ownerID, "Profile verification rejected", "Reason: "+rec.RejectionReason, map[string]string{
		"type":   "VERIFICATION_RESOLVED",
		"status": string(rec.Status),
	})
	logger.ExitMethod("verificationService.Reject", "ownerID", ownerID)
	return rec, nil
}

func (s *verificationService) Resolve(ctx context.Context, actor domain.Actor, ownerID string, decision domain.ReviewDecision, reason, costHint string) (*domain.VerificationRecord, error) {
	switch decision {
	case domain.DecisionApprove:
		return s.Verify(ctx, actor, ownerID, costHint)
	case domain.DecisionReject:
		return s.Reject(ctx, actor, ownerID, reason)
	}
	return nil, domain.NewValidationError("decision", "unknown decision %q", decision)
}

// Revoke lets the owner withdraw a pending submission to regain edit rights.
func (s *verificationService) Revoke(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error) {
	return s.ownerMove(ctx, actor, "revoke", domain.VerificationStatusPending)
}

// Reopen moves a rejected record back to unverified so the owner can revise it.
func (s *verificationService) Reopen(ctx context.Context, actor domain.Actor) (*domain.VerificationRecord, error) {
	return s.ownerMove(ctx, actor, "reopen", domain.VerificationStatusRejected)
}

func (s *verificationService) ownerMove(ctx context.Context, actor domain.Actor, op string, from domain.VerificationStatus) (*domain.VerificationRecord, error) {
	if !actor.HasRole(domain.RoleCandidate, domain.RoleEmployer) {
		return nil, domain.NewAuthorizationError(actor, op+" verification")
	}
	logger.EnterMethod("verificationService."+op, "ownerID", actor.ID)
	rec, err := s.transition(ctx, actor.ID, actor.Role, func(rec *domain.VerificationRecord) error {
		if rec.Status != from {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "can only %s from %s", op, strings.ToLower(string(from)))
		}
		logger.Transition("verification record", rec.OwnerID, rec.Status, domain.VerificationStatusUnverified, actor.ID, "op", op)
		rec.Status = domain.VerificationStatusUnverified
		rec.SubmittedAt = nil
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("verificationService."+op, err, "ownerID", actor.ID)
		return nil, err
	}
	logger.ExitMethod("verificationService."+op, "ownerID", actor.ID)
	return rec, nil
}

func (s *verificationService) AdminRevoke(ctx context.Context, actor domain.Actor, ownerID, reason string) (*domain.VerificationRecord, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewAuthorizationError(actor, "revoke verification")
	}
	if actor.ID == ownerID {
		return nil, domain.NewAuthorizationError(actor, "revoke own verification")
	}

	logger.EnterMethod("verificationService.AdminRevoke", "ownerID", ownerID, "adminID", actor.ID)
	rec, err := s.transition(ctx, ownerID, "", func(rec *domain.VerificationRecord) error {
		if rec.Status != domain.VerificationStatusVerified {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "only verified records can be revoked")
		}
		ts := now()
		logger.Transition("verification record", rec.OwnerID, rec.Status, domain.VerificationStatusUnverified, actor.ID, "op", "admin revoke")
		rec.Status = domain.VerificationStatusUnverified
		rec.RejectionReason = strings.TrimSpace(reason)
		rec.ReviewerID = actor.ID
		rec.ResolvedAt = &ts
		rec.SubmittedAt = nil
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("verificationService.AdminRevoke", err, "ownerID", ownerID)
		return nil, err
	}

	message := "Your verified status was revoked by an administrator."
	if rec.RejectionReason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, rec.RejectionReason)
	}
	s.notifier.Notify(ctx, ownerID, "Verification revoked", message, map[string]string{
		"type":   "VERIFICATION_REVOKED",
		"status": string(rec.Status),
	})
	logger.ExitMethod("verificationService.AdminRevoke", "ownerID", ownerID)
	return rec, nil
}

// UpdateProfile merges fields into the owner's profile. Empty values delete keys.
// Profiles are frozen while a review is pending.
func (s *verificationService) UpdateProfile(ctx context.Context, actor domain.Actor, fields map[string]string) (*domain.VerificationRecord, error) {
	if !actor.HasRole(domain.RoleCandidate, domain.RoleEmployer) {
		return nil, domain.NewAuthorizationError(actor, "update profile")
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("fields", "at least one field is required")
	}
	for k := range fields {
		if strings.TrimSpace(k) == "" {
			return nil, domain.NewValidationError("fields", "field names must not be empty")
		}
	}

	return s.transition(ctx, actor.ID, actor.Role, func(rec *domain.VerificationRecord) error {
		if rec.Status == domain.VerificationStatusPending {
			return domain.NewConflictError("verification record", rec.OwnerID, rec, "profile is locked while verification is pending")
		}
		if rec.Profile == nil {
			rec.Profile = make(map[string]string, len(fields))
		}
		for k, v := range fields {
			if v == "" {
				delete(rec.Profile, k)
				continue
			}
			rec.Profile[k] = v
		}
		return nil
	})
}

func (s *verificationService) Get(ctx context.Context, actor domain.Actor, ownerID string) (*domain.VerificationRecord, error) {
	if !canRead(actor, ownerID) {
		return nil, domain.NewAuthorizationError(actor, "read verification")
	}
	rec, err := s.store.Repos().Verifications.GetByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.VerificationRecord{OwnerID: ownerID, Status: domain.VerificationStatusUnverified}, nil
	}
	if err != nil {
		return nil, persistErr("load verification", "verification record", ownerID, err)
	}
	return rec, nil
}

func (s *verificationService) authorizeReview(actor domain.Actor, ownerID, op string) error {
	if !actor.IsStaff() {
		return domain.NewAuthorizationError(actor, op+" verification")
	}
	if actor.ID == ownerID {
		return domain.NewAuthorizationError(actor, op+" own verification")
	}
	return nil
}

// transition loads (or creates, when role is known) the owner's record under
// the owner lock, applies the mutators in order and persists the result.
func (s *verificationService) transition(ctx context.Context, ownerID string, role domain.Role, mutate func(rec *domain.VerificationRecord) error,
	more ...func(ctx context.Context, repos repository.Repositories, rec *domain.VerificationRecord) error) (*domain.VerificationRecord, error) {

	return txResult(ctx, s.store, s.locker, []string{lock.OwnerKey(ownerID)},
		func(repos repository.Repositories) (*domain.VerificationRecord, error) {
			rec, err := s.loadForUpdate(ctx, repos, ownerID, role)
			if err != nil {
				return nil, err
			}
			if err := mutate(rec); err != nil {
				return nil, err
			}
			for _, fn := range more {
				if err := fn(ctx, repos, rec); err != nil {
					return nil, err
				}
			}
			rec.UpdatedAt = now()
			if err := repos.Verifications.Update(ctx, rec); err != nil {
				return nil, persistErr("update verification", "verification record", ownerID, err)
			}
			return rec, nil
		},
		func(repos repository.Repositories) (any, error) {
			return repos.Verifications.GetByOwner(ctx, ownerID)
		})
}

// loadForUpdate returns the record, creating it when it does not exist yet.
// Without a role from the caller or a contact entry the record is created
// role-less; the owner's first own action fills the role in.
func (s *verificationService) loadForUpdate(ctx context.Context, repos repository.Repositories, ownerID string, role domain.Role) (*domain.VerificationRecord, error) {
	rec, err := repos.Verifications.GetByOwner(ctx, ownerID)
	if err == nil {
		if rec.Role == "" && role != "" {
			rec.Role = role
		}
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, persistErr("load verification", "verification record", ownerID, err)
	}
	if role == "" {
		contact, err := repos.Contacts.GetByUserID(ctx, ownerID)
		switch {
		case err == nil:
			role = contact.Role
		case !errors.Is(err, repository.ErrNotFound):
			return nil, persistErr("load contact", "verification record", ownerID, err)
		}
	}
	return ensureVerificationRecord(ctx, repos, ownerID, role)
}
