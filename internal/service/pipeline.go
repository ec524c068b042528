package service

import (
	"context"
	"fmt"
	"strings"

	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type pipelineService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
	policy   Policy
}

func NewPipelineService(store repository.Store, locker lock.Locker, notifier Notifier, policy Policy) PipelineService {
	return &pipelineService{store: store, locker: locker, notifier: notifier, policy: policy}
}

func (s *pipelineService) EnsureEntry(ctx context.Context, employerID, candidateID string) (*domain.PipelineEntry, error) {
	if err := validatePair(employerID, candidateID); err != nil {
		return nil, err
	}
	return txResult(ctx, s.store, s.locker, []string{lock.PairKey(employerID, candidateID)},
		func(repos repository.Repositories) (*domain.PipelineEntry, error) {
			return ensurePipelineEntry(ctx, repos, employerID, candidateID)
		}, nil)
}

func (s *pipelineService) SetStatus(ctx context.Context, actor domain.Actor, employerID, candidateID string, status domain.PipelineStatus, expected *domain.PipelineStatus) (*domain.PipelineEntry, error) {
	if !actor.IsStaff() && !(actor.Role == domain.RoleEmployer && actor.ID == employerID) {
		return nil, domain.NewAuthorizationError(actor, "set pipeline status")
	}
	if err := validatePair(employerID, candidateID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown pipeline status %q", status)
	}
	if expected != nil && !expected.Valid() {
		return nil, domain.NewValidationError("expected", "unknown pipeline status %q", *expected)
	}

	logger.EnterMethod("pipelineService.SetStatus", "employerID", employerID, "candidateID", candidateID, "status", status)
	pairKey := lock.PairKey(employerID, candidateID)
	changed := false
	entry, err := txResult(ctx, s.store, s.locker, []string{pairKey},
		func(repos repository.Repositories) (*domain.PipelineEntry, error) {
			entry, err := ensurePipelineEntry(ctx, repos, employerID, candidateID)
			if err != nil {
				return nil, err
			}
			if expected != nil && entry.Status != *expected {
				return nil, domain.NewConflictError("pipeline entry", pairKey, entry,
					"status is %s, expected %s", strings.ToLower(string(entry.Status)), strings.ToLower(string(*expected)))
			}
			if !entry.Status.CanTransitionTo(status, s.policy.PipelineMode, actor.IsStaff()) {
				return nil, domain.NewConflictError("pipeline entry", pairKey, entry,
					"cannot move from %s back to %s", strings.ToLower(string(entry.Status)), strings.ToLower(string(status)))
			}
			if entry.Status == status {
				return entry, nil
			}
			logger.Transition("pipeline entry", pairKey, entry.Status, status, actor.ID)
			entry.Status = status
			entry.UpdatedAt = now()
			if err := repos.Pipeline.Update(ctx, entry); err != nil {
				return nil, persistErr("update pipeline entry", "pipeline entry", pairKey, err)
			}
			changed = true
			return entry, nil
		},
		func(repos repository.Repositories) (any, error) {
			return repos.Pipeline.Get(ctx, employerID, candidateID)
		})
	if err != nil {
		logger.ExitMethodWithError("pipelineService.SetStatus", err, "employerID", employerID, "candidateID", candidateID)
		return nil, err
	}

	// The funnel is private to the employer; only moves made on their behalf are announced.
	if changed && actor.ID != employerID {
		s.notifier.Notify(ctx, employerID, "Pipeline updated",
			fmt.Sprintf("A candidate in your pipeline moved to %s.", strings.ToLower(string(entry.Status))),
			map[string]string{
				"type":         "PIPELINE_UPDATED",
				"candidate_id": candidateID,
				"status":       string(entry.Status),
			})
	}

	logger.ExitMethod("pipelineService.SetStatus", "employerID", employerID, "candidateID", candidateID, "status", entry.Status)
	return entry, nil
}

func (s *pipelineService) Get(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.PipelineEntry, error) {
	if !canRead(actor, employerID) {
		return nil, domain.NewAuthorizationError(actor, "read pipeline entry")
	}
	entry, err := s.store.Repos().Pipeline.Get(ctx, employerID, candidateID)
	if err != nil {
		return nil, persistErr("load pipeline entry", "pipeline entry", lock.PairKey(employerID, candidateID), err)
	}
	return entry, nil
}

func (s *pipelineService) ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.PipelineEntry, error) {
	if !canRead(actor, employerID) {
		return nil, domain.NewAuthorizationError(actor, "list pipeline")
	}
	entries, err := s.store.Repos().Pipeline.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, asDomainError("list pipeline", err)
	}
	return entries, nil
}

func ensurePipelineEntry(ctx context.Context, repos repository.Repositories, employerID, candidateID string) (*domain.PipelineEntry, error) {
	entry, err := repos.Pipeline.CreateIfAbsent(ctx, &domain.PipelineEntry{
		EmployerID:  employerID,
		CandidateID: candidateID,
		Status:      domain.PipelineStatusPotential,
		UpdatedAt:   now(),
	})
	if err != nil {
		return nil, persistErr("ensure pipeline entry", "pipeline entry", lock.PairKey(employerID, candidateID), err)
	}
	return entry, nil
}

func validatePair(employerID, candidateID string) error {
	if err := requireNonEmpty("employer_id", employerID); err != nil {
		return err
	}
	if err := requireNonEmpty("candidate_id", candidateID); err != nil {
		return err
	}
	if employerID == candidateID {
		return domain.NewValidationError("candidate_id", "must differ from employer_id")
	}
	return nil
}
