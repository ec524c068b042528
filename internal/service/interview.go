package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type interviewService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
	policy   Policy
}

func NewInterviewService(store repository.Store, locker lock.Locker, notifier Notifier, policy Policy) InterviewService {
	return &interviewService{store: store, locker: locker, notifier: notifier, policy: policy}
}

func (s *interviewService) Schedule(ctx context.Context, actor domain.Actor, employerID, candidateID, title string, proposedTimes []domain.SlotProposal, notes string) (*domain.Interview, error) {
	if err := validatePair(employerID, candidateID); err != nil {
		return nil, err
	}
	isEmployer := actor.Role == domain.RoleEmployer && actor.ID == employerID
	isCandidate := actor.Role == domain.RoleCandidate && actor.ID == candidateID
	if !isEmployer && !isCandidate {
		return nil, domain.NewAuthorizationError(actor, "schedule interview")
	}
	if err := requireNonEmpty("title", title); err != nil {
		return nil, err
	}
	if len(proposedTimes) == 0 {
		return nil, domain.NewValidationError("proposed_times", "at least one proposed time is required")
	}
	slots, err := buildSlots(actor.ID, proposedTimes)
	if err != nil {
		return nil, err
	}

	logger.EnterMethod("interviewService.Schedule", "employerID", employerID, "candidateID", candidateID)
	iv, err := txResult(ctx, s.store, s.locker, []string{lock.PairKey(employerID, candidateID)},
		func(repos repository.Repositories) (*domain.Interview, error) {
			if isEmployer {
				if err := requireVerifiedEmployer(ctx, repos, s.policy, employerID); err != nil {
					return nil, err
				}
			}
			if _, err := ensurePipelineEntry(ctx, repos, employerID, candidateID); err != nil {
				return nil, err
			}
			ts := now()
			iv := &domain.Interview{
				ID:            newID(),
				EmployerID:    employerID,
				CandidateID:   candidateID,
				ScheduledBy:   actor.ID,
				Title:         strings.TrimSpace(title),
				ProposedTimes: slots,
				Status:        domain.InterviewStatusPending,
				RoomToken:     newID(),
				Notes:         strings.TrimSpace(notes),
				CreatedAt:     ts,
				UpdatedAt:     ts,
			}
			if err := repos.Interviews.Create(ctx, iv); err != nil {
				return nil, persistErr("create interview", "interview", iv.ID, err)
			}
			return iv, nil
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("interviewService.Schedule", err, "employerID", employerID, "candidateID", candidateID)
		return nil, err
	}

	s.notifier.Notify(ctx, counterpart(iv, actor.ID), "Interview proposed",
		fmt.Sprintf("%q was proposed with %d time slot(s).", iv.Title, len(iv.ProposedTimes)),
		interviewAttrs("INTERVIEW_SCHEDULED", iv))
	logger.ExitMethod("interviewService.Schedule", "interviewID", iv.ID)
	return iv, nil
}

// RespondToSlot records the counterpart's answer to one slot. The first
// acceptance confirms the interview; every later acceptance is a conflict.
func (s *interviewService) RespondToSlot(ctx context.Context, actor domain.Actor, interviewID, slotID string, accepted bool) (*domain.Interview, error) {
	if err := requireNonEmpty("slot_id", slotID); err != nil {
		return nil, err
	}

	logger.EnterMethod("interviewService.RespondToSlot", "interviewID", interviewID, "slotID", slotID, "accepted", accepted)
	autoCancelled := false
	iv, err := s.mutate(ctx, interviewID, func(repos repository.Repositories, iv *domain.Interview) error {
		if !iv.IsParty(actor.ID) {
			return domain.NewAuthorizationError(actor, "respond to interview slot")
		}
		slot := iv.Slot(slotID)
		if slot == nil {
			return domain.NewNotFoundError("interview slot", slotID)
		}
		if slot.ProposedBy == actor.ID {
			return domain.NewAuthorizationError(actor, "respond to own interview slot")
		}
		if iv.Status != domain.InterviewStatusPending {
			return domain.NewConflictError("interview", iv.ID, iv, "interview is already %s", strings.ToLower(string(iv.Status)))
		}
		if slot.Response != domain.SlotResponseOpen {
			return domain.NewConflictError("interview", iv.ID, iv, "slot was already %s", strings.ToLower(string(slot.Response)))
		}

		if accepted {
			slot.Response = domain.SlotResponseAccepted
			confirmed := slot.DateTime
			iv.ConfirmedTime = &confirmed
			logger.Transition("interview", iv.ID, iv.Status, domain.InterviewStatusConfirmed, actor.ID, "slotID", slot.ID)
			iv.Status = domain.InterviewStatusConfirmed
			return nil
		}

		slot.Response = domain.SlotResponseRejected
		if s.policy.AllSlotsRejected == domain.SlotRejectionCancel && iv.AllSlotsRejected() {
			logger.Transition("interview", iv.ID, iv.Status, domain.InterviewStatusCancelled, domain.SystemActor.ID, "reason", "all slots rejected")
			iv.Status = domain.InterviewStatusCancelled
			iv.CancelledBy = domain.SystemActor.ID
			autoCancelled = true
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("interviewService.RespondToSlot", err, "interviewID", interviewID, "slotID", slotID)
		return nil, err
	}

	switch {
	case iv.Status == domain.InterviewStatusConfirmed:
		msg := fmt.Sprintf("%q is confirmed for %s.", iv.Title, iv.ConfirmedTime.Format(time.RFC3339))
		s.notifier.Notify(ctx, iv.EmployerID, "Interview confirmed", msg, interviewAttrs("INTERVIEW_CONFIRMED", iv))
		s.notifier.Notify(ctx, iv.CandidateID, "Interview confirmed", msg, interviewAttrs("INTERVIEW_CONFIRMED", iv))
	case autoCancelled:
		msg := fmt.Sprintf("%q was cancelled because every proposed time was declined.", iv.Title)
		s.notifier.Notify(ctx, iv.EmployerID, "Interview cancelled", msg, interviewAttrs("INTERVIEW_CANCELLED", iv))
		s.notifier.Notify(ctx, iv.CandidateID, "Interview cancelled", msg, interviewAttrs("INTERVIEW_CANCELLED", iv))
	default:
		s.notifier.Notify(ctx, counterpart(iv, actor.ID), "Interview time declined",
			fmt.Sprintf("A proposed time for %q was declined.", iv.Title), interviewAttrs("INTERVIEW_SLOT_DECLINED", iv))
	}

	logger.ExitMethod("interviewService.RespondToSlot", "interviewID", iv.ID, "status", iv.Status)
	return iv, nil
}

// ProposeSlots appends a counter-proposal while the interview is pending.
func (s *interviewService) ProposeSlots(ctx context.Context, actor domain.Actor, interviewID string, proposedTimes []domain.SlotProposal) (*domain.Interview, error) {
	if len(proposedTimes) == 0 {
		return nil, domain.NewValidationError("proposed_times", "at least one proposed time is required")
	}
	slots, err := buildSlots(actor.ID, proposedTimes)
	if err != nil {
		return nil, err
	}

	iv, err := s.mutate(ctx, interviewID, func(repos repository.Repositories, iv *domain.Interview) error {
		if !iv.IsParty(actor.ID) {
			return domain.NewAuthorizationError(actor, "propose interview slots")
		}
		if iv.Status != domain.InterviewStatusPending {
			return domain.NewConflictError("interview", iv.ID, iv, "interview is already %s", strings.ToLower(string(iv.Status)))
		}
		iv.ProposedTimes = append(iv.ProposedTimes, slots...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, counterpart(iv, actor.ID), "New interview times",
		fmt.Sprintf("%d new time slot(s) were proposed for %q.", len(slots), iv.Title), interviewAttrs("INTERVIEW_SLOTS_PROPOSED", iv))
	return iv, nil
}

func (s *interviewService) Cancel(ctx context.Context, actor domain.Actor, interviewID, reason string) (*domain.Interview, error) {
	logger.EnterMethod("interviewService.Cancel", "interviewID", interviewID)

	iv, err := s.mutate(ctx, interviewID, func(repos repository.Repositories, iv *domain.Interview) error {
		if !iv.IsParty(actor.ID) && !actor.IsStaff() {
			return domain.NewAuthorizationError(actor, "cancel interview")
		}
		if !iv.Status.CanTransitionTo(domain.InterviewStatusCancelled) {
			return domain.NewConflictError("interview", iv.ID, iv, "interview is already %s", strings.ToLower(string(iv.Status)))
		}
		logger.Transition("interview", iv.ID, iv.Status, domain.InterviewStatusCancelled, actor.ID)
		iv.Status = domain.InterviewStatusCancelled
		iv.CancelledBy = actor.ID
		iv.Notes = appendNote(iv.Notes, reason)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("interviewService.Cancel", err, "interviewID", interviewID)
		return nil, err
	}

	msg := fmt.Sprintf("%q was cancelled.", iv.Title)
	for _, id := range []string{iv.EmployerID, iv.CandidateID} {
		if id != actor.ID {
			s.notifier.Notify(ctx, id, "Interview cancelled", msg, interviewAttrs("INTERVIEW_CANCELLED", iv))
		}
	}
	logger.ExitMethod("interviewService.Cancel", "interviewID", iv.ID)
	return iv, nil
}

// Complete closes a confirmed interview and moves the pair to interviewed in
// the same unit of work.
func (s *interviewService) Complete(ctx context.Context, actor domain.Actor, interviewID string) (*domain.Interview, error) {
	logger.EnterMethod("interviewService.Complete", "interviewID", interviewID)

	iv, err := s.mutate(ctx, interviewID, func(repos repository.Repositories, iv *domain.Interview) error {
		if !iv.IsParty(actor.ID) && !actor.IsStaff() {
			return domain.NewAuthorizationError(actor, "complete interview")
		}
		if !iv.Status.CanTransitionTo(domain.InterviewStatusCompleted) {
			return domain.NewConflictError("interview", iv.ID, iv, "only confirmed interviews can be completed, status is %s", strings.ToLower(string(iv.Status)))
		}
		logger.Transition("interview", iv.ID, iv.Status, domain.InterviewStatusCompleted, actor.ID)
		iv.Status = domain.InterviewStatusCompleted
		_, err := forcePipelineStatus(ctx, repos, iv.EmployerID, iv.CandidateID, domain.PipelineStatusInterviewed)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("interviewService.Complete", err, "interviewID", interviewID)
		return nil, err
	}

	for _, id := range []string{iv.EmployerID, iv.CandidateID} {
		if id != actor.ID {
			s.notifier.Notify(ctx, id, "Interview completed", "The interview was marked as completed.", interviewAttrs("INTERVIEW_COMPLETED", iv))
		}
	}

	logger.ExitMethod("interviewService.Complete", "interviewID", iv.ID)
	return iv, nil
}

func (s *interviewService) Get(ctx context.Context, actor domain.Actor, interviewID string) (*domain.Interview, error) {
	iv, err := s.load(ctx, s.store.Repos(), interviewID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, iv.EmployerID, iv.CandidateID) {
		return nil, domain.NewAuthorizationError(actor, "read interview")
	}
	return iv, nil
}

func (s *interviewService) ListByParticipant(ctx context.Context, actor domain.Actor, participantID string) ([]domain.Interview, error) {
	if !canRead(actor, participantID) {
		return nil, domain.NewAuthorizationError(actor, "list interviews")
	}
	list, err := s.store.Repos().Interviews.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, asDomainError("list interviews", err)
	}
	return list, nil
}

func (s *interviewService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	logger.EnterMethod("interviewService.ExpireStale", "cutoff", cutoff)
	stale, err := s.store.Repos().Interviews.ListPendingBefore(ctx, cutoff)
	if err != nil {
		err = asDomainError("list stale interviews", err)
		logger.ExitMethodWithError("interviewService.ExpireStale", err)
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		iv, err := s.mutate(ctx, candidate.ID, func(repos repository.Repositories, iv *domain.Interview) error {
			if iv.Status != domain.InterviewStatusPending || !iv.CreatedAt.Before(cutoff) {
				return errSkip
			}
			logger.Transition("interview", iv.ID, iv.Status, domain.InterviewStatusCancelled, domain.SystemActor.ID, "reason", "expired")
			iv.Status = domain.InterviewStatusCancelled
			iv.CancelledBy = domain.SystemActor.ID
			iv.Notes = appendNote(iv.Notes, "expired")
			return nil
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			logger.Error("Failed to expire interview", "interviewID", candidate.ID, "error", err)
			continue
		}
		expired++
		msg := fmt.Sprintf("%q expired before a time was agreed.", iv.Title)
		s.notifier.Notify(ctx, iv.EmployerID, "Interview expired", msg, interviewAttrs("INTERVIEW_EXPIRED", iv))
		s.notifier.Notify(ctx, iv.CandidateID, "Interview expired", msg, interviewAttrs("INTERVIEW_EXPIRED", iv))
	}

	logger.ExitMethod("interviewService.ExpireStale", "expired", expired)
	return expired, nil
}

func (s *interviewService) mutate(ctx context.Context, interviewID string, fn func(repos repository.Repositories, iv *domain.Interview) error) (*domain.Interview, error) {
	current, err := s.load(ctx, s.store.Repos(), interviewID)
	if err != nil {
		return nil, err
	}
	return txResult(ctx, s.store, s.locker, []string{lock.PairKey(current.EmployerID, current.CandidateID)},
		func(repos repository.Repositories) (*domain.Interview, error) {
			iv, err := s.load(ctx, repos, interviewID)
			if err != nil {
				return nil, err
			}
			if err := fn(repos, iv); err != nil {
				return nil, err
			}
			iv.UpdatedAt = now()
			if err := repos.Interviews.Update(ctx, iv); err != nil {
				return nil, persistErr("update interview", "interview", iv.ID, err)
			}
			return iv, nil
		},
		func(repos repository.Repositories) (any, error) {
			return s.load(ctx, repos, interviewID)
		})
}

func (s *interviewService) load(ctx context.Context, repos repository.Repositories, interviewID string) (*domain.Interview, error) {
	iv, err := repos.Interviews.GetByID(ctx, interviewID)
	if err != nil {
		return nil, persistErr("load interview", "interview", interviewID, err)
	}
	return iv, nil
}

func buildSlots(proposedBy string, proposals []domain.SlotProposal) ([]domain.ProposedTime, error) {
	slots := make([]domain.ProposedTime, 0, len(proposals))
	for i, p := range proposals {
		if p.DateTime.IsZero() {
			return nil, domain.NewValidationError(fmt.Sprintf("proposed_times[%d].datetime", i), "must be set")
		}
		if p.DurationMinutes <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("proposed_times[%d].duration_minutes", i), "must be positive")
		}
		slots = append(slots, domain.ProposedTime{
			ID:              newID(),
			DateTime:        p.DateTime.UTC(),
			DurationMinutes: p.DurationMinutes,
			ProposedBy:      proposedBy,
			Response:        domain.SlotResponseOpen,
		})
	}
	return slots, nil
}

func counterpart(iv *domain.Interview, actorID string) string {
	if actorID == iv.EmployerID {
		return iv.CandidateID
	}
	return iv.EmployerID
}

func appendNote(notes, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return notes
	}
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

func interviewAttrs(kind string, iv *domain.Interview) map[string]string {
	return map[string]string{
		"type":         kind,
		"interview_id": iv.ID,
		"status":       string(iv.Status),
	}
}
