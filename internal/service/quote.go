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

const expiredQuoteNote = "expired"

type quoteService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
	policy   Policy
}

func NewQuoteService(store repository.Store, locker lock.Locker, notifier Notifier, policy Policy) QuoteService {
	return &quoteService{store: store, locker: locker, notifier: notifier, policy: policy}
}

// Request opens a pending quote for the pair and moves the pipeline to
// asked_quote in the same unit of work.
func (s *quoteService) Request(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.QuoteRequest, error) {
	if actor.Role != domain.RoleEmployer || actor.ID != employerID {
		return nil, domain.NewAuthorizationError(actor, "request quote")
	}
	if err := validatePair(employerID, candidateID); err != nil {
		return nil, err
	}

	logger.EnterMethod("quoteService.Request", "employerID", employerID, "candidateID", candidateID)
	q, err := txResult(ctx, s.store, s.locker, []string{lock.PairKey(employerID, candidateID)},
		func(repos repository.Repositories) (*domain.QuoteRequest, error) {
			if err := requireVerifiedEmployer(ctx, repos, s.policy, employerID); err != nil {
				return nil, err
			}
			return createQuote(ctx, repos, employerID, candidateID, "")
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("quoteService.Request", err, "employerID", employerID, "candidateID", candidateID)
		return nil, err
	}

	logger.ExitMethod("quoteService.Request", "quoteID", q.ID)
	return q, nil
}

// Resolve approves or rejects a pending request. Approval needs a cost estimate.
func (s *quoteService) Resolve(ctx context.Context, actor domain.Actor, requestID string, decision domain.ReviewDecision, costEstimate string, options []domain.QuoteOption) (*domain.QuoteRequest, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "resolve quote")
	}
	var next domain.QuoteStatus
	switch decision {
	case domain.DecisionApprove:
		next = domain.QuoteStatusApproved
		if err := requireNonEmpty("cost_estimate", costEstimate); err != nil {
			return nil, err
		}
	case domain.DecisionReject:
		next = domain.QuoteStatusRejected
	default:
		return nil, domain.NewValidationError("decision", "unknown decision %q", decision)
	}
	prepared, err := prepareOptions(options)
	if err != nil {
		return nil, err
	}

	logger.EnterMethod("quoteService.Resolve", "quoteID", requestID, "decision", decision)
	q, err := s.mutate(ctx, requestID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
		if !q.Status.CanTransitionTo(next) {
			return domain.NewConflictError("quote request", q.ID, q, "quote is already %s", strings.ToLower(string(q.Status)))
		}
		if next == domain.QuoteStatusApproved {
			if err := appendOptions(q, prepared); err != nil {
				return err
			}
			q.CostEstimate = strings.TrimSpace(costEstimate)
		}
		ts := now()
		logger.Transition("quote request", q.ID, q.Status, next, actor.ID)
		q.Status = next
		q.ResolvedBy = actor.ID
		q.ResolvedAt = &ts
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("quoteService.Resolve", err, "quoteID", requestID)
		return nil, err
	}

	message := fmt.Sprintf("Your quote request was approved with an estimate of %s.", q.CostEstimate)
	if q.Status == domain.QuoteStatusRejected {
		message = "Your quote request was rejected."
	}
	s.notifier.Notify(ctx, q.EmployerID, "Quote resolved", message, quoteAttrs("QUOTE_RESOLVED", q))
	logger.ExitMethod("quoteService.Resolve", "quoteID", q.ID, "status", q.Status)
	return q, nil
}

func (s *quoteService) AddOption(ctx context.Context, actor domain.Actor, requestID string, option domain.QuoteOption) (*domain.QuoteRequest, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "add quote option")
	}
	prepared, err := prepareOptions([]domain.QuoteOption{option})
	if err != nil {
		return nil, err
	}

	q, err := s.mutate(ctx, requestID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
		if !q.IsOpen() {
			return domain.NewConflictError("quote request", q.ID, q, "options cannot be added to a %s quote", strings.ToLower(string(q.Status)))
		}
		if q.FinalizedAt != nil {
			return domain.NewConflictError("quote request", q.ID, q, "quote is already finalized")
		}
		return appendOptions(q, prepared)
	})
	if err != nil {
		return nil, err
	}
	if q.Status == domain.QuoteStatusApproved {
		s.notifier.Notify(ctx, q.EmployerID, "New quote option", fmt.Sprintf("Option %q was added to your quote.", option.Label),
			quoteAttrs("QUOTE_OPTION_ADDED", q))
	}
	return q, nil
}

// SelectOption marks optionID as the employer's choice. Re-selection switches
// the flag until the quote is finalized.
func (s *quoteService) SelectOption(ctx context.Context, actor domain.Actor, requestID, optionID string) (*domain.QuoteRequest, error) {
	if err := requireNonEmpty("option_id", optionID); err != nil {
		return nil, err
	}

	logger.EnterMethod("quoteService.SelectOption", "quoteID", requestID, "optionID", optionID)
	q, err := s.mutate(ctx, requestID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
		if actor.Role != domain.RoleEmployer || actor.ID != q.EmployerID {
			return domain.NewAuthorizationError(actor, "select quote option")
		}
		if q.Status != domain.QuoteStatusApproved {
			return domain.NewConflictError("quote request", q.ID, q, "options can only be selected on an approved quote")
		}
		if q.FinalizedAt != nil {
			return domain.NewConflictError("quote request", q.ID, q, "quote is already finalized")
		}
		if len(q.Options) == 0 {
			return domain.NewNotFoundError("quote option", optionID)
		}
		found := false
		for i := range q.Options {
			if q.Options[i].ID == optionID {
				found = true
			}
		}
		if !found {
			return domain.NewValidationError("option_id", "unknown option %q", optionID)
		}
		for i := range q.Options {
			q.Options[i].Selected = q.Options[i].ID == optionID
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("quoteService.SelectOption", err, "quoteID", requestID)
		return nil, err
	}

	if q.ResolvedBy != "" {
		attrs := quoteAttrs("QUOTE_OPTION_SELECTED", q)
		attrs["option_id"] = optionID
		s.notifier.Notify(ctx, q.ResolvedBy, "Quote option selected", "The employer selected an option on a quote you resolved.", attrs)
	}
	logger.ExitMethod("quoteService.SelectOption", "quoteID", q.ID, "optionID", optionID)
	return q, nil
}

// MarkFinalized records that the engagement was finalized outside the engine.
func (s *quoteService) MarkFinalized(ctx context.Context, actor domain.Actor, requestID string) (*domain.QuoteRequest, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "finalize quote")
	}
	q, err := s.mutate(ctx, requestID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
		if q.Status != domain.QuoteStatusApproved {
			return domain.NewConflictError("quote request", q.ID, q, "only approved quotes can be finalized")
		}
		if q.FinalizedAt != nil {
			return domain.NewConflictError("quote request", q.ID, q, "quote is already finalized")
		}
		if len(q.Options) > 0 && q.SelectedOption() == nil {
			return domain.NewConflictError("quote request", q.ID, q, "no option has been selected")
		}
		ts := now()
		q.FinalizedAt = &ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, q.EmployerID, "Quote finalized", "Your quote has been finalized.", quoteAttrs("QUOTE_FINALIZED", q))
	return q, nil
}

// UpdateStatus is the administrative override for corrections.
func (s *quoteService) UpdateStatus(ctx context.Context, actor domain.Actor, requestID string, status domain.QuoteStatus, note string) (*domain.QuoteRequest, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewAuthorizationError(actor, "override quote status")
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown quote status %q", status)
	}

	logger.EnterMethod("quoteService.UpdateStatus", "quoteID", requestID, "status", status)
	q, err := s.mutate(ctx, requestID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
		if status == domain.QuoteStatusApproved && strings.TrimSpace(q.CostEstimate) == "" {
			return domain.NewValidationError("cost_estimate", "approved quotes need a cost estimate")
		}
		logger.Transition("quote request", q.ID, q.Status, status, actor.ID)
		q.Status = status
		q.ResolutionNote = strings.TrimSpace(note)
		if status == domain.QuoteStatusPending {
			q.ResolvedAt = nil
			q.ResolvedBy = ""
			return nil
		}
		ts := now()
		q.ResolvedAt = &ts
		q.ResolvedBy = actor.ID
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("quoteService.UpdateStatus", err, "quoteID", requestID)
		return nil, err
	}
	logger.ExitMethod("quoteService.UpdateStatus", "quoteID", q.ID, "status", q.Status)
	return q, nil
}

func (s *quoteService) Get(ctx context.Context, actor domain.Actor, requestID string) (*domain.QuoteRequest, error) {
	q, err := s.load(ctx, s.store.Repos(), requestID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, q.EmployerID) {
		return nil, domain.NewAuthorizationError(actor, "read quote")
	}
	return q, nil
}

func (s *quoteService) FindOpenForPair(ctx context.Context, actor domain.Actor, employerID, candidateID string) (*domain.QuoteRequest, error) {
	if !canRead(actor, employerID) {
		return nil, domain.NewAuthorizationError(actor, "read quote")
	}
	q, err := s.store.Repos().Quotes.FindOpenForPair(ctx, employerID, candidateID)
	if err != nil {
		return nil, persistErr("find open quote", "quote request", lock.PairKey(employerID, candidateID), err)
	}
	return q, nil
}

func (s *quoteService) ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.QuoteRequest, error) {
	if !canRead(actor, employerID) {
		return nil, domain.NewAuthorizationError(actor, "list quotes")
	}
	quotes, err := s.store.Repos().Quotes.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, asDomainError("list quotes", err)
	}
	return quotes, nil
}

func (s *quoteService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	logger.EnterMethod("quoteService.ExpireStale", "cutoff", cutoff)
	stale, err := s.store.Repos().Quotes.ListPendingBefore(ctx, cutoff)
	if err != nil {
		err = asDomainError("list stale quotes", err)
		logger.ExitMethodWithError("quoteService.ExpireStale", err)
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		q, err := s.mutate(ctx, candidate.ID, func(repos repository.Repositories, q *domain.QuoteRequest) error {
			if q.Status != domain.QuoteStatusPending || !q.RequestedAt.Before(cutoff) {
				return errSkip
			}
			ts := now()
			logger.Transition("quote request", q.ID, q.Status, domain.QuoteStatusRejected, domain.SystemActor.ID, "reason", "expired")
			q.Status = domain.QuoteStatusRejected
			q.ResolutionNote = expiredQuoteNote
			q.ResolvedBy = domain.SystemActor.ID
			q.ResolvedAt = &ts
			return nil
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			logger.Error("Failed to expire quote", "quoteID", candidate.ID, "error", err)
			continue
		}
		expired++
		s.notifier.Notify(ctx, q.EmployerID, "Quote expired", "Your quote request expired without a response.", quoteAttrs("QUOTE_EXPIRED", q))
	}

	logger.ExitMethod("quoteService.ExpireStale", "expired", expired)
	return expired, nil
}

// mutate applies fn to the request under its pair lock and persists it.
func (s *quoteService) mutate(ctx context.Context, requestID string, fn func(repos repository.Repositories, q *domain.QuoteRequest) error) (*domain.QuoteRequest, error) {
	current, err := s.load(ctx, s.store.Repos(), requestID)
	if err != nil {
		return nil, err
	}
	return txResult(ctx, s.store, s.locker, []string{lock.PairKey(current.EmployerID, current.CandidateID)},
		func(repos repository.Repositories) (*domain.QuoteRequest, error) {
			q, err := s.load(ctx, repos, requestID)
			if err != nil {
				return nil, err
			}
			if err := fn(repos, q); err != nil {
				return nil, err
			}
			if err := repos.Quotes.Update(ctx, q); err != nil {
				return nil, persistErr("update quote", "quote request", q.ID, err)
			}
			return q, nil
		},
		func(repos repository.Repositories) (any, error) {
			return s.load(ctx, repos, requestID)
		})
}

func (s *quoteService) load(ctx context.Context, repos repository.Repositories, requestID string) (*domain.QuoteRequest, error) {
	q, err := repos.Quotes.GetByID(ctx, requestID)
	if err != nil {
		return nil, persistErr("load quote", "quote request", requestID, err)
	}
	return q, nil
}

func prepareOptions(options []domain.QuoteOption) ([]domain.QuoteOption, error) {
	out := make([]domain.QuoteOption, 0, len(options))
	seen := make(map[string]bool, len(options))
	for i, o := range options {
		if strings.TrimSpace(o.Label) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("options[%d].label", i), "must not be empty")
		}
		o.ID = strings.TrimSpace(o.ID)
		if o.ID == "" {
			o.ID = newID()
		}
		if seen[o.ID] {
			return nil, domain.NewValidationError(fmt.Sprintf("options[%d].id", i), "duplicate option id %q", o.ID)
		}
		seen[o.ID] = true
		o.Selected = false
		out = append(out, o)
	}
	return out, nil
}

// appendOptions adds prepared options to q. Option ids are unique per quote.
func appendOptions(q *domain.QuoteRequest, prepared []domain.QuoteOption) error {
	for _, o := range prepared {
		for _, existing := range q.Options {
			if existing.ID == o.ID {
				return domain.NewValidationError("option_id", "quote already has option %q", o.ID)
			}
		}
	}
	q.Options = append(q.Options, prepared...)
	return nil
}

func quoteAttrs(kind string, q *domain.QuoteRequest) map[string]string {
	return map[string]string{
		"type":         kind,
		"quote_id":     q.ID,
		"candidate_id": q.CandidateID,
		"status":       string(q.Status),
	}
}
