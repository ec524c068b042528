package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

// txResult runs fn under the given locks inside one unit of work. A
// ConflictError without a snapshot is completed with the committed state
// returned by reload.
func txResult[T any](ctx context.Context, store repository.Store, locker lock.Locker, keys []string,
	fn func(repos repository.Repositories) (*T, error), reload func(repos repository.Repositories) (any, error)) (*T, error) {

	release, err := lock.LockAll(ctx, locker, keys...)
	if err != nil {
		return nil, domain.NewInternalError("acquire lock", err)
	}
	defer release()

	var out *T
	err = store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		out, err = fn(repos)
		return err
	})
	if err != nil {
		return nil, withSnapshot(ctx, store, err, reload)
	}
	return out, nil
}

func withSnapshot(ctx context.Context, store repository.Store, err error, reload func(repos repository.Repositories) (any, error)) error {
	var conflict *domain.ConflictError
	if reload == nil || !errors.As(err, &conflict) || conflict.Current != nil {
		return asDomainError("transaction", err)
	}
	if current, rerr := reload(store.Repos()); rerr == nil {
		conflict.Current = current
	}
	return conflict
}

// asDomainError passes typed domain errors through and hides everything else
// behind an InternalError.
func asDomainError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) || domain.IsConflict(err) || domain.IsAuthorization(err) ||
		domain.IsNotFound(err) || domain.IsInternal(err) {
		return err
	}
	return domain.NewInternalError(op, err)
}

// persistErr translates repository sentinels for entity id.
func persistErr(op, entity, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.NewNotFoundError(entity, id)
	case errors.Is(err, repository.ErrVersionConflict):
		return domain.NewConflictError(entity, id, nil, "%s was modified concurrently", entity)
	case errors.Is(err, repository.ErrDuplicate):
		return domain.NewConflictError(entity, id, nil, "%s already exists", entity)
	}
	logger.Error("Repository call failed", "op", op, "entity", entity, "id", id, "error", err)
	return domain.NewInternalError(op, err)
}

func requireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "must not be empty")
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

// forcePipelineStatus moves the pair's entry to status as a side effect of
// another transition. It bypasses the pipeline mode.
func forcePipelineStatus(ctx context.Context, repos repository.Repositories, employerID, candidateID string, status domain.PipelineStatus) (*domain.PipelineEntry, error) {
	entry, err := repos.Pipeline.CreateIfAbsent(ctx, &domain.PipelineEntry{
		EmployerID:  employerID,
		CandidateID: candidateID,
		Status:      status,
		UpdatedAt:   now(),
	})
	if err != nil {
		return nil, persistErr("ensure pipeline entry", "pipeline entry", lock.PairKey(employerID, candidateID), err)
	}
	if entry.Status == status {
		return entry, nil
	}
	entry.Status = status
	entry.UpdatedAt = now()
	if err := repos.Pipeline.Update(ctx, entry); err != nil {
		return nil, persistErr("update pipeline entry", "pipeline entry", lock.PairKey(employerID, candidateID), err)
	}
	return entry, nil
}

// createQuote opens a pending request for the pair and advances the pipeline
// to asked_quote. An open request for the pair is a conflict carrying it.
func createQuote(ctx context.Context, repos repository.Repositories, employerID, candidateID, demandID string) (*domain.QuoteRequest, error) {
	existing, err := repos.Quotes.FindOpenForPair(ctx, employerID, candidateID)
	switch {
	case err == nil:
		return nil, domain.NewConflictError("quote request", existing.ID, existing,
			"an open quote request already exists for this pair")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, persistErr("find open quote", "quote request", lock.PairKey(employerID, candidateID), err)
	}

	q := &domain.QuoteRequest{
		ID:          newID(),
		EmployerID:  employerID,
		CandidateID: candidateID,
		DemandID:    demandID,
		Status:      domain.QuoteStatusPending,
		RequestedAt: now(),
	}
	if err := repos.Quotes.Create(ctx, q); err != nil {
		return nil, persistErr("create quote", "quote request", q.ID, err)
	}
	if _, err := forcePipelineStatus(ctx, repos, employerID, candidateID, domain.PipelineStatusAskedQuote); err != nil {
		return nil, err
	}
	return q, nil
}

func requireVerifiedEmployer(ctx context.Context, repos repository.Repositories, policy Policy, employerID string) error {
	if policy.AllowUnverifiedEmployers {
		return nil
	}
	rec, err := repos.Verifications.GetByOwner(ctx, employerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return persistErr("load verification", "verification record", employerID, err)
	}
	if rec == nil || rec.Status != domain.VerificationStatusVerified {
		return domain.NewConflictError("verification record", employerID, rec, "employer must be verified")
	}
	return nil
}

func canRead(actor domain.Actor, ownerIDs ...string) bool {
	if actor.IsStaff() {
		return true
	}
	for _, id := range ownerIDs {
		if actor.ID == id {
			return true
		}
	}
	return false
}

// errSkip aborts a unit of work without reporting a failure.
var errSkip = errors.New("skip")
