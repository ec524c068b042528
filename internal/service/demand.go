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

const manualProfilePrefix = "manual-"

type demandService struct {
	store    repository.Store
	locker   lock.Locker
	notifier Notifier
	policy   Policy
}

func NewDemandService(store repository.Store, locker lock.Locker, notifier Notifier, policy Policy) DemandService {
	return &demandService{store: store, locker: locker, notifier: notifier, policy: policy}
}

func (s *demandService) Create(ctx context.Context, actor domain.Actor, employerID string, spec domain.DemandSpec) (*domain.TalentDemand, error) {
	if actor.Role != domain.RoleEmployer || actor.ID != employerID {
		return nil, domain.NewAuthorizationError(actor, "create talent demand")
	}
	if err := requireNonEmpty("title", spec.Title); err != nil {
		return nil, err
	}
	spec.Title = strings.TrimSpace(spec.Title)
	spec.Skills = cleanSkills(spec.Skills)

	logger.EnterMethod("demandService.Create", "employerID", employerID)
	d, err := txResult(ctx, s.store, s.locker, []string{lock.OwnerKey(employerID)},
		func(repos repository.Repositories) (*domain.TalentDemand, error) {
			ts := now()
			d := &domain.TalentDemand{
				ID:                    newID(),
				EmployerID:            employerID,
				Spec:                  spec,
				Status:                domain.DemandStatusOpen,
				SuggestedCandidateIDs: []string{},
				ManualProfiles:        []domain.ManualProfile{},
				CreatedAt:             ts,
				UpdatedAt:             ts,
			}
			if err := repos.Demands.Create(ctx, d); err != nil {
				return nil, persistErr("create demand", "talent demand", d.ID, err)
			}
			return d, nil
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("demandService.Create", err, "employerID", employerID)
		return nil, err
	}

	logger.ExitMethod("demandService.Create", "demandID", d.ID)
	return d, nil
}

// SuggestPoolCandidate links a pool candidate to the demand. A pair that
// already has an open quote is linked without a second request, and a
// candidate that is already linked leaves the demand untouched.
func (s *demandService) SuggestPoolCandidate(ctx context.Context, actor domain.Actor, demandID, candidateID string) (*domain.TalentDemand, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "suggest candidate")
	}
	if err := requireNonEmpty("candidate_id", candidateID); err != nil {
		return nil, err
	}

	logger.EnterMethod("demandService.SuggestPoolCandidate", "demandID", demandID, "candidateID", candidateID)
	quoted := false
	d, err := s.addToDemand(ctx, demandID, candidateID, func(repos repository.Repositories, d *domain.TalentDemand) error {
		if err := validatePair(d.EmployerID, candidateID); err != nil {
			return err
		}
		if d.HasSuggestion(candidateID) {
			return errSkip
		}
		_, err := repos.Quotes.FindOpenForPair(ctx, d.EmployerID, candidateID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if _, err := createQuote(ctx, repos, d.EmployerID, candidateID, d.ID); err != nil {
				return err
			}
			quoted = true
		case err != nil:
			return persistErr("find open quote", "quote request", lock.PairKey(d.EmployerID, candidateID), err)
		}
		d.SuggestedCandidateIDs = append(d.SuggestedCandidateIDs, candidateID)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("demandService.SuggestPoolCandidate", err, "demandID", demandID, "candidateID", candidateID)
		return nil, err
	}

	if quoted {
		s.notifier.Notify(ctx, d.EmployerID, "New candidate suggested",
			fmt.Sprintf("A candidate was suggested for %q and a quote was requested.", d.Spec.Title), demandAttrs("DEMAND_SUGGESTION", d))
	}
	logger.ExitMethod("demandService.SuggestPoolCandidate", "demandID", d.ID, "status", d.Status, "quoted", quoted)
	return d, nil
}

// AddManualProfile stores an externally sourced profile under a synthetic
// candidate id and always opens a fresh quote for it.
func (s *demandService) AddManualProfile(ctx context.Context, actor domain.Actor, demandID string, profile domain.ManualProfile) (*domain.TalentDemand, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "add manual profile")
	}
	if err := requireNonEmpty("full_name", profile.FullName); err != nil {
		return nil, err
	}
	profile.ID = manualProfilePrefix + newID()
	profile.FullName = strings.TrimSpace(profile.FullName)
	profile.AddedBy = actor.ID
	profile.AddedAt = now()

	logger.EnterMethod("demandService.AddManualProfile", "demandID", demandID)
	d, err := s.addToDemand(ctx, demandID, profile.ID, func(repos repository.Repositories, d *domain.TalentDemand) error {
		if _, err := createQuote(ctx, repos, d.EmployerID, profile.ID, d.ID); err != nil {
			return err
		}
		d.ManualProfiles = append(d.ManualProfiles, profile)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("demandService.AddManualProfile", err, "demandID", demandID)
		return nil, err
	}

	s.notifier.Notify(ctx, d.EmployerID, "New profile sourced",
		fmt.Sprintf("%s was sourced for %q and a quote was requested.", profile.FullName, d.Spec.Title), demandAttrs("DEMAND_MANUAL_PROFILE", d))
	logger.ExitMethod("demandService.AddManualProfile", "demandID", d.ID, "profileID", profile.ID)
	return d, nil
}

// UpdateStatus is the staff override. Any valid status is accepted except
// open on a demand that already has suggestions.
func (s *demandService) UpdateStatus(ctx context.Context, actor domain.Actor, demandID string, status domain.DemandStatus) (*domain.TalentDemand, error) {
	if !actor.IsStaff() {
		return nil, domain.NewAuthorizationError(actor, "set demand status")
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown demand status %q", status)
	}

	logger.EnterMethod("demandService.UpdateStatus", "demandID", demandID, "status", status)
	changed := false
	d, err := s.mutate(ctx, demandID, nil, func(repos repository.Repositories, d *domain.TalentDemand) error {
		if status == domain.DemandStatusOpen && !d.IsEmpty() {
			return domain.NewConflictError("talent demand", d.ID, d, "a demand with suggestions cannot be reopened")
		}
		if d.Status == status {
			return errSkip
		}
		logger.Transition("talent demand", d.ID, d.Status, status, actor.ID)
		d.Status = status
		changed = true
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("demandService.UpdateStatus", err, "demandID", demandID)
		return nil, err
	}
	if !changed {
		logger.ExitMethod("demandService.UpdateStatus", "demandID", d.ID, "unchanged", true)
		return d, nil
	}

	s.notifier.Notify(ctx, d.EmployerID, "Demand updated",
		fmt.Sprintf("%q is now %s.", d.Spec.Title, strings.ToLower(string(d.Status))), demandAttrs("DEMAND_STATUS", d))
	logger.ExitMethod("demandService.UpdateStatus", "demandID", d.ID, "status", d.Status)
	return d, nil
}

func (s *demandService) Delete(ctx context.Context, actor domain.Actor, demandID string) (*domain.TalentDemand, error) {
	d, err := s.load(ctx, s.store.Repos(), demandID)
	if err != nil {
		return nil, err
	}

	logger.EnterMethod("demandService.Delete", "demandID", demandID)
	d, err = txResult(ctx, s.store, s.locker, []string{lock.DemandKey(demandID)},
		func(repos repository.Repositories) (*domain.TalentDemand, error) {
			d, err := s.load(ctx, repos, demandID)
			if err != nil {
				return nil, err
			}
			if actor.ID != d.EmployerID && !actor.IsStaff() {
				return nil, domain.NewAuthorizationError(actor, "delete talent demand")
			}
			if d.Status != domain.DemandStatusOpen {
				return nil, domain.NewConflictError("talent demand", d.ID, d, "only open demands can be deleted, status is %s", strings.ToLower(string(d.Status)))
			}
			if err := repos.Demands.Delete(ctx, d.ID); err != nil {
				return nil, persistErr("delete demand", "talent demand", d.ID, err)
			}
			return d, nil
		}, nil)
	if err != nil {
		logger.ExitMethodWithError("demandService.Delete", err, "demandID", demandID)
		return nil, err
	}

	if actor.ID != d.EmployerID {
		s.notifier.Notify(ctx, d.EmployerID, "Demand removed",
			fmt.Sprintf("Your talent demand %q was removed by staff.", d.Spec.Title), demandAttrs("DEMAND_DELETED", d))
	}

	logger.ExitMethod("demandService.Delete", "demandID", d.ID)
	return d, nil
}

func (s *demandService) Get(ctx context.Context, actor domain.Actor, demandID string) (*domain.TalentDemand, error) {
	d, err := s.load(ctx, s.store.Repos(), demandID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, d.EmployerID) {
		return nil, domain.NewAuthorizationError(actor, "read talent demand")
	}
	return d, nil
}

func (s *demandService) ListByEmployer(ctx context.Context, actor domain.Actor, employerID string) ([]domain.TalentDemand, error) {
	if !canRead(actor, employerID) {
		return nil, domain.NewAuthorizationError(actor, "list talent demands")
	}
	list, err := s.store.Repos().Demands.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, asDomainError("list talent demands", err)
	}
	return list, nil
}

// addToDemand runs fn for a new candidate link and then applies the implicit
// open -> treating move. fn returning errSkip yields the unchanged demand.
func (s *demandService) addToDemand(ctx context.Context, demandID, candidateID string, fn func(repos repository.Repositories, d *domain.TalentDemand) error) (*domain.TalentDemand, error) {
	return s.mutate(ctx, demandID, func(d *domain.TalentDemand) string {
		return lock.PairKey(d.EmployerID, candidateID)
	}, func(repos repository.Repositories, d *domain.TalentDemand) error {
		if d.Status == domain.DemandStatusTreated || d.Status == domain.DemandStatusCancelled {
			return domain.NewConflictError("talent demand", d.ID, d, "demand is already %s", strings.ToLower(string(d.Status)))
		}
		if err := fn(repos, d); err != nil {
			return err
		}
		if d.Status.CanAutoAdvanceTo(domain.DemandStatusTreating) {
			d.Status = domain.DemandStatusTreating
		}
		return nil
	})
}

// mutate locks the demand (and the pair returned by pairKey, if any), applies
// fn and persists the result. errSkip from fn returns the stored demand.
func (s *demandService) mutate(ctx context.Context, demandID string, pairKey func(d *domain.TalentDemand) string,
	fn func(repos repository.Repositories, d *domain.TalentDemand) error) (*domain.TalentDemand, error) {

	current, err := s.load(ctx, s.store.Repos(), demandID)
	if err != nil {
		return nil, err
	}
	keys := []string{lock.DemandKey(demandID)}
	if pairKey != nil {
		keys = append(keys, pairKey(current))
	}

	var unchanged *domain.TalentDemand
	d, err := txResult(ctx, s.store, s.locker, keys,
		func(repos repository.Repositories) (*domain.TalentDemand, error) {
			d, err := s.load(ctx, repos, demandID)
			if err != nil {
				return nil, err
			}
			if err := fn(repos, d); err != nil {
				if errors.Is(err, errSkip) {
					unchanged = d
				}
				return nil, err
			}
			d.UpdatedAt = now()
			if err := repos.Demands.Update(ctx, d); err != nil {
				return nil, persistErr("update demand", "talent demand", d.ID, err)
			}
			return d, nil
		},
		func(repos repository.Repositories) (any, error) {
			return s.load(ctx, repos, demandID)
		})
	if errors.Is(err, errSkip) {
		return unchanged, nil
	}
	return d, err
}

func (s *demandService) load(ctx context.Context, repos repository.Repositories, demandID string) (*domain.TalentDemand, error) {
	d, err := repos.Demands.GetByID(ctx, demandID)
	if err != nil {
		return nil, persistErr("load demand", "talent demand", demandID, err)
	}
	return d, nil
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

func demandAttrs(kind string, d *domain.TalentDemand) map[string]string {
	return map[string]string{
		"type":      kind,
		"demand_id": d.ID,
		"status":    string(d.Status),
	}
}
