package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type demandRepository struct {
	db dbtx
}

func NewDemandRepository(db *sql.DB) repository.DemandRepository {
	return &demandRepository{db: db}
}

const demandColumns = `id, employer_id, title, description, skills, seniority, location, budget, status,
	suggested_candidate_ids, manual_profiles, created_at, updated_at, version`

func scanDemand(row interface{ Scan(...any) error }) (*domain.TalentDemand, error) {
	var d domain.TalentDemand
	var profiles []byte
	if err := row.Scan(&d.ID, &d.EmployerID, &d.Spec.Title, &d.Spec.Description, pq.Array(&d.Spec.Skills), &d.Spec.Seniority,
		&d.Spec.Location, &d.Spec.Budget, &d.Status, pq.Array(&d.SuggestedCandidateIDs), &profiles,
		&d.CreatedAt, &d.UpdatedAt, &d.Version); err != nil {
		return nil, err
	}
	if err := fromJSON(profiles, &d.ManualProfiles); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *demandRepository) Create(ctx context.Context, d *domain.TalentDemand) error {
	logger.EnterMethod("demandRepository.Create", "employerID", d.EmployerID, "title", d.Spec.Title)

	profiles, err := toJSON(profilesOrEmpty(d.ManualProfiles))
	if err != nil {
		return err
	}
	query := `INSERT INTO talent_demands (` + demandColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)`
	logger.DatabaseCall("INSERT", "talent_demands", "demandID", d.ID)
	_, err = r.db.ExecContext(ctx, query, d.ID, d.EmployerID, d.Spec.Title, d.Spec.Description, pq.Array(d.Spec.Skills),
		d.Spec.Seniority, d.Spec.Location, d.Spec.Budget, d.Status, pq.Array(d.SuggestedCandidateIDs), profiles,
		d.CreatedAt, d.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "demandID", d.ID)
	if err != nil {
		logger.ExitMethodWithError("demandRepository.Create", err, "demandID", d.ID)
		return mapError(err)
	}
	d.Version = 1
	logger.ExitMethod("demandRepository.Create", "demandID", d.ID)
	return nil
}

func (r *demandRepository) GetByID(ctx context.Context, id string) (*domain.TalentDemand, error) {
	logger.DatabaseCall("SELECT", "talent_demands", "demandID", id)
	d, err := scanDemand(r.db.QueryRowContext(ctx, `SELECT `+demandColumns+` FROM talent_demands WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *demandRepository) Update(ctx context.Context, d *domain.TalentDemand) error {
	profiles, err := toJSON(profilesOrEmpty(d.ManualProfiles))
	if err != nil {
		return err
	}
	query := `UPDATE talent_demands SET title = $1, description = $2, skills = $3, seniority = $4, location = $5, budget = $6,
	          status = $7, suggested_candidate_ids = $8, manual_profiles = $9, updated_at = $10, version = version + 1
	          WHERE id = $11 AND version = $12`
	logger.DatabaseCall("UPDATE", "talent_demands", "demandID", d.ID, "status", d.Status)
	res, err := r.db.ExecContext(ctx, query, d.Spec.Title, d.Spec.Description, pq.Array(d.Spec.Skills), d.Spec.Seniority,
		d.Spec.Location, d.Spec.Budget, d.Status, pq.Array(d.SuggestedCandidateIDs), profiles, d.UpdatedAt, d.ID, d.Version)
	if err != nil {
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM talent_demands WHERE id = $1)`, d.ID)
	}); err != nil {
		return err
	}
	d.Version++
	return nil
}

func (r *demandRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", "talent_demands", "demandID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM talent_demands WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return versionedResult(res, func() (bool, error) { return false, nil })
}

func (r *demandRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.TalentDemand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+demandColumns+` FROM talent_demands WHERE employer_id = $1
	          ORDER BY created_at DESC`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TalentDemand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func profilesOrEmpty(p []domain.ManualProfile) []domain.ManualProfile {
	if p == nil {
		return []domain.ManualProfile{}
	}
	return p
}
