package postgres

import (
	"context"
	"database/sql"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type pipelineRepository struct {
	db dbtx
}

func NewPipelineRepository(db *sql.DB) repository.PipelineRepository {
	return &pipelineRepository{db: db}
}

func (r *pipelineRepository) CreateIfAbsent(ctx context.Context, e *domain.PipelineEntry) (*domain.PipelineEntry, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `INSERT INTO pipeline_entries (employer_id, candidate_id, status, updated_at, version)
	          VALUES ($1, $2, $3, $4, 1)
	          ON CONFLICT (employer_id, candidate_id) DO UPDATE SET updated_at = pipeline_entries.updated_at
	          RETURNING employer_id, candidate_id, status, updated_at, version`
	logger.DatabaseCall("UPSERT", "pipeline_entries", "employerID", e.EmployerID, "candidateID", e.CandidateID)

	var out domain.PipelineEntry
	err := r.db.QueryRowContext(ctx, query, e.EmployerID, e.CandidateID, e.Status, e.UpdatedAt).
		Scan(&out.EmployerID, &out.CandidateID, &out.Status, &out.UpdatedAt, &out.Version)
	logger.DatabaseResult("UPSERT", 1, err, "employerID", e.EmployerID, "candidateID", e.CandidateID)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *pipelineRepository) Get(ctx context.Context, employerID, candidateID string) (*domain.PipelineEntry, error) {
	query := `SELECT employer_id, candidate_id, status, updated_at, version
	          FROM pipeline_entries WHERE employer_id = $1 AND candidate_id = $2`
	var e domain.PipelineEntry
	err := r.db.QueryRowContext(ctx, query, employerID, candidateID).
		Scan(&e.EmployerID, &e.CandidateID, &e.Status, &e.UpdatedAt, &e.Version)
	if err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *pipelineRepository) Update(ctx context.Context, e *domain.PipelineEntry) error {
	query := `UPDATE pipeline_entries SET status = $1, updated_at = $2, version = version + 1
	          WHERE employer_id = $3 AND candidate_id = $4 AND version = $5`
	logger.DatabaseCall("UPDATE", "pipeline_entries", "employerID", e.EmployerID, "candidateID", e.CandidateID, "status", e.Status)
	res, err := r.db.ExecContext(ctx, query, e.Status, e.UpdatedAt, e.EmployerID, e.CandidateID, e.Version)
	if err != nil {
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM pipeline_entries WHERE employer_id = $1 AND candidate_id = $2)`,
			e.EmployerID, e.CandidateID)
	}); err != nil {
		return err
	}
	e.Version++
	return nil
}

func (r *pipelineRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.PipelineEntry, error) {
	query := `SELECT employer_id, candidate_id, status, updated_at, version
	          FROM pipeline_entries WHERE employer_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PipelineEntry
	for rows.Next() {
		var e domain.PipelineEntry
		if err := rows.Scan(&e.EmployerID, &e.CandidateID, &e.Status, &e.UpdatedAt, &e.Version); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
