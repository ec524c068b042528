package postgres

import (
	"context"
	"database/sql"
	"time"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type quoteRepository struct {
	db dbtx
}

func NewQuoteRepository(db *sql.DB) repository.QuoteRepository {
	return &quoteRepository{db: db}
}

const quoteColumns = `id, employer_id, candidate_id, demand_id, status, cost_estimate, options, resolution_note, resolved_by,
	requested_at, resolved_at, finalized_at, version`

func scanQuote(row interface{ Scan(...any) error }) (*domain.QuoteRequest, error) {
	var q domain.QuoteRequest
	var options []byte
	var resolvedAt, finalizedAt sql.NullTime
	if err := row.Scan(&q.ID, &q.EmployerID, &q.CandidateID, &q.DemandID, &q.Status, &q.CostEstimate, &options,
		&q.ResolutionNote, &q.ResolvedBy, &q.RequestedAt, &resolvedAt, &finalizedAt, &q.Version); err != nil {
		return nil, err
	}
	if err := fromJSON(options, &q.Options); err != nil {
		return nil, err
	}
	q.ResolvedAt = nullTime(resolvedAt)
	q.FinalizedAt = nullTime(finalizedAt)
	return &q, nil
}

func (r *quoteRepository) list(ctx context.Context, query string, args ...any) ([]domain.QuoteRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []domain.QuoteRequest
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func (r *quoteRepository) Create(ctx context.Context, q *domain.QuoteRequest) error {
	logger.EnterMethod("quoteRepository.Create", "employerID", q.EmployerID, "candidateID", q.CandidateID)

	options, err := toJSON(optionsOrEmpty(q.Options))
	if err != nil {
		return err
	}
	query := `INSERT INTO quote_requests (` + quoteColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)`
	logger.DatabaseCall("INSERT", "quote_requests", "quoteID", q.ID)
	_, err = r.db.ExecContext(ctx, query, q.ID, q.EmployerID, q.CandidateID, q.DemandID, q.Status, q.CostEstimate, options,
		q.ResolutionNote, q.ResolvedBy, q.RequestedAt, q.ResolvedAt, q.FinalizedAt)
	logger.DatabaseResult("INSERT", 1, err, "quoteID", q.ID)
	if err != nil {
		logger.ExitMethodWithError("quoteRepository.Create", err, "quoteID", q.ID)
		return mapError(err)
	}
	q.Version = 1
	logger.ExitMethod("quoteRepository.Create", "quoteID", q.ID)
	return nil
}

func (r *quoteRepository) GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	logger.DatabaseCall("SELECT", "quote_requests", "quoteID", id)
	q, err := scanQuote(r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return q, nil
}

func (r *quoteRepository) Update(ctx context.Context, q *domain.QuoteRequest) error {
	options, err := toJSON(optionsOrEmpty(q.Options))
	if err != nil {
		return err
	}
	query := `UPDATE quote_requests SET status = $1, cost_estimate = $2, options = $3, resolution_note = $4, resolved_by = $5,
	          resolved_at = $6, finalized_at = $7, version = version + 1
	          WHERE id = $8 AND version = $9`
	logger.DatabaseCall("UPDATE", "quote_requests", "quoteID", q.ID, "status", q.Status)
	res, err := r.db.ExecContext(ctx, query, q.Status, q.CostEstimate, options, q.ResolutionNote, q.ResolvedBy,
		q.ResolvedAt, q.FinalizedAt, q.ID, q.Version)
	if err != nil {
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM quote_requests WHERE id = $1)`, q.ID)
	}); err != nil {
		return err
	}
	q.Version++
	return nil
}

func (r *quoteRepository) FindOpenForPair(ctx context.Context, employerID, candidateID string) (*domain.QuoteRequest, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote_requests
	          WHERE employer_id = $1 AND candidate_id = $2 AND status IN ('PENDING', 'APPROVED')`
	q, err := scanQuote(r.db.QueryRowContext(ctx, query, employerID, candidateID))
	if err != nil {
		return nil, mapError(err)
	}
	return q, nil
}

func (r *quoteRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.QuoteRequest, error) {
	return r.list(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE employer_id = $1 ORDER BY requested_at DESC`, employerID)
}

func (r *quoteRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.QuoteRequest, error) {
	return r.list(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE status = 'PENDING' AND requested_at < $1
	          ORDER BY requested_at`, cutoff)
}

func (r *quoteRepository) CountByStatus(ctx context.Context, status domain.QuoteStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM quote_requests WHERE status = $1`, status).Scan(&n)
	return n, err
}

func optionsOrEmpty(opts []domain.QuoteOption) []domain.QuoteOption {
	if opts == nil {
		return []domain.QuoteOption{}
	}
	return opts
}
