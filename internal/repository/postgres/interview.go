package postgres

import (
	"context"
	"database/sql"
	"time"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type interviewRepository struct {
	db dbtx
}

func NewInterviewRepository(db *sql.DB) repository.InterviewRepository {
	return &interviewRepository{db: db}
}

const interviewColumns = `id, employer_id, candidate_id, scheduled_by, title, proposed_times, confirmed_time, status, room_token,
	notes, cancelled_by, created_at, updated_at, version`

func scanInterview(row interface{ Scan(...any) error }) (*domain.Interview, error) {
	var iv domain.Interview
	var slots []byte
	var confirmed sql.NullTime
	if err := row.Scan(&iv.ID, &iv.EmployerID, &iv.CandidateID, &iv.ScheduledBy, &iv.Title, &slots, &confirmed, &iv.Status,
		&iv.RoomToken, &iv.Notes, &iv.CancelledBy, &iv.CreatedAt, &iv.UpdatedAt, &iv.Version); err != nil {
		return nil, err
	}
	if err := fromJSON(slots, &iv.ProposedTimes); err != nil {
		return nil, err
	}
	iv.ConfirmedTime = nullTime(confirmed)
	return &iv, nil
}

func (r *interviewRepository) list(ctx context.Context, query string, args ...any) ([]domain.Interview, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}

func (r *interviewRepository) Create(ctx context.Context, iv *domain.Interview) error {
	logger.EnterMethod("interviewRepository.Create", "employerID", iv.EmployerID, "candidateID", iv.CandidateID)

	slots, err := toJSON(iv.ProposedTimes)
	if err != nil {
		return err
	}
	query := `INSERT INTO interviews (` + interviewColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)`
	logger.DatabaseCall("INSERT", "interviews", "interviewID", iv.ID)
	_, err = r.db.ExecContext(ctx, query, iv.ID, iv.EmployerID, iv.CandidateID, iv.ScheduledBy, iv.Title, slots,
		iv.ConfirmedTime, iv.Status, iv.RoomToken, iv.Notes, iv.CancelledBy, iv.CreatedAt, iv.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "interviewID", iv.ID)
	if err != nil {
		logger.ExitMethodWithError("interviewRepository.Create", err, "interviewID", iv.ID)
		return mapError(err)
	}
	iv.Version = 1
	logger.ExitMethod("interviewRepository.Create", "interviewID", iv.ID)
	return nil
}

func (r *interviewRepository) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	logger.DatabaseCall("SELECT", "interviews", "interviewID", id)
	iv, err := scanInterview(r.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return iv, nil
}

func (r *interviewRepository) Update(ctx context.Context, iv *domain.Interview) error {
	slots, err := toJSON(iv.ProposedTimes)
	if err != nil {
		return err
	}
	query := `UPDATE interviews SET title = $1, proposed_times = $2, confirmed_time = $3, status = $4, notes = $5,
	          cancelled_by = $6, updated_at = $7, version = version + 1
	          WHERE id = $8 AND version = $9`
	logger.DatabaseCall("UPDATE", "interviews", "interviewID", iv.ID, "status", iv.Status)
	res, err := r.db.ExecContext(ctx, query, iv.Title, slots, iv.ConfirmedTime, iv.Status, iv.Notes, iv.CancelledBy,
		iv.UpdatedAt, iv.ID, iv.Version)
	if err != nil {
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM interviews WHERE id = $1)`, iv.ID)
	}); err != nil {
		return err
	}
	iv.Version++
	return nil
}

func (r *interviewRepository) ListByParticipant(ctx context.Context, actorID string) ([]domain.Interview, error) {
	return r.list(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE employer_id = $1 OR candidate_id = $1
	          ORDER BY created_at DESC`, actorID)
}

func (r *interviewRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Interview, error) {
	return r.list(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE status = 'PENDING' AND created_at < $1
	          ORDER BY created_at`, cutoff)
}
