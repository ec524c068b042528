package postgres

import (
	"context"
	"database/sql"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type verificationRepository struct {
	db dbtx
}

func NewVerificationRepository(db *sql.DB) repository.VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, rec *domain.VerificationRecord) error {
	logger.EnterMethod("verificationRepository.Create", "ownerID", rec.OwnerID, "role", rec.Role)

	profile, err := toJSON(rec.Profile)
	if err != nil {
		return err
	}
	query := `INSERT INTO verification_records (owner_id, role, status, rejection_reason, cost_hint, profile, reviewer_id,
	          submitted_at, resolved_at, updated_at, version)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`
	logger.DatabaseCall("INSERT", "verification_records", "ownerID", rec.OwnerID)
	_, err = r.db.ExecContext(ctx, query, rec.OwnerID, rec.Role, rec.Status, rec.RejectionReason, rec.CostHint, profile,
		rec.ReviewerID, rec.SubmittedAt, rec.ResolvedAt, rec.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "ownerID", rec.OwnerID)
	if err != nil {
		logger.ExitMethodWithError("verificationRepository.Create", err, "ownerID", rec.OwnerID)
		return mapError(err)
	}
	rec.Version = 1
	logger.ExitMethod("verificationRepository.Create", "ownerID", rec.OwnerID)
	return nil
}

func (r *verificationRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.VerificationRecord, error) {
	query := `SELECT owner_id, role, status, rejection_reason, cost_hint, profile, reviewer_id, submitted_at, resolved_at,
	          updated_at, version FROM verification_records WHERE owner_id = $1`
	logger.DatabaseCall("SELECT", "verification_records", "ownerID", ownerID)

	var rec domain.VerificationRecord
	var profile []byte
	var submittedAt, resolvedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&rec.OwnerID, &rec.Role, &rec.Status, &rec.RejectionReason,
		&rec.CostHint, &profile, &rec.ReviewerID, &submittedAt, &resolvedAt, &rec.UpdatedAt, &rec.Version)
	if err != nil {
		return nil, mapError(err)
	}
	if err := fromJSON(profile, &rec.Profile); err != nil {
		return nil, err
	}
	rec.SubmittedAt = nullTime(submittedAt)
	rec.ResolvedAt = nullTime(resolvedAt)
	return &rec, nil
}

func (r *verificationRepository) Update(ctx context.Context, rec *domain.VerificationRecord) error {
	profile, err := toJSON(rec.Profile)
	if err != nil {
		return err
	}
	query := `UPDATE verification_records SET status = $1, rejection_reason = $2, cost_hint = $3, profile = $4,
	          reviewer_id = $5, submitted_at = $6, resolved_at = $7, updated_at = $8, role = $9, version = version + 1
	          WHERE owner_id = $10 AND version = $11`
	logger.DatabaseCall("UPDATE", "verification_records", "ownerID", rec.OwnerID, "status", rec.Status)
	res, err := r.db.ExecContext(ctx, query, rec.Status, rec.RejectionReason, rec.CostHint, profile, rec.ReviewerID,
		rec.SubmittedAt, rec.ResolvedAt, rec.UpdatedAt, rec.Role, rec.OwnerID, rec.Version)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "ownerID", rec.OwnerID)
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM verification_records WHERE owner_id = $1)`, rec.OwnerID)
	}); err != nil {
		return err
	}
	rec.Version++
	return nil
}

func (r *verificationRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM verification_records WHERE status = $1`, status).Scan(&n)
	return n, err
}
