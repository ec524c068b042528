package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type documentRepository struct {
	db dbtx
}

func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, owner_id, kind, blob_ref, status, rejection_reason, reviewer_id, created_at, updated_at, reviewed_at, version`

func scanDocument(row interface{ Scan(...any) error }) (*domain.Document, error) {
	var d domain.Document
	var reviewedAt sql.NullTime
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Kind, &d.BlobRef, &d.Status, &d.RejectionReason, &d.ReviewerID,
		&d.CreatedAt, &d.UpdatedAt, &reviewedAt, &d.Version); err != nil {
		return nil, err
	}
	d.ReviewedAt = nullTime(reviewedAt)
	return &d, nil
}

func (r *documentRepository) Create(ctx context.Context, d *domain.Document) error {
	logger.EnterMethod("documentRepository.Create", "ownerID", d.OwnerID, "kind", d.Kind)

	query := `INSERT INTO documents (` + documentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`
	logger.DatabaseCall("INSERT", "documents", "documentID", d.ID)
	_, err := r.db.ExecContext(ctx, query, d.ID, d.OwnerID, d.Kind, d.BlobRef, d.Status, d.RejectionReason, d.ReviewerID,
		d.CreatedAt, d.UpdatedAt, d.ReviewedAt)
	logger.DatabaseResult("INSERT", 1, err, "documentID", d.ID)
	if err != nil {
		logger.ExitMethodWithError("documentRepository.Create", err, "documentID", d.ID)
		return mapError(err)
	}
	d.Version = 1
	logger.ExitMethod("documentRepository.Create", "documentID", d.ID)
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	logger.DatabaseCall("SELECT", "documents", "documentID", id)
	d, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *documentRepository) Update(ctx context.Context, d *domain.Document) error {
	query := `UPDATE documents SET status = $1, rejection_reason = $2, reviewer_id = $3, updated_at = $4, reviewed_at = $5,
	          blob_ref = $6, version = version + 1
	          WHERE id = $7 AND version = $8`
	logger.DatabaseCall("UPDATE", "documents", "documentID", d.ID, "status", d.Status)
	res, err := r.db.ExecContext(ctx, query, d.Status, d.RejectionReason, d.ReviewerID, d.UpdatedAt, d.ReviewedAt,
		d.BlobRef, d.ID, d.Version)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "documentID", d.ID)
		return mapError(err)
	}
	if err := versionedResult(res, func() (bool, error) {
		return rowExists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, d.ID)
	}); err != nil {
		return err
	}
	d.Version++
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", "documents", "documentID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return versionedResult(res, func() (bool, error) { return false, nil })
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *documentRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string, statuses []domain.DocumentStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE owner_id = $1 AND status = ANY($2)`,
		ownerID, pq.Array(values)).Scan(&n)
	return n, err
}

func (r *documentRepository) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE status = $1`, status).Scan(&n)
	return n, err
}
