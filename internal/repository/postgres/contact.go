package postgres

import (
	"context"
	"database/sql"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type contactRepository struct {
	db dbtx
}

func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Upsert(ctx context.Context, c *domain.Contact) error {
	query := `INSERT INTO contacts (user_id, role, email, name) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, email = EXCLUDED.email, name = EXCLUDED.name`
	logger.DatabaseCall("UPSERT", "contacts", "userID", c.UserID)
	_, err := r.db.ExecContext(ctx, query, c.UserID, c.Role, c.Email, c.Name)
	logger.DatabaseResult("UPSERT", 1, err, "userID", c.UserID)
	return mapError(err)
}

func (r *contactRepository) GetByUserID(ctx context.Context, userID string) (*domain.Contact, error) {
	var c domain.Contact
	err := r.db.QueryRowContext(ctx, `SELECT user_id, role, email, name FROM contacts WHERE user_id = $1`, userID).
		Scan(&c.UserID, &c.Role, &c.Email, &c.Name)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *contactRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, role, email, name FROM contacts WHERE role = $1 ORDER BY user_id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.UserID, &c.Role, &c.Email, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
