package postgres

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"hireflow/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending schema migration.
func Migrate(db *sql.DB) error {
	logger.Info("Applying database migrations")
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}
	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("Database schema is current", "version", version)
	}
	return nil
}
