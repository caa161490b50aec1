package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/odoyewu/odoyewu/internal/database/migrations"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// goose keeps its base FS and dialect in package globals
var gooseMu sync.Mutex

// Migrate applies all embedded migrations that have not run yet
func (db *DB) Migrate(ctx context.Context) error {
	logger := telemetry.GetContextualLogger(ctx).WithField("operation", "database_migrate")

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		logger.WithError(err).Error("Database migration failed")
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err == nil {
		logger.WithField("version", version).Info("Database schema is up to date")
	}
	return nil
}

// SchemaVersion returns the version of the last applied migration
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
