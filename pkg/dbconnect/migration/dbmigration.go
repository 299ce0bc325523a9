package migration

import (
	"context"
	"database/sql"
	"fmt"

	"gomarket_feedbacks/pkg/dbconnect"
	"gomarket_feedbacks/pkg/logger"
)

type MigrationInterface interface {
	UpMigration(ctx context.Context, db *sql.DB) error
}

// Apply runs migrations in order and stops at the first failure.
func Apply(ctx context.Context, conn dbconnect.DbConnector, log logger.Logger, migrations ...MigrationInterface) error {
	db, err := conn.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	for _, m := range migrations {
		log.Debug("Applying migration: %T", m)
		if err := m.UpMigration(ctx, db); err != nil {
			return fmt.Errorf("migration %T failed: %w", m, err)
		}
	}
	log.Log("Migrations applied successfully (%d)", len(migrations))
	return nil
}
