package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrationsSchema creates the ledger every other migration records itself in.
type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(ctx context.Context, db *sql.DB) error {
	query :=
		`
		CREATE SCHEMA IF NOT EXISTS migrations;
		`
	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS migrations.migrations (
            id SERIAL PRIMARY KEY,
            time TIMESTAMP NOT NULL,
            name VARCHAR(255) UNIQUE NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}
