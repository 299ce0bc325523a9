package wb

import (
	"context"
	"database/sql"
	"fmt"

	"gomarket_feedbacks/pkg/logger"
)

const (
	FeedbacksMigration        = "wildberries.feedbacks"
	FeedbacksIndexesMigration = "wildberries.feedbacks.indexes"
)

type CreateWBSchema struct{}

func (m *CreateWBSchema) UpMigration(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE SCHEMA IF NOT EXISTS wildberries;`
	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema wildberries: %w", err)
	}
	return nil
}

// CreateFeedbacksTable stores bad feedbacks; feedback_id is the external
// identifier and must stay unique (uq_feedback_id).
type CreateFeedbacksTable struct {
	Log logger.Logger
}

func (m *CreateFeedbacksTable) UpMigration(ctx context.Context, db *sql.DB) error {
	if ok, err := checkAndSkipMigration(ctx, db, FeedbacksMigration); err != nil {
		return err
	} else if ok {
		m.logf("Migration '%s' already completed. Skipping.", FeedbacksMigration)
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS wildberries.feedbacks (
		id SERIAL PRIMARY KEY,
		feedback_id VARCHAR(255) NOT NULL,
		nm_id INT NOT NULL,
		imt_id INT NOT NULL,
		user_name VARCHAR(255),
		text TEXT,
		pros TEXT,
		cons TEXT,
		product_valuation INT NOT NULL,
		color VARCHAR(255),
		size VARCHAR(255),
		created_date TIMESTAMP NOT NULL,
		updated_date TIMESTAMP NOT NULL,
		has_photo BOOLEAN DEFAULT FALSE,
		has_video BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT now(),
		CONSTRAINT uq_feedback_id UNIQUE (feedback_id)
	);`
	if err := executeAndMarkMigration(ctx, db, query, FeedbacksMigration); err != nil {
		return err
	}
	m.logf("Migration '%s' completed successfully.", FeedbacksMigration)
	return nil
}

func (m *CreateFeedbacksTable) logf(format string, v ...interface{}) {
	if m.Log != nil {
		m.Log.Log(format, v...)
	}
}

type CreateFeedbacksIndexes struct{}

func (m *CreateFeedbacksIndexes) UpMigration(ctx context.Context, db *sql.DB) error {
	if ok, err := checkAndSkipMigration(ctx, db, FeedbacksIndexesMigration); err != nil || ok {
		return err
	}
	query := `
	CREATE INDEX IF NOT EXISTS feedbacks_nm_id_idx ON wildberries.feedbacks (nm_id);
	CREATE INDEX IF NOT EXISTS feedbacks_imt_id_idx ON wildberries.feedbacks (imt_id);
	CREATE INDEX IF NOT EXISTS feedbacks_nm_created_idx ON wildberries.feedbacks (nm_id, created_date DESC);`
	return executeAndMarkMigration(ctx, db, query, FeedbacksIndexesMigration)
}

func checkAndSkipMigration(ctx context.Context, db *sql.DB, migrationName string) (bool, error) {
	var migrationExists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", migrationName).Scan(&migrationExists)
	if err != nil {
		return migrationExists, fmt.Errorf("failed to check migration status: %w", err)
	}
	return migrationExists, nil
}

func executeAndMarkMigration(ctx context.Context, db *sql.DB, query string, migrationName string) error {
	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", migrationName, err)
	}
	_, err = db.ExecContext(ctx, "INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", migrationName)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", migrationName, err)
	}
	return nil
}
