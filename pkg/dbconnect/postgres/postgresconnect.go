package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"gomarket_feedbacks/config"
	"gomarket_feedbacks/pkg/logger"
)

const maxRetries = 10
const dbMaxOpenConns = 20
const retryDelay = 5 * time.Second

type PostgresDatabase struct {
	config.DbConfig
	db  *sql.DB
	mu  sync.Mutex // Для защиты доступа к db
	log logger.Logger

	maxOpenConns int
	retries      int
	retryDelay   time.Duration
	open         func(driverName, dsn string) (*sql.DB, error)
}

func NewPgConnector(dbConfig config.DbConfig, maxOpenConns int, log logger.Logger) *PostgresDatabase {
	if maxOpenConns <= 0 {
		maxOpenConns = dbMaxOpenConns
	}
	return &PostgresDatabase{
		DbConfig:     dbConfig,
		log:          log.WithPrefix("[Postgres]"),
		maxOpenConns: maxOpenConns,
		retries:      maxRetries,
		retryDelay:   retryDelay,
		open:         sql.Open,
	}
}

// Connect returns the shared pool, dialing it on first use. Startup races with
// the database container, so the first dial retries with a fixed delay.
func (pg *PostgresDatabase) Connect(ctx context.Context) (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < pg.retries; i++ {
		var db *sql.DB
		db, err = pg.open("postgres", conStr)
		if err != nil {
			pg.log.Warn("Failed to open Postgres (attempt %d/%d): %v", i+1, pg.retries, err)
			if waitErr := pg.wait(ctx); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		db.SetMaxOpenConns(pg.maxOpenConns)

		if err = db.PingContext(ctx); err != nil {
			pg.log.Warn("Failed to ping Postgres (attempt %d/%d): %v", i+1, pg.retries, err)
			db.Close()
			if waitErr := pg.wait(ctx); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		pg.log.Log("Successfully connected to Postgres")
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("postgres unavailable after %d attempts: %w", pg.retries, err)
}

func (pg *PostgresDatabase) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pg.retryDelay):
		return nil
	}
}

func (pg *PostgresDatabase) Ping(ctx context.Context) error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
