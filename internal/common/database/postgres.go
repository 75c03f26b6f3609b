// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-gateway/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool for the submission ledger.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

const createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS form_submissions (
	id           UUID PRIMARY KEY,
	form         TEXT        NOT NULL,
	session_id   TEXT        NOT NULL,
	outcome      TEXT        NOT NULL,
	http_status  INTEGER     NOT NULL DEFAULT 0,
	duration_ms  BIGINT      NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_form_submissions_form_created
	ON form_submissions (form, created_at DESC);
`

// Migrate creates the tables the gateway writes to.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, createSubmissionsTable); err != nil {
		return fmt.Errorf("migrate form_submissions: %w", err)
	}
	return nil
}
