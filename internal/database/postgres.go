package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds database configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Postgres represents a PostgreSQL connection.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL connection pool.
func NewPostgres(cfg Config) (*Postgres, error) {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db}, nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// DB exposes the underlying handle for transactions.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// ExecContext runs a statement.
func (p *Postgres) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query returning rows.
func (p *Postgres) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query returning at most one row.
func (p *Postgres) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// CreateTables creates the schema used by the persistent stores.
func (p *Postgres) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS frameworks (
			key VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			version VARCHAR(64),
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS controls (
			id VARCHAR(128) PRIMARY KEY,
			framework_key VARCHAR(64) NOT NULL REFERENCES frameworks(key),
			code VARCHAR(64) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(128),
			guidance TEXT,
			seq SERIAL,
			UNIQUE(framework_key, code)
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			source VARCHAR(32) NOT NULL,
			review_status VARCHAR(32) NOT NULL,
			collected_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ,
			external_id VARCHAR(255),
			summary TEXT,
			file_key VARCHAR(512),
			file_name VARCHAR(255),
			reviewed_by VARCHAR(255),
			reviewed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS evidence_controls (
			evidence_id UUID NOT NULL REFERENCES evidence(id) ON DELETE CASCADE,
			control_id VARCHAR(128) NOT NULL,
			PRIMARY KEY (evidence_id, control_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_exports (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			framework_key VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			filename VARCHAR(512),
			size_bytes BIGINT,
			control_count INT NOT NULL DEFAULT 0,
			evidence_count INT NOT NULL DEFAULT 0,
			error_msg TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS gap_results (
			id UUID PRIMARY KEY,
			framework_key VARCHAR(64) NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			approval_status VARCHAR(32) NOT NULL,
			approved_by VARCHAR(255),
			approved_at TIMESTAMPTZ,
			revision_notes TEXT,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type VARCHAR(64) NOT NULL,
			action VARCHAR(255) NOT NULL,
			resource VARCHAR(255),
			result VARCHAR(32) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			actor VARCHAR(255),
			error_msg TEXT,
			metadata JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp
			ON audit_logs(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_exports_created
			ON audit_exports(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	return nil
}
