package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/attestly/attestor/internal/database"
)

// PostgresRecordStore is a database-backed RecordStore.
type PostgresRecordStore struct {
	db *database.Postgres
}

// NewPostgresRecordStore creates a record store over the connection.
func NewPostgresRecordStore(db *database.Postgres) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

// Create inserts a new export record.
func (s *PostgresRecordStore) Create(ctx context.Context, record *AuditExport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_exports (
			id, name, framework_key, status, filename, size_bytes,
			control_count, evidence_count, error_msg, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.Name, record.FrameworkKey, record.Status,
		nullIfEmpty(record.Filename), record.SizeBytes, record.ControlCount,
		record.EvidenceCount, nullIfEmpty(record.Error), record.CreatedAt,
		record.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Get returns one export record.
func (s *PostgresRecordStore) Get(ctx context.Context, id uuid.UUID) (*AuditExport, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, name, framework_key, status, filename, size_bytes,
		       control_count, evidence_count, error_msg, created_at, completed_at
		FROM audit_exports WHERE id = $1
	`, id), id)
}

// List returns all export records, newest first.
func (s *PostgresRecordStore) List(ctx context.Context) ([]*AuditExport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, framework_key, status, filename, size_bytes,
		       control_count, evidence_count, error_msg, created_at, completed_at
		FROM audit_exports ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*AuditExport
	for rows.Next() {
		record, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Update replaces the record after validating the transition against
// the currently stored status.
func (s *PostgresRecordStore) Update(ctx context.Context, record *AuditExport) error {
	current, err := s.Get(ctx, record.ID)
	if err != nil {
		return err
	}
	if !validStatusTransition(current.Status, record.Status) {
		return fmt.Errorf("%s -> %s: %w", current.Status, record.Status, ErrInvalidTransition)
	}
	if err := checkRecordInvariants(record); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE audit_exports SET
			status = $1, filename = $2, size_bytes = $3,
			error_msg = $4, completed_at = $5
		WHERE id = $6
	`, record.Status, nullIfEmpty(record.Filename), record.SizeBytes,
		nullIfEmpty(record.Error), record.CompletedAt, record.ID)
	if err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	return nil
}

// Delete removes the record.
func (s *PostgresRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresRecordStore) scanOne(row *sql.Row, id uuid.UUID) (*AuditExport, error) {
	record, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query export: %w", err)
	}
	return record, nil
}

type exportScanner interface {
	Scan(dest ...interface{}) error
}

func scanExport(row exportScanner) (*AuditExport, error) {
	var record AuditExport
	var filename, errMsg sql.NullString
	var sizeBytes sql.NullInt64
	var completedAt sql.NullTime

	err := row.Scan(&record.ID, &record.Name, &record.FrameworkKey,
		&record.Status, &filename, &sizeBytes, &record.ControlCount,
		&record.EvidenceCount, &errMsg, &record.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	record.Filename = filename.String
	record.SizeBytes = sizeBytes.Int64
	record.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}
	return &record, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
