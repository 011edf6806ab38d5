package gaps

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/attestor/internal/database"
)

// PostgresStore is a database-backed Store. The full result document is
// kept as a JSONB payload; approval fields are lifted into columns so
// transitions can be validated without decoding.
type PostgresStore struct {
	db *database.Postgres
}

// NewPostgresStore creates a result store over the connection.
func NewPostgresStore(db *database.Postgres) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts a new result keyed by its id.
func (s *PostgresStore) Save(ctx context.Context, result *Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gap_results (
			id, framework_key, generated_at, approval_status,
			approved_by, approved_at, revision_notes, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, result.ID, result.FrameworkKey, result.GeneratedAt, result.ApprovalStatus,
		result.ApprovedBy, result.ApprovedAt, result.RevisionNotes, payload)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("result %s: %w", result.ID, ErrResultExists)
	}
	return nil
}

// Get returns one stored result.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM gap_results WHERE id = $1
	`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result %s: %w", id, ErrResultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}
	return decodeResult(payload)
}

// List returns results, newest first, optionally filtered by framework.
func (s *PostgresStore) List(ctx context.Context, frameworkKey string) ([]*Result, error) {
	query := `SELECT payload FROM gap_results`
	var args []interface{}
	if frameworkKey != "" {
		query += ` WHERE framework_key = $1`
		args = append(args, frameworkKey)
	}
	query += ` ORDER BY generated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// Approve moves a pending result to approved.
func (s *PostgresStore) Approve(ctx context.Context, id uuid.UUID, approver string) (*Result, error) {
	return s.transition(ctx, id, ApprovalApproved, approver, "")
}

// Reject moves a pending result to rejected.
func (s *PostgresStore) Reject(ctx context.Context, id uuid.UUID, approver string) (*Result, error) {
	return s.transition(ctx, id, ApprovalRejected, approver, "")
}

// RequestRevision reopens an approved or rejected result for edits.
func (s *PostgresStore) RequestRevision(ctx context.Context, id uuid.UUID, approver, notes string) (*Result, error) {
	if notes == "" {
		return nil, fmt.Errorf("revision notes required: %w", ErrInvalidTransition)
	}
	return s.transition(ctx, id, ApprovalRevisionRequested, approver, notes)
}

func (s *PostgresStore) transition(ctx context.Context, id uuid.UUID, to, approver, notes string) (*Result, error) {
	result, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ValidTransition(result.ApprovalStatus, to) {
		return nil, fmt.Errorf("%s -> %s: %w", result.ApprovalStatus, to, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	result.ApprovalStatus = to
	result.ApprovedBy = approver
	result.ApprovedAt = &now
	result.RevisionNotes = notes

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE gap_results SET
			approval_status = $2, approved_by = $3, approved_at = $4,
			revision_notes = $5, payload = $6
		WHERE id = $1
	`, id, result.ApprovalStatus, result.ApprovedBy, result.ApprovedAt,
		result.RevisionNotes, payload)
	if err != nil {
		return nil, fmt.Errorf("update result: %w", err)
	}
	return result, nil
}

func decodeResult(payload []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}
