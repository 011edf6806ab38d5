package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/attestly/attestor/internal/database"
)

// PostgresStore is a database-backed evidence Store. Control mappings
// live in an explicit join table so org-scoped queries stay indexable.
type PostgresStore struct {
	db *database.Postgres
}

// NewPostgresStore creates an evidence store over the connection.
func NewPostgresStore(db *database.Postgres) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `
	e.id, e.title, e.description, e.source, e.review_status,
	e.collected_at, e.expires_at, e.external_id, e.summary,
	e.file_key, e.file_name, e.reviewed_by, e.reviewed_at
`

// List returns all items, newest first, with control mappings loaded.
func (s *PostgresStore) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM evidence e ORDER BY e.collected_at DESC, e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := s.loadControls(ctx, item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Get returns one item with its control mappings.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM evidence e WHERE e.id = $1
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadControls(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts the item and its control mappings.
func (s *PostgresStore) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CollectedAt.IsZero() {
		item.CollectedAt = time.Now().UTC()
	}
	item.ReviewStatus = StatusNeedsReview

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence (
			id, title, description, source, review_status, collected_at,
			expires_at, external_id, summary, file_key, file_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.Title, item.Description, item.Source, item.ReviewStatus,
		item.CollectedAt, item.ExpiresAt, item.ExternalID, item.Summary,
		item.FileKey, item.FileName)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}

	return s.replaceControls(ctx, item.ID, item.ControlIDs)
}

// Review approves or rejects an item.
func (s *PostgresStore) Review(ctx context.Context, id uuid.UUID, status, reviewer string) (*Item, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("review status %q: %w", status, ErrInvalidStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE evidence SET review_status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4
	`, status, reviewer, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// SetControls replaces the item's control mappings.
func (s *PostgresStore) SetControls(ctx context.Context, id uuid.UUID, controlIDs []string) (*Item, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.replaceControls(ctx, id, controlIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the item; mappings cascade.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) replaceControls(ctx context.Context, id uuid.UUID, controlIDs []string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM evidence_controls WHERE evidence_id = $1
	`, id); err != nil {
		return fmt.Errorf("clear control mappings: %w", err)
	}
	for _, controlID := range controlIDs {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO evidence_controls (evidence_id, control_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, id, controlID); err != nil {
			return fmt.Errorf("insert control mapping: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) loadControls(ctx context.Context, item *Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT control_id FROM evidence_controls
		WHERE evidence_id = $1 ORDER BY control_id
	`, item.ID)
	if err != nil {
		return fmt.Errorf("query control mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var controlID string
		if err := rows.Scan(&controlID); err != nil {
			return fmt.Errorf("scan control mapping: %w", err)
		}
		item.ControlIDs = append(item.ControlIDs, controlID)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var expiresAt, reviewedAt pq.NullTime
	var externalID, summary, fileKey, fileName, reviewedBy sql.NullString

	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Source,
		&item.ReviewStatus, &item.CollectedAt, &expiresAt, &externalID,
		&summary, &fileKey, &fileName, &reviewedBy, &reviewedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		item.ExpiresAt = &t
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		item.ReviewedAt = &t
	}
	item.ExternalID = externalID.String
	item.Summary = summary.String
	item.FileKey = fileKey.String
	item.FileName = fileName.String
	item.ReviewedBy = reviewedBy.String
	return &item, nil
}
