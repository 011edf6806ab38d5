package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/attestly/attestor/internal/database"
)

// PostgresCatalog is a database-backed Catalog.
type PostgresCatalog struct {
	db *database.Postgres
}

// NewPostgresCatalog creates a catalog over the given connection.
func NewPostgresCatalog(db *database.Postgres) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Sync upserts reference data, typically the seeded baseline, so a
// fresh database starts with a usable catalog.
func (c *PostgresCatalog) Sync(ctx context.Context, frameworks []Framework, controls []Control) error {
	for _, fw := range frameworks {
		_, err := c.db.ExecContext(ctx, `
			INSERT INTO frameworks (key, name, version, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO UPDATE SET
				name = EXCLUDED.name,
				version = EXCLUDED.version,
				description = EXCLUDED.description
		`, fw.Key, fw.Name, fw.Version, fw.Description)
		if err != nil {
			return fmt.Errorf("upsert framework %s: %w", fw.Key, err)
		}
	}

	for _, ctl := range controls {
		id := ctl.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s", ctl.FrameworkKey, ctl.Code)
		}
		_, err := c.db.ExecContext(ctx, `
			INSERT INTO controls (id, framework_key, code, title, description, category, guidance)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				guidance = EXCLUDED.guidance
		`, id, ctl.FrameworkKey, ctl.Code, ctl.Title, ctl.Description, ctl.Category, ctl.Guidance)
		if err != nil {
			return fmt.Errorf("upsert control %s: %w", ctl.Code, err)
		}
	}

	return nil
}

// ListFrameworks returns all frameworks ordered by key.
func (c *PostgresCatalog) ListFrameworks(ctx context.Context) ([]Framework, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT key, name, version, description FROM frameworks ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("query frameworks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Framework
	for rows.Next() {
		var fw Framework
		if err := rows.Scan(&fw.Key, &fw.Name, &fw.Version, &fw.Description); err != nil {
			return nil, fmt.Errorf("scan framework: %w", err)
		}
		out = append(out, fw)
	}
	return out, rows.Err()
}

// GetFramework returns a framework by key.
func (c *PostgresCatalog) GetFramework(ctx context.Context, key string) (*Framework, error) {
	var fw Framework
	err := c.db.QueryRowContext(ctx, `
		SELECT key, name, version, description FROM frameworks WHERE key = $1
	`, key).Scan(&fw.Key, &fw.Name, &fw.Version, &fw.Description)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("framework %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query framework: %w", err)
	}
	return &fw, nil
}

// ListControls returns controls in seeded order.
func (c *PostgresCatalog) ListControls(ctx context.Context, frameworkKey string) ([]Control, error) {
	query := `
		SELECT id, framework_key, code, title, description, category, guidance
		FROM controls
	`
	var args []interface{}
	if frameworkKey != "" {
		if _, err := c.GetFramework(ctx, frameworkKey); err != nil {
			return nil, err
		}
		query += " WHERE framework_key = $1"
		args = append(args, frameworkKey)
	}
	query += " ORDER BY framework_key, seq"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Control
	for rows.Next() {
		var ctl Control
		if err := rows.Scan(&ctl.ID, &ctl.FrameworkKey, &ctl.Code, &ctl.Title,
			&ctl.Description, &ctl.Category, &ctl.Guidance); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		out = append(out, ctl)
	}
	return out, rows.Err()
}

// SeedData exposes the baseline reference data for Sync.
func SeedData() ([]Framework, []Control) {
	mem := NewMemoryCatalog()
	frameworks, _ := mem.ListFrameworks(context.Background())
	controls, _ := mem.ListControls(context.Background(), "")
	return frameworks, controls
}
