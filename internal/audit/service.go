package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/attestor/internal/database"
)

// Service writes audit events to postgres.
type Service struct {
	db *database.Postgres
}

// NewService creates a database-backed audit logger.
func NewService(db *database.Postgres) *Service {
	return &Service{db: db}
}

// LogEvent inserts an audit event row.
func (s *Service) LogEvent(ctx context.Context, event *Event) error {
	normalize(event)

	var metadataJSON []byte
	var err error
	if event.Metadata != nil {
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, timestamp, event_type, action, resource, result,
			severity, actor, error_msg, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.EventType,
		event.Action,
		event.Resource,
		event.Result,
		event.Severity,
		event.Actor,
		event.ErrorMsg,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func normalize(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if event.Result == "" {
		event.Result = ResultSuccess
	}
}

// MemoryLogger keeps events in memory, for tests and demo mode.
type MemoryLogger struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryLogger creates an empty in-memory audit logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// LogEvent appends the event.
func (m *MemoryLogger) LogEvent(ctx context.Context, event *Event) error {
	normalize(event)

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

// Events returns a snapshot of recorded events in insertion order.
func (m *MemoryLogger) Events() []*Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Event, 0, len(m.events))
	for _, e := range m.events {
		cp := *e
		out = append(out, &cp)
	}
	return out
}
