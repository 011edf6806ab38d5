// Package export assembles audit packets: deterministic ZIP archives
// of controls, evidence metadata, and attached files for external
// auditor review, tracked by a persisted export record.
package export

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Export record statuses. COMPLETED and FAILED are terminal.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

var (
	ErrNotFound          = errors.New("export not found")
	ErrInvalidTransition = errors.New("invalid export status transition")
	ErrNotReady          = errors.New("export archive not available")
)

// AuditExport is the persisted record of one packet generation.
type AuditExport struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	FrameworkKey  string     `json:"frameworkKey"`
	Status        string     `json:"status"`
	Filename      string     `json:"filename,omitempty"`
	SizeBytes     int64      `json:"sizeBytes,omitempty"`
	ControlCount  int        `json:"controlCount"`
	EvidenceCount int        `json:"evidenceCount"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// Terminal reports whether no further status transitions are allowed.
func (e *AuditExport) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}

// RecordStore persists export records. Implementations must provide
// read-after-write consistency for a single export id and must reject
// transitions out of terminal states.
type RecordStore interface {
	Create(ctx context.Context, record *AuditExport) error
	Get(ctx context.Context, id uuid.UUID) (*AuditExport, error)
	List(ctx context.Context) ([]*AuditExport, error)
	Update(ctx context.Context, record *AuditExport) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// validStatusTransition encodes the export state machine:
// PENDING -> PROCESSING -> COMPLETED | FAILED. A failed export is
// never resurrected; regeneration creates a fresh record.
func validStatusTransition(from, to string) bool {
	if from == to {
		return true // field-only update
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// checkRecordInvariants rejects updates that would violate the
// observable state contract.
func checkRecordInvariants(record *AuditExport) error {
	switch record.Status {
	case StatusCompleted:
		if record.Filename == "" || record.SizeBytes <= 0 {
			return errors.New("completed export requires filename and size")
		}
	case StatusFailed:
		if record.Error == "" {
			return errors.New("failed export requires error")
		}
	case StatusPending, StatusProcessing:
		if record.CompletedAt != nil {
			return errors.New("in-flight export must not have completion time")
		}
	}
	return nil
}
