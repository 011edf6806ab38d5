package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit event.
type EventType string

const (
	// Export lifecycle
	EventTypeExportGenerated EventType = "export.generated"
	EventTypeExportFailed    EventType = "export.failed"
	EventTypeExportDeleted   EventType = "export.deleted"
	EventTypeExportDownload  EventType = "export.download"

	// Gap analysis lifecycle
	EventTypeAnalysisRun      EventType = "analysis.run"
	EventTypeAnalysisApproved EventType = "analysis.approved"
	EventTypeAnalysisRejected EventType = "analysis.rejected"
	EventTypeAnalysisRevision EventType = "analysis.revision_requested"

	// Evidence lifecycle
	EventTypeEvidenceCreated  EventType = "evidence.created"
	EventTypeEvidenceReviewed EventType = "evidence.reviewed"
	EventTypeEvidenceDeleted  EventType = "evidence.deleted"
)

// Result is the outcome of the audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Severity of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is a single audit-log entry.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Result    Result            `json:"result"`
	Severity  Severity          `json:"severity"`
	Actor     string            `json:"actor,omitempty"`
	ErrorMsg  string            `json:"error_msg,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger records audit events. Recording is best-effort from the
// caller's perspective: a logging failure must never fail the audited
// operation.
type Logger interface {
	LogEvent(ctx context.Context, event *Event) error
}
