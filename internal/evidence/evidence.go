package evidence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Evidence sources.
const (
	SourceManual = "MANUAL"
	SourceGitHub = "GITHUB"
	SourceAWS    = "AWS"
	SourceAI     = "AI"
)

// Review statuses. Only approved evidence counts toward coverage.
const (
	StatusNeedsReview = "NEEDS_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
)

var (
	ErrNotFound      = errors.New("evidence not found")
	ErrInvalidStatus = errors.New("invalid review status")
)

// Item is a single evidence artifact: an uploaded document or an
// integration-collected configuration snapshot, mapped to zero or more
// controls.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Source       string     `json:"source"`
	ReviewStatus string     `json:"reviewStatus"`
	CollectedAt  time.Time  `json:"collectedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	ExternalID   string     `json:"externalId,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	ControlIDs   []string   `json:"controlIds"`
	// FileKey is the blob-store key of the attached file, empty when
	// the item has no binary attachment.
	FileKey  string `json:"fileKey,omitempty"`
	FileName string `json:"fileName,omitempty"`

	ReviewedBy string     `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
}

// Approved reports whether the item counts toward coverage.
func (i *Item) Approved() bool {
	return i.ReviewStatus == StatusApproved
}

// Store is the evidence repository contract. Implementations must
// provide read-after-write consistency for a single item.
type Store interface {
	List(ctx context.Context) ([]*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	Create(ctx context.Context, item *Item) error
	// Review approves or rejects an item.
	Review(ctx context.Context, id uuid.UUID, status, reviewer string) (*Item, error)
	// SetControls replaces the item's control mappings.
	SetControls(ctx context.Context, id uuid.UUID, controlIDs []string) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
