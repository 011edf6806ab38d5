package gaps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrResultNotFound    = errors.New("analysis result not found")
	ErrResultExists      = errors.New("analysis result already exists")
	ErrInvalidTransition = errors.New("invalid approval transition")
)

// Store persists analysis results and drives the human approval gate.
type Store interface {
	// Save inserts a new result; an existing id is rejected. Approval
	// changes go through the transition methods, and regeneration after
	// a revision request produces a result with a fresh id.
	Save(ctx context.Context, result *Result) error
	Get(ctx context.Context, id uuid.UUID) (*Result, error)
	List(ctx context.Context, frameworkKey string) ([]*Result, error)
	// Approve moves pending -> approved.
	Approve(ctx context.Context, id uuid.UUID, approver string) (*Result, error)
	// Reject moves pending -> rejected.
	Reject(ctx context.Context, id uuid.UUID, approver string) (*Result, error)
	// RequestRevision moves approved|rejected -> revision_requested and
	// records the reviewer's notes; notes are required.
	RequestRevision(ctx context.Context, id uuid.UUID, approver, notes string) (*Result, error)
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*Result
}

// NewMemoryStore creates an empty result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[uuid.UUID]*Result)}
}

// Save inserts a new result keyed by its id.
func (s *MemoryStore) Save(ctx context.Context, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[result.ID]; ok {
		return fmt.Errorf("result %s: %w", result.ID, ErrResultExists)
	}

	cp := *result
	s.results[result.ID] = &cp
	return nil
}

// Get returns a copy of the stored result.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("result %s: %w", id, ErrResultNotFound)
	}
	cp := *result
	return &cp, nil
}

// List returns results, newest first, optionally filtered by framework.
func (s *MemoryStore) List(ctx context.Context, frameworkKey string) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Result
	for _, result := range s.results {
		if frameworkKey != "" && result.FrameworkKey != frameworkKey {
			continue
		}
		cp := *result
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

// Approve moves a pending result to approved.
func (s *MemoryStore) Approve(ctx context.Context, id uuid.UUID, approver string) (*Result, error) {
	return s.transition(id, ApprovalApproved, approver, "")
}

// Reject moves a pending result to rejected.
func (s *MemoryStore) Reject(ctx context.Context, id uuid.UUID, approver string) (*Result, error) {
	return s.transition(id, ApprovalRejected, approver, "")
}

// RequestRevision reopens an approved or rejected result for edits.
func (s *MemoryStore) RequestRevision(ctx context.Context, id uuid.UUID, approver, notes string) (*Result, error) {
	if notes == "" {
		return nil, fmt.Errorf("revision notes required: %w", ErrInvalidTransition)
	}
	return s.transition(id, ApprovalRevisionRequested, approver, notes)
}

func (s *MemoryStore) transition(id uuid.UUID, to, approver, notes string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("result %s: %w", id, ErrResultNotFound)
	}

	if !ValidTransition(result.ApprovalStatus, to) {
		return nil, fmt.Errorf("%s -> %s: %w", result.ApprovalStatus, to, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	result.ApprovalStatus = to
	result.ApprovedBy = approver
	result.ApprovedAt = &now
	result.RevisionNotes = notes

	cp := *result
	return &cp, nil
}

// ValidTransition encodes the approval state machine: pending may be
// approved or rejected; approved and rejected may only be reopened via
// revision_requested; revision_requested returns to pending when the
// analysis is regenerated (a new Save).
func ValidTransition(from, to string) bool {
	switch from {
	case ApprovalPending:
		return to == ApprovalApproved || to == ApprovalRejected
	case ApprovalApproved, ApprovalRejected:
		return to == ApprovalRevisionRequested
	default:
		return false
	}
}
