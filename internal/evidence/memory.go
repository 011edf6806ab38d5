package evidence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and demo deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
}

// NewMemoryStore creates an empty in-memory evidence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]*Item)}
}

// List returns all items ordered by collection time, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CollectedAt.Equal(result[j].CollectedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CollectedAt.After(result[j].CollectedAt)
	})
	return result, nil
}

// Get returns a copy of the item.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

// Create stores a new item. Items always enter review as NEEDS_REVIEW.
func (s *MemoryStore) Create(ctx context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CollectedAt.IsZero() {
		item.CollectedAt = time.Now().UTC()
	}
	item.ReviewStatus = StatusNeedsReview

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

// Review approves or rejects an item.
func (s *MemoryStore) Review(ctx context.Context, id uuid.UUID, status, reviewer string) (*Item, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("review status %q: %w", status, ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}

	now := time.Now().UTC()
	item.ReviewStatus = status
	item.ReviewedBy = reviewer
	item.ReviewedAt = &now

	cp := *item
	return &cp, nil
}

// SetControls replaces the item's control mappings.
func (s *MemoryStore) SetControls(ctx context.Context, id uuid.UUID, controlIDs []string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}

	item.ControlIDs = append([]string(nil), controlIDs...)
	cp := *item
	return &cp, nil
}

// Delete removes an item. Deleting an unknown id is an error so
// callers can distinguish repeat deletes.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("evidence %s: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	return nil
}
