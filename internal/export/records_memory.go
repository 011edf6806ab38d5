package export

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRecordStore is an in-memory RecordStore.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*AuditExport
}

// NewMemoryRecordStore creates an empty record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[uuid.UUID]*AuditExport)}
}

// Create stores a new record.
func (s *MemoryRecordStore) Create(ctx context.Context, record *AuditExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("export %s already exists", record.ID)
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

// Get returns a copy of the record.
func (s *MemoryRecordStore) Get(ctx context.Context, id uuid.UUID) (*AuditExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	cp := *record
	return &cp, nil
}

// List returns all records, newest first.
func (s *MemoryRecordStore) List(ctx context.Context) ([]*AuditExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*AuditExport, 0, len(s.records))
	for _, record := range s.records {
		cp := *record
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces the record after validating the status transition.
func (s *MemoryRecordStore) Update(ctx context.Context, record *AuditExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.ID]
	if !ok {
		return fmt.Errorf("export %s: %w", record.ID, ErrNotFound)
	}
	if !validStatusTransition(current.Status, record.Status) {
		return fmt.Errorf("%s -> %s: %w", current.Status, record.Status, ErrInvalidTransition)
	}
	if err := checkRecordInvariants(record); err != nil {
		return err
	}

	cp := *record
	s.records[record.ID] = &cp
	return nil
}

// Delete removes the record. Unknown ids error so the API can 404.
func (s *MemoryRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	return nil
}
