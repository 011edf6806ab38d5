package export

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRecord() *AuditExport {
	return &AuditExport{
		ID:           uuid.New(),
		Name:         "audit-soc2-test",
		FrameworkKey: "soc2",
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusCompleted, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, validStatusTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestMemoryRecordStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	record := pendingRecord()

	require.NoError(t, store.Create(ctx, record))

	t.Run("duplicate create rejected", func(t *testing.T) {
		assert.Error(t, store.Create(ctx, record))
	})

	t.Run("pending to processing", func(t *testing.T) {
		record.Status = StatusProcessing
		require.NoError(t, store.Update(ctx, record))

		got, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, got.Status)
	})

	t.Run("processing to completed", func(t *testing.T) {
		now := time.Now().UTC()
		record.Status = StatusCompleted
		record.Filename = "audit-soc2-test.zip"
		record.SizeBytes = 2048
		record.CompletedAt = &now
		require.NoError(t, store.Update(ctx, record))

		got, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, got.Terminal())
	})

	t.Run("terminal state is final", func(t *testing.T) {
		record.Status = StatusProcessing
		err := store.Update(ctx, record)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		record.Status = StatusCompleted
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, record.ID))
		_, err := store.Get(ctx, record.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, record.ID), ErrNotFound)
	})
}

func TestMemoryRecordStore_Invariants(t *testing.T) {
	ctx := context.Background()

	t.Run("completed requires filename and size", func(t *testing.T) {
		store := NewMemoryRecordStore()
		record := pendingRecord()
		require.NoError(t, store.Create(ctx, record))
		record.Status = StatusProcessing
		require.NoError(t, store.Update(ctx, record))

		now := time.Now().UTC()
		record.Status = StatusCompleted
		record.CompletedAt = &now
		assert.Error(t, store.Update(ctx, record))
	})

	t.Run("failed requires error", func(t *testing.T) {
		store := NewMemoryRecordStore()
		record := pendingRecord()
		require.NoError(t, store.Create(ctx, record))

		record.Status = StatusFailed
		assert.Error(t, store.Update(ctx, record))

		record.Error = "blob store unavailable"
		assert.NoError(t, store.Update(ctx, record))
	})

	t.Run("in-flight must not carry completion time", func(t *testing.T) {
		store := NewMemoryRecordStore()
		record := pendingRecord()
		require.NoError(t, store.Create(ctx, record))

		now := time.Now().UTC()
		record.Status = StatusProcessing
		record.CompletedAt = &now
		assert.Error(t, store.Update(ctx, record))
	})
}

func TestMemoryRecordStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()

	older := pendingRecord()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := pendingRecord()

	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

func TestGenerateName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := uuid.MustParse("8f14e45f-ceea-467f-a8d9-000000000000")
	name := generateName("soc2", id, now)

	assert.Equal(t, "audit-soc2-2026-03-14T09-26-53Z-8f14e45f", name)
	assert.NotContains(t, name, ":")

	t.Run("same instant yields distinct names", func(t *testing.T) {
		other := generateName("soc2", uuid.New(), now)
		assert.NotEqual(t, name, other)
	})
}

func TestSanitizeCategory(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Logical & Physical Access", "Logical-Physical-Access"},
		{"Control Environment", "Control-Environment"},
		{"System Operations", "System-Operations"},
		{"   ", "uncategorized"},
		{"", "uncategorized"},
		{"a/b\\c", "a-b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, sanitizeCategory(tt.in))
		})
	}
}
