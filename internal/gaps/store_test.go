package gaps

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedResult(t *testing.T, store *MemoryStore) *Result {
	t.Helper()
	result := Evaluate("soc2", analyzerControls(), nil)
	require.NoError(t, store.Save(context.Background(), result))
	return result
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	result := savedResult(t, store)

	got, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, got.ID)
	assert.Equal(t, ApprovalPending, got.ApprovalStatus)

	_, err = store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestMemoryStore_SaveIsInsertOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	result := savedResult(t, store)

	_, err := store.Approve(ctx, result.ID, "alex")
	require.NoError(t, err)

	// A re-save must not reset a reviewed result back to pending.
	stale := *result
	stale.ApprovalStatus = ApprovalPending
	assert.ErrorIs(t, store.Save(ctx, &stale), ErrResultExists)

	got, err := store.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, got.ApprovalStatus)
}

func TestMemoryStore_ListFiltersByFramework(t *testing.T) {
	store := NewMemoryStore()
	savedResult(t, store)
	other := Evaluate("iso27001", nil, nil)
	require.NoError(t, store.Save(context.Background(), other))

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	soc2Only, err := store.List(context.Background(), "soc2")
	require.NoError(t, err)
	require.Len(t, soc2Only, 1)
	assert.Equal(t, "soc2", soc2Only[0].FrameworkKey)
}

func TestMemoryStore_ApprovalTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to approved", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)

		got, err := store.Approve(ctx, result.ID, "alex")
		require.NoError(t, err)
		assert.Equal(t, ApprovalApproved, got.ApprovalStatus)
		assert.Equal(t, "alex", got.ApprovedBy)
		assert.NotNil(t, got.ApprovedAt)
	})

	t.Run("pending to rejected", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)

		got, err := store.Reject(ctx, result.ID, "alex")
		require.NoError(t, err)
		assert.Equal(t, ApprovalRejected, got.ApprovalStatus)
	})

	t.Run("approved to revision requested", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)
		_, err := store.Approve(ctx, result.ID, "alex")
		require.NoError(t, err)

		got, err := store.RequestRevision(ctx, result.ID, "sam", "stale evidence for CC6.1")
		require.NoError(t, err)
		assert.Equal(t, ApprovalRevisionRequested, got.ApprovalStatus)
		assert.Equal(t, "stale evidence for CC6.1", got.RevisionNotes)
	})

	t.Run("revision requires notes", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)
		_, err := store.Reject(ctx, result.ID, "alex")
		require.NoError(t, err)

		_, err = store.RequestRevision(ctx, result.ID, "sam", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("pending cannot request revision", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)

		_, err := store.RequestRevision(ctx, result.ID, "sam", "notes")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("approved is terminal for approve", func(t *testing.T) {
		store := NewMemoryStore()
		result := savedResult(t, store)
		_, err := store.Approve(ctx, result.ID, "alex")
		require.NoError(t, err)

		_, err = store.Approve(ctx, result.ID, "alex")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = store.Reject(ctx, result.ID, "alex")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.Approve(ctx, uuid.New(), "alex")
		assert.ErrorIs(t, err, ErrResultNotFound)
	})
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{ApprovalPending, ApprovalApproved, true},
		{ApprovalPending, ApprovalRejected, true},
		{ApprovalPending, ApprovalRevisionRequested, false},
		{ApprovalApproved, ApprovalRevisionRequested, true},
		{ApprovalRejected, ApprovalRevisionRequested, true},
		{ApprovalApproved, ApprovalRejected, false},
		{ApprovalRevisionRequested, ApprovalApproved, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
