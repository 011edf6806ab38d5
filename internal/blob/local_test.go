package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	key := "evidence/abc/report.pdf"

	t.Run("missing before put", func(t *testing.T) {
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("put and open", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, strings.NewReader("report-bytes")))

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		r, err := store.Open(ctx, key)
		require.NoError(t, err)
		defer func() { _ = r.Close() }()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "report-bytes", string(data))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, strings.NewReader("v2")))

		r, err := store.Open(ctx, key)
		require.NoError(t, err)
		defer func() { _ = r.Close() }()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)

		// Deleting a missing key is not an error.
		assert.NoError(t, store.Delete(ctx, key))
	})
}

func TestLocalStore_OpenMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "nope/missing.bin")
	assert.Error(t, err)
}
