package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_SeededFrameworks(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()

	frameworks, err := cat.ListFrameworks(ctx)
	require.NoError(t, err)
	require.Len(t, frameworks, 2)

	keys := []string{frameworks[0].Key, frameworks[1].Key}
	assert.Contains(t, keys, "soc2")
	assert.Contains(t, keys, "iso27001")
}

func TestMemoryCatalog_GetFramework(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()

	fw, err := cat.GetFramework(ctx, "soc2")
	require.NoError(t, err)
	assert.Equal(t, "soc2", fw.Key)
	assert.NotEmpty(t, fw.Name)
	assert.NotEmpty(t, fw.Version)

	_, err = cat.GetFramework(ctx, "nist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCatalog_ListControls(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()

	t.Run("soc2", func(t *testing.T) {
		controls, err := cat.ListControls(ctx, "soc2")
		require.NoError(t, err)
		assert.Len(t, controls, 20)

		for _, ctl := range controls {
			assert.Equal(t, "soc2", ctl.FrameworkKey)
			assert.NotEmpty(t, ctl.ID)
			assert.NotEmpty(t, ctl.Code)
			assert.NotEmpty(t, ctl.Category)
		}
		assert.Equal(t, "CC1.1", controls[0].Code)
	})

	t.Run("iso27001", func(t *testing.T) {
		controls, err := cat.ListControls(ctx, "iso27001")
		require.NoError(t, err)
		assert.Len(t, controls, 12)
	})

	t.Run("all frameworks", func(t *testing.T) {
		controls, err := cat.ListControls(ctx, "")
		require.NoError(t, err)
		assert.Len(t, controls, 32)
	})

	t.Run("unknown framework", func(t *testing.T) {
		_, err := cat.ListControls(ctx, "nist")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryCatalog_AddFramework(t *testing.T) {
	ctx := context.Background()
	cat := NewEmptyCatalog()

	cat.AddFramework(Framework{Key: "hipaa", Name: "HIPAA", Version: "2013"})
	cat.AddControl(Control{
		FrameworkKey: "hipaa", Code: "164.312", Title: "Technical safeguards",
		Category: "Technological Access",
	})

	controls, err := cat.ListControls(ctx, "hipaa")
	require.NoError(t, err)
	require.Len(t, controls, 1)
	assert.Equal(t, "hipaa-164.312", controls[0].ID)
}

func TestSeedData(t *testing.T) {
	frameworks, controls := SeedData()
	assert.Len(t, frameworks, 2)
	assert.Len(t, controls, 32)
}
