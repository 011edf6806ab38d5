package coverage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/evidence"
)

func testControls() []catalog.Control {
	return []catalog.Control{
		{ID: "soc2-CC1.1", FrameworkKey: "soc2", Code: "CC1.1", Category: "Control Environment"},
		{ID: "soc2-CC6.1", FrameworkKey: "soc2", Code: "CC6.1", Category: "Logical & Physical Access"},
		{ID: "soc2-CC6.2", FrameworkKey: "soc2", Code: "CC6.2", Category: "Logical & Physical Access"},
		{ID: "iso27001-A.5.1", FrameworkKey: "iso27001", Code: "A.5.1", Category: "Organizational Controls"},
	}
}

func approvedItem(controlIDs ...string) *evidence.Item {
	return &evidence.Item{
		ID:           uuid.New(),
		Title:        "evidence",
		ReviewStatus: evidence.StatusApproved,
		ControlIDs:   controlIDs,
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		covered  int
		total    int
		expected int
	}{
		{"zero controls", 0, 0, 0},
		{"none covered", 0, 10, 0},
		{"all covered", 10, 10, 100},
		{"rounds half up", 1, 8, 13},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Percent(tt.covered, tt.total))
		})
	}
}

func TestCompute_OnlyApprovedEvidenceCounts(t *testing.T) {
	controls := testControls()
	items := []*evidence.Item{
		approvedItem("soc2-CC1.1"),
		{ID: uuid.New(), ReviewStatus: evidence.StatusNeedsReview, ControlIDs: []string{"soc2-CC6.1"}},
		{ID: uuid.New(), ReviewStatus: evidence.StatusRejected, ControlIDs: []string{"soc2-CC6.2"}},
	}

	report := Compute(controls, items)

	assert.Equal(t, 4, report.TotalControls)
	assert.Equal(t, 1, report.CoveredControls)
	assert.Equal(t, 25, report.CoveragePercent)
	assert.True(t, report.Covered("soc2-CC1.1"))
	assert.False(t, report.Covered("soc2-CC6.1"))
	assert.False(t, report.Covered("soc2-CC6.2"))
}

func TestCompute_UnknownControlIDsIgnored(t *testing.T) {
	controls := testControls()
	items := []*evidence.Item{approvedItem("soc2-CC1.1", "soc2-ZZ9.9")}

	report := Compute(controls, items)

	assert.Equal(t, 1, report.CoveredControls)
}

func TestCompute_Grouping(t *testing.T) {
	controls := testControls()
	items := []*evidence.Item{approvedItem("soc2-CC6.1", "iso27001-A.5.1")}

	report := Compute(controls, items)

	t.Run("by framework", func(t *testing.T) {
		soc2 := report.ByFramework["soc2"]
		assert.Equal(t, 3, soc2.TotalControls)
		assert.Equal(t, 1, soc2.CoveredControls)
		assert.Equal(t, 33, soc2.CoveragePercent)

		iso := report.ByFramework["iso27001"]
		assert.Equal(t, 1, iso.TotalControls)
		assert.Equal(t, 100, iso.CoveragePercent)
	})

	t.Run("by category", func(t *testing.T) {
		access := report.ByCategory["Logical & Physical Access"]
		assert.Equal(t, 2, access.TotalControls)
		assert.Equal(t, 1, access.CoveredControls)
		assert.Equal(t, 50, access.CoveragePercent)
	})
}

func TestCompute_EmptyInputs(t *testing.T) {
	report := Compute(nil, nil)

	assert.Equal(t, 0, report.TotalControls)
	assert.Equal(t, 0, report.CoveragePercent)
	assert.Empty(t, report.ByFramework)
}

func TestCompute_Deterministic(t *testing.T) {
	controls := testControls()
	items := []*evidence.Item{approvedItem("soc2-CC1.1", "soc2-CC6.1")}

	first := Compute(controls, items)
	second := Compute(controls, items)

	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.ByFramework, second.ByFramework)
	assert.Equal(t, first.ByCategory, second.ByCategory)
}

func TestPartition_PreservesOrder(t *testing.T) {
	controls := testControls()
	items := []*evidence.Item{approvedItem("soc2-CC6.1", "iso27001-A.5.1")}

	report := Compute(controls, items)
	covered, uncovered := Partition(controls, report)

	require.Len(t, covered, 2)
	require.Len(t, uncovered, 2)
	assert.Equal(t, "soc2-CC6.1", covered[0].ID)
	assert.Equal(t, "iso27001-A.5.1", covered[1].ID)
	assert.Equal(t, "soc2-CC1.1", uncovered[0].ID)
	assert.Equal(t, "soc2-CC6.2", uncovered[1].ID)
}
