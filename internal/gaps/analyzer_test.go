package gaps

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/evidence"
)

func analyzerControls() []catalog.Control {
	return []catalog.Control{
		{ID: "soc2-CC1.1", FrameworkKey: "soc2", Code: "CC1.1", Title: "Integrity and Ethics", Category: "Control Environment"},
		{ID: "soc2-CC6.1", FrameworkKey: "soc2", Code: "CC6.1", Title: "Access Security", Category: "Logical & Physical Access"},
		{ID: "soc2-CC7.2", FrameworkKey: "soc2", Code: "CC7.2", Title: "Anomaly Monitoring", Category: "System Operations"},
		{ID: "soc2-CC8.1", FrameworkKey: "soc2", Code: "CC8.1", Title: "Change Authorization", Category: "Change Management"},
		{ID: "soc2-CC9.1", FrameworkKey: "soc2", Code: "CC9.1", Title: "Risk Mitigation", Category: "Risk Mitigation"},
	}
}

func approvedFor(controlIDs ...string) *evidence.Item {
	return &evidence.Item{
		ID:           uuid.New(),
		Title:        "approved evidence",
		ReviewStatus: evidence.StatusApproved,
		ControlIDs:   controlIDs,
	}
}

func TestEvaluate_SeverityClassification(t *testing.T) {
	result := Evaluate("soc2", analyzerControls(), nil)

	require.Len(t, result.Gaps, 5)

	bySeverity := make(map[string]string)
	for _, g := range result.Gaps {
		bySeverity[g.ControlCode] = g.Severity
	}
	assert.Equal(t, SeverityCritical, bySeverity["CC6.1"])
	assert.Equal(t, SeverityHigh, bySeverity["CC1.1"])
	assert.Equal(t, SeverityHigh, bySeverity["CC7.2"])
	assert.Equal(t, SeverityMedium, bySeverity["CC8.1"])
	assert.Equal(t, SeverityLow, bySeverity["CC9.1"])
}

func TestEvaluate_UnknownCategoryDefaultsToMedium(t *testing.T) {
	controls := []catalog.Control{
		{ID: "x-1", FrameworkKey: "x", Code: "X1", Title: "Custom", Category: "Bespoke Category"},
	}

	result := Evaluate("x", controls, nil)

	require.Len(t, result.Gaps, 1)
	assert.Equal(t, SeverityMedium, result.Gaps[0].Severity)
	assert.Equal(t, genericSuggestedEvidence, result.Gaps[0].SuggestedEvidence)
}

func TestEvaluate_SeverityOrderingIsStable(t *testing.T) {
	result := Evaluate("soc2", analyzerControls(), nil)

	var order []string
	for _, g := range result.Gaps {
		order = append(order, g.ControlCode)
	}
	// Critical first, then the two highs in catalog order, then
	// medium, then low.
	assert.Equal(t, []string{"CC6.1", "CC1.1", "CC7.2", "CC8.1", "CC9.1"}, order)
}

func TestEvaluate_EffortHeuristic(t *testing.T) {
	result := Evaluate("soc2", analyzerControls(), nil)

	for _, g := range result.Gaps {
		if g.ControlCode == "CC6.1" {
			assert.Equal(t, EffortDays, g.EstimatedEffort)
		} else {
			assert.Equal(t, EffortHours, g.EstimatedEffort)
		}
	}
}

func TestEvaluate_SummaryAndReadiness(t *testing.T) {
	controls := analyzerControls()

	t.Run("no evidence", func(t *testing.T) {
		result := Evaluate("soc2", controls, nil)

		assert.Equal(t, 5, result.Summary.TotalControls)
		assert.Equal(t, 0, result.Summary.CoveredControls)
		assert.Equal(t, 1, result.Summary.CriticalGaps)
		assert.Equal(t, 2, result.Summary.HighGaps)
		assert.Equal(t, 1, result.Summary.MediumGaps)
		assert.Equal(t, 1, result.Summary.LowGaps)
		// 0 - 10 - 10 clamps to 0.
		assert.Equal(t, 0, result.Summary.ReadinessScore)
	})

	t.Run("partial coverage", func(t *testing.T) {
		items := []*evidence.Item{
			approvedFor("soc2-CC6.1", "soc2-CC1.1", "soc2-CC7.2", "soc2-CC8.1"),
		}
		result := Evaluate("soc2", controls, items)

		assert.Equal(t, 4, result.Summary.CoveredControls)
		assert.Equal(t, 80, result.Summary.CoveragePercent)
		assert.Equal(t, 0, result.Summary.CriticalGaps)
		assert.Equal(t, 0, result.Summary.HighGaps)
		// 80 - 0 - 0
		assert.Equal(t, 80, result.Summary.ReadinessScore)
	})

	t.Run("full coverage", func(t *testing.T) {
		items := []*evidence.Item{
			approvedFor("soc2-CC6.1", "soc2-CC1.1", "soc2-CC7.2", "soc2-CC8.1", "soc2-CC9.1"),
		}
		result := Evaluate("soc2", controls, items)

		assert.Empty(t, result.Gaps)
		assert.Equal(t, 100, result.Summary.ReadinessScore)
	})

	t.Run("no controls", func(t *testing.T) {
		result := Evaluate("empty", nil, nil)

		assert.Equal(t, 0, result.Summary.CoveragePercent)
		assert.Equal(t, 0, result.Summary.ReadinessScore)
	})
}

func TestEvaluate_Citations(t *testing.T) {
	t.Run("capped at five", func(t *testing.T) {
		var controls []catalog.Control
		var ids []string
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("soc2-CT%d", i)
			controls = append(controls, catalog.Control{
				ID: id, FrameworkKey: "soc2", Code: fmt.Sprintf("CT%d", i),
				Title: "control", Category: "Control Environment",
			})
			ids = append(ids, id)
		}

		result := Evaluate("soc2", controls, []*evidence.Item{approvedFor(ids...)})

		require.Len(t, result.Citations, 5)
		for i, c := range result.Citations {
			assert.GreaterOrEqual(t, c.Relevance, 0.85)
			assert.LessOrEqual(t, c.Relevance, 1.0)
			assert.InDelta(t, 0.95-0.01*float64(i), c.Relevance, 1e-9)
		}
	})

	t.Run("references approved evidence", func(t *testing.T) {
		item := approvedFor("soc2-CC6.1")
		result := Evaluate("soc2", analyzerControls(), []*evidence.Item{item})

		require.Len(t, result.Citations, 1)
		assert.Equal(t, "CC6.1", result.Citations[0].ControlCode)
		assert.Equal(t, item.ID.String(), result.Citations[0].EvidenceID)
	})

	t.Run("none when nothing covered", func(t *testing.T) {
		result := Evaluate("soc2", analyzerControls(), nil)
		assert.Empty(t, result.Citations)
	})
}

func TestEvaluate_Recommendations(t *testing.T) {
	result := Evaluate("soc2", analyzerControls(), nil)

	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "Coverage is 0%")
	assert.Contains(t, result.Recommendations[1], "1 critical gap")

	for _, g := range result.Gaps {
		assert.NotEmpty(t, g.Recommendation)
		assert.NotEmpty(t, g.SuggestedEvidence)
		assert.Contains(t, g.Description, g.ControlCode)
	}
}

func TestEvaluate_StartsPending(t *testing.T) {
	result := Evaluate("soc2", analyzerControls(), nil)

	assert.Equal(t, ApprovalPending, result.ApprovalStatus)
	assert.False(t, result.Enhanced)
	assert.NotEqual(t, uuid.Nil, result.ID)
}

func TestAnalyzer_Analyze(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	store := evidence.NewMemoryStore()
	analyzer := NewAnalyzer(cat, store, nil, zap.NewNop())

	t.Run("unknown framework", func(t *testing.T) {
		_, err := analyzer.Analyze(context.Background(), "nist")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("seeded framework", func(t *testing.T) {
		result, err := analyzer.Analyze(context.Background(), "soc2")
		require.NoError(t, err)

		assert.Equal(t, "soc2", result.FrameworkKey)
		assert.Equal(t, 20, result.Summary.TotalControls)
		assert.Len(t, result.Gaps, 20)
	})
}
