package gaps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestEnhancer_FallsBackOnCompleterError(t *testing.T) {
	enhancer := NewEnhancer(&fakeCompleter{err: errors.New("provider unavailable")}, zap.NewNop())
	original := Evaluate("soc2", analyzerControls(), nil)

	result := enhancer.Enhance(context.Background(), original)

	assert.Same(t, original, result)
	assert.False(t, result.Enhanced)
}

func TestEnhancer_FallsBackOnGarbage(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "here are my thoughts on your compliance posture"},
		{"wrong types", `{"readinessScore": "very high"}`},
		{"invalid severity", `{"gaps": [{"controlCode": "CC6.1", "severity": "catastrophic"}]}`},
		{"missing control code", `{"gaps": [{"severity": "high"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer := NewEnhancer(&fakeCompleter{response: tt.response}, zap.NewNop())
			original := Evaluate("soc2", analyzerControls(), nil)

			result := enhancer.Enhance(context.Background(), original)

			assert.Same(t, original, result)
			assert.False(t, result.Enhanced)
		})
	}
}

func TestEnhancer_AppliesValidOverrides(t *testing.T) {
	response := `{
		"readinessScore": 42,
		"recommendations": ["Start with access reviews."],
		"gaps": [
			{"controlCode": "CC9.1", "severity": "critical", "recommendation": "Escalate vendor risk."}
		]
	}`
	enhancer := NewEnhancer(&fakeCompleter{response: response}, zap.NewNop())
	original := Evaluate("soc2", analyzerControls(), nil)

	result := enhancer.Enhance(context.Background(), original)

	require.NotSame(t, original, result)
	assert.True(t, result.Enhanced)
	assert.Equal(t, 42, result.Summary.ReadinessScore)
	assert.Equal(t, []string{"Start with access reviews."}, result.Recommendations)

	// CC9.1 was low and is now critical; the list re-sorts and the
	// summary recounts.
	assert.Equal(t, SeverityCritical, result.Gaps[0].Severity)
	assert.Contains(t, []string{"CC6.1", "CC9.1"}, result.Gaps[0].ControlCode)
	assert.Equal(t, 2, result.Summary.CriticalGaps)
	assert.Equal(t, 0, result.Summary.LowGaps)

	// The input result is untouched.
	assert.False(t, original.Enhanced)
	assert.Equal(t, 1, original.Summary.CriticalGaps)
}

func TestEnhancer_StripsMarkdownFences(t *testing.T) {
	response := "```json\n{\"readinessScore\": 10}\n```"
	enhancer := NewEnhancer(&fakeCompleter{response: response}, zap.NewNop())
	original := Evaluate("soc2", analyzerControls(), nil)

	result := enhancer.Enhance(context.Background(), original)

	assert.True(t, result.Enhanced)
	assert.Equal(t, 10, result.Summary.ReadinessScore)
}

func TestEnhancer_PromptCarriesGapContext(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("ignored")}
	enhancer := NewEnhancer(completer, zap.NewNop())

	enhancer.Enhance(context.Background(), Evaluate("soc2", analyzerControls(), nil))

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "soc2")
	assert.Contains(t, completer.prompts[0], "CC6.1")
}
