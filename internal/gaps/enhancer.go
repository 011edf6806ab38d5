package gaps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/ai"
)

// enhancementSchema is the shape the completion provider must return.
// Anything that does not validate is discarded wholesale.
const enhancementSchema = `{
	"type": "object",
	"properties": {
		"readinessScore": {"type": "integer", "minimum": 0, "maximum": 100},
		"recommendations": {"type": "array", "items": {"type": "string"}},
		"gaps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["controlCode"],
				"properties": {
					"controlCode": {"type": "string"},
					"severity": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
					"recommendation": {"type": "string"},
					"suggestedEvidence": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`

type enhancement struct {
	ReadinessScore  *int             `json:"readinessScore"`
	Recommendations []string         `json:"recommendations"`
	Gaps            []gapEnhancement `json:"gaps"`
}

type gapEnhancement struct {
	ControlCode       string   `json:"controlCode"`
	Severity          string   `json:"severity"`
	Recommendation    string   `json:"recommendation"`
	SuggestedEvidence []string `json:"suggestedEvidence"`
}

// Enhancer refines a deterministic analysis result with a completion
// provider. Every failure mode (transport, parse, schema) falls back
// silently to the input result; enhancement is never load-bearing.
type Enhancer struct {
	completer ai.Completer
	logger    *zap.Logger
}

// NewEnhancer wraps a completion provider.
func NewEnhancer(completer ai.Completer, logger *zap.Logger) *Enhancer {
	return &Enhancer{completer: completer, logger: logger}
}

// Enhance applies provider overrides to a copy of the result. The
// returned result equals the input whenever the provider fails or
// returns an invalid payload.
func (e *Enhancer) Enhance(ctx context.Context, result *Result) *Result {
	raw, err := e.completer.Complete(ctx, buildPrompt(result), enhancementSchema)
	if err != nil {
		e.logger.Warn("enhancement skipped", zap.Error(err))
		return result
	}

	enh, err := parseEnhancement(raw)
	if err != nil {
		e.logger.Warn("enhancement discarded", zap.Error(err))
		return result
	}

	return applyEnhancement(result, enh)
}

func buildPrompt(result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are assisting with a %s compliance gap analysis.\n", result.FrameworkKey)
	fmt.Fprintf(&b, "Coverage is %d%% with %d of %d controls covered.\n",
		result.Summary.CoveragePercent, result.Summary.CoveredControls, result.Summary.TotalControls)
	b.WriteString("Open gaps:\n")
	for _, g := range result.Gaps {
		fmt.Fprintf(&b, "- %s %s (severity %s): %s\n", g.ControlCode, g.ControlTitle, g.Severity, g.Description)
	}
	b.WriteString("Refine severities, recommendations, suggested evidence, the readiness score, and the overall recommendation list.")
	return b.String()
}

// parseEnhancement validates the raw completion against
// enhancementSchema before decoding it. Providers sometimes wrap JSON
// in markdown fences; strip those first.
func parseEnhancement(raw string) (*enhancement, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	schemaLoader := gojsonschema.NewStringLoader(enhancementSchema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	outcome, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !outcome.Valid() {
		msgs := make([]string, 0, len(outcome.Errors()))
		for _, e := range outcome.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	var enh enhancement
	if err := json.Unmarshal([]byte(raw), &enh); err != nil {
		return nil, fmt.Errorf("decode enhancement: %w", err)
	}
	return &enh, nil
}

// applyEnhancement merges overrides into a copy, re-sorting and
// re-counting so the result invariants (severity order, summary
// counts) hold over the enhanced values too.
func applyEnhancement(result *Result, enh *enhancement) *Result {
	out := *result
	out.Gaps = append([]Gap(nil), result.Gaps...)

	byCode := make(map[string]*gapEnhancement, len(enh.Gaps))
	for i := range enh.Gaps {
		byCode[enh.Gaps[i].ControlCode] = &enh.Gaps[i]
	}

	for i := range out.Gaps {
		override, ok := byCode[out.Gaps[i].ControlCode]
		if !ok {
			continue
		}
		if override.Severity != "" {
			out.Gaps[i].Severity = override.Severity
		}
		if override.Recommendation != "" {
			out.Gaps[i].Recommendation = override.Recommendation
		}
		if len(override.SuggestedEvidence) > 0 {
			out.Gaps[i].SuggestedEvidence = append([]string(nil), override.SuggestedEvidence...)
		}
	}

	sortStableBySeverity(out.Gaps)
	recountSeverities(&out.Summary, out.Gaps)

	if enh.ReadinessScore != nil {
		out.Summary.ReadinessScore = *enh.ReadinessScore
	} else {
		out.Summary.ReadinessScore = readinessScore(
			out.Summary.CoveragePercent, out.Summary.CriticalGaps, out.Summary.HighGaps)
	}
	if len(enh.Recommendations) > 0 {
		out.Recommendations = append([]string(nil), enh.Recommendations...)
	}

	out.Enhanced = true
	return &out
}
