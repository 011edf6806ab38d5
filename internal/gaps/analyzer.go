// Package gaps performs compliance gap analysis: it classifies
// uncovered controls by severity, proposes remediation, and scores
// audit readiness. The deterministic path in this file is the source
// of truth; the optional AI enhancement layer (enhancer.go) may only
// refine its output and never replaces it on failure.
package gaps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/coverage"
	"github.com/attestly/attestor/internal/evidence"
)

// Approval states for a stored analysis result.
const (
	ApprovalPending           = "pending"
	ApprovalApproved          = "approved"
	ApprovalRejected          = "rejected"
	ApprovalRevisionRequested = "revision_requested"
)

// Gap describes one control lacking approved evidence.
type Gap struct {
	ControlID         string   `json:"controlId"`
	ControlCode       string   `json:"controlCode"`
	ControlTitle      string   `json:"controlTitle"`
	Severity          string   `json:"severity"`
	Description       string   `json:"description"`
	Recommendation    string   `json:"recommendation"`
	SuggestedEvidence []string `json:"suggestedEvidence"`
	EstimatedEffort   string   `json:"estimatedEffort"`
}

// Summary aggregates the analysis.
type Summary struct {
	TotalControls   int `json:"totalControls"`
	CoveredControls int `json:"coveredControls"`
	CriticalGaps    int `json:"criticalGaps"`
	HighGaps        int `json:"highGaps"`
	MediumGaps      int `json:"mediumGaps"`
	LowGaps         int `json:"lowGaps"`
	CoveragePercent int `json:"coveragePercent"`
	ReadinessScore  int `json:"readinessScore"`
}

// Citation references the evidence backing a covered control.
type Citation struct {
	ControlID     string  `json:"controlId"`
	ControlCode   string  `json:"controlCode"`
	EvidenceID    string  `json:"evidenceId"`
	EvidenceTitle string  `json:"evidenceTitle"`
	Relevance     float64 `json:"relevance"`
}

// Result is a gap analysis artifact. It starts in approval state
// "pending" and is gated by a human reviewer before being treated as
// final (see Store).
type Result struct {
	ID              uuid.UUID  `json:"id"`
	FrameworkKey    string     `json:"frameworkKey"`
	GeneratedAt     time.Time  `json:"generatedAt"`
	Summary         Summary    `json:"summary"`
	Gaps            []Gap      `json:"gaps"`
	Recommendations []string   `json:"recommendations"`
	Citations       []Citation `json:"citations"`
	ApprovalStatus  string     `json:"approvalStatus"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RevisionNotes   string     `json:"revisionNotes,omitempty"`
	// Enhanced is true when the AI layer contributed to this result.
	Enhanced bool `json:"enhanced"`
}

// Analyzer runs gap analysis against the catalog and evidence store.
type Analyzer struct {
	catalog  catalog.Catalog
	evidence evidence.Store
	enhancer *Enhancer
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer. enhancer may be nil, in which case
// results are purely deterministic.
func NewAnalyzer(cat catalog.Catalog, store evidence.Store, enhancer *Enhancer, logger *zap.Logger) *Analyzer {
	return &Analyzer{catalog: cat, evidence: store, enhancer: enhancer, logger: logger}
}

// Analyze runs gap analysis for a framework. Fails with
// catalog.ErrNotFound when the framework key is unknown.
func (a *Analyzer) Analyze(ctx context.Context, frameworkKey string) (*Result, error) {
	fw, err := a.catalog.GetFramework(ctx, frameworkKey)
	if err != nil {
		return nil, err
	}

	controls, err := a.catalog.ListControls(ctx, fw.Key)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}

	items, err := a.evidence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	result := Evaluate(fw.Key, controls, items)

	if a.enhancer != nil {
		result = a.enhancer.Enhance(ctx, result)
	}

	a.logger.Info("gap analysis complete",
		zap.String("framework", fw.Key),
		zap.Int("gaps", len(result.Gaps)),
		zap.Int("readiness", result.Summary.ReadinessScore),
		zap.Bool("enhanced", result.Enhanced))

	return result, nil
}

// Evaluate is the deterministic core of gap analysis. It is pure with
// respect to its inputs and fully testable without any collaborator.
func Evaluate(frameworkKey string, controls []catalog.Control, items []*evidence.Item) *Result {
	report := coverage.Compute(controls, items)
	covered, uncovered := coverage.Partition(controls, report)

	gapList := make([]Gap, 0, len(uncovered))
	for _, ctl := range uncovered {
		gapList = append(gapList, buildGap(ctl))
	}

	sortStableBySeverity(gapList)

	summary := Summary{
		TotalControls:   report.TotalControls,
		CoveredControls: report.CoveredControls,
		CoveragePercent: report.CoveragePercent,
	}
	recountSeverities(&summary, gapList)
	summary.ReadinessScore = readinessScore(summary.CoveragePercent, summary.CriticalGaps, summary.HighGaps)

	return &Result{
		ID:              uuid.New(),
		FrameworkKey:    frameworkKey,
		GeneratedAt:     time.Now().UTC(),
		Summary:         summary,
		Gaps:            gapList,
		Recommendations: buildRecommendations(summary, gapList),
		Citations:       buildCitations(covered, items),
		ApprovalStatus:  ApprovalPending,
	}
}

func buildGap(ctl catalog.Control) Gap {
	severity, ok := SeverityByCategory[ctl.Category]
	if !ok {
		severity = SeverityMedium
	}

	effort := EffortHours
	if strings.Contains(ctl.Category, "Access") {
		effort = EffortDays
	}

	suggested, ok := SuggestedEvidenceByCategory[ctl.Category]
	if !ok {
		suggested = genericSuggestedEvidence
	}

	return Gap{
		ControlID:         ctl.ID,
		ControlCode:       ctl.Code,
		ControlTitle:      ctl.Title,
		Severity:          severity,
		Description:       fmt.Sprintf("No approved evidence is mapped to %s (%s).", ctl.Code, ctl.Title),
		Recommendation:    recommendationFor(ctl),
		SuggestedEvidence: append([]string(nil), suggested...),
		EstimatedEffort:   effort,
	}
}

func recommendationFor(ctl catalog.Control) string {
	for _, entry := range recommendationByPrefix {
		if strings.HasPrefix(ctl.Code, entry.Prefix) {
			return entry.Recommendation
		}
	}
	return fmt.Sprintf("Collect and approve evidence demonstrating that %q is operating effectively.", ctl.Title)
}

// sortStableBySeverity orders gaps critical through low. Stable: ties
// keep encounter (catalog) order.
func sortStableBySeverity(gapList []Gap) {
	sort.SliceStable(gapList, func(i, j int) bool {
		return severityRank[gapList[i].Severity] < severityRank[gapList[j].Severity]
	})
}

func recountSeverities(summary *Summary, gapList []Gap) {
	summary.CriticalGaps, summary.HighGaps, summary.MediumGaps, summary.LowGaps = 0, 0, 0, 0
	for _, g := range gapList {
		switch g.Severity {
		case SeverityCritical:
			summary.CriticalGaps++
		case SeverityHigh:
			summary.HighGaps++
		case SeverityMedium:
			summary.MediumGaps++
		default:
			summary.LowGaps++
		}
	}
}

// readinessScore penalizes coverage by gap severity mix, clamped at 0.
func readinessScore(coveragePercent, criticalGaps, highGaps int) int {
	score := coveragePercent - criticalGaps*10 - highGaps*5
	if score < 0 {
		return 0
	}
	return score
}

const maxCitations = 5

// buildCitations references the first approved evidence item for up to
// maxCitations covered controls. Relevance is a presentation
// heuristic, kept within [0.85, 1.0].
func buildCitations(covered []catalog.Control, items []*evidence.Item) []Citation {
	var citations []Citation
	for _, ctl := range covered {
		if len(citations) == maxCitations {
			break
		}
		for _, item := range items {
			if !item.Approved() {
				continue
			}
			if !containsString(item.ControlIDs, ctl.ID) {
				continue
			}
			citations = append(citations, Citation{
				ControlID:     ctl.ID,
				ControlCode:   ctl.Code,
				EvidenceID:    item.ID.String(),
				EvidenceTitle: item.Title,
				Relevance:     0.95 - 0.01*float64(len(citations)),
			})
			break
		}
	}
	return citations
}

// buildRecommendations order matters: the UI presents these top-down.
func buildRecommendations(summary Summary, gapList []Gap) []string {
	quickWins := 0
	for _, g := range gapList {
		if g.EstimatedEffort == EffortHours {
			quickWins++
		}
	}

	var recs []string
	if summary.CoveragePercent < 50 {
		recs = append(recs, fmt.Sprintf(
			"Coverage is %d%%; prioritize evidence collection before scheduling an audit.",
			summary.CoveragePercent))
	}
	if summary.CriticalGaps > 0 {
		recs = append(recs, fmt.Sprintf(
			"Close the %d critical gap(s) first: auditors treat access and data-protection failures as showstoppers.",
			summary.CriticalGaps))
	}
	if quickWins > 0 {
		recs = append(recs, fmt.Sprintf(
			"Knock out the quick wins: %d gap(s) are estimated at hours of effort.", quickWins))
	}
	recs = append(recs,
		"Schedule a readiness review once coverage exceeds 80%.",
		"Re-run gap analysis after each batch of evidence approvals.")
	return recs
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
