// Package coverage computes control-coverage statistics from
// evidence-to-control mappings. All functions are pure: identical
// inputs yield identical outputs, which gap analysis and the export
// assembler both rely on.
package coverage

import (
	"math"

	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/evidence"
)

// Stats aggregates coverage for a set of controls.
type Stats struct {
	TotalControls   int `json:"totalControls"`
	CoveredControls int `json:"coveredControls"`
	// CoveragePercent is an integer percentage, 0 when there are no
	// controls.
	CoveragePercent int `json:"coveragePercent"`
}

// Report is the full coverage view over a control set.
type Report struct {
	Stats
	// CoveredIDs holds the IDs of controls with at least one approved
	// evidence mapping.
	CoveredIDs map[string]bool `json:"-"`
	// ByFramework and ByCategory group the same stats for reporting.
	ByFramework map[string]Stats `json:"byFramework"`
	ByCategory  map[string]Stats `json:"byCategory"`
}

// Covered reports whether a control has at least one approved
// evidence mapping.
func (r *Report) Covered(controlID string) bool {
	return r.CoveredIDs[controlID]
}

// Percent computes an integer coverage percentage, defined as 0 when
// total is 0.
func Percent(covered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(covered) / float64(total) * 100))
}

// Compute derives coverage statistics for controls from evidence.
// Only evidence with review status APPROVED contributes.
func Compute(controls []catalog.Control, items []*evidence.Item) *Report {
	covered := ApprovedControlIDs(items)

	report := &Report{
		CoveredIDs:  covered,
		ByFramework: make(map[string]Stats),
		ByCategory:  make(map[string]Stats),
	}

	fwCovered := make(map[string]int)
	fwTotal := make(map[string]int)
	catCovered := make(map[string]int)
	catTotal := make(map[string]int)

	for _, ctl := range controls {
		report.TotalControls++
		fwTotal[ctl.FrameworkKey]++
		catTotal[ctl.Category]++
		if covered[ctl.ID] {
			report.CoveredControls++
			fwCovered[ctl.FrameworkKey]++
			catCovered[ctl.Category]++
		}
	}

	report.CoveragePercent = Percent(report.CoveredControls, report.TotalControls)
	for fw, total := range fwTotal {
		report.ByFramework[fw] = Stats{
			TotalControls:   total,
			CoveredControls: fwCovered[fw],
			CoveragePercent: Percent(fwCovered[fw], total),
		}
	}
	for cat, total := range catTotal {
		report.ByCategory[cat] = Stats{
			TotalControls:   total,
			CoveredControls: catCovered[cat],
			CoveragePercent: Percent(catCovered[cat], total),
		}
	}

	return report
}

// ApprovedControlIDs builds the set of control IDs referenced by at
// least one approved evidence item.
func ApprovedControlIDs(items []*evidence.Item) map[string]bool {
	covered := make(map[string]bool)
	for _, item := range items {
		if !item.Approved() {
			continue
		}
		for _, id := range item.ControlIDs {
			covered[id] = true
		}
	}
	return covered
}

// Partition splits controls into covered and uncovered slices,
// preserving input order within each partition.
func Partition(controls []catalog.Control, report *Report) (covered, uncovered []catalog.Control) {
	for _, ctl := range controls {
		if report.Covered(ctl.ID) {
			covered = append(covered, ctl)
		} else {
			uncovered = append(uncovered, ctl)
		}
	}
	return covered, uncovered
}
