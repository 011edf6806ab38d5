package gaps

// Severity and effort lookup tables. These are business heuristics
// tuned with our auditors, not values derived from the published
// standards; they are package-level so they can be reviewed and tested
// independently of the analysis code.

// Severity levels, most severe first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Effort estimates.
const (
	EffortHours = "hours"
	EffortDays  = "days"
	EffortWeeks = "weeks"
)

// severityRank fixes the sort order for gap lists.
var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// SeverityByCategory classifies an uncovered control by its category.
// Unknown categories default to medium.
var SeverityByCategory = map[string]string{
	"Logical & Physical Access":   SeverityCritical,
	"Confidentiality":             SeverityCritical,
	"Technological Access":        SeverityCritical,
	"Technological Controls":      SeverityCritical,
	"Control Environment":         SeverityHigh,
	"Risk Assessment":             SeverityHigh,
	"System Operations":           SeverityHigh,
	"Availability":                SeverityHigh,
	"Physical Controls":           SeverityHigh,
	"Organizational Access":       SeverityHigh,
	"Change Management":           SeverityMedium,
	"Monitoring Activities":       SeverityMedium,
	"Control Activities":          SeverityMedium,
	"Communication & Information": SeverityMedium,
	"Organizational Controls":     SeverityMedium,
	"Risk Mitigation":             SeverityLow,
	"People Controls":             SeverityLow,
}

// recommendationByPrefix maps control-code prefixes to remediation
// recommendations. Evaluated in order; first match wins, so longer
// prefixes must come before shorter ones sharing a stem.
var recommendationByPrefix = []struct {
	Prefix         string
	Recommendation string
}{
	{"CC6", "Implement and document access controls: enforce least privilege, require MFA, and schedule periodic access reviews."},
	{"CC7", "Stand up continuous monitoring with centralized logging, alerting thresholds, and a tested incident response runbook."},
	{"CC8", "Adopt a change-management workflow with mandatory peer review, approval records, and rollback plans."},
	{"CC1", "Document governance: publish security policies, record acknowledgements, and define oversight responsibilities."},
	{"A1", "Evidence availability engineering: capacity reviews, backup verification, and disaster recovery test results."},
	{"C1", "Classify confidential data and evidence its protection through encryption configuration and disposal records."},
	{"A.5", "Publish and approve the organizational policies this control requires, with an annual review cadence."},
	{"A.6", "Record personnel security activities: training completion, onboarding and offboarding checklists."},
	{"A.7", "Collect physical security evidence: entry logs, badge system configuration, and facility review reports."},
	{"A.8", "Capture technical configuration evidence: hardening baselines, vulnerability scan output, and log retention settings."},
}

// SuggestedEvidenceByCategory lists the evidence types an auditor
// typically expects per control category.
var SuggestedEvidenceByCategory = map[string][]string{
	"Logical & Physical Access": {
		"Quarterly access review report",
		"IAM policy export",
		"MFA enforcement configuration screenshot",
	},
	"Change Management": {
		"Sample of approved change tickets",
		"CI/CD pipeline configuration",
		"Pull request review history",
	},
	"Monitoring Activities": {
		"Alerting configuration export",
		"Monitoring dashboard screenshot",
		"Incident log excerpt",
	},
	"System Operations": {
		"Vulnerability scan report",
		"Incident response runbook",
		"Patch management records",
	},
	"Availability": {
		"Backup job logs",
		"Disaster recovery test report",
		"Capacity planning review",
	},
	"Confidentiality": {
		"Data classification policy",
		"Encryption configuration snapshot",
		"Secure disposal records",
	},
}

// genericSuggestedEvidence is the fallback for categories without a
// curated list.
var genericSuggestedEvidence = []string{
	"Relevant policy or procedure document",
	"Process walkthrough or meeting notes",
	"System configuration snapshot",
}
