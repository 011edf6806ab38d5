package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/blob"
	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/evidence"
)

// Per-control coverage statuses inside the packet. This is the raw
// coverage view; severity classification lives in gap analysis.
const (
	ControlCovered = "COVERED"
	ControlGap     = "GAP"
)

// Manifest is the packet's top-level descriptor. Downstream auditor
// tooling parses this file; the schema is a stable contract.
type Manifest struct {
	ExportID    string            `json:"exportId"`
	Name        string            `json:"name"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Framework   catalog.Framework `json:"framework"`
	Summary     ManifestSummary   `json:"summary"`
}

// ManifestSummary mirrors the coverage calculator's output.
type ManifestSummary struct {
	TotalControls   int `json:"totalControls"`
	CoveredControls int `json:"coveredControls"`
	TotalEvidence   int `json:"totalEvidence"`
	CoveragePercent int `json:"coveragePercent"`
}

// ControlEntry is the per-control status object, identical in
// controls.json and controls/<category>/<code>.json.
type ControlEntry struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Guidance      string        `json:"guidance"`
	Status        string        `json:"status"`
	EvidenceCount int           `json:"evidenceCount"`
	Evidence      []EvidenceRef `json:"evidence"`
}

// EvidenceRef is the slim evidence reference embedded per control.
type EvidenceRef struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collectedAt"`
}

// MatrixRow is one row of the denormalized control-evidence matrix.
type MatrixRow struct {
	ControlCode  string   `json:"controlCode"`
	ControlTitle string   `json:"controlTitle"`
	Status       string   `json:"status"`
	EvidenceIDs  []string `json:"evidenceIds"`
}

// packet holds everything needed to write the archive.
type packet struct {
	manifest Manifest
	controls []ControlEntry
	items    []*evidence.Item
	matrix   []MatrixRow
	// byCategory groups coverage fractions for the README.
	byCategory map[string][2]int // covered, total
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitizeCategory turns a category name into a filesystem-safe
// directory segment.
func sanitizeCategory(category string) string {
	cleaned := nonAlnum.ReplaceAllString(category, "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return "uncategorized"
	}
	return cleaned
}

// generateName embeds the framework key, an ISO-ish timestamp with
// colons and periods replaced so the name is filesystem-legal, and the
// first segment of the record id. The id suffix keeps names unique when
// two exports for the same framework start within the same second, so
// no two records ever share an archive file.
func generateName(frameworkKey string, id uuid.UUID, now time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format(time.RFC3339))
	return fmt.Sprintf("audit-%s-%s-%s", frameworkKey, stamp, id.String()[:8])
}

// writeArchive writes the full packet layout to w. Attached files
// missing from the blob store are skipped; evidence metadata can
// outlive the underlying blob.
func writeArchive(ctx context.Context, w io.Writer, p *packet, blobs blob.Store, logger *zap.Logger) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	if err := writeJSONEntry(zw, "manifest.json", p.manifest); err != nil {
		return err
	}
	if err := writeJSONEntry(zw, "controls.json", p.controls); err != nil {
		return err
	}
	if err := writeJSONEntry(zw, "evidence.json", p.items); err != nil {
		return err
	}
	if err := writeJSONEntry(zw, "control-evidence-matrix.json", p.matrix); err != nil {
		return err
	}

	for _, entry := range p.controls {
		name := fmt.Sprintf("controls/%s/%s.json", sanitizeCategory(entry.Category), entry.Code)
		if err := writeJSONEntry(zw, name, entry); err != nil {
			return err
		}
	}

	for _, item := range p.items {
		base := fmt.Sprintf("evidence/%s", item.ID)
		if err := writeJSONEntry(zw, base+"/metadata.json", item); err != nil {
			return err
		}
		if item.FileKey == "" {
			continue
		}
		if err := copyAttachment(ctx, zw, base, item, blobs, logger); err != nil {
			return err
		}
	}

	if err := writeReadme(zw, p); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func copyAttachment(ctx context.Context, zw *zip.Writer, base string, item *evidence.Item, blobs blob.Store, logger *zap.Logger) error {
	exists, err := blobs.Exists(ctx, item.FileKey)
	if err != nil {
		return fmt.Errorf("check blob %s: %w", item.FileKey, err)
	}
	if !exists {
		logger.Warn("evidence file missing from blob store, skipping",
			zap.String("evidence_id", item.ID.String()),
			zap.String("key", item.FileKey))
		return nil
	}

	src, err := blobs.Open(ctx, item.FileKey)
	if err != nil {
		return fmt.Errorf("open blob %s: %w", item.FileKey, err)
	}
	defer func() { _ = src.Close() }()

	name := item.FileName
	if name == "" {
		name = item.FileKey[strings.LastIndex(item.FileKey, "/")+1:]
	}

	dst, err := zw.Create(fmt.Sprintf("%s/files/%s", base, name))
	if err != nil {
		return fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy blob %s: %w", item.FileKey, err)
	}
	return nil
}

func writeJSONEntry(zw *zip.Writer, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func writeReadme(zw *zip.Writer, p *packet) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Audit Packet: %s\n\n", p.manifest.Framework.Name)
	fmt.Fprintf(&b, "Generated: %s\n\n", p.manifest.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Framework: %s (%s)\n\n", p.manifest.Framework.Key, p.manifest.Framework.Version)
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- Controls: %d\n", p.manifest.Summary.TotalControls)
	fmt.Fprintf(&b, "- Covered: %d (%d%%)\n", p.manifest.Summary.CoveredControls, p.manifest.Summary.CoveragePercent)
	fmt.Fprintf(&b, "- Evidence items: %d\n\n", p.manifest.Summary.TotalEvidence)
	fmt.Fprintf(&b, "## Coverage by category\n\n")

	categories := make([]string, 0, len(p.byCategory))
	for cat := range p.byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		frac := p.byCategory[cat]
		fmt.Fprintf(&b, "- %s: %d/%d controls covered\n", cat, frac[0], frac[1])
	}

	b.WriteString("\n## Layout\n\n")
	b.WriteString("- `manifest.json`: export identity and coverage summary\n")
	b.WriteString("- `controls.json`: per-control status with mapped evidence\n")
	b.WriteString("- `evidence.json`: metadata for all included evidence\n")
	b.WriteString("- `control-evidence-matrix.json`: control to evidence mapping table\n")
	b.WriteString("- `controls/<category>/<code>.json`: per-control files grouped by category\n")
	b.WriteString("- `evidence/<id>/`: per-item metadata and attached files\n")

	w, err := zw.Create("README.md")
	if err != nil {
		return fmt.Errorf("create README.md: %w", err)
	}
	if _, err := w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write README.md: %w", err)
	}
	return nil
}
