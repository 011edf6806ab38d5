package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/audit"
	"github.com/attestly/attestor/internal/blob"
	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/coverage"
	"github.com/attestly/attestor/internal/evidence"
	"github.com/attestly/attestor/internal/metrics"
)

// Assembler builds audit packets. Collaborators are injected at
// construction; the assembler itself never inspects the environment.
type Assembler struct {
	catalog   catalog.Catalog
	evidence  evidence.Store
	blobs     blob.Store
	records   RecordStore
	auditLog  audit.Logger // optional, best-effort
	logger    *zap.Logger
	outputDir string
}

// NewAssembler creates an assembler writing archives under outputDir.
// auditLog may be nil.
func NewAssembler(cat catalog.Catalog, ev evidence.Store, blobs blob.Store, records RecordStore, auditLog audit.Logger, outputDir string, logger *zap.Logger) *Assembler {
	return &Assembler{
		catalog:   cat,
		evidence:  ev,
		blobs:     blobs,
		records:   records,
		auditLog:  auditLog,
		logger:    logger,
		outputDir: outputDir,
	}
}

// GeneratePacket builds an audit packet for a framework.
//
// Unknown framework keys fail before any record or file exists. Once
// the record is created, assembly errors are captured into it and the
// failed record is returned with a nil error, so callers always get a
// well-formed export object.
func (a *Assembler) GeneratePacket(ctx context.Context, frameworkKey string) (*AuditExport, error) {
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

	// Snapshot-at-start semantics: evidence edits during assembly are
	// not re-read.
	frameworkEvidence := filterFrameworkEvidence(controls, items)

	now := time.Now().UTC()
	id := uuid.New()
	record := &AuditExport{
		ID:            id,
		Name:          generateName(fw.Key, id, now),
		FrameworkKey:  fw.Key,
		Status:        StatusPending,
		ControlCount:  len(controls),
		EvidenceCount: len(frameworkEvidence),
		CreatedAt:     now,
	}
	if err := a.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create export record: %w", err)
	}

	record.Status = StatusProcessing
	if err := a.records.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	filename := record.Name + ".zip"
	size, err := a.assemble(ctx, record, fw, controls, frameworkEvidence, filename)
	if err != nil {
		return a.markFailed(ctx, record, err), nil
	}

	completed := time.Now().UTC()
	record.Status = StatusCompleted
	record.Filename = filename
	record.SizeBytes = size
	record.CompletedAt = &completed
	if err := a.records.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	metrics.ExportsTotal.WithLabelValues("completed").Inc()
	metrics.ExportArchiveBytes.Observe(float64(size))
	a.logAudit(ctx, audit.EventTypeExportGenerated, record, "")

	a.logger.Info("audit packet generated",
		zap.String("export_id", record.ID.String()),
		zap.String("framework", fw.Key),
		zap.Int("controls", record.ControlCount),
		zap.Int("evidence", record.EvidenceCount),
		zap.Int64("size_bytes", size))

	return record, nil
}

// assemble writes the archive file and returns its size.
func (a *Assembler) assemble(ctx context.Context, record *AuditExport, fw *catalog.Framework, controls []catalog.Control, items []*evidence.Item, filename string) (int64, error) {
	p := buildPacket(record, fw, controls, items)

	if err := os.MkdirAll(a.outputDir, 0750); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(a.outputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create archive file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := writeArchive(ctx, f, p, a.blobs, a.logger); err != nil {
		// The partial file may remain on disk; it is never exposed
		// because the record does not reach COMPLETED.
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return info.Size(), nil
}

// buildPacket derives the archive content from a coverage snapshot.
func buildPacket(record *AuditExport, fw *catalog.Framework, controls []catalog.Control, items []*evidence.Item) *packet {
	report := coverage.Compute(controls, items)

	entries := make([]ControlEntry, 0, len(controls))
	matrix := make([]MatrixRow, 0, len(controls))
	byCategory := make(map[string][2]int)

	for _, ctl := range controls {
		status := ControlGap
		if report.Covered(ctl.ID) {
			status = ControlCovered
		}

		var refs []EvidenceRef
		var ids []string
		for _, item := range items {
			if !item.Approved() || !containsControl(item.ControlIDs, ctl.ID) {
				continue
			}
			refs = append(refs, EvidenceRef{
				ID:          item.ID.String(),
				Title:       item.Title,
				Source:      item.Source,
				CollectedAt: item.CollectedAt,
			})
			ids = append(ids, item.ID.String())
		}

		entries = append(entries, ControlEntry{
			ID:            ctl.ID,
			Code:          ctl.Code,
			Title:         ctl.Title,
			Description:   ctl.Description,
			Category:      ctl.Category,
			Guidance:      ctl.Guidance,
			Status:        status,
			EvidenceCount: len(refs),
			Evidence:      refs,
		})
		matrix = append(matrix, MatrixRow{
			ControlCode:  ctl.Code,
			ControlTitle: ctl.Title,
			Status:       status,
			EvidenceIDs:  ids,
		})

		frac := byCategory[ctl.Category]
		frac[1]++
		if status == ControlCovered {
			frac[0]++
		}
		byCategory[ctl.Category] = frac
	}

	return &packet{
		manifest: Manifest{
			ExportID:    record.ID.String(),
			Name:        record.Name,
			GeneratedAt: record.CreatedAt,
			Framework:   *fw,
			Summary: ManifestSummary{
				TotalControls:   report.TotalControls,
				CoveredControls: report.CoveredControls,
				TotalEvidence:   len(items),
				CoveragePercent: report.CoveragePercent,
			},
		},
		controls:   entries,
		items:      items,
		matrix:     matrix,
		byCategory: byCategory,
	}
}

// markFailed captures the assembly error into the record.
func (a *Assembler) markFailed(ctx context.Context, record *AuditExport, cause error) *AuditExport {
	record.Status = StatusFailed
	record.Error = cause.Error()
	record.CompletedAt = nil
	if err := a.records.Update(ctx, record); err != nil {
		a.logger.Error("failed to record export failure",
			zap.String("export_id", record.ID.String()), zap.Error(err))
	}

	metrics.ExportsTotal.WithLabelValues("failed").Inc()
	a.logAudit(ctx, audit.EventTypeExportFailed, record, cause.Error())

	a.logger.Error("audit packet generation failed",
		zap.String("export_id", record.ID.String()),
		zap.String("framework", record.FrameworkKey),
		zap.Error(cause))
	return record
}

// Get returns an export record by id.
func (a *Assembler) Get(ctx context.Context, id uuid.UUID) (*AuditExport, error) {
	return a.records.Get(ctx, id)
}

// List returns all export records, newest first.
func (a *Assembler) List(ctx context.Context) ([]*AuditExport, error) {
	return a.records.List(ctx)
}

// Download opens a completed export's archive. Exports that are not
// COMPLETED are never exposed.
func (a *Assembler) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *AuditExport, error) {
	record, err := a.records.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if record.Status != StatusCompleted {
		return nil, nil, fmt.Errorf("export %s is %s: %w", id, record.Status, ErrNotReady)
	}

	f, err := os.Open(filepath.Join(a.outputDir, record.Filename))
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}

	a.logAudit(ctx, audit.EventTypeExportDownload, record, "")
	return f, record, nil
}

// Delete removes the record and, when present, the archive file. The
// record is removed first so the export disappears from listings
// atomically; a leftover file for a non-completed export is tolerated.
func (a *Assembler) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.records.Delete(ctx, id); err != nil {
		return err
	}

	if record.Filename != "" {
		path := filepath.Join(a.outputDir, record.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove archive file",
				zap.String("export_id", id.String()), zap.Error(err))
		}
	}

	a.logAudit(ctx, audit.EventTypeExportDeleted, record, "")
	return nil
}

// logAudit records an export event; failures are logged and dropped.
func (a *Assembler) logAudit(ctx context.Context, eventType audit.EventType, record *AuditExport, errMsg string) {
	if a.auditLog == nil {
		return
	}

	result := audit.ResultSuccess
	severity := audit.SeverityInfo
	if errMsg != "" {
		result = audit.ResultFailure
		severity = audit.SeverityError
	}

	event := &audit.Event{
		EventType: eventType,
		Action:    string(eventType),
		Resource:  record.ID.String(),
		Result:    result,
		Severity:  severity,
		ErrorMsg:  errMsg,
		Metadata: map[string]string{
			"framework":      record.FrameworkKey,
			"control_count":  fmt.Sprintf("%d", record.ControlCount),
			"evidence_count": fmt.Sprintf("%d", record.EvidenceCount),
			"size_bytes":     fmt.Sprintf("%d", record.SizeBytes),
		},
	}
	if err := a.auditLog.LogEvent(ctx, event); err != nil {
		a.logger.Warn("audit log write failed", zap.Error(err))
	}
}

func filterFrameworkEvidence(controls []catalog.Control, items []*evidence.Item) []*evidence.Item {
	controlIDs := make(map[string]bool, len(controls))
	for _, ctl := range controls {
		controlIDs[ctl.ID] = true
	}

	var out []*evidence.Item
	for _, item := range items {
		if !item.Approved() {
			continue
		}
		for _, id := range item.ControlIDs {
			if controlIDs[id] {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func containsControl(ids []string, id string) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
