package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/audit"
	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/coverage"
	"github.com/attestly/attestor/internal/evidence"
	"github.com/attestly/attestor/internal/export"
	"github.com/attestly/attestor/internal/gaps"
	"github.com/attestly/attestor/internal/metrics"
)

// Handler provides the /api/v1 domain routes.
type Handler struct {
	catalog   catalog.Catalog
	evidence  evidence.Store
	analyzer  *gaps.Analyzer
	results   gaps.Store
	assembler *export.Assembler
	auditLog  audit.Logger // optional, best-effort
	logger    *zap.Logger
}

// NewHandler creates the domain handler. auditLog may be nil.
func NewHandler(cat catalog.Catalog, ev evidence.Store, analyzer *gaps.Analyzer, results gaps.Store, assembler *export.Assembler, auditLog audit.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		catalog:   cat,
		evidence:  ev,
		analyzer:  analyzer,
		results:   results,
		assembler: assembler,
		auditLog:  auditLog,
		logger:    logger,
	}
}

// Routes builds the chi router for the domain API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/frameworks", h.handleListFrameworks)
		r.Get("/frameworks/{key}", h.handleGetFramework)
		r.Get("/frameworks/{key}/controls", h.handleListControls)
		r.Get("/frameworks/{key}/coverage", h.handleCoverage)

		r.Get("/evidence", h.handleListEvidence)
		r.Post("/evidence", h.handleCreateEvidence)
		r.Get("/evidence/{id}", h.handleGetEvidence)
		r.Post("/evidence/{id}/review", h.handleReviewEvidence)
		r.Put("/evidence/{id}/controls", h.handleSetEvidenceControls)
		r.Delete("/evidence/{id}", h.handleDeleteEvidence)

		r.Post("/frameworks/{key}/analysis", h.handleRunAnalysis)
		r.Get("/analyses", h.handleListAnalyses)
		r.Get("/analyses/{id}", h.handleGetAnalysis)
		r.Post("/analyses/{id}/approve", h.handleApproveAnalysis)
		r.Post("/analyses/{id}/reject", h.handleRejectAnalysis)
		r.Post("/analyses/{id}/request-revision", h.handleRequestRevision)

		r.Post("/exports", h.handleCreateExport)
		r.Get("/exports", h.handleListExports)
		r.Get("/exports/{id}", h.handleGetExport)
		r.Get("/exports/{id}/download", h.handleDownloadExport)
		r.Delete("/exports/{id}", h.handleDeleteExport)
	})

	return r
}

func (h *Handler) handleListFrameworks(w http.ResponseWriter, r *http.Request) {
	frameworks, err := h.catalog.ListFrameworks(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"frameworks": frameworks,
		"count":      len(frameworks),
	})
}

func (h *Handler) handleGetFramework(w http.ResponseWriter, r *http.Request) {
	fw, err := h.catalog.GetFramework(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, fw)
}

func (h *Handler) handleListControls(w http.ResponseWriter, r *http.Request) {
	controls, err := h.catalog.ListControls(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"controls": controls,
		"count":    len(controls),
	})
}

func (h *Handler) handleCoverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	if _, err := h.catalog.GetFramework(ctx, key); err != nil {
		h.writeError(w, err)
		return
	}
	controls, err := h.catalog.ListControls(ctx, key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items, err := h.evidence.List(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, coverage.Compute(controls, items))
}

func (h *Handler) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	items, err := h.evidence.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"evidence": items,
		"count":    len(items),
	})
}

func (h *Handler) handleCreateEvidence(w http.ResponseWriter, r *http.Request) {
	var item evidence.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if item.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if item.Source == "" {
		item.Source = evidence.SourceManual
	}

	if err := h.evidence.Create(r.Context(), &item); err != nil {
		h.writeError(w, err)
		return
	}

	h.logAudit(r.Context(), audit.EventTypeEvidenceCreated, item.ID.String(), "",
		map[string]string{"title": item.Title, "source": item.Source})
	h.writeJSON(w, http.StatusCreated, &item)
}

func (h *Handler) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	item, err := h.evidence.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleReviewEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status   string `json:"status"`
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.evidence.Review(r.Context(), id, body.Status, body.Reviewer)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logAudit(r.Context(), audit.EventTypeEvidenceReviewed, item.ID.String(), body.Reviewer,
		map[string]string{"status": item.ReviewStatus})
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleSetEvidenceControls(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var body struct {
		ControlIDs []string `json:"controlIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.evidence.SetControls(r.Context(), id, body.ControlIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDeleteEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.evidence.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	h.logAudit(r.Context(), audit.EventTypeEvidenceDeleted, id.String(), "", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	result, err := h.analyzer.Analyze(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.results.Save(r.Context(), result); err != nil {
		h.writeError(w, err)
		return
	}

	metrics.GapAnalysesTotal.WithLabelValues(key).Inc()
	h.logAudit(r.Context(), audit.EventTypeAnalysisRun, result.ID.String(), "",
		map[string]string{"framework": key})
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.List(r.Context(), r.URL.Query().Get("framework"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": results,
		"count":    len(results),
	})
}

func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	result, err := h.results.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleApproveAnalysis(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalChange(w, r, audit.EventTypeAnalysisApproved, func(id uuid.UUID, approver, _ string) (*gaps.Result, error) {
		return h.results.Approve(r.Context(), id, approver)
	})
}

func (h *Handler) handleRejectAnalysis(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalChange(w, r, audit.EventTypeAnalysisRejected, func(id uuid.UUID, approver, _ string) (*gaps.Result, error) {
		return h.results.Reject(r.Context(), id, approver)
	})
}

func (h *Handler) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalChange(w, r, audit.EventTypeAnalysisRevision, func(id uuid.UUID, approver, notes string) (*gaps.Result, error) {
		return h.results.RequestRevision(r.Context(), id, approver, notes)
	})
}

func (h *Handler) handleApprovalChange(w http.ResponseWriter, r *http.Request, eventType audit.EventType, apply func(uuid.UUID, string, string) (*gaps.Result, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var body struct {
		Approver string `json:"approver"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := apply(id, body.Approver, body.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logAudit(r.Context(), eventType, result.ID.String(), body.Approver,
		map[string]string{"framework": result.FrameworkKey})
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FrameworkKey string `json:"frameworkKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.FrameworkKey == "" {
		http.Error(w, "frameworkKey is required", http.StatusBadRequest)
		return
	}

	record, err := h.assembler.GeneratePacket(r.Context(), body.FrameworkKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListExports(w http.ResponseWriter, r *http.Request) {
	records, err := h.assembler.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"exports": records,
		"count":   len(records),
	})
}

func (h *Handler) handleGetExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	record, err := h.assembler.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	reader, record, err := h.assembler.Download(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.Filename+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("failed to stream archive", zap.Error(err))
	}
}

func (h *Handler) handleDeleteExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.assembler.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// logAudit records a domain event; failures are logged and dropped so
// audit trouble never fails the request.
func (h *Handler) logAudit(ctx context.Context, eventType audit.EventType, resource, actor string, metadata map[string]string) {
	if h.auditLog == nil {
		return
	}

	event := &audit.Event{
		EventType: eventType,
		Action:    string(eventType),
		Resource:  resource,
		Actor:     actor,
		Metadata:  metadata,
	}
	if err := h.auditLog.LogEvent(ctx, event); err != nil {
		h.logger.Warn("audit log write failed", zap.Error(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, evidence.ErrNotFound),
		errors.Is(err, export.ErrNotFound),
		errors.Is(err, gaps.ErrResultNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, evidence.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, gaps.ErrInvalidTransition),
		errors.Is(err, gaps.ErrResultExists),
		errors.Is(err, export.ErrInvalidTransition),
		errors.Is(err, export.ErrNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
