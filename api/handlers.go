/*
handlers.go - HTTP API handlers for the compliance engine

PURPOSE:
  Exposes rent roll import, compliance reports and verification statuses
  via REST API. Handles HTTP request/response and JSON serialization, and
  delegates every classification decision to rentroll.Engine. Handlers
  never compute a bucket or status themselves.

ENDPOINTS:
  Properties:
    GET    /api/properties                              List properties
    POST   /api/properties/import                       Import a rent roll snapshot
    DELETE /api/properties/{id}                         Delete a property
    GET    /api/properties/{id}/snapshots               List snapshots

  Reports:
    GET    /api/properties/{id}/snapshots/{sid}/compliance    Bucket table
    GET    /api/properties/{id}/snapshots/{sid}/verification  Unit statuses

  Tools:
    GET    /api/targets?standard=...&units=N&percent=P  Target allocation

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    GET    /api/scenarios/current      Currently loaded scenario
    POST   /api/scenarios/load         Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error:
  - 400: Validation errors, precondition violations, bad parameters
  - 404: Property or snapshot not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/factory"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/logging"
	"github.com/warp/compliance-engine/rentroll"
)

// maxImportBytes caps an import request body.
const maxImportBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   rentroll.Store
	Factory *factory.SnapshotFactory
	Engine  *rentroll.Engine
	Log     logrus.FieldLogger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler. A nil engine gets the defaults.
func NewHandler(store rentroll.Store, engine *rentroll.Engine) *Handler {
	if engine == nil {
		engine = rentroll.NewEngine(nil, rentroll.DefaultWorkers)
	}
	return &Handler{
		Store:    store,
		Factory:  factory.NewSnapshotFactory(),
		Engine:   engine,
		Log:      logging.Logger,
		validate: validator.New(),
	}
}

// =============================================================================
// PROPERTY HANDLERS
// =============================================================================

// ListProperties returns all properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Store.ListProperties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list properties", err)
		return
	}

	dtos := make([]PropertyDTO, len(props))
	for i, p := range props {
		dtos[i] = toPropertyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ImportSnapshot parses a rent roll document and stores it.
// POST /api/properties/import
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ps, err := h.Factory.ParseSnapshot(body)
	if err != nil {
		writeDomainError(w, "Invalid snapshot document", err)
		return
	}

	if err := h.Store.SavePropertySnapshot(r.Context(), ps); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"property": ps.Property.ID,
		"snapshot": ps.Snapshot.ID,
		"units":    len(ps.Units),
	}).Info("rent roll imported")

	writeJSON(w, http.StatusCreated, ImportResponse{
		PropertyID: ps.Property.ID,
		SnapshotID: ps.Snapshot.ID,
		Units:      len(ps.Units),
	})
}

// DeleteProperty removes a property and all of its records.
// DELETE /api/properties/{id}
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteProperty(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSnapshots returns a property's uploads, most recent first.
// GET /api/properties/{id}/snapshots
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Store.ListSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to list snapshots", err)
		return
	}

	dtos := make([]SnapshotDTO, len(snaps))
	for i, s := range snaps {
		dtos[i] = toSnapshotDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetCompliance returns the bucket table and per-unit buckets.
// GET /api/properties/{id}/snapshots/{snapshotID}/compliance
func (h *Handler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	ps, rep, ok := h.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewComplianceReportDTO(ps, rep))
}

// GetVerification returns per-unit verification statuses.
// GET /api/properties/{id}/snapshots/{snapshotID}/verification
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	_, rep, ok := h.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewVerificationReportDTO(rep))
}

// analyze loads the snapshot named by the route and runs the engine. On
// failure the error response is already written.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) (*rentroll.PropertySnapshot, *rentroll.PropertyReport, bool) {
	ctx := r.Context()
	ps, err := h.Store.LoadPropertySnapshot(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "snapshotID"))
	if err != nil {
		writeDomainError(w, "Failed to load snapshot", err)
		return nil, nil, false
	}

	rep, err := h.Engine.Analyze(ctx, ps)
	if err != nil {
		writeDomainError(w, "Failed to analyze snapshot", err)
		return nil, nil, false
	}
	return ps, rep, true
}

// =============================================================================
// TARGETS
// =============================================================================

// GetTargets returns the target allocation for a standard and unit count.
// GET /api/targets?standard=20/50,55/80&units=100
// GET /api/targets?standard=custom&percent=65&units=40
func (h *Handler) GetTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	units, err := strconv.Atoi(q.Get("units"))
	if err != nil || units < 0 {
		writeError(w, http.StatusBadRequest, "units must be a non-negative integer", err)
		return
	}

	percent := generic.ParseMoneyPtr(q.Get("percent"))
	std, err := compliance.ParseStandard(q.Get("standard"), percent)
	if err != nil {
		writeDomainError(w, "Invalid compliance standard", err)
		return
	}

	writeJSON(w, http.StatusOK, toTargetsDTO(std, units))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's sentinel.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case generic.IsNotFound(err):
		status = http.StatusNotFound
	case generic.IsClientError(err):
		status = http.StatusBadRequest
	}

	var verr *generic.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		writeJSON(w, status, ErrorResponse{Error: message, Details: verr.Fields})
		return
	}
	writeError(w, status, message, err)
}
