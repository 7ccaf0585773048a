package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc          RecordService
	logger       *slog.Logger
	heatmapWeeks int
}

// NewHandler creates a new Handler. heatmapWeeks is the grid width used when
// a heatmap request does not name one.
func NewHandler(svc RecordService, logger *slog.Logger, heatmapWeeks int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger, heatmapWeeks: heatmapWeeks}
}

// recordID parses the {id} URL parameter.
func recordID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: record id %q", apperr.ErrInvalid, raw)
	}
	return id, nil
}

// ListRecords handles GET /api/records.
//
//	@Summary		List records, most recently updated first
//	@Tags			records
//	@Produce		json
//	@Success		200	{object}	RecordListResponse
//	@Router			/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, _ *http.Request) {
	recs := h.svc.Records()
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs, Total: len(recs)})
}

// GetRecord handles GET /api/records/{id}.
//
//	@Summary		Get a single record
//	@Tags			records
//	@Produce		json
//	@Param			id	path		int	true	"Record ID"
//	@Success		200	{object}	models.Record
//	@Failure		404	{object}	errResponse
//	@Router			/records/{id} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "get record", err)
		return
	}
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord handles POST /api/records.
//
//	@Summary		Create a record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRecordRequest	true	"Record to create"
//	@Success		201		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Router			/records [post]
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	rec, err := h.svc.Add(r.Context(), req.Title, req.Description)
	if err != nil {
		writeError(w, h.logger, "create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord handles PUT /api/records/{id}.
//
//	@Summary		Update a record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Record ID"
//	@Param			body	body		UpdateRecordRequest	true	"Fields to change"
//	@Success		200		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/records/{id} [put]
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "update record", err)
		return
	}
	var req UpdateRecordRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "update record", err)
		return
	}
	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Count != nil {
		rec.Count = *req.Count
	}
	if req.Timestamp != nil {
		rec.Timestamp = *req.Timestamp
	}
	rec, err = h.svc.Update(r.Context(), rec)
	if err != nil {
		writeError(w, h.logger, "update record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/records/{id}.
//
//	@Summary		Delete a record
//	@Tags			records
//	@Param			id	path	int	true	"Record ID"
//	@Success		204	"Record deleted"
//	@Failure		404	{object}	errResponse
//	@Router			/records/{id} [delete]
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "delete record", err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRecords handles DELETE /api/records.
//
//	@Summary		Delete every record
//	@Tags			records
//	@Produce		json
//	@Success		200	{object}	ClearResponse
//	@Router			/records [delete]
func (h *Handler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearAll(r.Context())
	if err != nil {
		writeError(w, h.logger, "clear records", err)
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{Deleted: n})
}

// IncrementRecord handles POST /api/records/{id}/increment.
//
//	@Summary		Add one minute and touch the record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Record ID"
//	@Param			body	body		IncrementRequest	false	"Optional timestamp"
//	@Success		200		{object}	models.Record
//	@Failure		404		{object}	errResponse
//	@Router			/records/{id}/increment [post]
func (h *Handler) IncrementRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "increment record", err)
		return
	}
	var req IncrementRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	rec, err := h.svc.IncrementAndTouch(r.Context(), id, req.Timestamp)
	if err != nil {
		writeError(w, h.logger, "increment record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RecordDuration handles POST /api/records/{id}/duration.
//
//	@Summary		Record a finished session
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Record ID"
//	@Param			body	body		DurationRequest	true	"Session length"
//	@Success		200		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/records/{id}/duration [post]
func (h *Handler) RecordDuration(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "record duration", err)
		return
	}
	var req DurationRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	secs, err := req.total()
	if err != nil {
		writeError(w, h.logger, "record duration", err)
		return
	}
	source := req.Source
	if source == "" {
		source = models.SourceManual
	}
	rec, err := h.svc.RecordDuration(r.Context(), id, secs, source)
	if err != nil {
		writeError(w, h.logger, "record duration", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Refresh handles POST /api/refresh.
//
//	@Summary		Reload records from the store
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	recordservice.State
//	@Failure		503	{object}	errResponse
//	@Router			/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeError(w, h.logger, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// State handles GET /api/state.
//
//	@Summary		Current application state
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	recordservice.State
//	@Router			/state [get]
func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// Select handles PUT /api/selection.
//
//	@Summary		Select a record
//	@Tags			state
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectRequest	true	"Record to select"
//	@Success		200		{object}	models.Record
//	@Failure		404		{object}	errResponse
//	@Router			/selection [put]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	rec, err := h.svc.Select(r.Context(), req.ID)
	if err != nil {
		writeError(w, h.logger, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ClearSelection handles DELETE /api/selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	h.svc.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}
