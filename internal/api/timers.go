package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/timer"
)

// ListTimers handles GET /api/timers.
//
//	@Summary		List running and paused timers
//	@Tags			timers
//	@Produce		json
//	@Success		200	{object}	TimerListResponse
//	@Router			/timers [get]
func (h *Handler) ListTimers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TimerListResponse{Timers: h.svc.ActiveTimers()})
}

// TimerStatus handles GET /api/records/{id}/timer.
//
//	@Summary		Timer state of a record
//	@Tags			timers
//	@Produce		json
//	@Param			id	path		int	true	"Record ID"
//	@Success		200	{object}	timer.Snapshot
//	@Failure		404	{object}	errResponse
//	@Router			/records/{id}/timer [get]
func (h *Handler) TimerStatus(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "timer status", err)
		return
	}
	snap, err := h.svc.TimerStatus(id)
	if err != nil {
		writeError(w, h.logger, "timer status", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// TimerAction handles POST /api/records/{id}/timer/{action}.
//
//	@Summary		Drive a record's timer
//	@Description	start, pause and resume return the timer; stop and abandon return the recorded session.
//	@Tags			timers
//	@Produce		json
//	@Param			id		path		int		true	"Record ID"
//	@Param			action	path		string	true	"Action"	Enums(start, pause, resume, stop, abandon)
//	@Success		200		{object}	timer.Snapshot
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/records/{id}/timer/{action} [post]
func (h *Handler) TimerAction(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, h.logger, "timer", err)
		return
	}
	action := chi.URLParam(r, "action")
	ctx := r.Context()

	var snap timer.Snapshot
	switch action {
	case "start":
		snap, err = h.svc.StartTimer(ctx, id)
	case "pause":
		snap, err = h.svc.PauseTimer(id)
	case "resume":
		snap, err = h.svc.ResumeTimer(id)
	case "stop":
		rec, err := h.svc.StopTimer(ctx, id)
		if err != nil {
			writeError(w, h.logger, "stop timer", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	case "abandon":
		rec, committed, err := h.svc.AbandonTimer(ctx, id)
		if err != nil {
			writeError(w, h.logger, "abandon timer", err)
			return
		}
		resp := AbandonResponse{Committed: committed}
		if committed {
			resp.Record = &rec
		}
		writeJSON(w, http.StatusOK, resp)
		return
	default:
		err = fmt.Errorf("%w: unknown timer action %q", apperr.ErrInvalid, action)
	}
	if err != nil {
		writeError(w, h.logger, action+" timer", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
