package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc RecordService, sseHandler http.Handler, logger *slog.Logger, heatmapWeeks int) chi.Router {
	h := NewHandler(svc, logger, heatmapWeeks)

	r := chi.NewRouter()

	// Records.
	r.Get("/records", h.ListRecords)
	r.Post("/records", h.CreateRecord)
	r.Delete("/records", h.ClearRecords)
	r.Route("/records/{id}", func(r chi.Router) {
		r.Get("/", h.GetRecord)
		r.Put("/", h.UpdateRecord)
		r.Delete("/", h.DeleteRecord)
		r.Post("/increment", h.IncrementRecord)
		r.Post("/duration", h.RecordDuration)
		r.Get("/timer", h.TimerStatus)
		r.Post("/timer/{action}", h.TimerAction)
	})
	r.Get("/timers", h.ListTimers)

	// State.
	r.Get("/state", h.State)
	r.Post("/refresh", h.Refresh)
	r.Put("/selection", h.Select)
	r.Delete("/selection", h.ClearSelection)

	// Stats.
	r.Get("/stats", h.Stats)
	r.Get("/stats/heatmap", h.Heatmap)
	r.Get("/stats/month", h.Month)
	r.Get("/stats/day", h.Day)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
