package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/timelog/internal/apperr"
)

// Stats handles GET /api/stats.
//
//	@Summary		Today, week, month and total counts
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Summary:   h.svc.Summary(),
		WeekStart: h.svc.WeekStart().String(),
		Now:       h.svc.Now().UnixMilli(),
	})
}

// Heatmap handles GET /api/stats/heatmap.
//
//	@Summary		Calendar heatmap ending with the current week
//	@Tags			stats
//	@Produce		json
//	@Param			weeks	query		int	false	"Number of weeks"
//	@Success		200		{object}	stats.Grid
//	@Failure		400		{object}	errResponse
//	@Router			/stats/heatmap [get]
func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request) {
	weeks := h.heatmapWeeks
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 104 {
			writeError(w, h.logger, "heatmap", fmt.Errorf("%w: weeks must be 1..104", apperr.ErrInvalid))
			return
		}
		weeks = n
	}
	writeJSON(w, http.StatusOK, h.svc.Heatmap(weeks))
}

// Month handles GET /api/stats/month.
//
//	@Summary		Month calendar
//	@Tags			stats
//	@Produce		json
//	@Param			year	query		int	false	"Year, defaults to the current one"
//	@Param			month	query		int	false	"Month 1-12, defaults to the current one"
//	@Success		200		{object}	stats.MonthGrid
//	@Failure		400		{object}	errResponse
//	@Router			/stats/month [get]
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	now := h.svc.Now()
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1970 || n > 9999 {
			writeError(w, h.logger, "month", fmt.Errorf("%w: year %q", apperr.ErrInvalid, raw))
			return
		}
		year = n
	}
	if raw := q.Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			writeError(w, h.logger, "month", fmt.Errorf("%w: month %q", apperr.ErrInvalid, raw))
			return
		}
		month = n
	}
	writeJSON(w, http.StatusOK, h.svc.Month(year, time.Month(month)))
}

// Day handles GET /api/stats/day.
//
//	@Summary		Records of one day
//	@Tags			stats
//	@Produce		json
//	@Param			date	query		string	true	"Date as YYYY-MM-DD"
//	@Success		200		{object}	DayResponse
//	@Failure		400		{object}	errResponse
//	@Router			/stats/day [get]
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		writeError(w, h.logger, "day", fmt.Errorf("%w: date %q", apperr.ErrInvalid, raw))
		return
	}
	writeJSON(w, http.StatusOK, DayResponse{
		Date:    raw,
		Records: h.svc.Day(d.Year(), d.Month(), d.Day()),
	})
}
