package api

import (
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/stats"
	"github.com/starford/timelog/internal/timer"
)

// CreateRecordRequest is the request body for creating a record.
type CreateRecordRequest struct {
	Title       string `json:"title" example:"Reading" validate:"required"`
	Description string `json:"description,omitempty" example:"Chapter 3"`
}

// UpdateRecordRequest carries the fields to change. Omitted fields keep
// their current value.
type UpdateRecordRequest struct {
	Title       *string `json:"title,omitempty" example:"Reading"`
	Description *string `json:"description,omitempty" example:"Chapter 4"`
	Count       *int    `json:"count,omitempty" example:"25"`
	Timestamp   *int64  `json:"timestamp,omitempty" example:"1704067200000"`
}

// DurationRequest records a finished session. Either HMS ("HH:MM:SS") or
// the hours/minutes/seconds components are used.
type DurationRequest struct {
	Hours   int    `json:"hours,omitempty" example:"0"`
	Minutes int    `json:"minutes,omitempty" example:"25"`
	Seconds int64  `json:"seconds,omitempty" example:"30"`
	HMS     string `json:"hms,omitempty" example:"00:25:30"`
	Source  string `json:"source,omitempty" example:"manual" enums:"manual,timer,interrupted"`
}

// IncrementRequest optionally sets the bucketing time of an increment.
type IncrementRequest struct {
	Timestamp int64 `json:"timestamp,omitempty" example:"1704067200000"`
}

// SelectRequest selects a record.
type SelectRequest struct {
	ID int64 `json:"id" example:"1" validate:"required"`
}

// RecordListResponse wraps the working list.
type RecordListResponse struct {
	Records []models.Record `json:"records" validate:"required"`
	Total   int             `json:"total" example:"42" validate:"required"`
}

// ClearResponse reports how many records a clear-all removed.
type ClearResponse struct {
	Deleted int64 `json:"deleted" example:"12"`
}

// AbandonResponse reports whether an abandoned session was recorded.
type AbandonResponse struct {
	Committed bool           `json:"committed"`
	Record    *models.Record `json:"record,omitempty"`
}

// TimerListResponse lists active stopwatches.
type TimerListResponse struct {
	Timers []timer.Snapshot `json:"timers" validate:"required"`
}

// StatsResponse carries the scalar aggregates.
type StatsResponse struct {
	stats.Summary
	WeekStart string `json:"week_start" example:"Monday"`
	Now       int64  `json:"now" example:"1704067200000"`
}

// DayResponse lists the records of one day.
type DayResponse struct {
	Date    string          `json:"date" example:"2024-01-01"`
	Records []models.Record `json:"records" validate:"required"`
}
