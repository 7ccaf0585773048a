// Package models defines the domain types for timelog.
package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/timelog/internal/apperr"
)

// Duration sources.
const (
	SourceTimer       = "timer"
	SourceManual      = "manual"
	SourceInterrupted = "interrupted"
)

// Record is one trackable activity. Timestamps are milliseconds since the Unix epoch.
type Record struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Count               int    `json:"count"` // minutes recorded
	LastDurationSeconds *int64 `json:"last_duration_seconds,omitempty"`
	DurationSource      string `json:"duration_source,omitempty"`
	CreatedAt           int64  `json:"created_at"`
	UpdatedAt           int64  `json:"updated_at"`
	Timestamp           int64  `json:"timestamp"` // last recorded activity
}

// NewRecord returns an untimed record created at now.
func NewRecord(title, description string, now time.Time) Record {
	ms := now.UnixMilli()
	return Record{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		CreatedAt:   ms,
		UpdatedAt:   ms,
		Timestamp:   ms,
	}
}

// Validate checks the record before it is written.
func (r *Record) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, 200)),
		validation.Field(&r.Description, validation.RuneLength(0, 2000)),
		validation.Field(&r.Count, validation.Min(0)),
		validation.Field(&r.LastDurationSeconds, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&r.DurationSource,
			validation.In(SourceTimer, SourceManual, SourceInterrupted)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return nil
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// Timed reports whether a duration has ever been recorded.
func (r Record) Timed() bool {
	return r.Count > 0 || r.LastDurationSeconds != nil
}

// Time returns Timestamp as a time in loc.
func (r Record) Time(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	if r.LastDurationSeconds != nil {
		v := *r.LastDurationSeconds
		r.LastDurationSeconds = &v
	}
	return r
}

// CloneAll deep-copies a slice of records. A nil input yields an empty slice.
func CloneAll(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
