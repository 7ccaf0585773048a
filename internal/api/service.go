package api

import (
	"context"
	"time"

	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/recordservice"
	"github.com/starford/timelog/internal/stats"
	"github.com/starford/timelog/internal/timer"
)

// RecordService is the application state holder as seen by the HTTP layer.
type RecordService interface {
	Snapshot() recordservice.State
	Records() []models.Record
	Refresh(ctx context.Context) error
	Get(ctx context.Context, id int64) (models.Record, error)
	Add(ctx context.Context, title, description string) (models.Record, error)
	Update(ctx context.Context, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, id int64) error
	ClearAll(ctx context.Context) (int64, error)
	IncrementAndTouch(ctx context.Context, id, ts int64) (models.Record, error)
	RecordDuration(ctx context.Context, id, seconds int64, source string) (models.Record, error)
	Select(ctx context.Context, id int64) (models.Record, error)
	ClearSelection()

	StartTimer(ctx context.Context, id int64) (timer.Snapshot, error)
	PauseTimer(id int64) (timer.Snapshot, error)
	ResumeTimer(id int64) (timer.Snapshot, error)
	StopTimer(ctx context.Context, id int64) (models.Record, error)
	AbandonTimer(ctx context.Context, id int64) (models.Record, bool, error)
	TimerStatus(id int64) (timer.Snapshot, error)
	ActiveTimers() []timer.Snapshot

	Now() time.Time
	WeekStart() time.Weekday
	Summary() stats.Summary
	Heatmap(weeks int) stats.Grid
	Month(year int, month time.Month) stats.MonthGrid
	Day(year int, month time.Month, day int) []models.Record
}

var _ RecordService = (*recordservice.Service)(nil)
