package recordservice

import (
	"time"

	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/stats"
)

// Summary computes the scalar aggregates over the working list.
func (s *Service) Summary() stats.Summary {
	return stats.Summarize(s.Records(), s.Now(), s.weekStart)
}

// Heatmap builds the calendar grid of the last weeks weeks.
func (s *Service) Heatmap(weeks int) stats.Grid {
	return stats.BuildCalendarGrid(s.Records(), weeks, s.weekStart, s.Now())
}

// Month builds the calendar of one month.
func (s *Service) Month(year int, month time.Month) stats.MonthGrid {
	return stats.BuildMonthGrid(s.Records(), year, month, s.weekStart, s.Now())
}

// Day lists the records whose timestamp falls on the given local date.
func (s *Service) Day(year int, month time.Month, day int) []models.Record {
	return stats.RecordsOn(s.Records(), time.Date(year, month, day, 0, 0, 0, 0, s.loc))
}
