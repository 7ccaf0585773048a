// Package stats derives counts and calendar grids from a list of records.
// Every function takes "now" explicitly and buckets by the zone of now.
package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
)

// DefaultWeekStart is the first day of a calendar week.
const DefaultWeekStart = time.Monday

// Summary bundles the scalar aggregates shown on the stats view.
type Summary struct {
	Today        int `json:"today"`
	Week         int `json:"week"`
	Month        int `json:"month"`
	Total        int `json:"total"`
	TotalMinutes int `json:"total_minutes"`
}

// CountInRange counts records whose Timestamp falls in [startMs, endMs).
func CountInRange(records []models.Record, startMs, endMs int64) int {
	n := 0
	for i := range records {
		ts := records[i].Timestamp
		if ts >= startMs && ts < endMs {
			n++
		}
	}
	return n
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns local midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -weekdayOffset(day.Weekday(), weekStart))
}

// StartOfMonth returns local midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// TodayCount counts records timestamped today.
func TodayCount(records []models.Record, now time.Time) int {
	start := StartOfDay(now)
	return CountInRange(records, start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli())
}

// WeekCount counts records timestamped in the current week.
func WeekCount(records []models.Record, now time.Time, weekStart time.Weekday) int {
	start := StartOfWeek(now, weekStart)
	return CountInRange(records, start.UnixMilli(), start.AddDate(0, 0, 7).UnixMilli())
}

// MonthCount counts records timestamped in the current month.
func MonthCount(records []models.Record, now time.Time) int {
	start := StartOfMonth(now)
	return CountInRange(records, start.UnixMilli(), start.AddDate(0, 1, 0).UnixMilli())
}

// TotalCount is the number of records.
func TotalCount(records []models.Record) int {
	return len(records)
}

// TotalMinutes sums the recorded minutes of all records.
func TotalMinutes(records []models.Record) int {
	total := 0
	for i := range records {
		total += records[i].Count
	}
	return total
}

// Summarize computes all scalar aggregates at once.
func Summarize(records []models.Record, now time.Time, weekStart time.Weekday) Summary {
	return Summary{
		Today:        TodayCount(records, now),
		Week:         WeekCount(records, now, weekStart),
		Month:        MonthCount(records, now),
		Total:        TotalCount(records),
		TotalMinutes: TotalMinutes(records),
	}
}

// ParseWeekday parses an English weekday name such as "monday" or "Sun".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: weekday %q", apperr.ErrInvalid, s)
}

// weekdayOffset is the row of day d in a week beginning on weekStart.
func weekdayOffset(d, weekStart time.Weekday) int {
	return (int(d) - int(weekStart) + 7) % 7
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// countByDay buckets records by their local date in loc.
func countByDay(records []models.Record, loc *time.Location) map[string]int {
	out := make(map[string]int, len(records))
	for i := range records {
		out[dayKey(records[i].Time(loc))]++
	}
	return out
}
