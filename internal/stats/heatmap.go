package stats

import (
	"time"

	"github.com/starford/timelog/internal/models"
)

// DefaultHeatmapWeeks is the grid width used when none is given.
const DefaultHeatmapWeeks = 17

// Cell is one day of a calendar grid.
type Cell struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Tier   int    `json:"tier"`
	Future bool   `json:"future,omitempty"`
}

// Grid is a weeks×7 heatmap. Columns[w][d] is day d of week w; the last column
// is the current week and today sits at row TodayRow of it.
type Grid struct {
	Weeks     int          `json:"weeks"`
	WeekStart time.Weekday `json:"week_start"`
	TodayRow  int          `json:"today_row"`
	Max       int          `json:"max"`
	Columns   [][]Cell     `json:"columns"`
}

// Cells flattens the grid column by column.
func (g Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.Columns)*7)
	for _, col := range g.Columns {
		out = append(out, col...)
	}
	return out
}

// Tier buckets a day's count into a heatmap intensity level 0..3.
func Tier(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 3:
		return 1
	case count <= 6:
		return 2
	default:
		return 3
	}
}

// BuildCalendarGrid lays out per-day counts for the last weeks weeks ending
// with the week that contains now.
func BuildCalendarGrid(records []models.Record, weeks int, weekStart time.Weekday, now time.Time) Grid {
	if weeks <= 0 {
		weeks = DefaultHeatmapWeeks
	}
	loc := now.Location()
	today := StartOfDay(now)
	first := StartOfWeek(now, weekStart).AddDate(0, 0, -7*(weeks-1))
	byDay := countByDay(records, loc)

	g := Grid{
		Weeks:     weeks,
		WeekStart: weekStart,
		TodayRow:  weekdayOffset(today.Weekday(), weekStart),
		Columns:   make([][]Cell, weeks),
	}
	for w := 0; w < weeks; w++ {
		col := make([]Cell, 7)
		for d := 0; d < 7; d++ {
			day := first.AddDate(0, 0, w*7+d)
			cell := Cell{Date: dayKey(day)}
			if day.After(today) {
				cell.Future = true
			} else {
				cell.Count = byDay[cell.Date]
				cell.Tier = Tier(cell.Count)
				if cell.Count > g.Max {
					g.Max = cell.Count
				}
			}
			col[d] = cell
		}
		g.Columns[w] = col
	}
	return g
}
