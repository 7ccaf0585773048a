package stats

import (
	"sort"
	"time"

	"github.com/starford/timelog/internal/models"
)

// MonthCell is one slot of a month calendar. Padding slots outside the month
// have Day == 0.
type MonthCell struct {
	Day    int    `json:"day"`
	Date   string `json:"date,omitempty"`
	Count  int    `json:"count"`
	Tier   int    `json:"tier"`
	Today  bool   `json:"today,omitempty"`
	Future bool   `json:"future,omitempty"`
}

// MonthGrid is a month laid out in rows of seven days.
type MonthGrid struct {
	Year      int           `json:"year"`
	Month     time.Month    `json:"month"`
	WeekStart time.Weekday  `json:"week_start"`
	Total     int           `json:"total"`
	Rows      [][]MonthCell `json:"rows"`
}

// BuildMonthGrid lays out year/month with the first row aligned to weekStart.
func BuildMonthGrid(records []models.Record, year int, month time.Month, weekStart time.Weekday, now time.Time) MonthGrid {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Normalizes out-of-range months like time.Date does.
	year, month = first.Year(), first.Month()
	days := first.AddDate(0, 1, -1).Day()
	today := StartOfDay(now)
	byDay := countByDay(records, loc)

	g := MonthGrid{Year: year, Month: month, WeekStart: weekStart}
	lead := weekdayOffset(first.Weekday(), weekStart)
	slots := lead + days
	if rem := slots % 7; rem != 0 {
		slots += 7 - rem
	}

	row := make([]MonthCell, 0, 7)
	for i := 0; i < slots; i++ {
		var cell MonthCell
		if day := i - lead + 1; day >= 1 && day <= days {
			date := first.AddDate(0, 0, day-1)
			cell = MonthCell{Day: day, Date: dayKey(date)}
			switch {
			case date.After(today):
				cell.Future = true
			default:
				cell.Count = byDay[cell.Date]
				cell.Tier = Tier(cell.Count)
				cell.Today = date.Equal(today)
				g.Total += cell.Count
			}
		}
		row = append(row, cell)
		if len(row) == 7 {
			g.Rows = append(g.Rows, row)
			row = make([]MonthCell, 0, 7)
		}
	}
	return g
}

// RecordsOn returns the records whose local date equals the date of day,
// newest first.
func RecordsOn(records []models.Record, day time.Time) []models.Record {
	start := StartOfDay(day)
	startMs, endMs := start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli()
	out := make([]models.Record, 0)
	for i := range records {
		if ts := records[i].Timestamp; ts >= startMs && ts < endMs {
			out = append(out, records[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}
