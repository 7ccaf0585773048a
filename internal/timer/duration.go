// Package timer implements the duration rules for recorded sessions and the
// per-record stopwatch that drives the live countdown display.
package timer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/timelog/internal/apperr"
)

// Normalize floors a recorded duration to one second. A session is never
// recorded as zero length.
func Normalize(seconds int64) int64 {
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Minutes converts a duration to recorded minutes, rounding up.
func Minutes(seconds int64) int {
	return int((Normalize(seconds) + 59) / 60)
}

// FormatHMS renders seconds as HH:MM:SS. Hours are not capped at 24.
func FormatHMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FromHMS sums a manual hours/minutes/seconds entry.
func FromHMS(hours, minutes, seconds int) (int64, error) {
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("%w: negative duration component", apperr.ErrInvalid)
	}
	return int64(hours)*3600 + int64(minutes)*60 + int64(seconds), nil
}

// ParseHMS parses "HH:MM:SS", "MM:SS" or a bare number of seconds.
func ParseHMS(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("%w: duration %q", apperr.ErrInvalid, s)
	}
	nums := make([]int, 3)
	offset := 3 - len(parts)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q", apperr.ErrInvalid, s)
		}
		nums[offset+i] = n
	}
	return FromHMS(nums[0], nums[1], nums[2])
}
