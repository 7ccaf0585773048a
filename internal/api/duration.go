package api

import (
	"fmt"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/timer"
)

func (r DurationRequest) total() (int64, error) {
	if r.HMS != "" {
		if r.Hours != 0 || r.Minutes != 0 || r.Seconds != 0 {
			return 0, fmt.Errorf("%w: use either hms or hours/minutes/seconds", apperr.ErrInvalid)
		}
		return timer.ParseHMS(r.HMS)
	}
	if r.Seconds < 0 {
		return 0, fmt.Errorf("%w: negative duration component", apperr.ErrInvalid)
	}
	base, err := timer.FromHMS(r.Hours, r.Minutes, 0)
	if err != nil {
		return 0, err
	}
	return base + r.Seconds, nil
}
