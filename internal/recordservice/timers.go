package recordservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/timer"
)

// StartTimer starts a stopwatch for an existing record.
func (s *Service) StartTimer(ctx context.Context, id int64) (timer.Snapshot, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return timer.Snapshot{}, err
	}
	snap, err := s.timers.Start(id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	s.timerEvent(snap)
	return snap, nil
}

// PauseTimer pauses the record's stopwatch.
func (s *Service) PauseTimer(id int64) (timer.Snapshot, error) {
	snap, err := s.timers.Pause(id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	s.timerEvent(snap)
	return snap, nil
}

// ResumeTimer resumes the record's stopwatch.
func (s *Service) ResumeTimer(id int64) (timer.Snapshot, error) {
	snap, err := s.timers.Resume(id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	s.timerEvent(snap)
	return snap, nil
}

// TimerStatus reports the record's stopwatch.
func (s *Service) TimerStatus(id int64) (timer.Snapshot, error) {
	return s.timers.Status(id)
}

// ActiveTimers lists all stopwatches.
func (s *Service) ActiveTimers() []timer.Snapshot {
	return s.timers.Active()
}

// StopTimer ends the session and records its duration as a timer session.
// If the write fails the timer stays paused with its elapsed time so the
// stop can be retried.
func (s *Service) StopTimer(ctx context.Context, id int64) (models.Record, error) {
	rec, _, err := s.finishTimer(ctx, id, models.SourceTimer, false)
	return rec, err
}

// AbandonTimer ends a session the user walked away from. Time already
// elapsed is recorded as interrupted; a session that never reached one
// second is discarded and committed is false.
func (s *Service) AbandonTimer(ctx context.Context, id int64) (rec models.Record, committed bool, err error) {
	return s.finishTimer(ctx, id, models.SourceInterrupted, true)
}

// finishTimer freezes the timer, writes the session and only then forgets
// the timer.
func (s *Service) finishTimer(ctx context.Context, id int64, source string, discardEmpty bool) (models.Record, bool, error) {
	held, err := s.timers.Hold(id)
	if err != nil {
		return models.Record{}, false, err
	}
	secs := held.ElapsedSeconds
	if discardEmpty && secs <= 0 {
		s.logger.Debug("discarding empty session", slog.Int64("id", id))
		s.dropTimer(id)
		return models.Record{}, false, nil
	}

	rec, err := s.RecordDuration(ctx, id, secs, source)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.dropTimer(id)
		} else {
			s.timerEvent(held)
		}
		return models.Record{}, false, err
	}
	s.dropTimer(id)
	return rec, true, nil
}

// dropTimer forgets the record's timer, if any, and announces it idle.
func (s *Service) dropTimer(id int64) {
	secs, err := s.timers.Stop(id)
	if err != nil {
		return
	}
	s.timerEvent(timer.Snapshot{RecordID: id, Status: timer.StatusIdle, ElapsedSeconds: secs, Display: timer.FormatHMS(secs)})
}

// Close abandons every running or paused stopwatch so no elapsed time is lost
// on shutdown.
func (s *Service) Close(ctx context.Context) error {
	for _, snap := range s.timers.Active() {
		if _, _, err := s.AbandonTimer(ctx, snap.RecordID); err != nil {
			s.logger.Error("abandon timer on close",
				slog.Int64("id", snap.RecordID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Service) timerEvent(snap timer.Snapshot) {
	s.obs.emit(Event{Kind: EventTimer, RecordID: snap.RecordID, Timer: &snap})
}

func (s *Service) onTick(snap timer.Snapshot) {
	s.obs.emit(Event{Kind: EventTimerTick, RecordID: snap.RecordID, Timer: &snap})
}
