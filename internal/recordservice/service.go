// Package recordservice holds the application state: the working list of
// records, the selected record and derived aggregates. Commands go through
// the cached repository; add, update, delete and clear-all are applied to the
// working copy first and rolled back if the store rejects them.
package recordservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/stats"
	"github.com/starford/timelog/internal/timer"
)

// Repository is the subset of the cached repository the service needs.
type Repository interface {
	FetchAll(ctx context.Context) ([]models.Record, error)
	FetchByID(ctx context.Context, id int64) (models.Record, error)
	Insert(ctx context.Context, r models.Record) (int64, error)
	Update(ctx context.Context, r models.Record) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	IncrementAndTouch(ctx context.Context, id, ts int64) error
}

// State is a read-only snapshot of the service.
type State struct {
	Records   []models.Record `json:"records"`
	Selected  *models.Record  `json:"selected,omitempty"`
	Summary   stats.Summary   `json:"summary"`
	Loading   bool            `json:"loading"`
	Loaded    bool            `json:"loaded"`
	LastError string          `json:"last_error,omitempty"`
}

// Service is safe for concurrent use. Commands run one at a time; Snapshot
// never waits for the store.
type Service struct {
	repo      Repository
	clock     clockwork.Clock
	logger    *slog.Logger
	loc       *time.Location
	weekStart time.Weekday
	timers    *timer.Registry
	obs       observers

	cmdMu sync.Mutex

	mu       sync.RWMutex
	records  []models.Record
	selected *models.Record
	loading  bool
	loaded   bool
	lastErr  string
	tempID   int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock for timestamps, timers and aggregates.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLocation sets the zone used for day and week boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithWeekStart sets the first day of the week for aggregates.
func WithWeekStart(d time.Weekday) Option {
	return func(s *Service) { s.weekStart = d }
}

// New creates a service over repo. Call Refresh to load the initial list.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		loc:       time.Local,
		weekStart: stats.DefaultWeekStart,
		records:   []models.Record{},
	}
	for _, o := range opts {
		o(s)
	}
	s.timers = timer.NewRegistry(s.clock, s.onTick)
	return s
}

// Subscribe registers fn for every subsequent event. The returned func
// removes it.
func (s *Service) Subscribe(fn Observer) func() {
	return s.obs.add(fn)
}

// Now returns the current time in the service's zone.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// WeekStart returns the configured first day of the week.
func (s *Service) WeekStart() time.Weekday {
	return s.weekStart
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	st := State{
		Records:   models.CloneAll(s.records),
		Loading:   s.loading,
		Loaded:    s.loaded,
		LastError: s.lastErr,
	}
	if s.selected != nil {
		c := s.selected.Clone()
		st.Selected = &c
	}
	s.mu.RUnlock()
	st.Summary = stats.Summarize(st.Records, s.Now(), s.weekStart)
	return st
}

// Records returns a copy of the working list.
func (s *Service) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.records)
}

// Get reads one record through the repository cache without touching the
// working list or the selection.
func (s *Service) Get(ctx context.Context, id int64) (models.Record, error) {
	return s.repo.FetchByID(ctx, id)
}

// Refresh reloads the working list from the repository.
func (s *Service) Refresh(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	recs, err := s.repo.FetchAll(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.logger.Error("refresh failed", slog.String("error", err.Error()))
		return err
	}
	s.records = recs
	sortRecords(s.records)
	s.loaded = true
	s.lastErr = ""
	if s.selected != nil {
		if i := s.indexLocked(s.selected.ID); i >= 0 {
			c := s.records[i].Clone()
			s.selected = &c
		} else {
			s.selected = nil
		}
	}
	n := len(s.records)
	s.mu.Unlock()

	s.logger.Debug("records refreshed", slog.Int("count", n))
	s.obs.emit(Event{Kind: EventRefreshed})
	return nil
}

// Add creates an untimed record titled title.
func (s *Service) Add(ctx context.Context, title, description string) (models.Record, error) {
	return s.AddRecord(ctx, models.NewRecord(title, description, s.clock.Now()))
}

// AddRecord inserts rec. It appears in the working list under a temporary
// negative id until the store assigns the real one.
func (s *Service) AddRecord(ctx context.Context, rec models.Record) (models.Record, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	if err := rec.Validate(); err != nil {
		return models.Record{}, err
	}
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.tempID--
	rec.ID = s.tempID
	s.records = append(s.records, rec.Clone())
	sortRecords(s.records)
	s.mu.Unlock()
	s.obs.emit(recordEvent(EventCreated, rec, true))

	temp := rec.ID
	rec.ID = 0
	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		s.mu.Lock()
		if i := s.indexLocked(temp); i >= 0 {
			s.records = removeAt(s.records, i)
		}
		s.mu.Unlock()
		s.fail("add", temp, err)
		return models.Record{}, err
	}

	rec.ID = id
	s.mu.Lock()
	if i := s.indexLocked(temp); i >= 0 {
		s.records[i].ID = id
		sortRecords(s.records)
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.logger.Info("record added", slog.Int64("id", id), slog.String("title", rec.Title))
	s.obs.emit(recordEvent(EventCreated, rec, false))
	return rec, nil
}

// Update overwrites the record with rec.ID. UpdatedAt is set to now and
// CreatedAt is preserved.
func (s *Service) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.update(ctx, rec)
}

// update must be called with cmdMu held.
func (s *Service) update(ctx context.Context, rec models.Record) (models.Record, error) {
	if rec.ID <= 0 {
		return models.Record{}, fmt.Errorf("%w: record id %d", apperr.ErrInvalid, rec.ID)
	}
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	if err := rec.Validate(); err != nil {
		return models.Record{}, err
	}
	rec.UpdatedAt = s.clock.Now().UnixMilli()

	if rec.CreatedAt == 0 {
		if cur, err := s.lookup(ctx, rec.ID); err == nil {
			rec.CreatedAt = cur.CreatedAt
		} else if errors.Is(err, apperr.ErrNotFound) {
			s.dropLocal(rec.ID)
			s.fail("update", rec.ID, err)
			return models.Record{}, err
		}
	}

	s.mu.Lock()
	i := s.indexLocked(rec.ID)
	var prev models.Record
	var prevSelected *models.Record
	if i >= 0 {
		prev = s.records[i].Clone()
		s.records[i] = rec.Clone()
		sortRecords(s.records)
		prevSelected = s.replaceSelectedLocked(rec)
	}
	s.mu.Unlock()
	if i >= 0 {
		s.obs.emit(recordEvent(EventUpdated, rec, true))
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		if i >= 0 && !errors.Is(err, apperr.ErrNotFound) {
			s.mu.Lock()
			if j := s.indexLocked(rec.ID); j >= 0 {
				s.records[j] = prev
				sortRecords(s.records)
			}
			s.selected = prevSelected
			s.mu.Unlock()
		}
		if errors.Is(err, apperr.ErrNotFound) {
			s.dropLocal(rec.ID)
		}
		s.fail("update", rec.ID, err)
		return models.Record{}, err
	}

	s.mu.Lock()
	if i < 0 {
		s.records = append(s.records, rec.Clone())
		sortRecords(s.records)
		s.replaceSelectedLocked(rec)
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.logger.Info("record updated", slog.Int64("id", rec.ID))
	s.obs.emit(recordEvent(EventUpdated, rec, false))
	return rec, nil
}

// Delete removes the record with id. A record the store no longer has is
// dropped from the working list and ErrNotFound is returned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	i := s.indexLocked(id)
	var prev models.Record
	prevSelected := s.selected
	if i >= 0 {
		prev = s.records[i]
		s.records = removeAt(s.records, i)
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.mu.Unlock()
	if i >= 0 {
		s.obs.emit(Event{Kind: EventDeleted, RecordID: id, Pending: true})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.dropTimer(id)
		} else if i >= 0 {
			s.mu.Lock()
			s.records = append(s.records, prev)
			sortRecords(s.records)
			s.selected = prevSelected
			s.mu.Unlock()
		}
		s.fail("delete", id, err)
		return err
	}
	s.dropTimer(id)

	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.logger.Info("record deleted", slog.Int64("id", id))
	s.obs.emit(Event{Kind: EventDeleted, RecordID: id})
	return nil
}

// ClearAll deletes every record.
func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	prev, prevSelected := s.records, s.selected
	s.records, s.selected = []models.Record{}, nil
	s.mu.Unlock()
	s.obs.emit(Event{Kind: EventCleared, Pending: true})

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.mu.Lock()
		s.records, s.selected = prev, prevSelected
		s.mu.Unlock()
		s.fail("clear", 0, err)
		return 0, err
	}

	for _, snap := range s.timers.Active() {
		s.dropTimer(snap.RecordID)
	}

	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.logger.Info("records cleared", slog.Int64("count", n))
	s.obs.emit(Event{Kind: EventCleared})
	return n, nil
}

// IncrementAndTouch adds one minute to the record and moves its timestamp to
// ts, or to now when ts is zero. The store is updated first and the result
// read back.
func (s *Service) IncrementAndTouch(ctx context.Context, id, ts int64) (models.Record, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if ts == 0 {
		ts = s.clock.Now().UnixMilli()
	}
	if err := s.repo.IncrementAndTouch(ctx, id, ts); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.dropLocal(id)
		}
		s.fail("increment", id, err)
		return models.Record{}, err
	}
	rec, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		// The increment is committed; project it onto the working copy
		// rather than report a failure a client would retry.
		s.mu.Lock()
		i := s.indexLocked(id)
		if i < 0 {
			s.mu.Unlock()
			err = fmt.Errorf("increment of record %d committed, read back failed: %w", id, err)
			s.fail("increment", id, err)
			return models.Record{}, err
		}
		rec = s.records[i].Clone()
		s.mu.Unlock()
		rec.Count++
		rec.UpdatedAt, rec.Timestamp = ts, ts
		s.logger.Warn("increment read back failed, using local copy",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
	}

	s.mu.Lock()
	s.upsertLocked(rec)
	s.lastErr = ""
	s.mu.Unlock()
	s.obs.emit(recordEvent(EventUpdated, rec, false))
	return rec, nil
}

// RecordDuration stores a finished session of seconds against the record.
// Durations under one second count as one second and Count becomes the
// session length in minutes, rounded up.
func (s *Service) RecordDuration(ctx context.Context, id, seconds int64, source string) (models.Record, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.recordDuration(ctx, id, seconds, source)
}

func (s *Service) recordDuration(ctx context.Context, id, seconds int64, source string) (models.Record, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	secs := timer.Normalize(seconds)
	now := s.clock.Now().UnixMilli()
	rec.Count = timer.Minutes(secs)
	rec.LastDurationSeconds = &secs
	rec.DurationSource = source
	rec.Timestamp = now
	rec.UpdatedAt = now
	return s.update(ctx, rec)
}

// Select makes the record with id the selected record.
func (s *Service) Select(ctx context.Context, id int64) (models.Record, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	rec, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.dropLocal(id)
		}
		return models.Record{}, err
	}
	s.mu.Lock()
	c := rec.Clone()
	s.selected = &c
	s.mu.Unlock()
	s.obs.emit(recordEvent(EventSelected, rec, false))
	return rec, nil
}

// ClearSelection drops the selected record.
func (s *Service) ClearSelection() {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	s.obs.emit(Event{Kind: EventSelected})
}

// lookup finds id in the working list, falling back to the repository.
func (s *Service) lookup(ctx context.Context, id int64) (models.Record, error) {
	s.mu.RLock()
	i := s.indexLocked(id)
	var rec models.Record
	if i >= 0 {
		rec = s.records[i].Clone()
	}
	s.mu.RUnlock()
	if i >= 0 {
		return rec, nil
	}
	return s.repo.FetchByID(ctx, id)
}

// fail records err as the last error, logs it and announces the failure.
// Optimistic changes have already been undone by the caller.
func (s *Service) fail(op string, id int64, err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	level := slog.LevelError
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalid) {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "record command failed",
		slog.String("op", op),
		slog.Int64("id", id),
		slog.String("error", err.Error()))
	s.obs.emit(Event{Kind: EventFailed, RecordID: id, Error: err.Error()})
}

func (s *Service) dropLocal(id int64) {
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.records = removeAt(s.records, i)
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.mu.Unlock()
}

func (s *Service) indexLocked(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) upsertLocked(rec models.Record) {
	if i := s.indexLocked(rec.ID); i >= 0 {
		s.records[i] = rec.Clone()
	} else {
		s.records = append(s.records, rec.Clone())
	}
	sortRecords(s.records)
	s.replaceSelectedLocked(rec)
}

// replaceSelectedLocked swaps in rec if it is selected and returns the
// previous selection.
func (s *Service) replaceSelectedLocked(rec models.Record) *models.Record {
	prev := s.selected
	if s.selected != nil && s.selected.ID == rec.ID {
		c := rec.Clone()
		s.selected = &c
	}
	return prev
}

// sortRecords orders by UpdatedAt descending, then id descending, matching
// the store's listing order.
func sortRecords(recs []models.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UpdatedAt != recs[j].UpdatedAt {
			return recs[i].UpdatedAt > recs[j].UpdatedAt
		}
		return recs[i].ID > recs[j].ID
	})
}

func removeAt(recs []models.Record, i int) []models.Record {
	out := make([]models.Record, 0, len(recs)-1)
	out = append(out, recs[:i]...)
	return append(out, recs[i+1:]...)
}
