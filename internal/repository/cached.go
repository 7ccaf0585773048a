// Package repository puts a TTL-expiring read-through cache in front of the
// record store.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/store"
)

// DefaultTTL is how long a fetched value is served without asking the store.
const DefaultTTL = 30 * time.Second

// Store operation labels.
const (
	opFetchAll  = "fetch_all"
	opFetchByID = "fetch_by_id"
	opInsert    = "insert"
	opUpdate    = "update"
	opDelete    = "delete"
	opDeleteAll = "delete_all"
	opIncrement = "increment"
)

type entry struct {
	rec       models.Record
	fetchedAt time.Time
}

type listEntry struct {
	recs      []models.Record
	fetchedAt time.Time
	populated bool
}

// Repository is safe for concurrent use. Store calls never run while the
// cache lock is held.
type Repository struct {
	store   store.RecordStore
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *metrics

	mu   sync.Mutex
	ttl  time.Duration
	gen  uint64
	byID map[int64]entry
	all  listEntry
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used for cache ages.
func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) { r.clock = c }
}

// WithTTL sets the cache lifetime.
func WithTTL(d time.Duration) Option {
	return func(r *Repository) { r.ttl = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithRegisterer registers the cache metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Repository) { r.metrics = newMetrics(reg) }
}

// New wraps s with a cache.
func New(s store.RecordStore, opts ...Option) *Repository {
	r := &Repository{
		store:  s,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
		ttl:    DefaultTTL,
		byID:   make(map[int64]entry),
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = newMetrics(nil)
	}
	return r
}

// TTL returns the current cache lifetime.
func (r *Repository) TTL() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl
}

// SetTTL changes the cache lifetime. Existing entries are judged against the
// new value from the next lookup on.
func (r *Repository) SetTTL(d time.Duration) {
	r.mu.Lock()
	r.ttl = d
	r.mu.Unlock()
	r.logger.Info("cache ttl updated", slog.Duration("ttl", d))
}

// FetchAll returns all records, newest update first.
func (r *Repository) FetchAll(ctx context.Context) ([]models.Record, error) {
	r.mu.Lock()
	if r.all.populated && r.freshLocked(r.all.fetchedAt) {
		out := models.CloneAll(r.all.recs)
		r.mu.Unlock()
		r.metrics.cache(opFetchAll, resultHit)
		return out, nil
	}
	gen := r.gen
	r.mu.Unlock()

	start := r.clock.Now()
	recs, err := r.store.List(ctx)
	r.metrics.observe(opFetchAll, start, r.clock.Now(), err)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.all.populated {
			r.metrics.cache(opFetchAll, resultStale)
			r.logger.Warn("serving stale record list", slog.String("error", err.Error()))
			return models.CloneAll(r.all.recs), nil
		}
		r.metrics.cache(opFetchAll, resultMiss)
		return nil, asStoreFailure(opFetchAll, err)
	}
	r.metrics.cache(opFetchAll, resultMiss)
	if gen == r.gen {
		r.all = listEntry{recs: models.CloneAll(recs), fetchedAt: r.clock.Now(), populated: true}
	}
	return models.CloneAll(recs), nil
}

// FetchByID returns one record. A record the store reports missing is never
// served from cache.
func (r *Repository) FetchByID(ctx context.Context, id int64) (models.Record, error) {
	r.mu.Lock()
	if e, ok := r.byID[id]; ok && r.freshLocked(e.fetchedAt) {
		out := e.rec.Clone()
		r.mu.Unlock()
		r.metrics.cache(opFetchByID, resultHit)
		return out, nil
	}
	gen := r.gen
	r.mu.Unlock()

	start := r.clock.Now()
	rec, err := r.store.Get(ctx, id)
	r.metrics.observe(opFetchByID, start, r.clock.Now(), err)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		delete(r.byID, id)
		r.metrics.cache(opFetchByID, resultMiss)
		return models.Record{}, err
	case err != nil:
		if e, ok := r.byID[id]; ok {
			r.metrics.cache(opFetchByID, resultStale)
			r.logger.Warn("serving stale record",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			return e.rec.Clone(), nil
		}
		r.metrics.cache(opFetchByID, resultMiss)
		return models.Record{}, asStoreFailure(opFetchByID, err)
	}
	r.metrics.cache(opFetchByID, resultMiss)
	if gen == r.gen {
		r.byID[id] = entry{rec: rec.Clone(), fetchedAt: r.clock.Now()}
	}
	return rec.Clone(), nil
}

// Insert stores rec and returns its assigned id. All cached data is dropped.
func (r *Repository) Insert(ctx context.Context, rec models.Record) (int64, error) {
	var id int64
	err := r.write(ctx, opInsert, func(ctx context.Context) error {
		var err error
		id, err = r.store.Insert(ctx, rec)
		return err
	}, func() {
		r.clearLocked()
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update overwrites rec. The id entry is refreshed with rec and the list is
// marked expired.
func (r *Repository) Update(ctx context.Context, rec models.Record) error {
	return r.write(ctx, opUpdate, func(ctx context.Context) error {
		return r.store.Update(ctx, rec)
	}, func() {
		r.byID[rec.ID] = entry{rec: rec.Clone(), fetchedAt: r.clock.Now()}
		r.expireListLocked()
	})
}

// Delete removes the record with id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, opDelete, func(ctx context.Context) error {
		return r.store.Delete(ctx, id)
	}, func() {
		delete(r.byID, id)
		r.expireListLocked()
	})
}

// IncrementAndTouch adds one to the record's count and sets its update and
// bucketing time to ts.
func (r *Repository) IncrementAndTouch(ctx context.Context, id, ts int64) error {
	return r.write(ctx, opIncrement, func(ctx context.Context) error {
		return r.store.IncrementAndTouch(ctx, id, ts)
	}, func() {
		delete(r.byID, id)
		r.expireListLocked()
	})
}

// DeleteAll removes every record and returns how many were removed.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.write(ctx, opDeleteAll, func(ctx context.Context) error {
		var err error
		n, err = r.store.DeleteAll(ctx)
		return err
	}, func() {
		r.clearLocked()
	})
	return n, err
}

// write runs a store write and, on success, applies invalidate under the lock.
// Failed writes leave the cache untouched.
func (r *Repository) write(ctx context.Context, op string, do func(context.Context) error, invalidate func()) error {
	start := r.clock.Now()
	err := do(ctx)
	r.metrics.observe(op, start, r.clock.Now(), err)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return asStoreFailure(op, err)
	}
	r.mu.Lock()
	r.gen++
	invalidate()
	r.mu.Unlock()
	return nil
}

func (r *Repository) freshLocked(fetchedAt time.Time) bool {
	return r.clock.Since(fetchedAt) < r.ttl
}

func (r *Repository) expireListLocked() {
	r.all.fetchedAt = time.Time{}
}

func (r *Repository) clearLocked() {
	r.byID = make(map[int64]entry)
	r.all = listEntry{}
}

// asStoreFailure guarantees the error matches apperr.ErrStoreFailure while
// keeping validation errors recognizable.
func asStoreFailure(op string, err error) error {
	if errors.Is(err, apperr.ErrInvalid) || errors.Is(err, apperr.ErrStoreFailure) {
		return err
	}
	return apperr.Store(op, err)
}
