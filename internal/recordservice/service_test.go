package recordservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/testutil"
	"github.com/starford/timelog/internal/timer"
)

var errDisk = fmt.Errorf("write: %w", &apperr.StoreError{Op: "insert", Err: errors.New("disk full")})

// memRepo is an in-memory Repository with failure injection.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]models.Record
	fail    error
	failOps map[string]error
	before  func(op string)
	inserts int
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[int64]models.Record)}
}

func (m *memRepo) enter(op string) error {
	m.mu.Lock()
	hook, err := m.before, m.fail
	if opErr, ok := m.failOps[op]; ok {
		err = opErr
	}
	m.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	return err
}

func (m *memRepo) failOp(op string, err error) {
	m.mu.Lock()
	if m.failOps == nil {
		m.failOps = make(map[string]error)
	}
	m.failOps[op] = err
	m.mu.Unlock()
}

func (m *memRepo) setFail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *memRepo) FetchAll(context.Context) ([]models.Record, error) {
	if err := m.enter("fetch_all"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) FetchByID(_ context.Context, id int64) (models.Record, error) {
	if err := m.enter("fetch_by_id"); err != nil {
		return models.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}
	return r.Clone(), nil
}

func (m *memRepo) Insert(_ context.Context, r models.Record) (int64, error) {
	if err := m.enter("insert"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	m.nextID++
	r.ID = m.nextID
	m.records[r.ID] = r.Clone()
	return r.ID, nil
}

func (m *memRepo) Update(_ context.Context, r models.Record) error {
	if err := m.enter("update"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return fmt.Errorf("record %d: %w", r.ID, apperr.ErrNotFound)
	}
	m.records[r.ID] = r.Clone()
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if err := m.enter("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) DeleteAll(context.Context) (int64, error) {
	if err := m.enter("delete_all"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.records))
	m.records = make(map[int64]models.Record)
	return n, nil
}

func (m *memRepo) IncrementAndTouch(_ context.Context, id, ts int64) error {
	if err := m.enter("increment"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}
	r.Count++
	r.UpdatedAt, r.Timestamp = ts, ts
	m.records[id] = r
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		if e.Kind == EventTimerTick {
			continue
		}
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	repo  *memRepo
	clock *clockwork.FakeClock
	svc   *Service
	ev    *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := newMemRepo()
	clock := clockwork.NewFakeClockAt(testutil.Epoch)
	svc := New(repo,
		WithClock(clock),
		WithLogger(testutil.DiscardLogger()),
		WithLocation(time.UTC),
	)
	ev := &recorder{}
	unsubscribe := svc.Subscribe(ev.observe)
	t.Cleanup(unsubscribe)
	return fixture{repo: repo, clock: clock, svc: svc, ev: ev}
}

func (fx fixture) add(t *testing.T, title string) models.Record {
	t.Helper()
	rec, err := fx.svc.Add(context.Background(), title, "")
	require.NoError(t, err)
	return rec
}

func TestRefreshLoadsRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.repo.Insert(ctx, models.NewRecord("a", "", fx.clock.Now()))
	require.NoError(t, err)

	assert.False(t, fx.svc.Snapshot().Loaded)
	require.NoError(t, fx.svc.Refresh(ctx))

	st := fx.svc.Snapshot()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	require.Len(t, st.Records, 1)
	assert.Equal(t, 1, st.Summary.Today)
	assert.Equal(t, 1, st.Summary.Total)
	assert.Equal(t, []string{EventRefreshed}, fx.ev.kinds())
}

func TestRefreshFailureKeepsList(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.add(t, "a")

	fx.repo.setFail(errDisk)
	err := fx.svc.Refresh(ctx)
	assert.ErrorIs(t, err, apperr.ErrStoreFailure)

	st := fx.svc.Snapshot()
	assert.Len(t, st.Records, 1)
	assert.NotEmpty(t, st.LastError)
}

func TestAddIsVisibleBeforeInsertReturns(t *testing.T) {
	fx := newFixture(t)
	var during State
	fx.repo.before = func(op string) {
		if op == "insert" {
			during = fx.svc.Snapshot()
		}
	}

	rec, err := fx.svc.Add(context.Background(), "  Reading ", "")
	require.NoError(t, err)
	assert.Equal(t, "Reading", rec.Title)
	assert.Equal(t, int64(1), rec.ID)

	require.Len(t, during.Records, 1)
	assert.Negative(t, during.Records[0].ID)
	assert.Equal(t, "Reading", during.Records[0].Title)

	st := fx.svc.Snapshot()
	require.Len(t, st.Records, 1)
	assert.Equal(t, int64(1), st.Records[0].ID)
	assert.Equal(t, []string{EventCreated, EventCreated}, fx.ev.kinds())
}

func TestAddRollsBackOnStoreFailure(t *testing.T) {
	fx := newFixture(t)
	fx.repo.setFail(errDisk)

	_, err := fx.svc.Add(context.Background(), "Reading", "")
	require.ErrorIs(t, err, apperr.ErrStoreFailure)

	st := fx.svc.Snapshot()
	assert.Empty(t, st.Records)
	assert.Contains(t, st.LastError, "disk full")
	assert.Equal(t, []string{EventCreated, EventFailed}, fx.ev.kinds())
}

func TestAddRejectsInvalidTitle(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Add(context.Background(), "   ", "")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	assert.Zero(t, fx.repo.inserts)
	assert.Empty(t, fx.ev.kinds())
}

func TestUpdateRollsBack(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	_, err := fx.svc.Select(ctx, rec.ID)
	require.NoError(t, err)

	fx.repo.setFail(errDisk)
	changed := rec
	changed.Title = "b"
	_, err = fx.svc.Update(ctx, changed)
	require.ErrorIs(t, err, apperr.ErrStoreFailure)

	st := fx.svc.Snapshot()
	assert.Equal(t, "a", st.Records[0].Title)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "a", st.Selected.Title)
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	fx.clock.Advance(time.Hour)

	got, err := fx.svc.Update(ctx, models.Record{ID: rec.ID, Title: "b", Timestamp: rec.Timestamp})
	require.NoError(t, err)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.Equal(t, fx.clock.Now().UnixMilli(), got.UpdatedAt)
}

func TestUpdateUnknownRecord(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Update(context.Background(), models.Record{ID: 99, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteRollsBackAndRestoresSelection(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	_, err := fx.svc.Select(ctx, rec.ID)
	require.NoError(t, err)

	fx.repo.setFail(errDisk)
	require.ErrorIs(t, fx.svc.Delete(ctx, rec.ID), apperr.ErrStoreFailure)
	st := fx.svc.Snapshot()
	assert.Len(t, st.Records, 1)
	require.NotNil(t, st.Selected)

	fx.repo.setFail(nil)
	require.NoError(t, fx.svc.Delete(ctx, rec.ID))
	st = fx.svc.Snapshot()
	assert.Empty(t, st.Records)
	assert.Nil(t, st.Selected)
	assert.Empty(t, st.LastError)
}

func TestDeleteMissingRecordIsNotRestored(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	require.NoError(t, fx.repo.Delete(ctx, rec.ID))

	assert.ErrorIs(t, fx.svc.Delete(ctx, rec.ID), apperr.ErrNotFound)
	assert.Empty(t, fx.svc.Snapshot().Records)
}

func TestClearAll(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.add(t, "a")
	fx.add(t, "b")

	fx.repo.setFail(errDisk)
	_, err := fx.svc.ClearAll(ctx)
	require.ErrorIs(t, err, apperr.ErrStoreFailure)
	assert.Len(t, fx.svc.Snapshot().Records, 2)

	fx.repo.setFail(nil)
	n, err := fx.svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, fx.svc.Snapshot().Records)
}

func TestIncrementReadsBack(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	fx.clock.Advance(time.Minute)

	got, err := fx.svc.IncrementAndTouch(ctx, rec.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, fx.clock.Now().UnixMilli(), got.Timestamp)
	assert.Equal(t, got, fx.svc.Snapshot().Records[0])

	_, err = fx.svc.IncrementAndTouch(ctx, 404, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIncrementProjectsWhenReadBackFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	fx.clock.Advance(time.Minute)
	fx.repo.failOp("fetch_by_id", errDisk)

	got, err := fx.svc.IncrementAndTouch(ctx, rec.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, fx.clock.Now().UnixMilli(), got.Timestamp)
	assert.Equal(t, got, fx.svc.Snapshot().Records[0])

	stored := fx.repo.records[rec.ID]
	assert.Equal(t, 1, stored.Count, "store incremented exactly once")
}

func TestIncrementReadBackFailureWithoutLocalCopy(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id, err := fx.repo.Insert(ctx, models.NewRecord("elsewhere", "", fx.clock.Now()))
	require.NoError(t, err)
	fx.repo.failOp("fetch_by_id", errDisk)

	_, err = fx.svc.IncrementAndTouch(ctx, id, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStoreFailure)
	assert.Contains(t, err.Error(), "committed")
}

func TestAddRecordTrimsFields(t *testing.T) {
	fx := newFixture(t)
	rec := models.NewRecord("x", "", fx.clock.Now())
	rec.Title, rec.Description = "  padded  ", "  notes "

	got, err := fx.svc.AddRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "padded", got.Title)
	assert.Equal(t, "notes", got.Description)
	assert.Equal(t, "padded", fx.repo.records[got.ID].Title)
}

func TestRecordDurationRounding(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	got, err := fx.svc.RecordDuration(ctx, rec.ID, 61, models.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	require.NotNil(t, got.LastDurationSeconds)
	assert.Equal(t, int64(61), *got.LastDurationSeconds)
	assert.Equal(t, models.SourceManual, got.DurationSource)

	got, err = fx.svc.RecordDuration(ctx, rec.ID, 0, models.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, int64(1), *got.LastDurationSeconds)

	stored, err := fx.repo.FetchByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestSelectAndClear(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	sel, err := fx.svc.Select(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, sel)
	assert.Equal(t, rec.ID, fx.svc.Snapshot().Selected.ID)

	fx.svc.ClearSelection()
	assert.Nil(t, fx.svc.Snapshot().Selected)

	_, err = fx.svc.Select(ctx, 77)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStopTimerCommitsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(61 * time.Second)

	got, err := fx.svc.StopTimer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, models.SourceTimer, got.DurationSource)
	assert.Equal(t, fx.clock.Now().UnixMilli(), got.Timestamp)

	_, err = fx.svc.TimerStatus(rec.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStopTimerFailureKeepsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(90 * time.Second)
	fx.repo.setFail(errDisk)

	_, err = fx.svc.StopTimer(ctx, rec.ID)
	require.ErrorIs(t, err, apperr.ErrStoreFailure)

	snap, err := fx.svc.TimerStatus(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, timer.StatusPaused, snap.Status)
	assert.Equal(t, int64(90), snap.ElapsedSeconds)

	fx.clock.Advance(time.Hour)
	fx.repo.setFail(nil)
	got, err := fx.svc.StopTimer(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	require.NotNil(t, got.LastDurationSeconds)
	assert.Equal(t, int64(90), *got.LastDurationSeconds)
	assert.Empty(t, fx.svc.ActiveTimers())
}

func TestAbandonFailureKeepsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(30 * time.Second)
	fx.repo.setFail(errDisk)

	_, committed, err := fx.svc.AbandonTimer(ctx, rec.ID)
	require.Error(t, err)
	assert.False(t, committed)
	assert.Len(t, fx.svc.ActiveTimers(), 1)
}

func TestDeleteStopsTimer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	require.NoError(t, fx.svc.Delete(ctx, rec.ID))
	assert.Empty(t, fx.svc.ActiveTimers())

	_, err = fx.svc.StopTimer(ctx, rec.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFailedDeleteKeepsTimer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.repo.setFail(errDisk)
	require.Error(t, fx.svc.Delete(ctx, rec.ID))
	assert.Len(t, fx.svc.ActiveTimers(), 1)

	fx.repo.setFail(nil)
	_, err = fx.svc.StopTimer(ctx, rec.ID)
	require.NoError(t, err)
}

func TestClearAllStopsTimers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a := fx.add(t, "a")
	b := fx.add(t, "b")

	_, err := fx.svc.StartTimer(ctx, a.ID)
	require.NoError(t, err)
	_, err = fx.svc.StartTimer(ctx, b.ID)
	require.NoError(t, err)
	_, err = fx.svc.PauseTimer(b.ID)
	require.NoError(t, err)

	_, err = fx.svc.ClearAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, fx.svc.ActiveTimers())
}

func TestClearSelectionWaitsForCommand(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	_, err := fx.svc.Select(ctx, rec.ID)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	fx.repo.before = func(op string) {
		if op == "delete" {
			close(entered)
			<-release
		}
	}
	fx.repo.setFail(errDisk)

	deleted := make(chan error, 1)
	go func() { deleted <- fx.svc.Delete(ctx, rec.ID) }()
	<-entered

	cleared := make(chan struct{})
	go func() {
		fx.svc.ClearSelection()
		close(cleared)
	}()
	select {
	case <-cleared:
		t.Fatal("ClearSelection ran while a command was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-deleted)
	<-cleared
	assert.Nil(t, fx.svc.Snapshot().Selected)
}

func TestStartTimerUnknownRecord(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.StartTimer(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, fx.svc.ActiveTimers())
}

func TestAbandonTimer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	_, committed, err := fx.svc.AbandonTimer(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, committed)
	assert.False(t, fx.svc.Snapshot().Records[0].Timed())

	_, err = fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(10 * time.Second)
	_, err = fx.svc.PauseTimer(rec.ID)
	require.NoError(t, err)
	got, committed, err := fx.svc.AbandonTimer(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, models.SourceInterrupted, got.DurationSource)
	assert.Equal(t, 1, got.Count)
}

func TestCloseAbandonsRunningTimers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")
	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(3 * time.Minute)

	require.NoError(t, fx.svc.Close(ctx))
	assert.Empty(t, fx.svc.ActiveTimers())
	got := fx.svc.Snapshot().Records[0]
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, models.SourceInterrupted, got.DurationSource)
}

func TestTimerEmitsTicks(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	rec := fx.add(t, "a")

	ticks := make(chan Event, 4)
	unsubscribe := fx.svc.Subscribe(func(e Event) {
		if e.Kind == EventTimerTick {
			ticks <- e
		}
	})
	defer unsubscribe()

	_, err := fx.svc.StartTimer(ctx, rec.ID)
	require.NoError(t, err)
	fx.clock.Advance(timer.TickInterval)

	select {
	case e := <-ticks:
		require.NotNil(t, e.Timer)
		assert.Equal(t, rec.ID, e.RecordID)
		assert.Equal(t, "00:00:01", e.Timer.Display)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick event")
	}
	_, err = fx.svc.StopTimer(ctx, rec.ID)
	require.NoError(t, err)
}

func TestSnapshotDoesNotWaitForStore(t *testing.T) {
	fx := newFixture(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	fx.repo.before = func(op string) {
		if op == "insert" {
			close(entered)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := fx.svc.Add(context.Background(), "slow", "")
		done <- err
	}()
	<-entered

	snapped := make(chan State, 1)
	go func() { snapped <- fx.svc.Snapshot() }()
	select {
	case st := <-snapped:
		assert.Len(t, st.Records, 1)
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked on store I/O")
	}

	close(release)
	require.NoError(t, <-done)
}

func TestViews(t *testing.T) {
	fx := newFixture(t)
	fx.add(t, "a")
	fx.add(t, "b")

	assert.Equal(t, 2, fx.svc.Summary().Today)
	g := fx.svc.Heatmap(7)
	assert.Len(t, g.Cells(), 49)
	assert.Equal(t, 2, g.Columns[6][g.TodayRow].Count)

	m := fx.svc.Month(2024, time.January)
	assert.Equal(t, 2, m.Total)
	assert.Len(t, fx.svc.Day(2024, time.January, 10), 2)
	assert.Empty(t, fx.svc.Day(2024, time.January, 9))
}

func TestRoundTripThroughCachedStore(t *testing.T) {
	repo, clock := testutil.TestRepository(t)
	svc := New(repo, WithClock(clock), WithLogger(testutil.DiscardLogger()))
	ctx := context.Background()

	in := models.NewRecord("Reading", "ch. 4", clock.Now())
	added, err := svc.AddRecord(ctx, in)
	require.NoError(t, err)

	got, err := repo.FetchByID(ctx, added.ID)
	require.NoError(t, err)
	in.ID = added.ID
	assert.Equal(t, in, got)

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, []models.Record{got}, svc.Snapshot().Records)
}
