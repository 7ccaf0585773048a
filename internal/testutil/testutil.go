// Package testutil provides shared test helpers for setting up stores and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/timelog/internal/repository"
	"github.com/starford/timelog/internal/store"
)

// Epoch is the fixed start time of fake clocks handed out by this package:
// Wednesday 2024-01-10 09:00 UTC.
var Epoch = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "timelog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(context.Background(), store.DriverPureGo, dbFile.Name(), DiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRepository wraps a fresh TestStore in a cache driven by a fake clock.
func TestRepository(t *testing.T) (*repository.Repository, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(Epoch)
	repo := repository.New(TestStore(t),
		repository.WithClock(clock),
		repository.WithLogger(DiscardLogger()),
	)
	return repo, clock
}
