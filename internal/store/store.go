package store

import (
	"context"

	"github.com/starford/timelog/internal/models"
)

// RecordStore defines the durable record operations the cache layer builds on.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type RecordStore interface {
	Insert(ctx context.Context, r models.Record) (int64, error)
	Update(ctx context.Context, r models.Record) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	IncrementAndTouch(ctx context.Context, id int64, ts int64) error
	Close() error
}

// Verify *DB satisfies RecordStore at compile time.
var _ RecordStore = (*DB)(nil)
