// Package apperr defines the error taxonomy shared by the store, cache and service layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrStoreFailure = errors.New("store failure")
	ErrInvalid      = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// StoreError wraps an I/O error returned by the persistent store.
// errors.Is(err, ErrStoreFailure) reports true for any StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStoreFailure.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// Store wraps err as a StoreError for op. NotFound and nil pass through unchanged.
func Store(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
