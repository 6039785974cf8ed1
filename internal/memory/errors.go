package memory

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("memory: not found")

// StoreError reports that the persistence layer could not complete an
// operation. The in-memory rings are still valid when it is returned, so
// callers can keep classifying in a degraded, non-persistent mode.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("memory: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreFailure reports whether err carries a *StoreError.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
