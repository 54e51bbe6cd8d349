package docstore

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrConflict indicates a conditional write lost to a concurrent writer, or
// a create raced an existing document.
var ErrConflict = errors.New("document revision conflict")

// StoreError wraps a backend failure (connectivity, I/O, serialization at
// the storage layer). It is retryable from the caller's point of view.
type StoreError struct {
	Op   string
	Kind string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("docstore %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
