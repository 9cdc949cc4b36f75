package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateID is returned by Add when the record's identifier is
// already present in the collection.
var ErrDuplicateID = errors.New("record identifier already exists")

// ErrIDGeneration is returned when identifier generation keeps
// colliding past the retry limit.
var ErrIDGeneration = errors.New("could not generate a unique record identifier")

// NotFoundError reports an operation referencing a missing record.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found in collection %q", e.ID, e.Collection)
}

// UnknownCollectionError reports an operation on a collection the
// store was not constructed with.
type UnknownCollectionError struct {
	Collection string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q", e.Collection)
}

// ValidationError carries every rule violation found in a record.
// The operation that produced it applied no changes.
type ValidationError struct {
	Collection string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record for collection %q: %s",
		e.Collection, strings.Join(e.Violations, "; "))
}

// SaveError wraps a persistence failure. The in-memory state was
// rolled back to what it was before the save attempt.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("persisting store: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
