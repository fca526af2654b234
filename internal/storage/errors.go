package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint collides in a way the
	// merge rules do not cover.
	ErrConflict = errors.New("conflicting record")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrInvalidStatus is returned for an unknown resource status.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrStoreBusy is returned when another writer holds the database past the
	// busy timeout. The operation can be retried.
	ErrStoreBusy = errors.New("index store busy")
	// ErrStoreCorrupt is returned when the database file is unreadable. The
	// index has to be rebuilt.
	ErrStoreCorrupt = errors.New("index store corrupt")
	// ErrSchemaMismatch is returned by Open when the file was written by an
	// incompatible schema version.
	ErrSchemaMismatch = errors.New("index schema mismatch")
)

// classify maps driver errors onto the package sentinels, keeping the original
// error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", ErrStoreBusy, err)
	case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
		return fmt.Errorf("%w: %w", ErrStoreCorrupt, err)
	case sqlite3.ErrConstraint:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
