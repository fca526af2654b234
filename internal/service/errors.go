package service

import (
	"context"
	"errors"
	"fmt"

	"dcpm/internal/library"
	"dcpm/internal/metadata"
	"dcpm/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable is matched by every *StoreUnavailableError.
	ErrStoreUnavailable = errors.New("index store unavailable")
	// ErrInternal is returned for failures outside the taxonomy.
	ErrInternal = errors.New("internal error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) hold for validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StoreUnavailableError reports that the index store cannot serve requests.
// Busy errors can be retried; otherwise the index has to be rebuilt.
type StoreUnavailableError struct {
	Busy    bool
	Message string
}

func (e *StoreUnavailableError) Error() string {
	if e.Busy {
		return "index store busy: " + e.Message
	}
	return "index store unusable, rebuild the index: " + e.Message
}

// Is makes errors.Is(err, ErrStoreUnavailable) hold.
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Retriable reports whether retrying later may succeed.
func (e *StoreUnavailableError) Retriable() bool {
	return e.Busy
}

// PartialScanWarning is a per-item problem a pass skipped over.
type PartialScanWarning struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	ProjectID string `json:"project_id,omitempty"`
	Message   string `json:"message"`
}

func toWarnings(in []library.Warning) []PartialScanWarning {
	out := make([]PartialScanWarning, 0, len(in))
	for _, w := range in {
		out = append(out, PartialScanWarning(w))
	}
	return out
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// translate maps storage, library and metadata errors onto the service
// taxonomy. Errors outside it become ErrInternal and their text is dropped;
// callers log the cause.
func translate(err error, msg string) error {
	var (
		validation *ValidationError
		unavail    *StoreUnavailableError
		malformed  *metadata.MalformedError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &validation), errors.As(err, &unavail):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapError(err, msg)
	case errors.Is(err, storage.ErrNotFound):
		return WrapError(ErrNotFound, msg)
	case errors.Is(err, storage.ErrEmptyQuery):
		return &ValidationError{Field: "query", Message: "cannot be empty"}
	case errors.Is(err, storage.ErrInvalidStatus):
		return &ValidationError{Field: "status", Message: err.Error()}
	case errors.Is(err, storage.ErrStoreBusy):
		return &StoreUnavailableError{Busy: true, Message: msg}
	case errors.Is(err, storage.ErrStoreCorrupt), errors.Is(err, storage.ErrSchemaMismatch):
		return &StoreUnavailableError{Message: msg}
	case errors.Is(err, storage.ErrConflict), errors.Is(err, library.ErrTargetExists):
		return WrapError(ErrConflict, msg)
	case errors.Is(err, metadata.ErrNoMetadata):
		return fmt.Errorf("%s: %w: project metadata file is missing", msg, ErrConflict)
	case errors.As(err, &malformed):
		return fmt.Errorf("%s: %w: %s", msg, ErrConflict, malformed.Error())
	}
	return WrapError(ErrInternal, msg)
}
