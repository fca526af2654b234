package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"

	"dcpm/internal/library"
	"dcpm/internal/metadata"
	"dcpm/internal/storage"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "query",
				Message: "cannot be empty",
			},
			want: "validation error on field query: cannot be empty",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if got := WrapError(nil, "context"); got != nil {
		t.Errorf("WrapError(nil) = %v, want nil", got)
	}
	orig := errors.New("original error")
	got := WrapError(orig, "context")
	if got.Error() != "context: original error" {
		t.Errorf("WrapError() = %v", got)
	}
	if !errors.Is(got, orig) {
		t.Error("WrapError() should wrap original error")
	}
}

func TestTranslate(t *testing.T) {
	driver := sqlite3.Error{Code: sqlite3.ErrBusy}

	tests := []struct {
		name    string
		err     error
		wantIs  error
		check   func(*testing.T, error)
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "not found", err: fmt.Errorf("get: %w", storage.ErrNotFound), wantIs: ErrNotFound},
		{name: "empty query", err: storage.ErrEmptyQuery, wantIs: ErrInvalidInput},
		{name: "invalid status", err: fmt.Errorf("%w: %q", storage.ErrInvalidStatus, "x"), wantIs: ErrInvalidInput},
		{name: "conflict", err: storage.ErrConflict, wantIs: ErrConflict},
		{name: "move target taken", err: fmt.Errorf("no free name: %w", library.ErrTargetExists), wantIs: ErrConflict},
		{name: "cancelled", err: context.Canceled, wantIs: context.Canceled},
		{name: "missing sidecar", err: metadata.ErrNoMetadata, wantIs: ErrConflict},
		{name: "malformed sidecar", err: &metadata.MalformedError{Path: "p", Err: errors.New("bad")}, wantIs: ErrConflict},
		{
			name:   "busy",
			err:    fmt.Errorf("%w: %w", storage.ErrStoreBusy, driver),
			wantIs: ErrStoreUnavailable,
			check: func(t *testing.T, err error) {
				var unavail *StoreUnavailableError
				if !errors.As(err, &unavail) || !unavail.Retriable() {
					t.Errorf("translate() = %v, want retriable StoreUnavailableError", err)
				}
				var se sqlite3.Error
				if errors.As(err, &se) {
					t.Error("driver error leaked through translate()")
				}
			},
		},
		{
			name:   "corrupt",
			err:    storage.ErrStoreCorrupt,
			wantIs: ErrStoreUnavailable,
			check: func(t *testing.T, err error) {
				var unavail *StoreUnavailableError
				if !errors.As(err, &unavail) || unavail.Retriable() {
					t.Errorf("translate() = %v, want non-retriable StoreUnavailableError", err)
				}
			},
		},
		{
			name:   "unknown driver error",
			err:    sqlite3.Error{Code: sqlite3.ErrError},
			wantIs: ErrInternal,
			check: func(t *testing.T, err error) {
				var se sqlite3.Error
				if errors.As(err, &se) {
					t.Error("driver error leaked through translate()")
				}
				if err.Error() != "op: internal error" {
					t.Errorf("translate() message = %q, want the driver text left out", err.Error())
				}
			},
		},
		{
			name:   "unknown error with file path",
			err:    errors.New("open /srv/lib/.dcpm/index.sqlite: permission denied"),
			wantIs: ErrInternal,
			check: func(t *testing.T, err error) {
				if err.Error() != "op: internal error" {
					t.Errorf("translate() message = %q, want only the operation", err.Error())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, "op")
			if tt.wantNil {
				if got != nil {
					t.Errorf("translate() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.wantIs) {
				t.Errorf("translate() = %v, want errors.Is %v", got, tt.wantIs)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}
