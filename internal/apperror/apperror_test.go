package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("no session"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "StoreFailure wraps ErrStore",
			err:       StoreFailure("increment global counter", errors.New("disk full")),
			target:    ErrStore,
			wantMatch: true,
		},
		{
			name:      "StoreFailure keeps the cause reachable",
			err:       StoreFailure("get user", sql.ErrConnDone),
			target:    sql.ErrConnDone,
			wantMatch: true,
		},
		{
			name:      "wrapped StoreFailure still matches",
			err:       fmt.Errorf("service/counter: %w", StoreFailure("reset", errors.New("boom"))),
			target:    ErrStore,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrStore",
			err:       NotFound("user", "abc123"),
			target:    ErrStore,
			wantMatch: false,
		},
		{
			name:      "Unauthenticated does NOT match ErrNotFound",
			err:       Unauthenticated("expired"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "Unauthenticated uses custom message",
			err:         Unauthenticated("session expired"),
			wantMessage: "session expired",
		},
		{
			name:        "StoreFailure appends the cause",
			err:         StoreFailure("increment global counter", errors.New("database is locked")),
			wantMessage: "increment global counter: database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	// errors.As must find the AppError through an fmt.Errorf wrapper.
	err := fmt.Errorf("handler: %w", NotFound("user", "u1"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As() did not find *AppError")
	}
	if appErr.Message != "user not found with id u1" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
