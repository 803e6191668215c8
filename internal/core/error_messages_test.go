package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "products_pkey"`), "DB001"},
		{"foreign key", errors.New("insert or update on table \"products\" violates foreign key constraint"), "DB002"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB004"},
		{"body too large", errors.New("read upload: http: request body too large"), "FILE001"},
		{"invalid csv", errors.New(MsgInvalidCSV), "FILE002"},
		{"not utf-8", errors.New(MsgNotUTF8), "FILE003"},
		{"too many imports", ErrTooManyImports, "IMP001"},
		{"wrapped cancellation", fmt.Errorf("save batch: %w", context.Canceled), "IMP002"},
		{"deadline", context.DeadlineExceeded, "IMP003"},
		{"exchange rate", fmt.Errorf("fetch: %w", ErrNoRate), "EXT001"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something odd"), "ERR000"},
		{"case insensitive", errors.New("DUPLICATE KEY"), "DB001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyImports)
	want := "System is busy processing other imports (Code: IMP001). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"known", errors.New("deadlock detected"), true},
		{"unknown", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		typ  ServiceErrorType
		want int
	}{
		{ServiceUnavailable, 503},
		{ServiceNotImplemented, 501},
		{ServiceInternal, 500},
	}
	for _, tt := range tests {
		err := &ServiceError{Type: tt.typ}
		if got := err.Status(); got != tt.want {
			t.Errorf("%s: Status() = %d, want %d", tt.typ, got, tt.want)
		}
	}

	cause := errors.New("upstream down")
	if err := (&ServiceError{Type: ServiceUnavailable, Err: cause}); !errors.Is(err, cause) {
		t.Error("ServiceError should unwrap to its cause")
	}
}
