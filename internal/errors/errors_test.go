package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(SnapshotInvalid, "snapshot version 3 not supported", cause)

	if err.Code != SnapshotInvalid {
		t.Errorf("Code = %v, want %v", err.Code, SnapshotInvalid)
	}
	if err.Message != "snapshot version 3 not supported" {
		t.Errorf("Message = %q, want %q", err.Message, "snapshot version 3 not supported")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestMetaError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      ParseFailed,
			message:   "cannot parse Foo.h",
			cause:     errors.New("unexpected EOF"),
			wantParts: []string{"PARSE_FAILED", "cannot parse Foo.h", "unexpected EOF"},
		},
		{
			name:      "without cause",
			code:      HeaderNotFound,
			message:   "header 'Foo.h' not found",
			cause:     nil,
			wantParts: []string{"HEADER_NOT_FOUND", "header 'Foo.h' not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestMetaError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := Newf(UnsupportedFormat, "format %q", "xml")
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestMetaError_WithDetails(t *testing.T) {
	err := New(ManifestInvalid, "bad manifest", nil)
	details := map[string]string{"entry": "3"}

	if result := err.WithDetails(details); result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("extract: %w", New(HeaderNotFound, "missing", nil))

	if got := CodeOf(wrapped); got != HeaderNotFound {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, HeaderNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if !Is(wrapped, HeaderNotFound) {
		t.Error("Is(wrapped, HeaderNotFound) = false, want true")
	}
	if Is(wrapped, ParseFailed) {
		t.Error("Is(wrapped, ParseFailed) = true, want false")
	}
	if me, ok := As(wrapped); !ok || me.Message != "missing" {
		t.Errorf("As(wrapped) = %v, %v, want the MetaError", me, ok)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("As(plain) ok = true, want false")
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
		wantLen int
	}{
		{HeaderNotFound, false, 1},
		{SnapshotInvalid, false, 1},
		{CacheUnavailable, false, 1},
		{ProviderUnavailable, false, 1},
		{ParseFailed, true, 0},
		{InternalError, true, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) != tt.wantLen {
				t.Errorf("len(GetSuggestedFixes(%v)) = %d, want %d", tt.code, len(fixes), tt.wantLen)
			}
		})
	}
}
