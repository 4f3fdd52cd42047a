// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/distbuild/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "missing_manifest",
			code:    errors.ErrManifestMissing,
			message: "MANIFEST not found",
			wantStr: "[MANIFEST_MISSING] MANIFEST not found",
		},
		{
			name:    "invalid_config",
			code:    errors.ErrConfigInvalid,
			message: "invalid configuration",
			wantStr: "[CONFIG_INVALID] invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrFileSystem, "cannot create %s with mode %o", "file.txt", 0644)
	if err.Message != "cannot create file.txt with mode 644" {
		t.Errorf("Newf() message = %q", err.Message)
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		if err.Code != errors.ErrInternal {
			t.Errorf("Wrap() code = %v, want %v", err.Code, errors.ErrInternal)
		}

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}

		wantStr := "[INTERNAL] internal error: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		err := errors.Wrap(nil, errors.ErrInternal, "internal error")
		if err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestWithDetails(t *testing.T) {
	err := errors.New(errors.ErrManifestMismatch, "differences").
		WithDetail("removed", []string{"a"}).
		WithDetails(map[string]interface{}{"path": "/dist/MANIFEST"})

	if err.Details["path"] != "/dist/MANIFEST" {
		t.Errorf("WithDetails() path = %v", err.Details["path"])
	}
	if got := errors.GetErrorDetails(err)["removed"]; got == nil {
		t.Error("GetErrorDetails() should expose removed")
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrCompile, "error 1")
	err2 := errors.New(errors.ErrCompile, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should match on code")
	}
	if err1.Is(err3) {
		t.Error("Is() should return false for different codes")
	}
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrFileSystem, "denied"), errors.ErrFileSystem, true},
		{"different_code", errors.New(errors.ErrFileSystem, "denied"), errors.ErrCompile, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrArchive, "tar"), errors.ErrArchive, true},
		{"standard_error", stderrors.New("standard error"), errors.ErrInternal, false},
		{"nil_error", nil, errors.ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(stderrors.New("x")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode() = %v, want UNKNOWN", got)
	}
	if got := errors.GetErrorCode(errors.New(errors.ErrHook, "x")); got != errors.ErrHook {
		t.Errorf("GetErrorCode() = %v, want HOOK", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"mismatch", errors.New(errors.ErrManifestMismatch, "drift"), 2},
		{"missing_manifest", errors.New(errors.ErrManifestMissing, "gone"), 1},
		{"plain", stderrors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	fsErr := errors.Wrap(rootCause, errors.ErrFileSystem, "cannot read file")
	buildErr := errors.Wrap(fsErr, errors.ErrInternal, "build failed")

	if !errors.IsErrorCode(buildErr, errors.ErrInternal) {
		t.Error("top level should have ErrInternal code")
	}

	var distErr *errors.DistError
	if stderrors.As(buildErr.Unwrap(), &distErr) {
		if distErr.Code != errors.ErrFileSystem {
			t.Error("middle error should have ErrFileSystem code")
		}
	} else {
		t.Error("middle error should be a DistError")
	}

	if !stderrors.Is(buildErr, rootCause) {
		t.Error("should find root cause with errors.Is")
	}
}
