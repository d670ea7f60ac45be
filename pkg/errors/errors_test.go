// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/ddkbuild/ddkinit/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "file_read_error",
			code:    errors.ErrFileRead,
			message: "cannot read module manifest",
			wantStr: "[FILE_READ] cannot read module manifest",
		},
		{
			name:    "invalid_input_error",
			code:    errors.ErrInvalidInput,
			message: "workspace path must be absolute",
			wantStr: "[INVALID_INPUT] workspace path must be absolute",
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

func TestWrap(t *testing.T) {
	inner := stderrors.New("permission denied")
	err := errors.Wrap(inner, errors.ErrFileWrite, "failed to replace device.bazelrc")

	if err.Wrapped != inner {
		t.Errorf("Wrap() wrapped = %v, want %v", err.Wrapped, inner)
	}

	if !stderrors.Is(err, inner) {
		t.Error("wrapped error should match with errors.Is")
	}

	want := "[FILE_WRITE] failed to replace device.bazelrc: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapNil(t *testing.T) {
	if err := errors.Wrap(nil, errors.ErrFileWrite, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := errors.Wrapf(nil, errors.ErrFileWrite, "ignored %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Newf(errors.ErrURLUnresolved, "no build id for %s", "boot.img")

	if !errors.IsErrorCode(err, errors.ErrURLUnresolved) {
		t.Error("IsErrorCode() should match the error's code")
	}

	if errors.IsErrorCode(err, errors.ErrDownloadFailed) {
		t.Error("IsErrorCode() should not match a different code")
	}

	wrapped := errors.Wrap(err, errors.ErrDownloadFailed, "fetch failed")
	if !errors.IsErrorCode(wrapped, errors.ErrDownloadFailed) {
		t.Error("IsErrorCode() should match the outermost code")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode(plain) = %v, want %v", got, errors.ErrUnknown)
	}

	err := errors.New(errors.ErrDirCreate, "mkdir failed")
	if got := errors.GetErrorCode(err); got != errors.ErrDirCreate {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrDirCreate)
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrSectionUpdate, "update failed").
		WithDetail("path", "MODULE.bazel")

	if err.Details["path"] != "MODULE.bazel" {
		t.Errorf("WithDetail() details = %v", err.Details)
	}
}
