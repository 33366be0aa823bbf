package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/pcornish/rig/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "bootstrap_error",
			code:    errors.ErrBootstrap,
			message: "no package manager found",
			wantStr: "[BOOTSTRAP] no package manager found",
		},
		{
			name:    "deployment_error",
			code:    errors.ErrDeployment,
			message: "cannot link .zshrc",
			wantStr: "[DEPLOYMENT] cannot link .zshrc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("permission denied")
	err := errors.Wrap(inner, errors.ErrDeployment, "writing .zshrc")

	if !stderrors.Is(err, inner) {
		t.Error("wrapped error should match errors.Is against the inner error")
	}
	if got := err.Error(); got != "[DEPLOYMENT] writing .zshrc: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if errors.Wrap(nil, errors.ErrDeployment, "noop") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := errors.New(errors.ErrPackageInstall, "fd failed")
	b := errors.New(errors.ErrPackageInstall, "other message")

	if !stderrors.Is(a, b) {
		t.Error("errors with the same code should match via errors.Is")
	}
	if stderrors.Is(a, errors.New(errors.ErrBootstrap, "x")) {
		t.Error("errors with different codes should not match")
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Wrapf(stderrors.New("boom"), errors.ErrPackageInstall, "installing %s", "fd")

	if !errors.IsErrorCode(err, errors.ErrPackageInstall) {
		t.Error("IsErrorCode should match the wrapping code")
	}
	if errors.IsErrorCode(err, errors.ErrBootstrap) {
		t.Error("IsErrorCode should not match a different code")
	}
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode(plain) = %v, want ErrUnknown", got)
	}
}

func TestIsFatal(t *testing.T) {
	if !errors.IsFatal(errors.New(errors.ErrBootstrap, "no pacman")) {
		t.Error("bootstrap errors are fatal")
	}
	if errors.IsFatal(errors.New(errors.ErrPackageInstall, "fd failed")) {
		t.Error("install failures are recoverable")
	}
	if errors.IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}
