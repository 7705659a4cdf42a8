package filesearch

import (
	"errors"
	"strings"
	"testing"
)

func TestError_MessageIncludesWrappedCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := newError(KindSearchFailed, "search backend error", cause)

	if !errors.Is(err, err) {
		t.Fatal("error should equal itself under errors.Is")
	}
	if !errors.As(err, new(*Error)) {
		t.Fatal("expected errors.As to recognize *Error")
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("expected Unwrap to return the wrapped cause")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
	if !strings.Contains(err.Error(), cause.Error()) {
		t.Errorf("expected error string to include the wrapped cause, got %q", err.Error())
	}
}

func TestError_MessageWithoutCause(t *testing.T) {
	err := newError(KindTimeout, "search backend deadline exceeded", nil)
	if errors.Unwrap(err) != nil {
		t.Error("expected nil unwrap when no cause given")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
}
