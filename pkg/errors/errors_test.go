package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	cases := []struct {
		code       Code
		wantStatus int
		retryable  bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeForbidden, http.StatusForbidden, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeConflict, http.StatusConflict, false},
		{CodeIllegalTransition, http.StatusUnprocessableEntity, false},
		{CodeNotEligible, http.StatusUnprocessableEntity, false},
		{CodeDealNotPending, http.StatusUnprocessableEntity, false},
		{CodeConcurrentModified, http.StatusConflict, true},
		{CodeRateLimit, http.StatusTooManyRequests, false},
		{CodeInternal, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.wantStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: retryable = %v, want %v", tc.code, meta.Retryable, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code mapped to %d", meta.HTTPStatus)
	}
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(CodeNotFound, "missing row")
	wrapped := fmt.Errorf("loading product: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("As returned nil for wrapped typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("code = %s, want %s", typed.Code(), CodeNotFound)
	}
}

func TestAsReturnsNilForUntyped(t *testing.T) {
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As returned non-nil for untyped error")
	}
	if As(nil) != nil {
		t.Fatal("As returned non-nil for nil error")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "redis write")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error lost its cause")
	}
	if err.Message() != "redis write" {
		t.Fatalf("message = %q", err.Message())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeNotEligible, "cooldown").WithDetails(map[string]any{"held_days": 2})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("details have unexpected type %T", err.Details())
	}
	if details["held_days"] != 2 {
		t.Fatalf("details = %v", details)
	}
}

func TestNilErrorMethodsAreSafe(t *testing.T) {
	var err *Error
	if err.Code() != CodeInternal {
		t.Fatalf("nil error code = %s", err.Code())
	}
	if err.Message() != "" || err.Error() != "" {
		t.Fatal("nil error produced text")
	}
	if err.WithDetails("x") != nil {
		t.Fatal("nil WithDetails returned non-nil")
	}
}
