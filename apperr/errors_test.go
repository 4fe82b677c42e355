package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeCooldown, http.StatusTooManyRequests},
		{CodeOTPExpired, http.StatusGone},
		{CodeOTPNotFound, http.StatusNotFound},
		{CodeGameNotCompleted, http.StatusConflict},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.Status(); got != tt.want {
			t.Fatalf("%s.Status() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("verify: %w", New(CodeOTPInvalid, "invalid code"))
	if !errors.Is(err, New(CodeOTPInvalid, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeOTPExpired, "")) {
		t.Fatal("expected errors.Is not to match a different code")
	}
	if got := CodeOf(err); got != CodeOTPInvalid {
		t.Fatalf("CodeOf = %s, want %s", got, CodeOTPInvalid)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("CodeOf(plain) = %s, want %s", got, CodeInternal)
	}
}

func TestWithCopiesMetadata(t *testing.T) {
	base := New(CodeCooldown, "wait")
	withRetry := base.With("retry_after", 30)
	if base.Metadata != nil {
		t.Fatalf("base metadata mutated: %v", base.Metadata)
	}
	if withRetry.Metadata["retry_after"] != 30 {
		t.Fatalf("retry_after = %v, want 30", withRetry.Metadata["retry_after"])
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("failed to save user", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "failed to save user: db down" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
