package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		errorMsg string
	}{
		{"app error", apperr.New(apperr.CodeOTPExpired, "code expired"), http.StatusGone, "OTP_EXPIRED", "code expired"},
		{"internal hides cause", apperr.Internal("db exploded", errors.New("secret dsn")), http.StatusInternalServerError, "INTERNAL", "internal server error"},
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "nope"), http.StatusNotFound, "NOT_FOUND", "nope"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tt.code || body["error"] != tt.errorMsg {
				t.Fatalf("body = %v, want code %s error %q", body, tt.code, tt.errorMsg)
			}
		})
	}
}

func TestErrorHandlerMetadata(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return apperr.New(apperr.CodeCooldown, "wait").With("retry_after", 42).With("code", "ignored")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After = %q, want 42", got)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["retry_after"] != float64(42) || body["code"] != "COOLDOWN" {
		t.Fatalf("body = %v, want retry_after 42 and code COOLDOWN", body)
	}
}
