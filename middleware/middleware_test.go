package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/auth"
)

type stubAuthenticator struct {
	token string
}

func (s stubAuthenticator) Authenticate(token string) (*auth.Claims, error) {
	if token != s.token {
		return nil, apperr.Unauthorized("bad token")
	}
	c := &auth.Claims{Phone: "+97412345678"}
	c.Subject = "user-1"
	return c, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status()).JSON(fiber.Map{"code": appErr.Code})
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
}

func whoAmI(c *fiber.Ctx) error {
	return c.SendString(UserID(c) + " " + Phone(c))
}

func TestJWTAuth(t *testing.T) {
	app := newApp()
	app.Get("/me", JWTAuth(stubAuthenticator{token: "good"}, zerolog.Nop()), whoAmI)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "bearer", header: "Bearer good", want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", want: http.StatusOK},
		{name: "cookie", cookie: "good", want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSSEAuthUsesQueryToken(t *testing.T) {
	app := newApp()
	app.Get("/stream", SSEAuth(stubAuthenticator{token: "good"}, zerolog.Nop()), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream?token=good", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminKeyAuth(t *testing.T) {
	app := newApp()
	app.Get("/admin", AdminKeyAuth("s3cret", zerolog.Nop()), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	cases := map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer wrong":  http.StatusForbidden,
		"Bearer s3cret": http.StatusNoContent,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("Authorization %q: status = %d, want %d", header, resp.StatusCode, want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	app := newApp()
	app.Use(RateLimit(2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
	}
}
