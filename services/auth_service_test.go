package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"scavenger-hunt/apperr"
)

func wrongCode(code string) string {
	b := []byte(code)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	return string(b)
}

func TestRequestOTPCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.auth.RequestOTP(ctx, "+974 1234 5678")
	if err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if req.Phone != "+97412345678" {
		t.Fatalf("phone = %q, want +97412345678", req.Phone)
	}
	if req.RetryAfter != 120 {
		t.Fatalf("retry_after = %d, want 120", req.RetryAfter)
	}
	if env.sms.count() != 1 {
		t.Fatalf("sent = %d, want 1", env.sms.count())
	}

	env.clock.Advance(30 * time.Second)
	_, err = env.auth.RequestOTP(ctx, "0097412345678")
	appErr := wantCode(t, err, apperr.CodeCooldown)
	if got := appErr.Metadata["retry_after"]; got != 90 {
		t.Fatalf("retry_after = %v, want 90", got)
	}
	if env.sms.count() != 1 {
		t.Fatalf("cooldown still sent a code")
	}

	env.clock.Advance(2 * time.Minute)
	if _, err := env.auth.RequestOTP(ctx, "+97412345678"); err != nil {
		t.Fatalf("RequestOTP after cooldown: %v", err)
	}
	if env.sms.count() != 2 {
		t.Fatalf("sent = %d, want 2", env.sms.count())
	}
}

func TestRequestOTPInvalidPhone(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.RequestOTP(context.Background(), "12345")
	wantCode(t, err, apperr.CodeValidation)
}

func TestRequestOTPSendFailureReleasesCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sms.err = errors.New("gateway down")
	_, err := env.auth.RequestOTP(ctx, "+97412345678")
	wantCode(t, err, apperr.CodeUnavailable)

	env.sms.err = nil
	if _, err := env.auth.RequestOTP(ctx, "+97412345678"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestVerifyOTPSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.RequestOTP(ctx, "+97412345678"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := env.sms.lastCode(t)

	_, err := env.auth.VerifyOTP(ctx, "+97412345678", wrongCode(code))
	appErr := wantCode(t, err, apperr.CodeOTPInvalid)
	if got := appErr.Metadata["attempts_remaining"]; got != 4 {
		t.Fatalf("attempts_remaining = %v, want 4", got)
	}

	sess, err := env.auth.VerifyOTP(ctx, "+97412345678", code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if sess.Token == "" || sess.UserID == "" {
		t.Fatalf("session = %+v", sess)
	}
	if !sess.ExpiresAt.Equal(sess.IssuedAt.Add(time.Hour)) {
		t.Fatalf("expires_at = %v, issued_at = %v", sess.ExpiresAt, sess.IssuedAt)
	}
	if !sess.User.IsVerified || sess.User.LastLoginAt == nil || sess.User.HasPendingOTP() {
		t.Fatalf("user = %+v", sess.User)
	}

	claims, err := env.auth.Authenticate(sess.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.Subject != sess.UserID || claims.Phone != "+97412345678" {
		t.Fatalf("claims = %+v", claims)
	}

	_, err = env.auth.VerifyOTP(ctx, "+97412345678", code)
	wantCode(t, err, apperr.CodeOTPNotFound)
}

func TestVerifyOTPUnknownPhone(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.VerifyOTP(context.Background(), "+97499999999", "123456")
	wantCode(t, err, apperr.CodeOTPNotFound)
}

func TestVerifyOTPTooManyAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.RequestOTP(ctx, "+97412345678"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := env.sms.lastCode(t)

	for i := 0; i < testOTPConfig.MaxAttempts; i++ {
		_, err := env.auth.VerifyOTP(ctx, "+97412345678", wrongCode(code))
		wantCode(t, err, apperr.CodeOTPInvalid)

		u, err := env.store.GetUserByPhone(ctx, "+97412345678")
		if err != nil {
			t.Fatalf("GetUserByPhone: %v", err)
		}
		if u.OTPAttempts != i+1 {
			t.Fatalf("attempts = %d, want %d", u.OTPAttempts, i+1)
		}
	}

	_, err := env.auth.VerifyOTP(ctx, "+97412345678", code)
	wantCode(t, err, apperr.CodeTooManyAttempts)

	_, err = env.auth.VerifyOTP(ctx, "+97412345678", code)
	wantCode(t, err, apperr.CodeOTPNotFound)
}

func TestVerifyOTPExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.RequestOTP(ctx, "+97412345678"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := env.sms.lastCode(t)

	env.clock.Advance(11 * time.Minute)
	_, err := env.auth.VerifyOTP(ctx, "+97412345678", code)
	wantCode(t, err, apperr.CodeOTPExpired)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Authenticate("not-a-jwt")
	wantCode(t, err, apperr.CodeUnauthorized)
}
