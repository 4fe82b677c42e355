package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/auth"
	"scavenger-hunt/config"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
	"scavenger-hunt/utils"
)

type AuthService struct {
	Store  store.Users
	Tokens *auth.TokenManager
	SMS    SMSSender
	Clock  clockwork.Clock
	Log    zerolog.Logger
	OTP    config.OTPConfig
}

func NewAuthService(st store.Users, tokens *auth.TokenManager, sms SMSSender, clock clockwork.Clock, log zerolog.Logger, otp config.OTPConfig) *AuthService {
	return &AuthService{
		Store:  st,
		Tokens: tokens,
		SMS:    sms,
		Clock:  clock,
		Log:    log,
		OTP:    otp,
	}
}

// OTPRequest describes a code that was just sent.
type OTPRequest struct {
	Phone      string    `json:"phone"`
	ExpiresAt  time.Time `json:"expires_at"`
	RetryAfter int       `json:"retry_after"`
}

// AuthSession is returned after a successful verification.
type AuthSession struct {
	Token     string       `json:"token"`
	UserID    string       `json:"user_id"`
	Phone     string       `json:"phone"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

// RequestOTP registers the phone if needed and sends a fresh code, unless one
// was requested within the cooldown window.
func (s *AuthService) RequestOTP(ctx context.Context, rawPhone string) (*OTPRequest, error) {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	now := s.Clock.Now().UTC()

	user, err := s.Store.GetUserByPhone(ctx, phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = &models.User{Phone: phone}
		if err := s.Store.CreateUser(ctx, user); err != nil {
			return nil, apperr.Internal("failed to create user", err)
		}
		s.Log.Info().Str("phone", utils.MaskPhone(phone)).Msg("[Auth] new user registered")
	case err != nil:
		return nil, storeErr(err, "user not found")
	}

	if user.OTPRequestedAt != nil {
		if wait := user.OTPRequestedAt.Add(s.OTP.Cooldown).Sub(now); wait > 0 {
			return nil, apperr.New(apperr.CodeCooldown, "please wait before requesting another code").
				With("retry_after", ceilSeconds(wait))
		}
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, apperr.Internal("failed to generate code", err)
	}
	hash, err := auth.HashOTP(code, s.OTP.BcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash code", err)
	}

	expiresAt := now.Add(s.OTP.TTL)
	requestedAt := now
	user.OTPHash = hash
	user.OTPExpiresAt = &expiresAt
	user.OTPAttempts = 0
	user.OTPRequestedAt = &requestedAt
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr(err, "user not found")
	}

	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.OTP.TTL/time.Minute))
	if err := s.SMS.Send(ctx, phone, msg); err != nil {
		s.Log.Error().Err(err).Str("phone", utils.MaskPhone(phone)).Msg("[Auth] failed to send OTP")
		// Release the cooldown so the user can retry right away.
		user.ClearOTP()
		user.OTPRequestedAt = nil
		if saveErr := s.Store.SaveUser(ctx, user); saveErr != nil {
			s.Log.Error().Err(saveErr).Msg("[Auth] failed to reset OTP after send failure")
		}
		return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to send verification code", err)
	}

	return &OTPRequest{
		Phone:      phone,
		ExpiresAt:  expiresAt,
		RetryAfter: ceilSeconds(s.OTP.Cooldown),
	}, nil
}

// VerifyOTP checks code against the pending OTP. Every branch persists the
// user so attempt counters survive.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, code string) (*AuthSession, error) {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	code = strings.TrimSpace(code)
	now := s.Clock.Now().UTC()

	user, err := s.Store.GetUserByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeOTPNotFound, "no verification code requested for this number")
	}
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	if !user.HasPendingOTP() {
		return nil, apperr.New(apperr.CodeOTPNotFound, "no verification code requested for this number")
	}

	if user.OTPAttempts >= s.OTP.MaxAttempts {
		user.ClearOTP()
		if err := s.Store.SaveUser(ctx, user); err != nil {
			return nil, storeErr(err, "user not found")
		}
		return nil, apperr.New(apperr.CodeTooManyAttempts, "too many attempts, request a new code")
	}

	if user.OTPExpiresAt == nil || now.After(*user.OTPExpiresAt) {
		if err := s.Store.SaveUser(ctx, user); err != nil {
			return nil, storeErr(err, "user not found")
		}
		return nil, apperr.New(apperr.CodeOTPExpired, "verification code expired, request a new one")
	}

	ok, err := auth.CompareOTP(user.OTPHash, code)
	if err != nil {
		return nil, apperr.Internal("failed to check code", err)
	}
	if !ok {
		user.OTPAttempts++
		if err := s.Store.SaveUser(ctx, user); err != nil {
			return nil, storeErr(err, "user not found")
		}
		remaining := s.OTP.MaxAttempts - user.OTPAttempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, apperr.New(apperr.CodeOTPInvalid, "invalid verification code").With("attempts_remaining", remaining)
	}

	loginAt := now
	user.ClearOTP()
	user.IsVerified = true
	user.LastLoginAt = &loginAt
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr(err, "user not found")
	}

	token, expiresAt, err := s.Tokens.Issue(user.ID, user.Phone, now)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	s.Log.Info().Str("user_id", user.ID).Msg("✅ [Auth] phone verified")

	return &AuthSession{
		Token:     token,
		UserID:    user.ID,
		Phone:     user.Phone,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Authenticate validates a bearer token and returns its claims.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.Tokens.Validate(token, s.Clock.Now())
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	return user, nil
}
