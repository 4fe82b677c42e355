package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/auth"
	"scavenger-hunt/config"
	"scavenger-hunt/models"
	"scavenger-hunt/store/gormstore"
)

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

type sentSMS struct {
	Phone   string
	Message string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (c *captureSender) Send(_ context.Context, phone, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentSMS{Phone: phone, Message: message})
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no sms sent")
	}
	code := otpPattern.FindString(c.sent[len(c.sent)-1].Message)
	if code == "" {
		t.Fatalf("no code in message %q", c.sent[len(c.sent)-1].Message)
	}
	return code
}

type fakeUploader struct {
	key  string
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.body = body
	return "https://cdn.example.com/" + key, nil
}

type testEnv struct {
	store       *gormstore.Store
	clock       *clockwork.FakeClock
	sms         *captureSender
	uploader    *fakeUploader
	auth        *AuthService
	progress    *ProgressService
	game        *GameService
	users       *UserService
	admin       *AdminService
	checkpoints *CheckpointService
}

var testOTPConfig = config.OTPConfig{
	TTL:         10 * time.Minute,
	Cooldown:    2 * time.Minute,
	MaxAttempts: 5,
	BcryptCost:  4,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := gormstore.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	log := zerolog.Nop()
	sms := &captureSender{}
	uploader := &fakeUploader{}

	checkpoints := NewCheckpointService(st, log)
	if err := checkpoints.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	tokens := auth.NewTokenManager("test-secret", "scavenger-hunt", "scavenger-hunt-client", time.Hour)
	progress := NewProgressService(st, clock, log, 3, "TLB")
	return &testEnv{
		store:       st,
		clock:       clock,
		sms:         sms,
		uploader:    uploader,
		auth:        NewAuthService(st, tokens, sms, clock, log, testOTPConfig),
		progress:    progress,
		game:        NewGameService(st, progress, clock, log, 4*time.Hour),
		users:       NewUserService(st, progress, log),
		admin:       NewAdminService(st, clock, log, uploader),
		checkpoints: checkpoints,
	}
}

// newUser creates a verified user directly in the store.
func (e *testEnv) newUser(t *testing.T, phone string) *models.User {
	t.Helper()
	u := &models.User{Phone: phone, IsVerified: true}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// completeEverything finishes every dashboard game and checkpoint for userID.
func (e *testEnv) completeEverything(t *testing.T, userID string) *ProgressUpdate {
	t.Helper()
	ctx := context.Background()
	var last *ProgressUpdate
	for _, g := range models.DashboardGames {
		up, err := e.progress.CompleteGame(ctx, userID, string(g), g.CompletionCode())
		if err != nil {
			t.Fatalf("CompleteGame(%s): %v", g, err)
		}
		last = up
	}
	for _, cp := range models.DefaultCheckpoints() {
		up, err := e.progress.CompleteCheckpoint(ctx, userID, cp.ID, cp.QRCode)
		if err != nil {
			t.Fatalf("CompleteCheckpoint(%s): %v", cp.ID, err)
		}
		last = up
	}
	return last
}

func wantCode(t *testing.T, err error, want apperr.Code) *apperr.Error {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want code %s", err, want)
	}
	if appErr.Code != want {
		t.Fatalf("code = %s, want %s (%v)", appErr.Code, want, err)
	}
	return appErr
}
