package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
	"scavenger-hunt/utils"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 50
)

type GameService struct {
	Store       store.Store
	Progress    *ProgressService
	Clock       clockwork.Clock
	Log         zerolog.Logger
	MaxDuration time.Duration
}

func NewGameService(st store.Store, progress *ProgressService, clock clockwork.Clock, log zerolog.Logger, maxDuration time.Duration) *GameService {
	return &GameService{
		Store:       st,
		Progress:    progress,
		Clock:       clock,
		Log:         log,
		MaxDuration: maxDuration,
	}
}

type StartResult struct {
	Session *models.GameSession `json:"session"`
	Created bool                `json:"created"`
}

type ScanInput struct {
	CheckpointID string `json:"checkpoint_id" validate:"omitempty,max=64"`
	QRCode       string `json:"qr_code" validate:"required,max=256"`
}

type ScanResult struct {
	Session          *models.GameSession       `json:"session"`
	CheckpointID     string                    `json:"checkpoint_id"`
	Location         string                    `json:"location"`
	AlreadyFound     bool                      `json:"already_found"`
	SessionCompleted bool                      `json:"session_completed"`
	ElapsedMinutes   *int                      `json:"elapsed_minutes,omitempty"`
	RewardTier       models.RewardTier         `json:"reward_tier,omitempty"`
	NextCheckpoint   *models.SessionCheckpoint `json:"next_checkpoint,omitempty"`
	Progress         *ProgressUpdate           `json:"progress"`
}

type LeaderboardEntry struct {
	Rank           int               `json:"rank"`
	Phone          string            `json:"phone"`
	ElapsedMinutes int               `json:"elapsed_minutes"`
	RewardTier     models.RewardTier `json:"reward_tier"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// activeSession returns the user's active session, expiring it first when it
// has outlived MaxDuration.
func (s *GameService) activeSession(ctx context.Context, userID string) (*models.GameSession, error) {
	gs, err := s.Store.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now().UTC()
	if s.MaxDuration > 0 && now.Sub(gs.StartedAt) > s.MaxDuration {
		gs.Close(models.SessionExpired, now)
		if err := s.Store.SaveSession(ctx, gs); err != nil {
			return nil, err
		}
		s.Log.Info().Str("session_id", gs.ID).Msg("[Game] expired stale session")
		return nil, store.ErrNotFound
	}
	return gs, nil
}

// Start returns the active session or creates one from the current catalog.
func (s *GameService) Start(ctx context.Context, userID, phone string) (*StartResult, error) {
	gs, err := s.activeSession(ctx, userID)
	if err == nil {
		return &StartResult{Session: gs}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "session not found")
	}

	cps, err := s.Store.ListCheckpoints(ctx)
	if err != nil {
		return nil, storeErr(err, "checkpoints not found")
	}
	if len(cps) == 0 {
		return nil, apperr.New(apperr.CodeUnavailable, "no checkpoints configured")
	}
	if _, err := s.Progress.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	gs = &models.GameSession{
		UserID:    userID,
		Phone:     phone,
		Status:    models.SessionActive,
		StartedAt: s.Clock.Now().UTC(),
	}
	for _, cp := range cps {
		gs.Checkpoints = append(gs.Checkpoints, models.SessionCheckpoint{
			CheckpointID: cp.ID,
			Sequence:     cp.Sequence,
			Location:     cp.Location,
			QRCode:       cp.QRCode,
		})
	}
	if err := s.Store.CreateSession(ctx, gs); err != nil {
		return nil, storeErr(err, "session not found")
	}
	s.Log.Info().Str("user_id", userID).Str("session_id", gs.ID).Int("checkpoints", len(cps)).Msg("🏁 [Game] session started")
	return &StartResult{Session: gs, Created: true}, nil
}

// Current returns the active session, or the most recent one when none is
// active.
func (s *GameService) Current(ctx context.Context, userID string) (*models.GameSession, error) {
	gs, err := s.activeSession(ctx, userID)
	if err == nil {
		return gs, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "session not found")
	}
	gs, err = s.Store.GetLatestSession(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "no game session found")
	}
	return gs, nil
}

// Scan validates a scanned QR payload against the active session using an
// exact comparison. Mismatches leave the session untouched.
func (s *GameService) Scan(ctx context.Context, userID string, in ScanInput) (*ScanResult, error) {
	qr := strings.TrimSpace(in.QRCode)
	if qr == "" {
		return nil, apperr.Validation("qr_code is required")
	}

	gs, err := s.activeSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeSessionNotActive, "no active game session")
	}
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	now := s.Clock.Now().UTC()

	var target *models.SessionCheckpoint
	if in.CheckpointID != "" {
		if target = gs.FindCheckpoint(in.CheckpointID); target == nil {
			return nil, apperr.NotFound("checkpoint is not part of this session")
		}
	} else {
		target = gs.FindCheckpointByQR(qr)
	}

	matched := target != nil && models.MatchQRExact(target.QRCode, qr)
	if target != nil {
		if err := s.Store.RecordScan(ctx, target.CheckpointID, matched, now); err != nil {
			s.Log.Error().Err(err).Str("checkpoint_id", target.CheckpointID).Msg("[Game] failed to record scan")
		}
	}
	if !matched {
		mismatch := apperr.New(apperr.CodeQRMismatch, "this QR code does not match the checkpoint")
		if target != nil {
			mismatch = mismatch.With("checkpoint_id", target.CheckpointID)
		}
		return nil, mismatch
	}

	res := &ScanResult{
		Session:      gs,
		CheckpointID: target.CheckpointID,
		Location:     target.Location,
		AlreadyFound: target.Completed,
	}
	target.ScanCount++
	if !target.Completed {
		completedAt := now
		target.Completed = true
		target.CompletedAt = &completedAt
		gs.TotalFound++
	}
	if gs.AllFound() {
		gs.Close(models.SessionCompleted, now)
		res.SessionCompleted = true
		res.ElapsedMinutes = gs.ElapsedMinutes
		res.RewardTier = gs.RewardTier
	}
	if err := s.Store.SaveSession(ctx, gs); err != nil {
		return nil, storeErr(err, "session not found")
	}

	if res.SessionCompleted {
		if err := s.recordCompletion(ctx, userID, *gs.ElapsedMinutes, now); err != nil {
			return nil, err
		}
		s.Log.Info().
			Str("user_id", userID).
			Int("elapsed_minutes", *gs.ElapsedMinutes).
			Str("tier", string(gs.RewardTier)).
			Msg("🏆 [Game] hunt completed")
	} else {
		res.NextCheckpoint = gs.NextCheckpoint()
	}

	update, err := s.Progress.RecordCheckpoint(ctx, userID, target.CheckpointID, now)
	if err != nil {
		return nil, err
	}
	res.Progress = update
	return res, nil
}

func (s *GameService) recordCompletion(ctx context.Context, userID string, minutes int, at time.Time) error {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user not found")
	}
	user.Stats.RecordCompletion(minutes, at)
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return storeErr(err, "user not found")
	}
	return nil
}

// Abandon closes the active session without a reward.
func (s *GameService) Abandon(ctx context.Context, userID string) (*models.GameSession, error) {
	gs, err := s.activeSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeSessionNotActive, "no active game session")
	}
	if err != nil {
		return nil, storeErr(err, "session not found")
	}
	gs.Close(models.SessionAbandoned, s.Clock.Now().UTC())
	if err := s.Store.SaveSession(ctx, gs); err != nil {
		return nil, storeErr(err, "session not found")
	}
	s.Log.Info().Str("session_id", gs.ID).Msg("[Game] session abandoned")
	return gs, nil
}

func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}
	sessions, err := s.Store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, storeErr(err, "leaderboard not found")
	}
	out := make([]LeaderboardEntry, 0, len(sessions))
	for _, gs := range sessions {
		if gs.ElapsedMinutes == nil {
			continue
		}
		out = append(out, LeaderboardEntry{
			Rank:           len(out) + 1,
			Phone:          utils.MaskPhone(gs.Phone),
			ElapsedMinutes: *gs.ElapsedMinutes,
			RewardTier:     gs.RewardTier,
			CompletedAt:    gs.EndedAt,
		})
	}
	return out, nil
}

// ExpireStale closes every active session older than MaxDuration. A zero
// MaxDuration disables expiry, matching the on-read check.
func (s *GameService) ExpireStale(ctx context.Context) (int64, error) {
	if s.MaxDuration <= 0 {
		return 0, nil
	}
	now := s.Clock.Now().UTC()
	return s.Store.ExpireSessions(ctx, now.Add(-s.MaxDuration), now)
}
