package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
)

const (
	DefaultPage    = "dashboard"
	maxPageNameLen = 64
)

type ProgressService struct {
	Store         store.Store
	Clock         clockwork.Clock
	Log           zerolog.Logger
	HintCredits   int
	VoucherPrefix string
	StreamMaxAge  time.Duration // 0 keeps SSE streams open until the client leaves
}

func NewProgressService(st store.Store, clock clockwork.Clock, log zerolog.Logger, hintCredits int, voucherPrefix string) *ProgressService {
	return &ProgressService{
		Store:         st,
		Clock:         clock,
		Log:           log,
		HintCredits:   hintCredits,
		VoucherPrefix: voucherPrefix,
		StreamMaxAge:  DefaultStreamMaxAge,
	}
}

// ProgressUpdate is returned by every operation that may finish the game.
type ProgressUpdate struct {
	Progress         *models.UserProgress `json:"progress"`
	AlreadyCompleted bool                 `json:"already_completed"`
	GameCompleted    bool                 `json:"game_completed"`
	VoucherCode      string               `json:"voucher_code,omitempty"`
}

type HintResult struct {
	CheckpointID    string `json:"checkpoint_id"`
	Hint            string `json:"hint"`
	AlreadyRevealed bool   `json:"already_revealed"`
	HintCredits     int    `json:"hint_credits"`
}

// Ensure returns the user's progress document, creating it with the starting
// hint credits and one entry per catalog checkpoint.
func (s *ProgressService) Ensure(ctx context.Context, userID string) (*models.UserProgress, error) {
	p, err := s.Store.GetProgress(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "progress not found")
	}

	cps, err := s.Store.ListCheckpoints(ctx)
	if err != nil {
		return nil, storeErr(err, "checkpoints not found")
	}
	p = &models.UserProgress{
		UserID:        userID,
		HintCredits:   s.HintCredits,
		CurrentPage:   DefaultPage,
		RevealedHints: []string{},
	}
	for _, cp := range cps {
		p.Checkpoints = append(p.Checkpoints, models.CheckpointProgress{CheckpointID: cp.ID})
	}
	if err := s.Store.CreateProgress(ctx, p); err != nil {
		// Another request may have created it first.
		if existing, getErr := s.Store.GetProgress(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, storeErr(err, "progress not found")
	}
	s.Log.Info().Str("user_id", userID).Msg("[Progress] created progress record")
	return p, nil
}

// CompleteGame marks a dashboard mini-game done. Games with a completion code
// require the scanned payload to match it.
func (s *ProgressService) CompleteGame(ctx context.Context, userID, game, qrCode string) (*ProgressUpdate, error) {
	g, err := models.ParseDashboardGame(game)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if code := g.CompletionCode(); code != "" && !models.MatchQRLenient(code, qrCode) {
		return nil, apperr.New(apperr.CodeQRMismatch, "scanned code does not complete this game").With("game", string(g))
	}

	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now().UTC()

	update := &ProgressUpdate{Progress: p, AlreadyCompleted: p.GameDone(g)}
	if !update.AlreadyCompleted {
		p.DashboardGames = append(p.DashboardGames, models.GameCompletion{Game: g, CompletedAt: now})
	}
	if err := s.finish(ctx, p, update, now); err != nil {
		return nil, err
	}
	return update, nil
}

// CompleteCheckpoint validates a client-side scan with the lenient comparison
// and records it in the progress document.
func (s *ProgressService) CompleteCheckpoint(ctx context.Context, userID, checkpointID, qrCode string) (*ProgressUpdate, error) {
	cp, err := s.Store.GetCheckpoint(ctx, checkpointID)
	if err != nil {
		return nil, storeErr(err, "checkpoint not found")
	}
	now := s.Clock.Now().UTC()

	matched := models.MatchQRLenient(cp.QRCode, qrCode)
	if err := s.Store.RecordScan(ctx, cp.ID, matched, now); err != nil {
		s.Log.Error().Err(err).Str("checkpoint_id", cp.ID).Msg("[Progress] failed to record scan")
	}
	if !matched {
		return nil, apperr.New(apperr.CodeQRMismatch, "wrong QR code for this checkpoint").With("checkpoint_id", cp.ID)
	}
	return s.RecordCheckpoint(ctx, userID, cp.ID, now)
}

// RecordCheckpoint applies an already validated checkpoint scan. Rescans only
// bump the scan count.
func (s *ProgressService) RecordCheckpoint(ctx context.Context, userID, checkpointID string, at time.Time) (*ProgressUpdate, error) {
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := p.Checkpoint(checkpointID)
	entry.ScanCount++
	update := &ProgressUpdate{Progress: p, AlreadyCompleted: entry.Completed}
	if !entry.Completed {
		completedAt := at
		entry.Completed = true
		entry.CompletedAt = &completedAt
		p.TotalFound++
	}
	if err := s.finish(ctx, p, update, at); err != nil {
		return nil, err
	}
	return update, nil
}

// UseHint reveals a checkpoint hint. Revealing the same hint again is free.
func (s *ProgressService) UseHint(ctx context.Context, userID, checkpointID string) (*HintResult, error) {
	cp, err := s.Store.GetCheckpoint(ctx, checkpointID)
	if err != nil {
		return nil, storeErr(err, "checkpoint not found")
	}
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.HintRevealed(cp.ID) {
		return &HintResult{CheckpointID: cp.ID, Hint: cp.Hint, AlreadyRevealed: true, HintCredits: p.HintCredits}, nil
	}
	if p.HintCredits <= 0 {
		return nil, apperr.New(apperr.CodeNoHintCredits, "no hint credits left").With("hint_credits", 0)
	}

	p.HintCredits--
	p.RevealedHints = append(p.RevealedHints, cp.ID)
	if err := s.Store.SaveProgress(ctx, p); err != nil {
		return nil, storeErr(err, "progress not found")
	}
	s.Log.Info().Str("user_id", userID).Str("checkpoint_id", cp.ID).Int("credits_left", p.HintCredits).Msg("[Progress] hint revealed")
	return &HintResult{CheckpointID: cp.ID, Hint: cp.Hint, HintCredits: p.HintCredits}, nil
}

// SetPage stores the client route to resume on.
func (s *ProgressService) SetPage(ctx context.Context, userID, page string) (*models.UserProgress, error) {
	page = strings.TrimSpace(page)
	if page == "" || len(page) > maxPageNameLen {
		return nil, apperr.Validation("page must be 1-64 characters")
	}
	p, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.CurrentPage == page {
		return p, nil
	}
	p.CurrentPage = page
	if err := s.Store.SaveProgress(ctx, p); err != nil {
		return nil, storeErr(err, "progress not found")
	}
	return p, nil
}

// finish runs the completion check and persists p.
func (s *ProgressService) finish(ctx context.Context, p *models.UserProgress, update *ProgressUpdate, now time.Time) error {
	done, err := s.allDone(ctx, p)
	if err != nil {
		return err
	}
	if done && !p.GameCompleted {
		completedAt := now
		p.GameCompleted = true
		p.GameCompletedAt = &completedAt
		update.GameCompleted = true
	}
	if err := s.Store.SaveProgress(ctx, p); err != nil {
		return storeErr(err, "progress not found")
	}

	if update.GameCompleted {
		code, err := s.IssueVoucher(ctx, p.UserID)
		if err != nil {
			return err
		}
		update.VoucherCode = code
		s.Log.Info().Str("user_id", p.UserID).Msg("🎉 [Progress] game completed, voucher issued")
	}
	return nil
}

// allDone reports whether every dashboard game and every catalog checkpoint
// is complete.
func (s *ProgressService) allDone(ctx context.Context, p *models.UserProgress) (bool, error) {
	if p.CompletedGameCount() < len(models.DashboardGames) {
		return false, nil
	}
	cps, err := s.Store.ListCheckpoints(ctx)
	if err != nil {
		return false, storeErr(err, "checkpoints not found")
	}
	if len(cps) == 0 {
		return false, nil
	}
	done := make(map[string]bool, len(p.Checkpoints))
	for _, c := range p.Checkpoints {
		if c.Completed {
			done[c.CheckpointID] = true
		}
	}
	for _, cp := range cps {
		if !done[cp.ID] {
			return false, nil
		}
	}
	return true, nil
}

// IssueVoucher assigns the user's voucher code once and returns it.
func (s *ProgressService) IssueVoucher(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return "", storeErr(err, "user not found")
	}
	if user.VoucherCode != "" {
		return user.VoucherCode, nil
	}
	user.VoucherCode = NewVoucherCode(s.VoucherPrefix)
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return "", storeErr(err, "user not found")
	}
	return user.VoucherCode, nil
}

// NewVoucherCode returns PREFIX-XXXXXXXX with eight uppercase hex digits.
func NewVoucherCode(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if prefix == "" {
		return id[:8]
	}
	return strings.ToUpper(prefix) + "-" + id[:8]
}
