package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
	"scavenger-hunt/utils"
)

type UserService struct {
	Store    store.Store
	Progress *ProgressService
	Log      zerolog.Logger
}

func NewUserService(st store.Store, progress *ProgressService, log zerolog.Logger) *UserService {
	return &UserService{Store: st, Progress: progress, Log: log}
}

type Profile struct {
	User                 *models.User `json:"user"`
	CompletedGames       int          `json:"completed_games"`
	CheckpointsCompleted int          `json:"checkpoints_completed"`
	HintCredits          int          `json:"hint_credits"`
	GameCompleted        bool         `json:"game_completed"`
}

type Voucher struct {
	Code      string     `json:"voucher_code"`
	QRPayload string     `json:"qr_payload"`
	IsClaimed bool       `json:"is_claimed"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	p, err := s.Progress.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:                 user,
		CompletedGames:       p.CompletedGameCount(),
		CheckpointsCompleted: p.CompletedCheckpointCount(),
		HintCredits:          p.HintCredits,
		GameCompleted:        p.GameCompleted,
	}, nil
}

// Voucher returns the user's prize voucher once the game is complete.
func (s *UserService) Voucher(ctx context.Context, userID string) (*Voucher, error) {
	p, err := s.Store.GetProgress(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "progress not found")
	}
	if p == nil || !p.GameCompleted {
		return nil, apperr.New(apperr.CodeGameNotCompleted, "complete every game and checkpoint to unlock your voucher")
	}

	code, err := s.Progress.IssueVoucher(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	return &Voucher{
		Code:      code,
		QRPayload: models.VoucherQRPayload(code),
		IsClaimed: user.IsClaimed,
		ClaimedAt: user.ClaimedAt,
	}, nil
}

func (s *UserService) VoucherQR(ctx context.Context, userID string, size int) ([]byte, error) {
	v, err := s.Voucher(ctx, userID)
	if err != nil {
		return nil, err
	}
	png, err := utils.QRPNG(v.QRPayload, size)
	if err != nil {
		return nil, apperr.Internal("failed to render QR code", err)
	}
	return png, nil
}
