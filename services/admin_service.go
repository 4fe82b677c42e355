package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/models"
	"scavenger-hunt/store"
)

const exportPageSize = 100

// Uploader stores a report and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type AdminService struct {
	Store    store.Store
	Clock    clockwork.Clock
	Log      zerolog.Logger
	Uploader Uploader // nil when R2 is not configured
}

func NewAdminService(st store.Store, clock clockwork.Clock, log zerolog.Logger, uploader Uploader) *AdminService {
	return &AdminService{Store: st, Clock: clock, Log: log, Uploader: uploader}
}

type UserPage struct {
	Users      []store.UserSummary `json:"users"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Total      int64               `json:"total"`
	TotalPages int64               `json:"total_pages"`
}

type UserDetail struct {
	User          *models.User         `json:"user"`
	Progress      *models.UserProgress `json:"progress,omitempty"`
	LatestSession *models.GameSession  `json:"latest_session,omitempty"`
}

type ClaimResult struct {
	User           *models.User `json:"user"`
	AlreadyClaimed bool         `json:"already_claimed"`
}

type Report struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Rows int    `json:"rows"`
}

func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	page, limit, offset := store.ClampPage(page, limit)
	rows, total, err := s.Store.ListUserSummaries(ctx, store.UserFilter{Search: search, Offset: offset, Limit: limit})
	if err != nil {
		return nil, storeErr(err, "users not found")
	}
	return &UserPage{
		Users:      rows,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

func (s *AdminService) UserDetail(ctx context.Context, userID string) (*UserDetail, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	detail := &UserDetail{User: user}

	if p, err := s.Store.GetProgress(ctx, userID); err == nil {
		detail.Progress = p
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "progress not found")
	}
	if gs, err := s.Store.GetLatestSession(ctx, userID); err == nil {
		detail.LatestSession = gs
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "session not found")
	}
	return detail, nil
}

// ToggleClaim flips the claimed flag. It is a manual correction and skips the
// completion check.
func (s *AdminService) ToggleClaim(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	user.IsClaimed = !user.IsClaimed
	if user.IsClaimed {
		now := s.Clock.Now().UTC()
		user.ClaimedAt = &now
	} else {
		user.ClaimedAt = nil
	}
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr(err, "user not found")
	}
	s.Log.Info().Str("user_id", user.ID).Bool("is_claimed", user.IsClaimed).Msg("[Admin] claim toggled")
	return user, nil
}

func (s *AdminService) ClaimByUserID(ctx context.Context, userID string) (*ClaimResult, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user not found")
	}
	return s.claim(ctx, user)
}

// ClaimByVoucher accepts a raw voucher code or a scanned VOUCHER: payload.
func (s *AdminService) ClaimByVoucher(ctx context.Context, ref string) (*ClaimResult, error) {
	code := models.ParseVoucherRef(ref)
	if code == "" {
		return nil, apperr.Validation("voucher_code is required")
	}
	user, err := s.Store.GetUserByVoucher(ctx, code)
	if err != nil {
		return nil, storeErr(err, "voucher not found")
	}
	return s.claim(ctx, user)
}

func (s *AdminService) claim(ctx context.Context, user *models.User) (*ClaimResult, error) {
	if user.IsClaimed {
		return &ClaimResult{User: user, AlreadyClaimed: true}, nil
	}
	p, err := s.Store.GetProgress(ctx, user.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "progress not found")
	}
	if p == nil || !p.GameCompleted {
		return nil, apperr.New(apperr.CodeGameNotCompleted, "user has not completed the game")
	}

	now := s.Clock.Now().UTC()
	user.IsClaimed = true
	user.ClaimedAt = &now
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr(err, "user not found")
	}
	s.Log.Info().Str("user_id", user.ID).Str("voucher", user.VoucherCode).Msg("🎁 [Admin] prize claimed")
	return &ClaimResult{User: user}, nil
}

func (s *AdminService) Stats(ctx context.Context) (*store.Stats, error) {
	st, err := s.Store.Stats(ctx)
	if err != nil {
		return nil, storeErr(err, "stats not found")
	}
	return st, nil
}

var claimReportHeader = []string{
	"user_id", "phone", "voucher_code", "is_verified", "game_completed", "game_completed_at",
	"is_claimed", "claimed_at", "completed_games", "checkpoints_completed", "created_at",
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// BuildClaimsCSV renders every user summary as CSV.
func (s *AdminService) BuildClaimsCSV(ctx context.Context) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(claimReportHeader); err != nil {
		return nil, 0, err
	}

	rows := 0
	for offset := 0; ; offset += exportPageSize {
		page, _, err := s.Store.ListUserSummaries(ctx, store.UserFilter{Offset: offset, Limit: exportPageSize})
		if err != nil {
			return nil, 0, storeErr(err, "users not found")
		}
		for _, u := range page {
			createdAt := u.CreatedAt
			record := []string{
				u.UserID,
				u.Phone,
				u.VoucherCode,
				strconv.FormatBool(u.IsVerified),
				strconv.FormatBool(u.GameCompleted),
				formatTime(u.GameCompletedAt),
				strconv.FormatBool(u.IsClaimed),
				formatTime(u.ClaimedAt),
				strconv.Itoa(u.CompletedGames),
				strconv.Itoa(u.CheckpointsCompleted),
				formatTime(&createdAt),
			}
			if err := w.Write(record); err != nil {
				return nil, 0, err
			}
			rows++
		}
		if len(page) < exportPageSize {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

// ExportClaims uploads the claims CSV to object storage.
func (s *AdminService) ExportClaims(ctx context.Context) (*Report, error) {
	if s.Uploader == nil {
		return nil, apperr.New(apperr.CodeUnavailable, "report storage is not configured")
	}
	body, rows, err := s.BuildClaimsCSV(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to build report", err)
	}

	key := fmt.Sprintf("reports/claims-%s.csv", s.Clock.Now().UTC().Format("20060102-150405"))
	url, err := s.Uploader.Upload(ctx, key, "text/csv", body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to upload report", err)
	}
	s.Log.Info().Str("key", key).Int("rows", rows).Msg("📤 [Admin] claims report exported")
	return &Report{URL: url, Key: key, Rows: rows}, nil
}
