// Package store defines persistence for users, sessions, the checkpoint
// catalog and progress documents. Implementations live in gormstore and
// mongostore.
package store

import (
	"context"
	"errors"
	"time"

	"scavenger-hunt/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the full persistence surface used by the services. Every write is
// a single-document save; there are no multi-document transactions.
type Store interface {
	Users
	Sessions
	Checkpoints
	Progress
	Reports

	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByVoucher(ctx context.Context, code string) (*models.User, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s *models.GameSession) error
	SaveSession(ctx context.Context, s *models.GameSession) error
	GetActiveSession(ctx context.Context, userID string) (*models.GameSession, error)
	GetLatestSession(ctx context.Context, userID string) (*models.GameSession, error)
	// ExpireSessions closes active sessions started before cutoff and returns
	// how many were closed.
	ExpireSessions(ctx context.Context, cutoff, now time.Time) (int64, error)
	// Leaderboard returns completed sessions, fastest first.
	Leaderboard(ctx context.Context, limit int) ([]models.GameSession, error)
}

type Checkpoints interface {
	ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error)
	GetCheckpoint(ctx context.Context, id string) (*models.Checkpoint, error)
	// UpsertCheckpointDefinition inserts c or refreshes its static fields,
	// leaving scan statistics untouched.
	UpsertCheckpointDefinition(ctx context.Context, c *models.Checkpoint) error
	// RecordScan bumps total_scans and, when matched, successful_scans.
	RecordScan(ctx context.Context, id string, matched bool, at time.Time) error
}

type Progress interface {
	CreateProgress(ctx context.Context, p *models.UserProgress) error
	SaveProgress(ctx context.Context, p *models.UserProgress) error
	GetProgress(ctx context.Context, userID string) (*models.UserProgress, error)
}

type Reports interface {
	// ListUserSummaries joins users with their progress, filtered and paged.
	ListUserSummaries(ctx context.Context, f UserFilter) ([]UserSummary, int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

// UserFilter selects users for admin listings. Search matches substrings of
// phone or voucher code. Limit 0 means no limit.
type UserFilter struct {
	Search string
	Offset int
	Limit  int
}

// UserSummary is one admin listing row with counts derived from progress.
type UserSummary struct {
	UserID               string     `json:"user_id" bson:"_id"`
	Phone                string     `json:"phone" bson:"phone"`
	IsVerified           bool       `json:"is_verified" bson:"is_verified"`
	IsClaimed            bool       `json:"is_claimed" bson:"is_claimed"`
	ClaimedAt            *time.Time `json:"claimed_at,omitempty" bson:"claimed_at,omitempty"`
	VoucherCode          string     `json:"voucher_code,omitempty" bson:"voucher_code,omitempty"`
	CompletedGames       int        `json:"completed_games" bson:"completed_games"`
	CheckpointsCompleted int        `json:"checkpoints_completed" bson:"checkpoints_completed"`
	HintCredits          int        `json:"hint_credits" bson:"hint_credits"`
	GameCompleted        bool       `json:"game_completed" bson:"game_completed"`
	GameCompletedAt      *time.Time `json:"game_completed_at,omitempty" bson:"game_completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at" bson:"created_at"`
}

// Stats backs the admin dashboard counters.
type Stats struct {
	TotalUsers       int64                          `json:"total_users"`
	VerifiedUsers    int64                          `json:"verified_users"`
	CompletedGames   int64                          `json:"completed_games"`
	ClaimedPrizes    int64                          `json:"claimed_prizes"`
	SessionsByStatus map[models.SessionStatus]int64 `json:"sessions_by_status"`
	CompletedByTier  map[models.RewardTier]int64    `json:"completed_by_tier"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ClampPage normalizes page/size query values and returns the offset.
func ClampPage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultPageLimit
	case size > MaxPageLimit:
		size = MaxPageLimit
	}
	return page, size, (page - 1) * size
}
