package models

import (
	"time"
)

// User is a player identified by phone number. OTP fields are only populated
// while a code is pending.
type User struct {
	ID             string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Phone          string     `gorm:"uniqueIndex;not null;size:20" bson:"phone" json:"phone"`
	IsVerified     bool       `bson:"is_verified" json:"is_verified"`
	OTPHash        string     `bson:"otp_hash,omitempty" json:"-"`
	OTPExpiresAt   *time.Time `bson:"otp_expires_at,omitempty" json:"-"`
	OTPAttempts    int        `bson:"otp_attempts" json:"-"`
	OTPRequestedAt *time.Time `bson:"otp_requested_at,omitempty" json:"-"`
	LastLoginAt    *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`

	Stats UserStats `gorm:"embedded;embeddedPrefix:stats_" bson:"stats" json:"stats"`

	// Prize redemption
	IsClaimed   bool       `gorm:"index" bson:"is_claimed" json:"is_claimed"`
	ClaimedAt   *time.Time `bson:"claimed_at,omitempty" json:"claimed_at,omitempty"`
	VoucherCode string     `gorm:"index;size:40" bson:"voucher_code,omitempty" json:"voucher_code,omitempty"`

	Timestamps `bson:",inline"`
}

func (User) TableName() string { return "users" }

// UserStats aggregates results across all of a user's hunts.
type UserStats struct {
	BestTimeMinutes *int       `bson:"best_time_minutes,omitempty" json:"best_time_minutes,omitempty"`
	CurrentStreak   int        `bson:"current_streak" json:"current_streak"`
	LastCompletedAt *time.Time `bson:"last_completed_at,omitempty" json:"last_completed_at,omitempty"`
	GamesCompleted  int        `bson:"games_completed" json:"games_completed"`
	TotalRewards    int        `bson:"total_rewards" json:"total_rewards"`
}

// HasPendingOTP reports whether a code was issued and not yet consumed.
func (u *User) HasPendingOTP() bool {
	return u.OTPHash != ""
}

// ClearOTP drops the pending code and its counters. The cooldown anchor is
// kept so a fresh code still respects the request interval.
func (u *User) ClearOTP() {
	u.OTPHash = ""
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
}

// RecordCompletion folds a finished hunt into the stats. The streak counts
// consecutive calendar days (UTC) with at least one completion.
func (s *UserStats) RecordCompletion(elapsedMinutes int, at time.Time) {
	if s.BestTimeMinutes == nil || elapsedMinutes < *s.BestTimeMinutes {
		m := elapsedMinutes
		s.BestTimeMinutes = &m
	}

	day := at.UTC().Truncate(24 * time.Hour)
	switch {
	case s.LastCompletedAt == nil:
		s.CurrentStreak = 1
	default:
		last := s.LastCompletedAt.UTC().Truncate(24 * time.Hour)
		switch day.Sub(last) {
		case 0:
			if s.CurrentStreak == 0 {
				s.CurrentStreak = 1
			}
		case 24 * time.Hour:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	completedAt := at
	s.LastCompletedAt = &completedAt
	s.GamesCompleted++
	s.TotalRewards++
}
