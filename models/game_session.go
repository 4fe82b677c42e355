package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
	SessionExpired   SessionStatus = "expired"
)

// GameSession is one timed run through the checkpoint catalog. A user has at
// most one active session.
type GameSession struct {
	ID     string `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID string `gorm:"index;not null;size:36" bson:"user_id" json:"user_id"`
	Phone  string `gorm:"index;size:20" bson:"phone" json:"phone"`

	Checkpoints datatypes.JSONSlice[SessionCheckpoint] `bson:"checkpoints" json:"checkpoints"`
	TotalFound  int                                    `bson:"total_found" json:"total_found"`

	Status         SessionStatus `gorm:"index;size:16;not null" bson:"status" json:"status"`
	StartedAt      time.Time     `gorm:"index" bson:"started_at" json:"started_at"`
	EndedAt        *time.Time    `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	ElapsedMinutes *int          `gorm:"index" bson:"elapsed_minutes,omitempty" json:"elapsed_minutes,omitempty"`
	RewardTier     RewardTier    `gorm:"size:16" bson:"reward_tier,omitempty" json:"reward_tier,omitempty"`

	Timestamps `bson:",inline"`
}

func (GameSession) TableName() string { return "gamesessions" }

// SessionCheckpoint is a snapshot of a catalog checkpoint taken at session
// start, plus its completion state within the session.
type SessionCheckpoint struct {
	CheckpointID string     `json:"checkpoint_id" bson:"checkpoint_id"`
	Sequence     int        `json:"sequence" bson:"sequence"`
	Location     string     `json:"location" bson:"location"`
	QRCode       string     `json:"qr_code" bson:"qr_code"`
	Completed    bool       `json:"completed" bson:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	ScanCount    int        `json:"scan_count" bson:"scan_count"`
}

func (s *GameSession) IsActive() bool {
	return s.Status == SessionActive
}

// FindCheckpoint returns the session checkpoint with the given id.
func (s *GameSession) FindCheckpoint(id string) *SessionCheckpoint {
	for i := range s.Checkpoints {
		if s.Checkpoints[i].CheckpointID == id {
			return &s.Checkpoints[i]
		}
	}
	return nil
}

// FindCheckpointByQR returns the session checkpoint whose code equals qr exactly.
func (s *GameSession) FindCheckpointByQR(qr string) *SessionCheckpoint {
	for i := range s.Checkpoints {
		if s.Checkpoints[i].QRCode == qr {
			return &s.Checkpoints[i]
		}
	}
	return nil
}

func (s *GameSession) AllFound() bool {
	if len(s.Checkpoints) == 0 {
		return false
	}
	for _, c := range s.Checkpoints {
		if !c.Completed {
			return false
		}
	}
	return true
}

// NextCheckpoint returns the lowest-sequence checkpoint not yet found.
func (s *GameSession) NextCheckpoint() *SessionCheckpoint {
	var next *SessionCheckpoint
	for i := range s.Checkpoints {
		c := &s.Checkpoints[i]
		if c.Completed {
			continue
		}
		if next == nil || c.Sequence < next.Sequence {
			next = c
		}
	}
	return next
}

// Close ends the session with the given terminal status. Completed sessions
// also get their elapsed time and reward tier.
func (s *GameSession) Close(status SessionStatus, at time.Time) {
	s.Status = status
	ended := at
	s.EndedAt = &ended
	if status == SessionCompleted {
		minutes := ElapsedMinutes(s.StartedAt, at)
		s.ElapsedMinutes = &minutes
		s.RewardTier = TierForMinutes(minutes)
	}
}
