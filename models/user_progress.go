package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProgress is the denormalized per-user aggregate backing the dashboard:
// mini-game completions, hunt checkpoints, hint credits and the resume page.
type UserProgress struct {
	ID     string `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID string `gorm:"uniqueIndex;not null;size:36" bson:"user_id" json:"user_id"`

	DashboardGames datatypes.JSONSlice[GameCompletion]     `bson:"dashboard_games" json:"dashboard_games"`
	Checkpoints    datatypes.JSONSlice[CheckpointProgress] `bson:"checkpoints" json:"checkpoints"`
	TotalFound     int                                     `bson:"total_found" json:"total_found"`

	HintCredits   int                         `bson:"hint_credits" json:"hint_credits"`
	RevealedHints datatypes.JSONSlice[string] `bson:"revealed_hints" json:"revealed_hints"`

	CurrentPage string `bson:"current_page" json:"current_page"`

	GameCompleted   bool       `gorm:"index" bson:"game_completed" json:"game_completed"`
	GameCompletedAt *time.Time `bson:"game_completed_at,omitempty" json:"game_completed_at,omitempty"`

	Timestamps `bson:",inline"`
}

func (UserProgress) TableName() string { return "userprogresses" }

// GameCompletion records a finished dashboard mini-game.
type GameCompletion struct {
	Game        DashboardGame `json:"game" bson:"game"`
	CompletedAt time.Time     `json:"completed_at" bson:"completed_at"`
}

// CheckpointProgress tracks one hunt checkpoint inside UserProgress.
type CheckpointProgress struct {
	CheckpointID string     `json:"checkpoint_id" bson:"checkpoint_id"`
	Completed    bool       `json:"completed" bson:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	ScanCount    int        `json:"scan_count" bson:"scan_count"`
}

// Timestamps adds GORM auto-times; the Mongo store sets them explicitly.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" gorm:"autoUpdateTime"`
}

func (p *UserProgress) GameDone(g DashboardGame) bool {
	for _, c := range p.DashboardGames {
		if c.Game == g {
			return true
		}
	}
	return false
}

// CompletedGameCount counts distinct known dashboard games marked complete.
func (p *UserProgress) CompletedGameCount() int {
	n := 0
	for _, g := range DashboardGames {
		if p.GameDone(g) {
			n++
		}
	}
	return n
}

func (p *UserProgress) CompletedCheckpointCount() int {
	n := 0
	for _, c := range p.Checkpoints {
		if c.Completed {
			n++
		}
	}
	return n
}

func (p *UserProgress) HintRevealed(checkpointID string) bool {
	for _, id := range p.RevealedHints {
		if id == checkpointID {
			return true
		}
	}
	return false
}

// Checkpoint returns the entry for id, appending an empty one when the catalog
// grew after the record was created.
func (p *UserProgress) Checkpoint(id string) *CheckpointProgress {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].CheckpointID == id {
			return &p.Checkpoints[i]
		}
	}
	p.Checkpoints = append(p.Checkpoints, CheckpointProgress{CheckpointID: id})
	return &p.Checkpoints[len(p.Checkpoints)-1]
}
