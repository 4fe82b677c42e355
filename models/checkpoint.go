package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Checkpoint is a static catalog entry. Only the scan statistics change at
// runtime.
type Checkpoint struct {
	ID         string     `gorm:"primaryKey;size:64" bson:"_id" json:"id"`
	Sequence   int        `gorm:"index" bson:"sequence" json:"sequence"`
	Location   string     `gorm:"not null" bson:"location" json:"location"`
	Clue       string     `gorm:"type:text" bson:"clue" json:"clue"`
	Hint       string     `gorm:"type:text" bson:"hint" json:"-"`
	QRCode     string     `gorm:"uniqueIndex;not null;size:128" bson:"qr_code" json:"-"`
	Venue      string     `bson:"venue" json:"venue"`
	Difficulty Difficulty `gorm:"size:16" bson:"difficulty" json:"difficulty"`

	TotalScans      int64      `bson:"total_scans" json:"total_scans"`
	SuccessfulScans int64      `bson:"successful_scans" json:"successful_scans"`
	LastScannedAt   *time.Time `bson:"last_scanned_at,omitempty" json:"last_scanned_at,omitempty"`

	Timestamps `bson:",inline"`
}

func (Checkpoint) TableName() string { return "checkpoints" }
