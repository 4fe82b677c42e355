package models

import (
	"strings"

	"github.com/gosimple/slug"
)

// HuntQRPrefix prefixes every checkpoint QR payload.
const HuntQRPrefix = "TALABAT_HUNT_"

type catalogEntry struct {
	Location   string
	Venue      string
	Difficulty Difficulty
	Clue       string
	Hint       string
}

var defaultCatalog = []catalogEntry{
	{"Reception Desk", "Main Lobby", DifficultyEasy,
		"Every journey starts where visitors are greeted.",
		"Look for the desk with the welcome badges."},
	{"Food Court", "Ground Floor", DifficultyEasy,
		"Follow the smell of shawarma and fresh bread.",
		"The code hides near the tray return."},
	{"Main Stage", "Hall A", DifficultyMedium,
		"Where the spotlight shines and the crowd cheers.",
		"Check the left speaker stand."},
	{"Rider Lounge", "Hall B", DifficultyMedium,
		"Orange helmets rest here between deliveries.",
		"Behind the charging station."},
	{"Tech Hub", "Hall B", DifficultyMedium,
		"Screens, cables and the people who keep the app running.",
		"Under the big dashboard screen."},
	{"Coffee Corner", "Mezzanine", DifficultyHard,
		"Karak or cappuccino, the choice is yours.",
		"On the side of the cup dispenser."},
	{"Photo Wall", "Mezzanine", DifficultyHard,
		"Strike a pose where memories are framed.",
		"Bottom right corner of the backdrop."},
	{"Prize Booth", "Exit Plaza", DifficultyHard,
		"The last stop before the treasure.",
		"Ask the booth staff to show you the sign."},
}

// CheckpointQRCode derives the QR payload from a checkpoint id, e.g.
// "reception-desk" becomes TALABAT_HUNT_RECEPTION_DESK.
func CheckpointQRCode(id string) string {
	return HuntQRPrefix + strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
}

// DefaultCheckpoints returns the seeded catalog in hunt order.
func DefaultCheckpoints() []Checkpoint {
	out := make([]Checkpoint, 0, len(defaultCatalog))
	for i, e := range defaultCatalog {
		id := slug.Make(e.Location)
		out = append(out, Checkpoint{
			ID:         id,
			Sequence:   i + 1,
			Location:   e.Location,
			Clue:       e.Clue,
			Hint:       e.Hint,
			QRCode:     CheckpointQRCode(id),
			Venue:      e.Venue,
			Difficulty: e.Difficulty,
		})
	}
	return out
}
