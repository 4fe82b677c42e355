package models

import (
	"fmt"
	"strings"
)

// DashboardGame is the closed set of mini-games shown on the dashboard.
type DashboardGame string

const (
	GameCard   DashboardGame = "card"
	GameQuiz   DashboardGame = "quiz"
	GameMemory DashboardGame = "memory"
)

// DashboardGames lists every mini-game required for overall completion.
var DashboardGames = []DashboardGame{GameCard, GameQuiz, GameMemory}

// CardCompleteCode is printed at the card booth; scanning it finishes the card game.
const CardCompleteCode = "TALABAT_CARD_COMPLETE"

func ParseDashboardGame(s string) (DashboardGame, error) {
	g := DashboardGame(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DashboardGames {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown dashboard game %q", s)
}

// CompletionCode returns the QR payload required to complete the game, or ""
// when the game completes without a scan.
func (g DashboardGame) CompletionCode() string {
	if g == GameCard {
		return CardCompleteCode
	}
	return ""
}
