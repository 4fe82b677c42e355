package models

import "time"

// RewardTier classifies a completed hunt by how long it took.
type RewardTier string

const (
	RewardTierGold   RewardTier = "gold"
	RewardTierSilver RewardTier = "silver"
	RewardTierBronze RewardTier = "bronze"
)

const (
	GoldMaxMinutes   = 19 // under 20 minutes
	SilverMaxMinutes = 40 // 20 through 40 inclusive
)

// TierForMinutes maps elapsed whole minutes to a tier:
// <20 gold, 20-40 silver, >40 bronze.
func TierForMinutes(minutes int) RewardTier {
	switch {
	case minutes <= GoldMaxMinutes:
		return RewardTierGold
	case minutes <= SilverMaxMinutes:
		return RewardTierSilver
	default:
		return RewardTierBronze
	}
}

// ElapsedMinutes returns whole minutes between start and end, floored and
// never negative.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Label returns the display name used by the client.
func (t RewardTier) Label() string {
	switch t {
	case RewardTierGold:
		return "Gold"
	case RewardTierSilver:
		return "Silver"
	case RewardTierBronze:
		return "Bronze"
	default:
		return ""
	}
}
