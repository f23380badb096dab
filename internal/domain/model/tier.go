package model

import "strconv"

// Tier is the discrete escalation level of a screening.
type Tier int

// Escalation tiers, from least to most severe.
const (
	TierLow      Tier = 1
	TierModerate Tier = 2
	TierHigh     Tier = 3
)

var tierNames = [...]string{"", "low", "moderate", "high"}

func (t Tier) String() string {
	if t.Valid() {
		return tierNames[t]
	}
	return "tier(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t >= TierLow && t <= TierHigh
}
