package scoring

import "github.com/okian/wellscreen/internal/domain/model"

// Rule names reported with each decision.
const (
	RuleEmergencyFlag = "emergency_flag"
	RulePHQ4Severe    = "phq4_severe"
	RuleCompoundRisk  = "compound_risk"
	RulePHQ4Moderate  = "phq4_moderate"
	RuleLowRisk       = "low_risk"
	RuleDefault       = "default"
)

// Decision thresholds.
const (
	phq4SevereMin      = 9
	phq4ModerateMin    = 6
	phq4ModerateMax    = 8
	phq4LowRiskMax     = 5
	compoundWellnessLT = 30
	highPillarGT       = 70
	highPillarsMin     = 2
	lowRiskWellnessMin = 75
	lowRiskPillarMax   = 40
)

// Signals is everything the tier decision looks at.
type Signals struct {
	EmergencyFlag bool
	PHQ4Total     int
	WellnessScore int
	Focus         int
	Mood          int
	Emotion       int
}

// Rule maps a predicate to a tier. Rules are evaluated in slice order and
// the first match wins.
type Rule struct {
	Name  string
	Tier  model.Tier
	Match func(Signals) bool
}

// Decision is the tier and the rule that produced it.
type Decision struct {
	Tier model.Tier
	Rule string
}

// DefaultRules returns the escalation table, most severe first. The last
// rule always matches.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleEmergencyFlag, Tier: model.TierHigh, Match: func(s Signals) bool {
			return s.EmergencyFlag
		}},
		{Name: RulePHQ4Severe, Tier: model.TierHigh, Match: func(s Signals) bool {
			return s.PHQ4Total >= phq4SevereMin
		}},
		{Name: RuleCompoundRisk, Tier: model.TierHigh, Match: func(s Signals) bool {
			return s.WellnessScore < compoundWellnessLT && highPillars(s) >= highPillarsMin
		}},
		{Name: RulePHQ4Moderate, Tier: model.TierModerate, Match: func(s Signals) bool {
			return s.PHQ4Total >= phq4ModerateMin && s.PHQ4Total <= phq4ModerateMax
		}},
		{Name: RuleLowRisk, Tier: model.TierLow, Match: func(s Signals) bool {
			return s.WellnessScore >= lowRiskWellnessMin &&
				s.PHQ4Total <= phq4LowRiskMax &&
				s.Focus <= lowRiskPillarMax &&
				s.Emotion <= lowRiskPillarMax
		}},
		{Name: RuleDefault, Tier: model.TierModerate, Match: func(Signals) bool {
			return true
		}},
	}
}

// highPillars counts the focus, mood and emotion pillars above the high-risk line.
func highPillars(s Signals) int {
	n := 0
	for _, v := range [...]int{s.Focus, s.Mood, s.Emotion} {
		if v > highPillarGT {
			n++
		}
	}
	return n
}

// DecideTier walks rules in order and returns the first match. A table with
// no matching rule yields the moderate tier under RuleDefault.
func DecideTier(s Signals, rules []Rule) Decision {
	for _, r := range rules {
		if r.Match(s) {
			return Decision{Tier: r.Tier, Rule: r.Name}
		}
	}
	return Decision{Tier: model.TierModerate, Rule: RuleDefault}
}
