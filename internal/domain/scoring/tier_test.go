package scoring_test

import (
	"testing"

	"github.com/okian/wellscreen/internal/domain/model"
	scoring "github.com/okian/wellscreen/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecideTier(t *testing.T) {
	rules := scoring.DefaultRules()
	calm := scoring.Signals{PHQ4Total: 0, WellnessScore: 100, Focus: 2, Mood: 0, Emotion: 0}

	Convey("Given the default escalation table", t, func() {
		Convey("When the emergency flag is set on an otherwise calm submission", func() {
			s := calm
			s.EmergencyFlag = true

			Convey("Then the crisis override wins", func() {
				So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierHigh, Rule: scoring.RuleEmergencyFlag})
			})
		})

		Convey("When PHQ-4 is 9 or more", func() {
			Convey("Then the tier is high regardless of wellness", func() {
				for _, phq := range []int{9, 10, 12, 50} {
					s := calm
					s.PHQ4Total = phq
					So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierHigh, Rule: scoring.RulePHQ4Severe})
				}
			})
		})

		Convey("When wellness is below 30 and two pillars exceed 70", func() {
			s := scoring.Signals{PHQ4Total: 4, WellnessScore: 20, Focus: 80, Mood: 75, Emotion: 10}

			Convey("Then compounding risk escalates to high", func() {
				So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierHigh, Rule: scoring.RuleCompoundRisk})
			})
		})

		Convey("When compounding conditions are only partly met", func() {
			Convey("Then a single high pillar is not enough", func() {
				s := scoring.Signals{PHQ4Total: 4, WellnessScore: 20, Focus: 80, Mood: 70, Emotion: 10}
				So(scoring.DecideTier(s, rules).Tier, ShouldEqual, model.TierModerate)
			})

			Convey("Then wellness of exactly 30 is not low enough", func() {
				s := scoring.Signals{PHQ4Total: 4, WellnessScore: 30, Focus: 80, Mood: 75, Emotion: 90}
				So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierModerate, Rule: scoring.RuleDefault})
			})
		})

		Convey("When PHQ-4 is in the moderate band", func() {
			Convey("Then the tier is moderate even if everything else is calm", func() {
				for _, phq := range []int{6, 7, 8} {
					s := calm
					s.PHQ4Total = phq
					So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierModerate, Rule: scoring.RulePHQ4Moderate})
				}
			})

			Convey("Then compounding risk still takes priority", func() {
				s := scoring.Signals{PHQ4Total: 7, WellnessScore: 10, Focus: 90, Mood: 90, Emotion: 90}
				So(scoring.DecideTier(s, rules).Rule, ShouldEqual, scoring.RuleCompoundRisk)
			})
		})

		Convey("When every low-risk condition holds", func() {
			Convey("Then the tier is low", func() {
				So(scoring.DecideTier(calm, rules), ShouldResemble, scoring.Decision{Tier: model.TierLow, Rule: scoring.RuleLowRisk})
				edge := scoring.Signals{PHQ4Total: 5, WellnessScore: 75, Focus: 40, Mood: 100, Emotion: 40}
				So(scoring.DecideTier(edge, rules).Tier, ShouldEqual, model.TierLow)
			})
		})

		Convey("When any low-risk condition misses by one", func() {
			Convey("Then the default moderate tier applies", func() {
				misses := []scoring.Signals{
					{PHQ4Total: 5, WellnessScore: 74, Focus: 40, Emotion: 40},
					{PHQ4Total: 5, WellnessScore: 75, Focus: 41, Emotion: 40},
					{PHQ4Total: 5, WellnessScore: 75, Focus: 40, Emotion: 41},
				}
				for _, s := range misses {
					So(scoring.DecideTier(s, rules), ShouldResemble, scoring.Decision{Tier: model.TierModerate, Rule: scoring.RuleDefault})
				}
			})
		})

		Convey("When sweeping a grid of signals", func() {
			Convey("Then every decision is a valid tier", func() {
				for phq := -2; phq <= 14; phq++ {
					for wellness := 0; wellness <= 100; wellness += 5 {
						for pillar := 0; pillar <= 100; pillar += 10 {
							d := scoring.DecideTier(scoring.Signals{
								PHQ4Total: phq, WellnessScore: wellness, Focus: pillar, Mood: 100 - pillar, Emotion: pillar,
							}, rules)
							if !d.Tier.Valid() {
								t.Fatalf("invalid tier %d for phq=%d wellness=%d pillar=%d", d.Tier, phq, wellness, pillar)
							}
						}
					}
				}
			})
		})
	})

	Convey("Given a custom table with no catch-all rule", t, func() {
		custom := []scoring.Rule{
			{Name: "only_emergency", Tier: model.TierHigh, Match: func(s scoring.Signals) bool { return s.EmergencyFlag }},
		}

		Convey("When nothing matches", func() {
			Convey("Then the decision falls back to moderate", func() {
				So(scoring.DecideTier(calm, custom), ShouldResemble, scoring.Decision{Tier: model.TierModerate, Rule: scoring.RuleDefault})
			})
		})
	})
}
