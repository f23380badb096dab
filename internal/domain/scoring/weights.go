package scoring

import (
	"fmt"
	"math"
)

// weightTolerance absorbs float error when checking that a group sums to 1.
const weightTolerance = 1e-9

// FocusWeights combines the attention-game risks.
type FocusWeights struct {
	ErrorRate       float64 `koanf:"error_rate" json:"error_rate"`
	ReactionTime    float64 `koanf:"reaction_time" json:"reaction_time"`
	ReactionTimeVar float64 `koanf:"reaction_time_var" json:"reaction_time_var"`
	Dropoff         float64 `koanf:"dropoff" json:"dropoff"`
}

// EmotionWeights combines the emotion-recognition risks.
type EmotionWeights struct {
	NegativeBias float64 `koanf:"negative_bias" json:"negative_bias"`
	Avoidance    float64 `koanf:"avoidance" json:"avoidance"`
}

// MoodWeights combines the self-report risks.
type MoodWeights struct {
	Depression float64 `koanf:"depression" json:"depression"`
	Stress     float64 `koanf:"stress" json:"stress"`
	Burnout    float64 `koanf:"burnout" json:"burnout"`
}

// StressWeights combines the other pillar scores into the stress pillar.
type StressWeights struct {
	Mood    float64 `koanf:"mood" json:"mood"`
	Focus   float64 `koanf:"focus" json:"focus"`
	Emotion float64 `koanf:"emotion" json:"emotion"`
}

// WellnessWeights combines all four pillars into the risk index.
type WellnessWeights struct {
	Stress  float64 `koanf:"stress" json:"stress"`
	Mood    float64 `koanf:"mood" json:"mood"`
	Focus   float64 `koanf:"focus" json:"focus"`
	Emotion float64 `koanf:"emotion" json:"emotion"`
}

// Weights is the full set of combination weights. Every group must sum to 1.
type Weights struct {
	Focus    FocusWeights    `koanf:"focus" json:"focus"`
	Emotion  EmotionWeights  `koanf:"emotion" json:"emotion"`
	Mood     MoodWeights     `koanf:"mood" json:"mood"`
	Stress   StressWeights   `koanf:"stress" json:"stress"`
	Wellness WellnessWeights `koanf:"wellness" json:"wellness"`
}

// DefaultWeights returns the calibrated production weights.
func DefaultWeights() Weights {
	return Weights{
		Focus:    FocusWeights{ErrorRate: 0.45, ReactionTime: 0.30, ReactionTimeVar: 0.15, Dropoff: 0.10},
		Emotion:  EmotionWeights{NegativeBias: 0.6, Avoidance: 0.4},
		Mood:     MoodWeights{Depression: 0.5, Stress: 0.35, Burnout: 0.15},
		Stress:   StressWeights{Mood: 0.5, Focus: 0.2, Emotion: 0.3},
		Wellness: WellnessWeights{Stress: 0.30, Mood: 0.30, Focus: 0.25, Emotion: 0.15},
	}
}

// Validate checks that no weight is negative and that each group sums to 1.
func (w Weights) Validate() error {
	groups := []struct {
		name   string
		values []float64
	}{
		{"focus", []float64{w.Focus.ErrorRate, w.Focus.ReactionTime, w.Focus.ReactionTimeVar, w.Focus.Dropoff}},
		{"emotion", []float64{w.Emotion.NegativeBias, w.Emotion.Avoidance}},
		{"mood", []float64{w.Mood.Depression, w.Mood.Stress, w.Mood.Burnout}},
		{"stress", []float64{w.Stress.Mood, w.Stress.Focus, w.Stress.Emotion}},
		{"wellness", []float64{w.Wellness.Stress, w.Wellness.Mood, w.Wellness.Focus, w.Wellness.Emotion}},
	}
	for _, g := range groups {
		var sum float64
		for _, v := range g.values {
			if v < 0 || math.IsNaN(v) {
				return fmt.Errorf("%w: %s weights must be non-negative", ErrInvalidWeights, g.name)
			}
			sum += v
		}
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("%w: %s weights sum to %g, want 1", ErrInvalidWeights, g.name, sum)
		}
	}
	return nil
}
