package scoring

import (
	"math"

	"github.com/okian/wellscreen/internal/domain/model"
)

// RiskIndex is the weighted combination of the four pillar scores.
func RiskIndex(s model.SubScores, w WellnessWeights) float64 {
	return float64(float64(s.Stress)*w.Stress) +
		float64(float64(s.Mood)*w.Mood) +
		float64(float64(s.Focus)*w.Focus) +
		float64(float64(s.Emotion)*w.Emotion)
}

// WellnessScore inverts the risk index: higher wellness means lower risk.
func WellnessScore(s model.SubScores, w WellnessWeights) int {
	return int(math.Round(Clamp(maxScore-RiskIndex(s, w), minScore, maxScore)))
}
