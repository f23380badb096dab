package scoring

// Reaction-time bounds in milliseconds. At or below the floor carries no
// risk; at or above the ceiling carries full risk.
const (
	reactionTimeFloorMs   = 300
	reactionTimeCeilingMs = 1500
	reactionTimeSDCeiling = 600
)

// Self-report instrument maxima.
const (
	phq4Max    = 12
	pss4Max    = 16
	burnoutMax = 4
)

// negativeBiasGain doubles the negative-over-positive recognition gap so a
// 50 point bias saturates the risk.
const negativeBiasGain = 2

// The explicit float64 conversions around each product below prevent the
// compiler from fusing multiply-adds, keeping results bit-identical across
// architectures.

// FocusScore scores attention from the first game's metrics.
func FocusScore(in FocusInputs, w FocusWeights) int {
	errorRisk := percent(in.MeanErrorRate)
	rtRisk := NormalizeLinear(in.MedianRTMs, reactionTimeFloorMs, reactionTimeCeilingMs)
	rtVarRisk := NormalizeLinear(in.RTSDMs, 0, reactionTimeSDCeiling)
	dropoffRisk := percent(in.DropoffRate)

	score := float64(errorRisk*w.ErrorRate) +
		float64(rtRisk*w.ReactionTime) +
		float64(rtVarRisk*w.ReactionTimeVar) +
		float64(dropoffRisk*w.Dropoff)
	return toScore(score)
}

// EmotionScore scores negative affective bias from the second game's metrics.
func EmotionScore(in EmotionInputs, w EmotionWeights) int {
	negativeBiasPP := (in.NegativeCorrectRate - in.PositiveCorrectRate) * 100
	negRisk := Clamp(negativeBiasPP*negativeBiasGain, minScore, maxScore)
	avoidanceRisk := Clamp(in.AvoidanceIndex, minScore, maxScore)

	score := float64(negRisk*w.NegativeBias) + float64(avoidanceRisk*w.Avoidance)
	return toScore(score)
}

// MoodScore scores the self-report totals. The individual risks are not
// clamped, so out-of-range totals only saturate at the final clamp.
func MoodScore(in MoodInputs, w MoodWeights) int {
	moodRisk := (float64(in.PHQ4Total) / phq4Max) * 100
	stressRisk := (float64(in.PSS4Total) / pss4Max) * 100
	burnoutRisk := (in.Burnout / burnoutMax) * 100

	score := float64(moodRisk*w.Depression) +
		float64(stressRisk*w.Stress) +
		float64(burnoutRisk*w.Burnout)
	return toScore(score)
}

// StressScore combines the mood, focus and emotion pillar scores.
func StressScore(mood, focus, emotion int, w StressWeights) int {
	score := float64(float64(mood)*w.Mood) +
		float64(float64(focus)*w.Focus) +
		float64(float64(emotion)*w.Emotion)
	return toScore(score)
}
