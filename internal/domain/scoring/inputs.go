package scoring

import "github.com/okian/wellscreen/internal/domain/model"

// BaselineReactionTimeMs is the neutral median reaction time assumed when a
// client does not report one.
const BaselineReactionTimeMs float64 = 400

// FocusInputs are the resolved attention-game metrics.
type FocusInputs struct {
	MeanErrorRate float64
	MedianRTMs    float64
	RTSDMs        float64
	DropoffRate   float64
}

// EmotionInputs are the resolved emotion-recognition metrics.
type EmotionInputs struct {
	NegativeCorrectRate float64
	PositiveCorrectRate float64
	AvoidanceIndex      float64
}

// MoodInputs are the self-report totals.
type MoodInputs struct {
	PHQ4Total int
	PSS4Total int
	Burnout   float64
}

// Inputs is a fully populated submission. Scorers only ever see Inputs, so
// every default lives in Resolve.
type Inputs struct {
	Focus         FocusInputs
	Emotion       EmotionInputs
	Mood          MoodInputs
	EmergencyFlag bool
}

// Resolve fills every missing metric with its default: zero, except the
// median reaction time which falls back to BaselineReactionTimeMs. A reported
// median of 0 ms is treated as missing.
func Resolve(sub model.Submission) Inputs {
	g1, g2 := sub.Game1, sub.Game2

	rt := valueOr(g1.MedianRTMs, 0)
	if rt == 0 {
		rt = BaselineReactionTimeMs
	}

	return Inputs{
		Focus: FocusInputs{
			MeanErrorRate: valueOr(g1.MeanErrorRate, 0),
			MedianRTMs:    rt,
			RTSDMs:        valueOr(g1.RTSDMs, 0),
			DropoffRate:   valueOr(g1.DropoffRate, 0),
		},
		Emotion: EmotionInputs{
			NegativeCorrectRate: valueOr(g2.NegativeCorrectRate, 0),
			PositiveCorrectRate: valueOr(g2.PositiveCorrectRate, 0),
			AvoidanceIndex:      valueOr(g2.AvoidanceIndex, 0),
		},
		Mood: MoodInputs{
			PHQ4Total: sub.PHQ4Total,
			PSS4Total: sub.PSS4Total,
			Burnout:   sub.Burnout,
		},
		EmergencyFlag: sub.EmergencyFlag,
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
