package scoring

import (
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithWeights replaces the default weights. Weights that fail Validate are
// ignored.
func WithWeights(w Weights) Option {
	return func(p *Pipeline) {
		if w.Validate() == nil {
			p.weights = w
		}
	}
}

// WithRules replaces the default tier table. An empty table is ignored.
func WithRules(rules []Rule) Option {
	return func(p *Pipeline) {
		if len(rules) > 0 {
			p.rules = append([]Rule(nil), rules...)
		}
	}
}

// Outcome is the full output of one pipeline run.
type Outcome struct {
	SubScores model.SubScores
	Result    model.Result
}

// Pipeline scores submissions with a fixed set of weights and tier rules.
// It holds no mutable state after construction.
type Pipeline struct {
	weights Weights
	rules   []Rule
}

// NewPipeline creates a pipeline with default weights and rules.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		weights: DefaultWeights(),
		rules:   DefaultRules(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Weights returns the weights in use.
func (p *Pipeline) Weights() Weights {
	return p.weights
}

// Evaluate runs the pillar scorers, the wellness aggregator and the tier
// decider over fully resolved inputs.
func (p *Pipeline) Evaluate(in Inputs) Outcome {
	w := p.weights

	focus := FocusScore(in.Focus, w.Focus)
	emotion := EmotionScore(in.Emotion, w.Emotion)
	mood := MoodScore(in.Mood, w.Mood)
	stress := StressScore(mood, focus, emotion, w.Stress)

	subs := model.SubScores{Stress: stress, Mood: mood, Focus: focus, Emotion: emotion}
	wellness := WellnessScore(subs, w.Wellness)

	decision := DecideTier(Signals{
		EmergencyFlag: in.EmergencyFlag,
		PHQ4Total:     in.Mood.PHQ4Total,
		WellnessScore: wellness,
		Focus:         focus,
		Mood:          mood,
		Emotion:       emotion,
	}, p.rules)

	return Outcome{
		SubScores: subs,
		Result: model.Result{
			WellnessScore: wellness,
			Tier:          decision.Tier,
			TierRule:      decision.Rule,
		},
	}
}

// Score resolves defaults on a raw submission and evaluates it.
func (p *Pipeline) Score(sub model.Submission) Outcome {
	return p.Evaluate(Resolve(sub))
}

// Assemble packages a submission and its outcome into the record handed to
// persistence. userID is nil for anonymous submissions.
func Assemble(sub model.Submission, out Outcome, userID *string, at time.Time) model.Record {
	return model.Record{
		UserID:        userID,
		CreatedAt:     at.UTC(),
		PHQ4Total:     sub.PHQ4Total,
		PSS4Total:     sub.PSS4Total,
		Burnout:       sub.Burnout,
		Game1:         sub.Game1,
		Game2:         sub.Game2,
		SubScores:     out.SubScores,
		WellnessScore: out.Result.WellnessScore,
		Tier:          out.Result.Tier,
		TierRule:      out.Result.TierRule,
		EmergencyFlag: sub.EmergencyFlag,
	}
}
