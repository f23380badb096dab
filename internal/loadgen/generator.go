package loadgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/wellscreen/internal/domain/model"
)

// Request is one generated submission with the headers it is sent with.
type Request struct {
	IdempotencyKey string           `json:"idempotency_key"`
	SubjectID      string           `json:"subject_id,omitempty"`
	Submission     model.Submission `json:"submission"`
}

// profile shapes the ranges a generated submission is drawn from.
type profile int

const (
	profileCalm profile = iota
	profileTypical
	profileStrained
	profileCrisis
)

// pick maps a roll in [0,100) onto a profile: 40% calm, 35% typical,
// 20% strained and 5% crisis.
func pick(roll int) profile {
	switch {
	case roll < 40:
		return profileCalm
	case roll < 75:
		return profileTypical
	case roll < 95:
		return profileStrained
	default:
		return profileCrisis
	}
}

const (
	anonymousOneIn   = 4
	gameMissingOneIn = 5
)

// Generator produces pseudo-random submissions. It is not safe for
// concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator whose submissions are fully determined by seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns n requests, each with a fresh idempotency key.
func (g *Generator) Generate(n int) []Request {
	subjects := n/2 + 1
	out := make([]Request, n)
	for i := range out {
		var subject string
		if g.rng.IntN(anonymousOneIn) != 0 {
			subject = fmt.Sprintf("subject-%04d", g.rng.IntN(subjects))
		}
		out[i] = Request{
			IdempotencyKey: uuid.NewString(),
			SubjectID:      subject,
			Submission:     g.submission(pick(g.rng.IntN(100))),
		}
	}
	return out
}

func (g *Generator) submission(p profile) model.Submission {
	var s model.Submission
	switch p {
	case profileCalm:
		s.PHQ4Total = g.rng.IntN(4)
		s.PSS4Total = g.rng.IntN(6)
		s.Burnout = g.between(0, 1)
	case profileTypical:
		s.PHQ4Total = 3 + g.rng.IntN(4)
		s.PSS4Total = 5 + g.rng.IntN(6)
		s.Burnout = g.between(1, 2.5)
	case profileStrained, profileCrisis:
		s.PHQ4Total = 6 + g.rng.IntN(7)
		s.PSS4Total = 10 + g.rng.IntN(7)
		s.Burnout = g.between(2.5, 4)
	}
	s.EmergencyFlag = p == profileCrisis

	// strain in [0,1] drives how poorly the games go
	strain := float64(p) / float64(profileCrisis)

	if g.rng.IntN(gameMissingOneIn) != 0 {
		s.Game1 = model.Game1Metrics{
			MeanErrorRate: g.ptr(g.around(0.05+0.5*strain, 0.1, 0, 1)),
			MedianRTMs:    g.ptr(g.around(450+700*strain, 120, 150, 3000)),
			RTSDMs:        g.ptr(g.around(80+350*strain, 60, 10, 1500)),
			DropoffRate:   g.ptr(g.around(0.02+0.4*strain, 0.05, 0, 1)),
		}
	}
	if g.rng.IntN(gameMissingOneIn) != 0 {
		s.Game2 = model.Game2Metrics{
			NegativeCorrectRate: g.ptr(g.around(0.6+0.3*strain, 0.1, 0, 1)),
			PositiveCorrectRate: g.ptr(g.around(0.8-0.4*strain, 0.1, 0, 1)),
			AvoidanceIndex:      g.ptr(g.around(15+60*strain, 10, 0, 100)),
		}
	}
	return s
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// around draws from a normal distribution and clamps to [lo,hi].
func (g *Generator) around(mean, sd, lo, hi float64) float64 {
	v := mean + g.rng.NormFloat64()*sd
	return min(max(v, lo), hi)
}

func (g *Generator) ptr(v float64) *float64 { return &v }
