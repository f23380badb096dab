package worker

import (
	"context"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/logger"
)

// LogEscalator reports escalations as warning log lines. It is the default
// when no outbound follow-up channel is configured.
type LogEscalator struct {
	logger logger.Logger
}

// NewLogEscalator creates a LogEscalator. A nil logger uses the global one.
func NewLogEscalator(l logger.Logger) *LogEscalator {
	if l == nil {
		l = logger.Get().Named("escalation")
	}
	return &LogEscalator{logger: l}
}

func (l *LogEscalator) Escalate(ctx context.Context, e model.Escalation) error {
	fields := []logger.Field{
		logger.String("record_id", e.RecordID),
		logger.Int("tier", int(e.Tier)),
		logger.String("tier_rule", e.TierRule),
		logger.Int("wellness_score", e.WellnessScore),
		logger.Bool("emergency_flag", e.EmergencyFlag),
	}
	if e.SubjectID != "" {
		fields = append(fields, logger.String("subject_id", e.SubjectID))
	}
	l.logger.Warn(ctx, "screening escalated", fields...)
	return nil
}
