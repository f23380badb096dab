package model

import "time"

// Escalation is a stored high-risk screening handed off for follow-up.
type Escalation struct {
	RecordID      string    `json:"record_id"`
	SubjectID     string    `json:"subject_id,omitempty"`
	Tier          Tier      `json:"tier"`
	TierRule      string    `json:"tier_rule"`
	WellnessScore int       `json:"wellness_score"`
	EmergencyFlag bool      `json:"emergency_flag"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// NewEscalation builds the follow-up event for a stored record.
func NewEscalation(recordID string, rec *Record, at time.Time) Escalation {
	return Escalation{
		RecordID:      recordID,
		SubjectID:     rec.SubjectOf(),
		Tier:          rec.Tier,
		TierRule:      rec.TierRule,
		WellnessScore: rec.WellnessScore,
		EmergencyFlag: rec.EmergencyFlag,
		EnqueuedAt:    at,
	}
}
