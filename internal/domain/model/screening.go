// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Game1Metrics carries the attention-game summary. Every field is optional;
// nil means the client did not report it.
type Game1Metrics struct {
	MeanErrorRate *float64 `json:"mean_error_rate,omitempty"` // fraction 0-1
	MedianRTMs    *float64 `json:"median_rt_ms,omitempty"`    // median reaction time
	RTSDMs        *float64 `json:"rt_sd_ms,omitempty"`        // reaction time standard deviation
	DropoffRate   *float64 `json:"dropoff_rate,omitempty"`    // fraction 0-1
}

// Game2Metrics carries the emotion-recognition game summary.
type Game2Metrics struct {
	NegativeCorrectRate *float64 `json:"negative_correct_rate,omitempty"` // fraction 0-1
	PositiveCorrectRate *float64 `json:"positive_correct_rate,omitempty"` // fraction 0-1
	AvoidanceIndex      *float64 `json:"avoidance_index,omitempty"`       // 0-100 scale
}

// Submission is a raw screening submission as sent by clients.
type Submission struct {
	PHQ4Total     int             `json:"phq4_total"` // 0-12
	PSS4Total     int             `json:"pss4_total"` // 0-16
	Burnout       float64         `json:"burnout"`    // 0-4
	Game1         Game1Metrics    `json:"game1"`
	Game2         Game2Metrics    `json:"game2"`
	EmergencyFlag bool            `json:"emergency_flag"`
	UserProfile   json.RawMessage `json:"userProfile,omitempty"`
}

// SubScores holds the four pillar scores, each in [0,100].
type SubScores struct {
	Stress  int `json:"stress"`
	Mood    int `json:"mood"`
	Focus   int `json:"focus"`
	Emotion int `json:"emotion"`
}

// Result is the overall outcome of a scored submission.
type Result struct {
	WellnessScore int    `json:"wellnessScore"`
	Tier          Tier   `json:"tier"`
	TierRule      string `json:"tierRule"`
}

// Record is the persisted screening result. It is built once per submission
// and never mutated afterwards.
type Record struct {
	UserID        *string      `json:"userId"`
	CreatedAt     time.Time    `json:"createdAt"`
	PHQ4Total     int          `json:"phq4_total"`
	PSS4Total     int          `json:"pss4_total"`
	Burnout       float64      `json:"burnout"`
	Game1         Game1Metrics `json:"game1"`
	Game2         Game2Metrics `json:"game2"`
	SubScores     SubScores    `json:"subscores"`
	WellnessScore int          `json:"wellnessScore"`
	Tier          Tier         `json:"tier"`
	TierRule      string       `json:"tierRule"`
	EmergencyFlag bool         `json:"emergency_flag"`
}

// SubjectOf returns the subject id stored on the record, or "" when anonymous.
func (r *Record) SubjectOf() string {
	if r.UserID == nil {
		return ""
	}
	return *r.UserID
}

// identityPrefix namespaces subject ids issued by the auth layer.
const identityPrefix = "auth:"

// Identity resolves an opaque subject id from the calling context into the
// stored user id. Blank ids are anonymous and resolve to nil.
func Identity(subjectID string) *string {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil
	}
	id := identityPrefix + subjectID
	return &id
}
