package evolution

import "igma-backend/internal/catalog"

// State is the trend verdict between two consecutive cycles.
type State string

const (
	Evolution  State = "EVOLUTION"
	Stagnation State = "STAGNATION"
	Regression State = "REGRESSION"
)

// DefaultEpsilon is the deadband absorbing measurement noise.
const DefaultEpsilon = 0.02

// SubjectKind tells what an evolution record tracks.
type SubjectKind string

const (
	SubjectPillar       SubjectKind = "pillar"
	SubjectPrescription SubjectKind = "prescription"
)

// Sample is one scored subject in one cycle.
type Sample struct {
	Kind   SubjectKind    `json:"kind"`
	Key    string         `json:"key"`
	Pillar catalog.Pillar `json:"pillar"`
	Score  float64        `json:"score"`
}

// Record links a subject across two consecutive assessments. State is empty
// when there is no previous sample (first cycle: no verdict).
type Record struct {
	Kind          SubjectKind    `json:"kind"`
	Key           string         `json:"key"`
	Pillar        catalog.Pillar `json:"pillar"`
	PreviousScore *float64       `json:"previousScore"`
	CurrentScore  float64        `json:"currentScore"`
	Delta         *float64       `json:"delta,omitempty"`
	State         State          `json:"evolutionState,omitempty"`
}

// HasVerdict reports whether a trend verdict was rendered.
func (r Record) HasVerdict() bool {
	return r.State != ""
}

// AlertLevel is the escalation level of a regression alert.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Thresholds on consecutive regressions.
const (
	AlertRaiseAt    = 2
	AlertEscalateAt = 3
)

// RegressionAlert is the running regression counter for one territory pillar.
// IsRead and IsDismissed are the only fields a human changes.
type RegressionAlert struct {
	ID                string         `json:"id"`
	TerritoryID       string         `json:"territoryId"`
	Pillar            catalog.Pillar `json:"pillar"`
	ConsecutiveCycles int            `json:"consecutiveCycles"`
	Raised            bool           `json:"raised"`
	Level             AlertLevel     `json:"level,omitempty"`
	IsRead            bool           `json:"isRead"`
	IsDismissed       bool           `json:"isDismissed"`
	LastAssessmentID  string         `json:"lastAssessmentId,omitempty"`
}

// AlertID returns the stable identifier of the alert for a territory pillar.
func AlertID(territoryID string, pillar catalog.Pillar) string {
	return territoryID + ":" + string(pillar)
}
