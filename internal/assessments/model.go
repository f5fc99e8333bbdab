package assessments

import (
	"time"

	"igma-backend/internal/engine"
)

const (
	StatusDraft       = "draft"
	StatusDataReady   = "data_ready"
	StatusCalculating = "calculating"
	StatusCalculated  = "calculated"
	StatusFailed      = "failed"
)

// Assessment is one diagnostic cycle of a territory.
type Assessment struct {
	ID           string     `json:"id"`
	TerritoryID  string     `json:"territoryId"`
	CycleNumber  int        `json:"cycleNumber"`
	Status       string     `json:"status"`
	Generation   int        `json:"generation"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CalculatedAt *time.Time `json:"calculatedAt,omitempty"`
}

// StoredResult is the persisted output of one computation. Generation grows by
// one each time the assessment is recomputed.
type StoredResult struct {
	AssessmentID string        `json:"assessmentId"`
	Generation   int           `json:"generation"`
	Result       engine.Result `json:"result"`
	ComputedAt   time.Time     `json:"computedAt"`
}
