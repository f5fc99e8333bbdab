package assessments

import (
	"context"
	"time"

	"igma-backend/internal/evolution"
	"igma-backend/internal/scoring"
)

// ValueReader returns the raw indicator values of an assessment.
type ValueReader interface {
	ListValues(ctx context.Context, assessmentID string) ([]scoring.IndicatorValue, error)
}

// PriorCycleReader returns cross-cycle state for a territory.
type PriorCycleReader interface {
	// LatestCalculatedBefore returns the result of the calculated assessment
	// with the greatest cycle number strictly below cycle, or ErrNotFound.
	LatestCalculatedBefore(ctx context.Context, territoryID string, cycle int) (StoredResult, error)
	ListAlerts(ctx context.Context, territoryID string) ([]evolution.RegressionAlert, error)
}

// Repo defines persistence operations for assessments.
type Repo interface {
	ValueReader
	PriorCycleReader

	Create(ctx context.Context, a Assessment) error
	GetByID(ctx context.Context, assessmentID string) (Assessment, error)
	ListByTerritory(ctx context.Context, territoryID string) ([]Assessment, error)
	// Transition moves an assessment to status "to" only when its current
	// status is one of from. It returns ErrInvalidTransition otherwise.
	Transition(ctx context.Context, assessmentID string, from []string, to string) (Assessment, error)
	// MarkFailed moves a calculating assessment to failed.
	MarkFailed(ctx context.Context, assessmentID, message string) error
	ReplaceValues(ctx context.Context, assessmentID string, values []scoring.IndicatorValue) error
	// SaveResult stores the result and marks the calculating assessment as
	// calculated in one step.
	SaveResult(ctx context.Context, res StoredResult) error
	GetResult(ctx context.Context, assessmentID string) (StoredResult, error)
	SaveAlerts(ctx context.Context, alerts []evolution.RegressionAlert) error
	// UpdateAlert sets the human flags of an alert. Flags are only ever set,
	// never cleared, by this call.
	UpdateAlert(ctx context.Context, alertID string, read, dismissed bool) (evolution.RegressionAlert, error)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
