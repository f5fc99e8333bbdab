package assessments

import (
	"context"
	"sort"
	"sync"

	"igma-backend/internal/catalog"
	"igma-backend/internal/evolution"
	"igma-backend/internal/scoring"
)

// MemoryRepo stores assessments in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Assessment
	values  map[string][]scoring.IndicatorValue
	results map[string]StoredResult
	alerts  map[string]evolution.RegressionAlert
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Assessment),
		values:  make(map[string][]scoring.IndicatorValue),
		results: make(map[string]StoredResult),
		alerts:  make(map[string]evolution.RegressionAlert),
	}
}

// Create stores the assessment.
func (r *MemoryRepo) Create(ctx context.Context, a Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.TerritoryID == a.TerritoryID && existing.CycleNumber == a.CycleNumber {
			return ErrDuplicateCycle
		}
	}
	r.byID[a.ID] = a
	return nil
}

// GetByID returns an assessment by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, assessmentID string) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[assessmentID]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	return a, nil
}

// ListByTerritory returns the territory's assessments by ascending cycle.
func (r *MemoryRepo) ListByTerritory(ctx context.Context, territoryID string) ([]Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Assessment
	for _, a := range r.byID {
		if a.TerritoryID == territoryID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CycleNumber < out[j].CycleNumber })
	return out, nil
}

// Transition performs a compare-and-set on the assessment status.
func (r *MemoryRepo) Transition(ctx context.Context, assessmentID string, from []string, to string) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[assessmentID]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	if !contains(from, a.Status) {
		return a, ErrInvalidTransition
	}
	a.Status = to
	a.ErrorMessage = nil
	a.UpdatedAt = nowUTC()
	r.byID[assessmentID] = a
	return a, nil
}

// MarkFailed records a failed computation.
func (r *MemoryRepo) MarkFailed(ctx context.Context, assessmentID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[assessmentID]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusCalculating {
		return ErrInvalidTransition
	}
	a.Status = StatusFailed
	a.ErrorMessage = &message
	a.UpdatedAt = nowUTC()
	r.byID[assessmentID] = a
	return nil
}

// ReplaceValues swaps the full value set of an assessment.
func (r *MemoryRepo) ReplaceValues(ctx context.Context, assessmentID string, values []scoring.IndicatorValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[assessmentID]; !ok {
		return ErrNotFound
	}
	r.values[assessmentID] = append([]scoring.IndicatorValue(nil), values...)
	return nil
}

// ListValues returns the stored values ordered by indicator code.
func (r *MemoryRepo) ListValues(ctx context.Context, assessmentID string) ([]scoring.IndicatorValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]scoring.IndicatorValue(nil), r.values[assessmentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].IndicatorCode < out[j].IndicatorCode })
	return out, nil
}

// SaveResult stores the result and completes the calculating assessment.
func (r *MemoryRepo) SaveResult(ctx context.Context, res StoredResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[res.AssessmentID]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusCalculating {
		return ErrInvalidTransition
	}
	calculatedAt := res.ComputedAt
	a.Status = StatusCalculated
	a.Generation = res.Generation
	a.CalculatedAt = &calculatedAt
	a.ErrorMessage = nil
	a.UpdatedAt = nowUTC()
	r.byID[a.ID] = a
	r.results[a.ID] = res
	return nil
}

// GetResult returns the latest stored result of an assessment.
func (r *MemoryRepo) GetResult(ctx context.Context, assessmentID string) (StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return StoredResult{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[assessmentID]
	if !ok {
		return StoredResult{}, ErrNotFound
	}
	return res, nil
}

// LatestCalculatedBefore returns the prior calculated cycle of a territory.
func (r *MemoryRepo) LatestCalculatedBefore(ctx context.Context, territoryID string, cycle int) (StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return StoredResult{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Assessment
	for _, a := range r.byID {
		if a.TerritoryID != territoryID || a.Status != StatusCalculated || a.CycleNumber >= cycle {
			continue
		}
		if _, ok := r.results[a.ID]; !ok {
			continue
		}
		if best == nil || a.CycleNumber > best.CycleNumber {
			candidate := a
			best = &candidate
		}
	}
	if best == nil {
		return StoredResult{}, ErrNotFound
	}
	return r.results[best.ID], nil
}

// ListAlerts returns the territory's alerts in pillar order.
func (r *MemoryRepo) ListAlerts(ctx context.Context, territoryID string) ([]evolution.RegressionAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []evolution.RegressionAlert
	for _, p := range catalog.Pillars {
		if a, ok := r.alerts[evolution.AlertID(territoryID, p)]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveAlerts upserts alert counters by ID.
func (r *MemoryRepo) SaveAlerts(ctx context.Context, alerts []evolution.RegressionAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range alerts {
		r.alerts[a.ID] = a
	}
	return nil
}

// UpdateAlert sets the read and dismissed flags of an alert.
func (r *MemoryRepo) UpdateAlert(ctx context.Context, alertID string, read, dismissed bool) (evolution.RegressionAlert, error) {
	if err := ctx.Err(); err != nil {
		return evolution.RegressionAlert{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[alertID]
	if !ok {
		return evolution.RegressionAlert{}, ErrNotFound
	}
	a.IsRead = a.IsRead || read
	a.IsDismissed = a.IsDismissed || dismissed
	r.alerts[alertID] = a
	return a, nil
}

var _ Repo = (*MemoryRepo)(nil)
