package assessments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"igma-backend/internal/catalog"
	"igma-backend/internal/engine"
	"igma-backend/internal/evolution"
	"igma-backend/internal/queue"
	"igma-backend/internal/scoring"
	"igma-backend/internal/shared/metrics"
	"igma-backend/internal/shared/storage/object"
	"igma-backend/internal/shared/telemetry"
)

// MessageVersion is the queue payload version produced by MarkDataReady.
const MessageVersion = 1

// Service contains business logic for assessments.
type Service struct {
	Repo    Repo
	Catalog catalog.Reader
	Engine  engine.Engine
	// Store archives a JSON snapshot per computed generation. Optional.
	Store object.ObjectStore
	// JobQueue hands computations to the worker. When nil, computations run
	// in-process.
	JobQueue queue.Client
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create opens a new draft assessment for a territory cycle.
func (s *Service) Create(ctx context.Context, territoryID string, cycleNumber int) (Assessment, error) {
	territoryID = strings.TrimSpace(territoryID)
	verr := &ValidationError{}
	if territoryID == "" {
		verr.add("territoryId", "required")
	}
	if cycleNumber < 1 {
		verr.add("cycleNumber", "must be >= 1")
	}
	if err := verr.orNil(); err != nil {
		return Assessment{}, err
	}

	now := s.now()
	a := Assessment{
		ID:          uuid.NewString(),
		TerritoryID: territoryID,
		CycleNumber: cycleNumber,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return Assessment{}, err
	}
	telemetry.Info("assessment.created", map[string]any{
		"request_id":    requestIDFromContext(ctx),
		"assessment_id": a.ID,
		"territory_id":  a.TerritoryID,
		"cycle_number":  a.CycleNumber,
	})
	return a, nil
}

// Get returns an assessment by ID.
func (s *Service) Get(ctx context.Context, assessmentID string) (Assessment, error) {
	if assessmentID == "" {
		return Assessment{}, errors.New("assessmentID is required")
	}
	return s.Repo.GetByID(ctx, assessmentID)
}

// ListByTerritory returns a territory's assessments by ascending cycle.
func (s *Service) ListByTerritory(ctx context.Context, territoryID string) ([]Assessment, error) {
	if territoryID == "" {
		return nil, errors.New("territoryID is required")
	}
	return s.Repo.ListByTerritory(ctx, territoryID)
}

// PutValues replaces the raw values of an assessment. Codes must exist in
// the catalog. Re-submitting values for a calculated or failed assessment
// moves it back to data_ready.
func (s *Service) PutValues(ctx context.Context, assessmentID string, values []scoring.IndicatorValue) (Assessment, error) {
	cat, err := s.Catalog.List(ctx)
	if err != nil {
		return Assessment{}, fmt.Errorf("load catalog: %w", err)
	}
	cleaned, err := validateValues(cat, assessmentID, values)
	if err != nil {
		return Assessment{}, err
	}

	a, err := s.Repo.GetByID(ctx, assessmentID)
	if err != nil {
		return Assessment{}, err
	}
	if a.Status == StatusCalculating {
		return a, ErrInvalidTransition
	}
	target := StatusDataReady
	if a.Status == StatusDraft {
		target = StatusDraft
	}
	if a.Status != target {
		if a, err = s.Repo.Transition(ctx, assessmentID, []string{a.Status}, target); err != nil {
			return a, err
		}
	}
	if err := s.Repo.ReplaceValues(ctx, assessmentID, cleaned); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func validateValues(cat catalog.Catalog, assessmentID string, values []scoring.IndicatorValue) ([]scoring.IndicatorValue, error) {
	verr := &ValidationError{}
	seen := make(map[string]bool, len(values))
	cleaned := make([]scoring.IndicatorValue, 0, len(values))
	for i, v := range values {
		field := fmt.Sprintf("values[%d]", i)
		code := catalog.NormalizeCode(v.IndicatorCode)
		switch {
		case code == "":
			verr.add(field+".indicatorCode", "required")
			continue
		case seen[code]:
			verr.add(field+".indicatorCode", "duplicate code "+code)
			continue
		}
		seen[code] = true
		if _, ok := cat.Get(code); !ok {
			verr.add(field+".indicatorCode", "unknown indicator "+code)
			continue
		}
		if v.ValueRaw != nil && (math.IsNaN(*v.ValueRaw) || math.IsInf(*v.ValueRaw, 0)) {
			verr.add(field+".valueRaw", "must be a finite number")
			continue
		}
		v.IndicatorCode = code
		v.AssessmentID = assessmentID
		v.ValueText = strings.TrimSpace(v.ValueText)
		v.Source = strings.TrimSpace(v.Source)
		cleaned = append(cleaned, v)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// MarkDataReady moves an assessment to data_ready and schedules its
// computation, on the job queue when configured or in-process otherwise.
func (s *Service) MarkDataReady(ctx context.Context, assessmentID string) (Assessment, error) {
	a, err := s.Repo.Transition(ctx, assessmentID,
		[]string{StatusDraft, StatusDataReady, StatusCalculated, StatusFailed}, StatusDataReady)
	if err != nil {
		return a, err
	}

	if s.JobQueue == nil {
		go s.completeAsync(backgroundWithRequestID(ctx), a.ID)
		return a, nil
	}
	msg := queue.Message{
		AssessmentID: a.ID,
		RequestID:    requestIDFromContext(ctx),
		EnqueuedAt:   s.now().Format(time.RFC3339),
		Version:      MessageVersion,
	}
	if err := s.JobQueue.Send(ctx, msg); err != nil {
		return a, fmt.Errorf("assessment %s: %w: %w", a.ID, ErrEnqueueFailed, err)
	}
	telemetry.Info("assessment.enqueued", map[string]any{
		"request_id":    msg.RequestID,
		"assessment_id": a.ID,
		"territory_id":  a.TerritoryID,
	})
	return a, nil
}

func (s *Service) completeAsync(ctx context.Context, assessmentID string) {
	if err := s.ProcessAssessment(ctx, assessmentID); err != nil && !errors.Is(err, ErrInvalidTransition) {
		telemetry.Error("assessment.async_failed", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"assessment_id": assessmentID,
			"error":         err,
		})
	}
}

// ProcessAssessment runs one computation pass for a data_ready assessment and
// persists its result, alert counters and archive snapshot. Only one
// computation per assessment runs at a time: the data_ready to calculating
// transition is atomic, and a losing caller gets ErrInvalidTransition.
func (s *Service) ProcessAssessment(ctx context.Context, assessmentID string) (err error) {
	startedAt := time.Now()
	a, err := s.Repo.Transition(ctx, assessmentID, []string{StatusDataReady}, StatusCalculating)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.fail(ctx, a, err, startedAt)
		}
	}()

	metrics.IncComputationStarted()
	s.logStatus(ctx, a, StatusCalculating, "data_ready->calculating", nil)

	in, err := s.loadInput(ctx, a)
	if err != nil {
		s.fail(ctx, a, err, startedAt)
		return err
	}
	result := s.Engine.Compute(in)

	stored := StoredResult{
		AssessmentID: a.ID,
		Generation:   a.Generation + 1,
		Result:       result,
		ComputedAt:   result.ComputedAt,
	}
	if err := s.Repo.SaveResult(ctx, stored); err != nil {
		err = fmt.Errorf("save result: %w", err)
		s.fail(ctx, a, err, startedAt)
		return err
	}
	s.saveAlerts(ctx, a, in.Alerts, result.Alerts)
	s.archive(ctx, a, stored)

	elapsed := time.Since(startedAt)
	metrics.IncComputationCompleted()
	metrics.ObserveComputationDuration(elapsed)
	metrics.AddConfigurationErrors(len(result.Diagnostics.ConfigurationErrors))
	s.logStatus(ctx, a, StatusCalculated, "calculating->calculated", map[string]any{
		"generation":  stored.Generation,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
		"issues":      len(result.Issues),
	})
	return nil
}

func (s *Service) loadInput(ctx context.Context, a Assessment) (engine.Input, error) {
	cat, err := s.Catalog.List(ctx)
	if err != nil {
		return engine.Input{}, fmt.Errorf("load catalog: %w", err)
	}
	values, err := s.Repo.ListValues(ctx, a.ID)
	if err != nil {
		return engine.Input{}, fmt.Errorf("load values: %w", err)
	}
	in := engine.Input{
		AssessmentID: a.ID,
		TerritoryID:  a.TerritoryID,
		CycleNumber:  a.CycleNumber,
		Catalog:      cat,
		Values:       values,
		Now:          s.now(),
	}

	prior, err := s.Repo.LatestCalculatedBefore(ctx, a.TerritoryID, a.CycleNumber)
	switch {
	case errors.Is(err, ErrNotFound):
		return in, nil
	case err != nil:
		return engine.Input{}, fmt.Errorf("load prior cycle: %w", err)
	}
	in.Previous = prior.Result.Prior()

	current, err := s.Repo.ListAlerts(ctx, a.TerritoryID)
	if err != nil {
		return engine.Input{}, fmt.Errorf("load alerts: %w", err)
	}
	in.Alerts = priorAlerts(prior, current)
	return in, nil
}

// priorAlerts returns the counters as they stood after the prior cycle. The
// human read and dismissed flags are carried over from the live alerts when
// those still describe the same cycle.
func priorAlerts(prior StoredResult, live []evolution.RegressionAlert) []evolution.RegressionAlert {
	liveByID := make(map[string]evolution.RegressionAlert, len(live))
	for _, a := range live {
		liveByID[a.ID] = a
	}
	out := make([]evolution.RegressionAlert, 0, len(prior.Result.Alerts))
	for _, a := range prior.Result.Alerts {
		if l, ok := liveByID[a.ID]; ok && l.LastAssessmentID == a.LastAssessmentID {
			a.IsRead = l.IsRead
			a.IsDismissed = l.IsDismissed
		}
		out = append(out, a)
	}
	return out
}

// saveAlerts publishes the new counters unless a later cycle of the territory
// has already been calculated.
func (s *Service) saveAlerts(ctx context.Context, a Assessment, before, after []evolution.RegressionAlert) {
	siblings, err := s.Repo.ListByTerritory(ctx, a.TerritoryID)
	if err != nil {
		telemetry.Error("assessment.alerts", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"assessment_id": a.ID,
			"error":         err,
		})
		return
	}
	for _, other := range siblings {
		if other.CycleNumber > a.CycleNumber && other.Status == StatusCalculated {
			return
		}
	}
	if err := s.Repo.SaveAlerts(ctx, after); err != nil {
		telemetry.Error("assessment.alerts", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"assessment_id": a.ID,
			"error":         err,
		})
		return
	}

	prev := make(map[string]evolution.RegressionAlert, len(before))
	for _, b := range before {
		prev[b.ID] = b
	}
	for _, alert := range after {
		if !alert.Raised {
			continue
		}
		if old, ok := prev[alert.ID]; ok && old.Raised && old.Level == alert.Level {
			continue
		}
		metrics.IncRegressionAlert(string(alert.Pillar), string(alert.Level))
		telemetry.Warn("assessment.regression_alert", map[string]any{
			"request_id":         requestIDFromContext(ctx),
			"assessment_id":      a.ID,
			"territory_id":       a.TerritoryID,
			"pillar":             string(alert.Pillar),
			"level":              string(alert.Level),
			"consecutive_cycles": alert.ConsecutiveCycles,
		})
	}
}

// archive writes the result snapshot to the object store. Failures are
// logged; the database copy stays authoritative.
func (s *Service) archive(ctx context.Context, a Assessment, stored StoredResult) {
	if s.Store == nil {
		return
	}
	key, err := object.SnapshotKey(a.TerritoryID, a.ID, stored.Generation)
	if err == nil {
		var payload []byte
		payload, err = json.MarshalIndent(stored, "", "  ")
		if err == nil {
			_, err = s.Store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(payload))
		}
	}
	if err != nil {
		telemetry.Warn("assessment.archive_failed", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"assessment_id": a.ID,
			"generation":    stored.Generation,
			"error":         err,
		})
	}
}

func (s *Service) fail(ctx context.Context, a Assessment, err error, startedAt time.Time) {
	msg := sanitizeError(err)
	if updateErr := s.Repo.MarkFailed(context.Background(), a.ID, msg); updateErr != nil {
		telemetry.Error("assessment.mark_failed", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"assessment_id": a.ID,
			"error":         updateErr,
			"cause":         msg,
		})
	}
	elapsed := time.Since(startedAt)
	metrics.IncComputationFailed()
	metrics.ObserveComputationDuration(elapsed)
	s.logStatus(ctx, a, StatusFailed, "calculating->failed", map[string]any{
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
		"error":       msg,
	})
}

func (s *Service) logStatus(ctx context.Context, a Assessment, status, transition string, extra map[string]any) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"assessment_id":     a.ID,
		"territory_id":      a.TerritoryID,
		"cycle_number":      a.CycleNumber,
		"status":            status,
		"status_transition": transition,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if status == StatusFailed {
		telemetry.Error("assessment.status", fields)
		return
	}
	telemetry.Info("assessment.status", fields)
}

// GetResult returns the latest computed result of an assessment.
func (s *Service) GetResult(ctx context.Context, assessmentID string) (Assessment, StoredResult, error) {
	a, err := s.Repo.GetByID(ctx, assessmentID)
	if err != nil {
		return Assessment{}, StoredResult{}, err
	}
	res, err := s.Repo.GetResult(ctx, assessmentID)
	if errors.Is(err, ErrNotFound) {
		return a, StoredResult{}, ErrResultNotReady
	}
	if err != nil {
		return a, StoredResult{}, err
	}
	return a, res, nil
}

// ListAlerts returns a territory's regression alerts.
func (s *Service) ListAlerts(ctx context.Context, territoryID string) ([]evolution.RegressionAlert, error) {
	if territoryID == "" {
		return nil, errors.New("territoryID is required")
	}
	return s.Repo.ListAlerts(ctx, territoryID)
}

// MarkAlertRead flags an alert as read.
func (s *Service) MarkAlertRead(ctx context.Context, alertID string) (evolution.RegressionAlert, error) {
	return s.Repo.UpdateAlert(ctx, alertID, true, false)
}

// DismissAlert dismisses an alert. A dismissed alert is also read.
func (s *Service) DismissAlert(ctx context.Context, alertID string) (evolution.RegressionAlert, error) {
	return s.Repo.UpdateAlert(ctx, alertID, true, true)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
