// Package engine runs one pure diagnostic computation pass: normalization,
// pillar aggregation, issue detection, governance rules, prescriptions and
// evolution tracking. It performs no I/O.
package engine

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"igma-backend/internal/catalog"
	"igma-backend/internal/evolution"
	"igma-backend/internal/governance"
	"igma-backend/internal/issues"
	"igma-backend/internal/prescriptions"
	"igma-backend/internal/scoring"
)

// PriorCycle is the immediately preceding assessment of the same territory.
type PriorCycle struct {
	AssessmentID  string                       `json:"assessmentId"`
	CycleNumber   int                          `json:"cycleNumber"`
	PillarScores  []scoring.PillarScore        `json:"pillarScores"`
	Prescriptions []prescriptions.Prescription `json:"prescriptions"`
}

// Input is everything one computation depends on.
type Input struct {
	AssessmentID string
	TerritoryID  string
	CycleNumber  int
	Catalog      catalog.Catalog
	Values       []scoring.IndicatorValue
	Previous     *PriorCycle
	Alerts       []evolution.RegressionAlert
	Now          time.Time
}

// Result is the plain-data output of a computation pass.
type Result struct {
	AssessmentID    string                       `json:"assessmentId"`
	TerritoryID     string                       `json:"territoryId"`
	CycleNumber     int                          `json:"cycleNumber"`
	IndicatorScores []scoring.IndicatorScore     `json:"indicatorScores"`
	PillarScores    []scoring.PillarScore        `json:"pillarScores"`
	Issues          []issues.Issue               `json:"issues"`
	Flags           governance.RuleFlags         `json:"ruleFlags"`
	Prescriptions   []prescriptions.Prescription `json:"prescriptions"`
	Evolution       []evolution.Record           `json:"evolution"`
	Alerts          []evolution.RegressionAlert  `json:"alerts"`
	Diagnostics     scoring.Diagnostics          `json:"diagnostics"`
	ComputedAt      time.Time                    `json:"computedAt"`
}

// Prior converts a stored result into the prior-cycle view used by the next cycle.
func (r Result) Prior() *PriorCycle {
	return &PriorCycle{
		AssessmentID:  r.AssessmentID,
		CycleNumber:   r.CycleNumber,
		PillarScores:  r.PillarScores,
		Prescriptions: r.Prescriptions,
	}
}

// Engine holds computation settings. The zero value is usable.
type Engine struct {
	// Concurrency bounds parallel indicator normalization; <= 0 uses GOMAXPROCS.
	Concurrency int
	// Epsilon is the evolution deadband; <= 0 uses evolution.DefaultEpsilon.
	Epsilon float64
	// Policy drives prescription generation; zero uses the default policy.
	Policy prescriptions.Policy
}

// Compute runs a full computation pass. It is deterministic for a given input.
func (e Engine) Compute(in Input) Result {
	res := Result{
		AssessmentID: in.AssessmentID,
		TerritoryID:  in.TerritoryID,
		CycleNumber:  in.CycleNumber,
		ComputedAt:   in.Now,
	}

	res.IndicatorScores, res.Diagnostics = e.scoreIndicators(in)
	var undefined []catalog.Pillar
	res.PillarScores, undefined = scoring.AggregateAll(in.AssessmentID, res.IndicatorScores)
	res.Diagnostics.UndefinedPillars = undefined
	current := scoring.NewPillarSet(res.PillarScores)

	var previous scoring.PillarSet
	if in.Previous != nil {
		previous = scoring.NewPillarSet(in.Previous.PillarScores)
	}
	tracker := evolution.Tracker{Epsilon: e.Epsilon}

	var g errgroup.Group
	g.Go(func() error {
		res.Issues = issues.Detector{Catalog: in.Catalog}.Detect(current, res.IndicatorScores)
		return nil
	})
	var pillarRecords []evolution.Record
	g.Go(func() error {
		pillarRecords, res.Alerts = tracker.TrackCycle(evolution.CycleInput{
			TerritoryID:  in.TerritoryID,
			AssessmentID: in.AssessmentID,
			Current:      pillarSamples(res.PillarScores),
			Previous:     previousPillarSamples(in.Previous),
			Alerts:       in.Alerts,
		})
		return nil
	})
	_ = g.Wait()

	res.Flags = governance.Evaluate(governance.Input{
		Current:  current,
		Previous: previous,
		Issues:   res.Issues,
		Now:      in.Now,
	})
	res.Prescriptions = prescriptions.Generator{Policy: e.Policy}.Generate(res.Issues, res.Flags, current, in.CycleNumber)

	rxRecords, _ := tracker.TrackCycle(evolution.CycleInput{
		TerritoryID:  in.TerritoryID,
		AssessmentID: in.AssessmentID,
		Current:      prescriptionSamples(res.Prescriptions),
		Previous:     previousPrescriptionSamples(in.Previous),
	})
	res.Evolution = append(pillarRecords, rxRecords...)
	return res
}

type slot struct {
	score   scoring.IndicatorScore
	outcome scoring.Outcome
	err     error
}

// scoreIndicators normalizes every catalog indicator concurrently. Each
// goroutine writes only its own slot.
func (e Engine) scoreIndicators(in Input) ([]scoring.IndicatorScore, scoring.Diagnostics) {
	indicators := in.Catalog.Indicators()
	values := scoring.IndexValues(in.Values)
	slots := make([]slot, len(indicators))

	limit := e.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, ind := range indicators {
		g.Go(func() error {
			score, outcome, err := scoring.ScoreIndicator(in.AssessmentID, ind, values[ind.Code])
			slots[i] = slot{score: score, outcome: outcome, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var diag scoring.Diagnostics
	scores := make([]scoring.IndicatorScore, 0, len(indicators))
	for i, s := range slots {
		if s.outcome == scoring.OutcomeScored {
			scores = append(scores, s.score)
			continue
		}
		diag.Record(indicators[i].Code, s.outcome, s.err)
	}
	for _, code := range in.Catalog.Duplicates() {
		diag.ConfigurationErrors = append(diag.ConfigurationErrors, catalog.ConfigurationError{
			Code:   code,
			Field:  "code",
			Reason: "duplicate indicator code; the last definition is used",
		})
	}
	for code := range values {
		if _, ok := in.Catalog.Get(code); !ok {
			diag.UnknownIndicators = append(diag.UnknownIndicators, code)
		}
	}
	scoring.SortScores(scores)
	diag.Sort()
	return scores, diag
}

func pillarSamples(scores []scoring.PillarScore) []evolution.Sample {
	out := make([]evolution.Sample, 0, len(scores))
	for _, ps := range scores {
		out = append(out, evolution.Sample{
			Kind:   evolution.SubjectPillar,
			Key:    string(ps.Pillar),
			Pillar: ps.Pillar,
			Score:  ps.Score,
		})
	}
	return out
}

func previousPillarSamples(prev *PriorCycle) []evolution.Sample {
	if prev == nil {
		return nil
	}
	return pillarSamples(prev.PillarScores)
}

func prescriptionSamples(items []prescriptions.Prescription) []evolution.Sample {
	out := make([]evolution.Sample, 0, len(items))
	for _, rx := range items {
		out = append(out, evolution.Sample{
			Kind:   evolution.SubjectPrescription,
			Key:    rx.Key,
			Pillar: rx.Pillar,
			Score:  rx.Score,
		})
	}
	return out
}

func previousPrescriptionSamples(prev *PriorCycle) []evolution.Sample {
	if prev == nil {
		return nil
	}
	return prescriptionSamples(prev.Prescriptions)
}
