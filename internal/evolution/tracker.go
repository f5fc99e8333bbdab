package evolution

import (
	"math"
	"sort"

	"igma-backend/internal/catalog"
)

// Track compares current against previous. previous nil means first cycle.
func Track(current Sample, previous *Sample, eps float64) Record {
	rec := Record{
		Kind:         current.Kind,
		Key:          current.Key,
		Pillar:       current.Pillar,
		CurrentScore: current.Score,
	}
	if previous == nil {
		return rec
	}
	prev := previous.Score
	delta := round6(current.Score - prev)
	rec.PreviousScore = &prev
	rec.Delta = &delta
	rec.State = classify(delta, eps)
	return rec
}

func classify(delta, eps float64) State {
	switch {
	case delta > eps:
		return Evolution
	case delta < -eps:
		return Regression
	default:
		return Stagnation
	}
}

// round6 drops float noise so a delta equal to the deadband stays inside it.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Advance updates an alert counter with a new verdict. Records without a
// verdict leave the counter untouched.
func Advance(alert RegressionAlert, rec Record, assessmentID string) RegressionAlert {
	if !rec.HasVerdict() {
		return alert
	}
	next := alert
	next.LastAssessmentID = assessmentID
	if rec.State != Regression {
		next.ConsecutiveCycles = 0
		next.Raised = false
		next.Level = ""
		return next
	}

	next.ConsecutiveCycles = alert.ConsecutiveCycles + 1
	if next.ConsecutiveCycles < AlertRaiseAt {
		return next
	}
	level := AlertWarning
	if next.ConsecutiveCycles >= AlertEscalateAt {
		level = AlertCritical
	}
	if !alert.Raised || alert.Level != level {
		// newly raised or escalated: surface it again
		next.IsRead = false
		next.IsDismissed = false
	}
	next.Raised = true
	next.Level = level
	return next
}

// Tracker compares a cycle against the previous one for the same territory.
type Tracker struct {
	Epsilon float64
}

// CycleInput is the data the tracker needs for one cycle. Previous samples
// are empty on a territory's first cycle.
type CycleInput struct {
	TerritoryID  string
	AssessmentID string
	Current      []Sample
	Previous     []Sample
	Alerts       []RegressionAlert
}

// TrackCycle produces evolution records for every current sample and the
// updated regression counters for pillar subjects.
func (t Tracker) TrackCycle(in CycleInput) ([]Record, []RegressionAlert) {
	eps := t.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	prevByKey := make(map[string]Sample, len(in.Previous))
	for _, s := range in.Previous {
		prevByKey[sampleKey(s)] = s
	}

	records := make([]Record, 0, len(in.Current))
	for _, cur := range in.Current {
		var prev *Sample
		if p, ok := prevByKey[sampleKey(cur)]; ok {
			prev = &p
		}
		records = append(records, Track(cur, prev, eps))
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind == SubjectPillar
		}
		return records[i].Key < records[j].Key
	})

	alertsByPillar := make(map[catalog.Pillar]RegressionAlert, len(in.Alerts))
	for _, a := range in.Alerts {
		alertsByPillar[a.Pillar] = a
	}
	for _, rec := range records {
		if rec.Kind != SubjectPillar {
			continue
		}
		alert, ok := alertsByPillar[rec.Pillar]
		if !ok {
			alert = RegressionAlert{
				ID:          AlertID(in.TerritoryID, rec.Pillar),
				TerritoryID: in.TerritoryID,
				Pillar:      rec.Pillar,
			}
		}
		alertsByPillar[rec.Pillar] = Advance(alert, rec, in.AssessmentID)
	}

	alerts := make([]RegressionAlert, 0, len(alertsByPillar))
	for _, p := range catalog.Pillars {
		if a, ok := alertsByPillar[p]; ok {
			alerts = append(alerts, a)
		}
	}
	return records, alerts
}

func sampleKey(s Sample) string {
	return string(s.Kind) + "|" + s.Key
}
