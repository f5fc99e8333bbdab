package evolution

import (
	"testing"

	"igma-backend/internal/catalog"
)

func pillarSample(p catalog.Pillar, score float64) Sample {
	return Sample{Kind: SubjectPillar, Key: string(p), Pillar: p, Score: score}
}

func TestTrackDeadband(t *testing.T) {
	cases := []struct {
		name    string
		prev    float64
		current float64
		want    State
	}{
		{name: "evolution", prev: 0.40, current: 0.50, want: Evolution},
		{name: "regression", prev: 0.50, current: 0.40, want: Regression},
		{name: "inside deadband", prev: 0.50, current: 0.51, want: Stagnation},
		{name: "delta equals epsilon", prev: 0.50, current: 0.52, want: Stagnation},
		{name: "negative delta equals epsilon", prev: 0.52, current: 0.50, want: Stagnation},
		{name: "just above epsilon", prev: 0.50, current: 0.5201, want: Evolution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev := pillarSample(catalog.PillarRA, tc.prev)
			rec := Track(pillarSample(catalog.PillarRA, tc.current), &prev, DefaultEpsilon)
			if rec.State != tc.want {
				t.Fatalf("expected %s, got %s (delta %v)", tc.want, rec.State, *rec.Delta)
			}
		})
	}
}

func TestTrackFirstCycleHasNoVerdict(t *testing.T) {
	rec := Track(pillarSample(catalog.PillarOE, 0.4), nil, DefaultEpsilon)
	if rec.HasVerdict() || rec.PreviousScore != nil || rec.Delta != nil {
		t.Fatalf("expected no verdict on first cycle, got %+v", rec)
	}
}

func runCycles(t *testing.T, scores ...float64) []RegressionAlert {
	t.Helper()
	tracker := Tracker{}
	var prev []Sample
	var alerts []RegressionAlert
	var history []RegressionAlert
	for i, s := range scores {
		cur := []Sample{pillarSample(catalog.PillarRA, s)}
		_, alerts = tracker.TrackCycle(CycleInput{
			TerritoryID:  "t-1",
			AssessmentID: string(rune('a' + i)),
			Current:      cur,
			Previous:     prev,
			Alerts:       alerts,
		})
		if len(alerts) != 1 {
			t.Fatalf("expected one pillar alert, got %d", len(alerts))
		}
		history = append(history, alerts[0])
		prev = cur
	}
	return history
}

func TestRegressionAlertRaisedAfterTwoCycles(t *testing.T) {
	history := runCycles(t, 0.60, 0.55, 0.48)

	first, second, third := history[0], history[1], history[2]
	if first.ConsecutiveCycles != 0 || first.Raised {
		t.Fatalf("first cycle must not count, got %+v", first)
	}
	if second.ConsecutiveCycles != 1 || second.Raised {
		t.Fatalf("one regression must not raise, got %+v", second)
	}
	if third.ConsecutiveCycles != 2 || !third.Raised || third.Level != AlertWarning {
		t.Fatalf("expected raised warning after two regressions, got %+v", third)
	}
	if third.ID != "t-1:RA" || third.LastAssessmentID != "c" {
		t.Fatalf("unexpected identity %+v", third)
	}
}

func TestRegressionAlertEscalatesAtThree(t *testing.T) {
	history := runCycles(t, 0.70, 0.60, 0.50, 0.40)
	last := history[len(history)-1]
	if last.ConsecutiveCycles != 3 || last.Level != AlertCritical {
		t.Fatalf("expected critical after three regressions, got %+v", last)
	}
}

func TestRegressionAlertResets(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
	}{
		{name: "stagnation", scores: []float64{0.70, 0.60, 0.50, 0.51}},
		{name: "evolution", scores: []float64{0.70, 0.60, 0.50, 0.70}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			history := runCycles(t, tc.scores...)
			if !history[2].Raised {
				t.Fatalf("expected raised alert before reset, got %+v", history[2])
			}
			last := history[len(history)-1]
			if last.ConsecutiveCycles != 0 || last.Raised || last.Level != "" {
				t.Fatalf("expected reset, got %+v", last)
			}
		})
	}
}

func TestAdvanceResurfacesOnEscalation(t *testing.T) {
	alert := RegressionAlert{ID: "t:RA", Pillar: catalog.PillarRA, ConsecutiveCycles: 2, Raised: true, Level: AlertWarning, IsRead: true, IsDismissed: true}
	delta := -0.1
	rec := Record{Kind: SubjectPillar, Key: "RA", Pillar: catalog.PillarRA, Delta: &delta, State: Regression}

	next := Advance(alert, rec, "a-9")
	if next.Level != AlertCritical || next.IsRead || next.IsDismissed {
		t.Fatalf("escalation must resurface the alert, got %+v", next)
	}

	again := next
	again.IsRead = true
	after := Advance(again, rec, "a-10")
	if !after.IsRead || after.ConsecutiveCycles != 4 {
		t.Fatalf("same level must keep read state, got %+v", after)
	}
}

func TestAdvanceWithoutVerdictKeepsCounter(t *testing.T) {
	alert := RegressionAlert{ConsecutiveCycles: 2, Raised: true, Level: AlertWarning}
	got := Advance(alert, Record{Kind: SubjectPillar, Key: "RA"}, "a-2")
	if got != alert {
		t.Fatalf("expected untouched alert, got %+v", got)
	}
}

func TestTrackCycleOrdersPillarsFirst(t *testing.T) {
	records, _ := Tracker{}.TrackCycle(CycleInput{
		TerritoryID: "t",
		Current: []Sample{
			{Kind: SubjectPrescription, Key: "AO_x", Pillar: catalog.PillarAO, Score: 0.2},
			pillarSample(catalog.PillarOE, 0.5),
			pillarSample(catalog.PillarAO, 0.4),
		},
	})
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Key != "AO" || records[1].Key != "OE" || records[2].Kind != SubjectPrescription {
		t.Fatalf("unexpected order %+v", records)
	}
}
