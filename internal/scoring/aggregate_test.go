package scoring

import (
	"math"
	"testing"

	"igma-backend/internal/catalog"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{score: 1, want: Bom},
		{score: 0.67, want: Bom},
		{score: 0.669999, want: Moderado},
		{score: 0.34, want: Moderado},
		{score: 0.339999, want: Critico},
		{score: 0, want: Critico},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%v): expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestAggregateWeightedMean(t *testing.T) {
	scores := []IndicatorScore{
		{IndicatorCode: "A", Pillar: catalog.PillarRA, Score: 1.0, WeightUsed: 2},
		{IndicatorCode: "B", Pillar: catalog.PillarRA, Score: 0.0, WeightUsed: 1},
		{IndicatorCode: "C", Pillar: catalog.PillarOE, Score: 0.2, WeightUsed: 5},
	}
	ps, ok := Aggregate("a-1", catalog.PillarRA, scores)
	if !ok {
		t.Fatalf("expected pillar score")
	}
	if math.Abs(ps.Score-0.667) > 0.001 {
		t.Fatalf("expected ~0.667, got %v", ps.Score)
	}
	if ps.Indicators != 2 {
		t.Fatalf("expected 2 indicators, got %d", ps.Indicators)
	}
	if ps.Severity != Moderado {
		t.Fatalf("expected MODERADO for %v, got %s", ps.Score, ps.Severity)
	}
}

func TestAggregateUndefined(t *testing.T) {
	if _, ok := Aggregate("a-1", catalog.PillarAO, nil); ok {
		t.Fatalf("expected undefined pillar without scores")
	}
	zero := []IndicatorScore{{IndicatorCode: "A", Pillar: catalog.PillarAO, Score: 0.9, WeightUsed: 0}}
	if _, ok := Aggregate("a-1", catalog.PillarAO, zero); ok {
		t.Fatalf("expected undefined pillar with zero weight sum")
	}

	scores, undefined := AggregateAll("a-1", []IndicatorScore{{IndicatorCode: "A", Pillar: catalog.PillarRA, Score: 0, WeightUsed: 1}})
	if len(scores) != 1 || scores[0].Score != 0 || scores[0].Severity != Critico {
		t.Fatalf("expected a genuine zero RA score, got %+v", scores)
	}
	if len(undefined) != 2 || undefined[0] != catalog.PillarOE || undefined[1] != catalog.PillarAO {
		t.Fatalf("expected OE and AO undefined, got %v", undefined)
	}
}

func TestScoreIndicatorMissingDataIsExcluded(t *testing.T) {
	measured := catalog.Indicator{Code: "M", Pillar: catalog.PillarRA, Direction: catalog.HighIsBetter, Normalization: catalog.Binary, Weight: 1}
	missing := catalog.Indicator{Code: "X", Pillar: catalog.PillarRA, Direction: catalog.HighIsBetter, Normalization: catalog.Binary, Weight: 3}

	score, outcome, err := ScoreIndicator("a-1", measured, &IndicatorValue{IndicatorCode: "M", ValueRaw: ptr(1)})
	if err != nil || outcome != OutcomeScored {
		t.Fatalf("expected scored, got %s %v", outcome, err)
	}
	_, outcome, err = ScoreIndicator("a-1", missing, nil)
	if err != nil || outcome != OutcomeNotMeasured {
		t.Fatalf("expected not measured, got %s %v", outcome, err)
	}
	_, outcome, _ = ScoreIndicator("a-1", missing, &IndicatorValue{IndicatorCode: "X", ValueText: "sim"})
	if outcome != OutcomeNonNumeric {
		t.Fatalf("expected non numeric, got %s", outcome)
	}

	ps, ok := Aggregate("a-1", catalog.PillarRA, []IndicatorScore{score})
	if !ok || ps.Score != 1 {
		t.Fatalf("missing indicator must not dilute the mean, got %+v", ps)
	}
}

func TestScoreIndicatorNegativeWeight(t *testing.T) {
	ind := catalog.Indicator{Code: "N", Pillar: catalog.PillarRA, Direction: catalog.HighIsBetter, Normalization: catalog.Binary, Weight: -1}
	_, outcome, err := ScoreIndicator("a-1", ind, &IndicatorValue{IndicatorCode: "N", ValueRaw: ptr(1)})
	if outcome != OutcomeConfiguration || !catalog.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %s %v", outcome, err)
	}
	var diag Diagnostics
	diag.Record("N", outcome, err)
	if len(diag.ConfigurationErrors) != 1 || diag.ConfigurationErrors[0].Field != "weight" {
		t.Fatalf("expected weight configuration error, got %+v", diag.ConfigurationErrors)
	}
}
