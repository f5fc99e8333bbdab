package scoring

import "igma-backend/internal/catalog"

// Aggregate computes the weighted mean of the scores belonging to pillar.
// It returns ok=false when no indicator was scored or the weight sum is zero,
// which callers must treat as unknown rather than as a zero score.
func Aggregate(assessmentID string, pillar catalog.Pillar, scores []IndicatorScore) (PillarScore, bool) {
	var weighted, weights float64
	count := 0
	for _, s := range scores {
		if s.Pillar != pillar {
			continue
		}
		weighted += s.Score * s.WeightUsed
		weights += s.WeightUsed
		count++
	}
	if count == 0 || weights <= 0 {
		return PillarScore{}, false
	}
	score := clamp01(weighted / weights)
	return PillarScore{
		AssessmentID: assessmentID,
		Pillar:       pillar,
		Score:        score,
		Severity:     Classify(score),
		Indicators:   count,
	}, true
}

// AggregateAll aggregates every pillar and reports the ones left undefined.
func AggregateAll(assessmentID string, scores []IndicatorScore) ([]PillarScore, []catalog.Pillar) {
	var out []PillarScore
	var undefined []catalog.Pillar
	for _, p := range catalog.Pillars {
		ps, ok := Aggregate(assessmentID, p, scores)
		if !ok {
			undefined = append(undefined, p)
			continue
		}
		out = append(out, ps)
	}
	return out, undefined
}
