package scoring

import (
	"time"

	"igma-backend/internal/catalog"
)

// IndicatorValue is one raw measurement produced by the ingestion side.
type IndicatorValue struct {
	IndicatorCode string     `json:"indicatorCode" yaml:"indicator_code"`
	AssessmentID  string     `json:"assessmentId" yaml:"assessment_id"`
	ValueRaw      *float64   `json:"valueRaw,omitempty" yaml:"value_raw,omitempty"`
	ValueText     string     `json:"valueText,omitempty" yaml:"value_text,omitempty"`
	Source        string     `json:"source,omitempty" yaml:"source,omitempty"`
	ReferenceDate *time.Time `json:"referenceDate,omitempty" yaml:"reference_date,omitempty"`
}

// IndicatorScore is the normalized score of one indicator.
type IndicatorScore struct {
	IndicatorCode string         `json:"indicatorCode"`
	AssessmentID  string         `json:"assessmentId"`
	Pillar        catalog.Pillar `json:"pillar"`
	Score         float64        `json:"score"`
	WeightUsed    float64        `json:"weightUsed"`
	MinRefUsed    float64        `json:"minRefUsed"`
	MaxRefUsed    float64        `json:"maxRefUsed"`
}

// PillarScore is the aggregated score of one pillar.
type PillarScore struct {
	AssessmentID string         `json:"assessmentId"`
	Pillar       catalog.Pillar `json:"pillar"`
	Score        float64        `json:"score"`
	Severity     Severity       `json:"severity"`
	Indicators   int            `json:"indicators"`
}

// PillarSet indexes pillar scores. An absent pillar is unknown, not critical.
type PillarSet map[catalog.Pillar]PillarScore

// NewPillarSet indexes scores by pillar.
func NewPillarSet(scores []PillarScore) PillarSet {
	set := make(PillarSet, len(scores))
	for _, s := range scores {
		set[s.Pillar] = s
	}
	return set
}

// Get returns the score for p and whether it is defined.
func (s PillarSet) Get(p catalog.Pillar) (PillarScore, bool) {
	ps, ok := s[p]
	return ps, ok
}

// Sorted returns the defined pillar scores in canonical pillar order.
func (s PillarSet) Sorted() []PillarScore {
	out := make([]PillarScore, 0, len(s))
	for _, p := range catalog.Pillars {
		if ps, ok := s[p]; ok {
			out = append(out, ps)
		}
	}
	return out
}
