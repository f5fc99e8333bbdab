package issues

import (
	"igma-backend/internal/catalog"
	"igma-backend/internal/scoring"
)

// Evidence is one underperforming indicator contributing to an issue.
type Evidence struct {
	IndicatorCode string  `json:"indicatorCode"`
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
}

// Issue is a detected problem: the underperforming indicators of one theme
// within one pillar.
type Issue struct {
	ID             string                  `json:"id"`
	Key            string                  `json:"key"`
	AssessmentID   string                  `json:"assessmentId"`
	Pillar         catalog.Pillar          `json:"pillar"`
	Theme          string                  `json:"theme"`
	Severity       scoring.Severity        `json:"severity"`
	PillarSeverity scoring.Severity        `json:"pillarSeverity,omitempty"`
	Interpretation *catalog.Interpretation `json:"interpretation"`
	Title          string                  `json:"title"`
	Score          float64                 `json:"score"`
	Evidence       []Evidence              `json:"evidence"`
	Sectors        []string                `json:"sectors,omitempty"`
}

// Intersectoral reports whether the issue depends on non-tourism sectors.
func (i Issue) Intersectoral() bool {
	return len(i.Sectors) > 0
}
