package scoring

import (
	"errors"
	"sort"

	"igma-backend/internal/catalog"
)

// Outcome describes what happened when scoring one indicator.
type Outcome string

const (
	OutcomeScored        Outcome = "scored"
	OutcomeNotMeasured   Outcome = "not_measured"
	OutcomeNonNumeric    Outcome = "non_numeric"
	OutcomeConfiguration Outcome = "configuration_error"
)

// Diagnostics collects the soft and configuration errors of a scoring pass.
type Diagnostics struct {
	NotMeasured         []string                     `json:"notMeasured"`
	NonNumeric          []string                     `json:"nonNumeric"`
	UnknownIndicators   []string                     `json:"unknownIndicators"`
	ConfigurationErrors []catalog.ConfigurationError `json:"configurationErrors"`
	UndefinedPillars    []catalog.Pillar             `json:"undefinedPillars"`
}

// ScoreIndicator normalizes the value of a single indicator. value may be nil
// when the assessment has no measurement for the indicator.
func ScoreIndicator(assessmentID string, ind catalog.Indicator, value *IndicatorValue) (IndicatorScore, Outcome, error) {
	if err := catalog.Validate(ind); err != nil {
		return IndicatorScore{}, OutcomeConfiguration, err
	}
	if value == nil {
		return IndicatorScore{}, OutcomeNotMeasured, nil
	}
	if value.ValueRaw == nil {
		if value.ValueText != "" {
			return IndicatorScore{}, OutcomeNonNumeric, nil
		}
		return IndicatorScore{}, OutcomeNotMeasured, nil
	}
	score, err := Normalize(ind, value.ValueRaw)
	if err != nil {
		return IndicatorScore{}, OutcomeConfiguration, err
	}
	if score == nil {
		return IndicatorScore{}, OutcomeNonNumeric, nil
	}
	return IndicatorScore{
		IndicatorCode: ind.Code,
		AssessmentID:  assessmentID,
		Pillar:        ind.Pillar,
		Score:         *score,
		WeightUsed:    ind.Weight,
		MinRefUsed:    ind.MinRef,
		MaxRefUsed:    ind.MaxRef,
	}, OutcomeScored, nil
}

// IndexValues maps values by normalized indicator code. When a code repeats,
// the value with the latest reference date wins, then the later entry.
func IndexValues(values []IndicatorValue) map[string]*IndicatorValue {
	out := make(map[string]*IndicatorValue, len(values))
	for i := range values {
		v := &values[i]
		code := catalog.NormalizeCode(v.IndicatorCode)
		if prev, ok := out[code]; ok && newer(prev, v) {
			continue
		}
		out[code] = v
	}
	return out
}

func newer(a, b *IndicatorValue) bool {
	if a.ReferenceDate == nil || b.ReferenceDate == nil {
		return false
	}
	return a.ReferenceDate.After(*b.ReferenceDate)
}

// Record files the outcome of one indicator into the diagnostics.
func (d *Diagnostics) Record(code string, outcome Outcome, err error) {
	switch outcome {
	case OutcomeNotMeasured:
		d.NotMeasured = append(d.NotMeasured, code)
	case OutcomeNonNumeric:
		d.NonNumeric = append(d.NonNumeric, code)
	case OutcomeConfiguration:
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			d.ConfigurationErrors = append(d.ConfigurationErrors, *cfgErr)
			return
		}
		d.ConfigurationErrors = append(d.ConfigurationErrors, catalog.ConfigurationError{Code: code, Reason: err.Error()})
	}
}

// Sort orders every list so diagnostics are deterministic.
func (d *Diagnostics) Sort() {
	sort.Strings(d.NotMeasured)
	sort.Strings(d.NonNumeric)
	sort.Strings(d.UnknownIndicators)
	sort.Slice(d.ConfigurationErrors, func(i, j int) bool {
		return d.ConfigurationErrors[i].Code < d.ConfigurationErrors[j].Code
	})
}

// SortScores orders indicator scores by code.
func SortScores(scores []IndicatorScore) {
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].IndicatorCode < scores[j].IndicatorCode
	})
}
