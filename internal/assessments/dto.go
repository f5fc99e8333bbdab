package assessments

import (
	"fmt"
	"strings"
	"time"

	"igma-backend/internal/scoring"
)

type createAssessmentRequest struct {
	CycleNumber int `json:"cycleNumber"`
}

type valueRequest struct {
	IndicatorCode string   `json:"indicatorCode"`
	ValueRaw      *float64 `json:"valueRaw"`
	ValueText     string   `json:"valueText"`
	Source        string   `json:"source"`
	ReferenceDate string   `json:"referenceDate"`
}

type putValuesRequest struct {
	Values []valueRequest `json:"values"`
}

func (r putValuesRequest) toValues() ([]scoring.IndicatorValue, error) {
	verr := &ValidationError{}
	out := make([]scoring.IndicatorValue, 0, len(r.Values))
	for i, v := range r.Values {
		value := scoring.IndicatorValue{
			IndicatorCode: v.IndicatorCode,
			ValueRaw:      v.ValueRaw,
			ValueText:     v.ValueText,
			Source:        v.Source,
		}
		if ref := strings.TrimSpace(v.ReferenceDate); ref != "" {
			d, err := parseReferenceDate(ref)
			if err != nil {
				verr.add(fmt.Sprintf("values[%d].referenceDate", i), "expected YYYY-MM-DD or RFC3339")
				continue
			}
			value.ReferenceDate = &d
		}
		out = append(out, value)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseReferenceDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return d.UTC(), nil
}

// AssessmentResponse is the outward-facing representation of an assessment.
type AssessmentResponse struct {
	Assessment
	Links map[string]string `json:"links"`
}

func toAssessmentResponse(a Assessment) AssessmentResponse {
	return AssessmentResponse{
		Assessment: a,
		Links: map[string]string{
			"self":   "/api/v1/assessments/" + a.ID,
			"values": "/api/v1/assessments/" + a.ID + "/values",
			"result": "/api/v1/assessments/" + a.ID + "/result",
		},
	}
}
