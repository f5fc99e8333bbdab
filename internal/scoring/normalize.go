package scoring

import (
	"math"

	"igma-backend/internal/catalog"
)

// Fixed scores returned by band normalization, worst band first.
var bandScores = [3]float64{0.17, 0.50, 0.83}

// Normalize converts a raw value into a score in [0,1] using the indicator's
// declared strategy. A nil or non-finite raw value yields a nil score.
func Normalize(ind catalog.Indicator, raw *float64) (*float64, error) {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return nil, nil
	}
	value := *raw

	if ind.Normalization != catalog.Binary && !(finite(ind.MinRef) && finite(ind.MaxRef)) {
		return nil, &catalog.ConfigurationError{Code: ind.Code, Field: "min_ref", Reason: "reference bounds must be finite numbers"}
	}

	var score float64
	switch ind.Normalization {
	case catalog.MinMax:
		span := ind.MaxRef - ind.MinRef
		if span == 0 {
			return nil, &catalog.ConfigurationError{Code: ind.Code, Field: "max_ref", Reason: "min_ref equals max_ref; min-max normalization undefined"}
		}
		if ind.Direction == catalog.LowIsBetter {
			score = (ind.MaxRef - value) / span
		} else {
			score = (value - ind.MinRef) / span
		}
	case catalog.Bands:
		if ind.MaxRef <= ind.MinRef {
			return nil, &catalog.ConfigurationError{Code: ind.Code, Field: "max_ref", Reason: "max_ref must be greater than min_ref for band normalization"}
		}
		band := bandIndex(value, ind.MinRef, ind.MaxRef)
		if ind.Direction == catalog.LowIsBetter {
			band = len(bandScores) - 1 - band
		}
		score = bandScores[band]
	case catalog.Binary:
		if value > 0 {
			score = 1
		}
	default:
		return nil, &catalog.ConfigurationError{Code: ind.Code, Field: "normalization", Reason: "unknown normalization " + string(ind.Normalization)}
	}

	if !finite(score) {
		return nil, &catalog.ConfigurationError{Code: ind.Code, Reason: "normalization produced a non-finite score"}
	}
	score = clamp01(score)
	return &score, nil
}

// bandIndex returns 0, 1 or 2 for the third of [min,max] containing value.
// Values outside the range fall into the nearest band.
func bandIndex(value, min, max float64) int {
	third := (max - min) / 3
	switch {
	case value < min+third:
		return 0
	case value < min+2*third:
		return 1
	default:
		return 2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
