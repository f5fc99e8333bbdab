package catalog

import (
	"errors"
	"math"
	"strings"
)

// Validate checks a single indicator definition and returns the first
// inconsistency found as a *ConfigurationError.
func Validate(ind Indicator) error {
	fail := func(field, reason string) error {
		return &ConfigurationError{Code: ind.Code, Field: field, Reason: reason}
	}
	if strings.TrimSpace(ind.Code) == "" {
		return fail("code", "code is required")
	}
	if !ind.Pillar.Valid() {
		return fail("pillar", "unknown pillar "+string(ind.Pillar))
	}
	if ind.Direction != HighIsBetter && ind.Direction != LowIsBetter {
		return fail("direction", "unknown direction "+string(ind.Direction))
	}
	if math.IsNaN(ind.Weight) || math.IsInf(ind.Weight, 0) || ind.Weight < 0 {
		return fail("weight", "weight must be a non-negative number")
	}
	if ind.Interpretation != "" && !ind.Interpretation.Valid() {
		return fail("interpretation", "unknown interpretation "+string(ind.Interpretation))
	}
	if !finite(ind.MinRef) {
		return fail("min_ref", "min_ref must be a finite number")
	}
	if !finite(ind.MaxRef) {
		return fail("max_ref", "max_ref must be a finite number")
	}
	switch ind.Normalization {
	case MinMax:
		if ind.MaxRef == ind.MinRef {
			return fail("max_ref", "min_ref equals max_ref; min-max normalization undefined")
		}
	case Bands:
		if ind.MaxRef <= ind.MinRef {
			return fail("max_ref", "max_ref must be greater than min_ref for band normalization")
		}
	case Binary:
	default:
		return fail("normalization", "unknown normalization "+string(ind.Normalization))
	}
	return nil
}

// ValidateAll validates every indicator and reports duplicate codes.
func ValidateAll(indicators []Indicator) []ConfigurationError {
	var out []ConfigurationError
	seen := make(map[string]bool, len(indicators))
	for _, ind := range indicators {
		if err := Validate(ind); err != nil {
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				cfgErr = &ConfigurationError{Code: ind.Code, Reason: err.Error()}
			}
			out = append(out, *cfgErr)
			continue
		}
		if seen[NormalizeCode(ind.Code)] {
			out = append(out, ConfigurationError{Code: ind.Code, Field: "code", Reason: "duplicate indicator code"})
			continue
		}
		seen[NormalizeCode(ind.Code)] = true
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
