package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyCatalog = errors.New("catalog has no indicators")
)

// ConfigurationError reports an inconsistent indicator definition.
// Computation for the affected indicator is skipped, never defaulted.
type ConfigurationError struct {
	Code   string `json:"indicatorCode"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("indicator %s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("indicator %s: %s: %s", e.Code, e.Field, e.Reason)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
