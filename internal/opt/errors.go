package opt

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned (wrapped in a *ConfigError) for any invalid
// optimizer configuration or search domain.
// Use errors.Is(err, ErrInvalidConfig) to check for this error.
var ErrInvalidConfig = &ConfigError{}

// ErrNonFinite is returned (wrapped in a *NonFiniteError) when the objective
// produces NaN or an infinite value.
var ErrNonFinite = &NonFiniteError{}

// ErrStop may be returned by an Observer to end a run early without error.
var ErrStop = errors.New("optimization stopped by observer")

// ConfigError reports an invalid configuration value. It is always raised
// before the first iteration of a search.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration"
	}
	return "invalid configuration: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NonFiniteError reports an objective evaluation that returned NaN or ±Inf.
// No strategy has a policy for optimizing over such values, so it is fatal.
type NonFiniteError struct {
	Position []float64
	Value    float64
}

func (e *NonFiniteError) Error() string {
	if e.Position == nil {
		return "objective returned a non-finite value"
	}
	return fmt.Sprintf("objective returned %v at %v", e.Value, e.Position)
}

func (e *NonFiniteError) Is(target error) bool {
	_, ok := target.(*NonFiniteError)
	return ok
}
