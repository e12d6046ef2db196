package jobscript

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a JobSpec field that is missing or fails
// validation. Rendering surfaces it before any output is produced.
type ConfigurationError struct {
	Field  string // directive key or logical field name
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid job configuration: %s: %s", e.Field, e.Reason)
}

// Is allows errors.Is to match any ConfigurationError
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func newConfigErr(field string, format string, a ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// ErrNoDirectives indicates a script contained no scheduler directives
var ErrNoDirectives = errors.New("no scheduler directives found in script")
