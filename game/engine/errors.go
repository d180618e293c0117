package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a pair count, pool or other
// configuration value cannot produce a playable deck.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError describes which configuration field was rejected.
// It unwraps to ErrInvalidConfiguration.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config validation: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	return msg + ": " + e.Message
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

func configErrorf(field string, value interface{}, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}
