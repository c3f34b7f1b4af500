package config

import (
	"errors"
	"fmt"
)

// Common errors returned by config operations.
var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnknownFilter     = errors.New("unknown filter")
	ErrMissingID         = errors.New("shortcut id is required")
	ErrMissingKeys       = errors.New("shortcut keys are required")
)

// ParseError describes a config file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResolveError describes a declaration naming an action or filter the
// resolver does not provide.
type ResolveError struct {
	ShortcutID string
	Name       string
	Err        error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("shortcut %s: %s %q not provided", e.ShortcutID, kindOf(e.Err), e.Name)
}

// Unwrap returns ErrUnknownAction or ErrUnknownFilter.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

func kindOf(err error) string {
	if errors.Is(err, ErrUnknownFilter) {
		return "filter"
	}
	return "action"
}
