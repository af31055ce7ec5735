package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrUnknownParam       = errors.New("unknown parameter")
	ErrInvalidValue       = errors.New("invalid parameter value")
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrBackendUnavailable = errors.New("audio backend unavailable")
	ErrUnknownKey         = errors.New("unknown key code")
)

// ParamError reports a rejected parameter change
type ParamError struct {
	Path  string
	Value any
	Cause error
}

func (e *ParamError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("param %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("param %s = %v: %v", e.Path, e.Value, e.Cause)
}

func (e *ParamError) Unwrap() error {
	return e.Cause
}

// NewParamError creates a ParamError
func NewParamError(path string, value any, cause error) *ParamError {
	return &ParamError{
		Path:  path,
		Value: value,
		Cause: cause,
	}
}

// BackendError wraps a failure opening or driving an audio backend
type BackendError struct {
	Backend string // "ebiten", "oto"
	Op      string // "open", "play", "close"
	Cause   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend failed to %s: %v", e.Backend, e.Op, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is matches ErrBackendUnavailable so callers can test the category.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}
