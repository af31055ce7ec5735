package websynth

import interrors "github.com/cbegin/websynth-go/internal/errors"

// Errors returned by the engine, for use with errors.Is and errors.As.
var (
	ErrUnknownParam       = interrors.ErrUnknownParam
	ErrInvalidValue       = interrors.ErrInvalidValue
	ErrNotInitialized     = interrors.ErrNotInitialized
	ErrBackendUnavailable = interrors.ErrBackendUnavailable
	ErrUnknownKey         = interrors.ErrUnknownKey
)

type (
	ParamError   = interrors.ParamError
	BackendError = interrors.BackendError
)
