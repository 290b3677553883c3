package models

import "errors"

// Domain error taxonomy. Handlers map these onto HTTP responses; everything
// else in the core treats them as opaque sentinels via errors.Is.
var (
	ErrUnsupportedFormat      = errors.New("unsupported format")
	ErrFileTooLarge           = errors.New("file exceeds per-file size limit")
	ErrSessionQuotaExceeded   = errors.New("session size quota exceeded")
	ErrNotFound               = errors.New("not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNothingToArchive       = errors.New("no converted files to archive")
)
