package events

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrConfigurationInvalid is returned when a driver or pipeline is constructed with a
	// configuration that cannot export anything.
	ErrConfigurationInvalid = errors.New("invalid exporter configuration")

	// ErrExportFailed is wrapped by errors from the platform write primitive.
	ErrExportFailed = errors.New("event export failed")

	// ErrNoPlatform is returned when a driver is created without a platform.
	ErrNoPlatform = errors.New("no platform provider")
)

// ExportError is returned when the platform rejects a fully encoded event.
//
// It matches both [ErrExportFailed] and the platform error code with [errors.Is].
type ExportError struct {
	// Code is the Win32 error code (ETW) or errno (user_events).
	Code syscall.Errno
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%v: %v (%d)", ErrExportFailed, e.Code, uintptr(e.Code))
}

func (e *ExportError) Unwrap() []error { return []error{ErrExportFailed, e.Code} }

// NewExportError returns an [*ExportError] for a non-zero platform return code,
// or nil if code is zero.
func NewExportError(code syscall.Errno) error {
	if code == 0 {
		return nil
	}
	return &ExportError{Code: code}
}
