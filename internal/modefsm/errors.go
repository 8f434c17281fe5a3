package modefsm

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/apgmode/internal/apg"
)

// InvalidModeError reports a camera mode the active camera cannot enter.
type InvalidModeError struct {
	Mode   apg.CameraMode
	Reason string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid camera mode %s: %s", e.Mode, e.Reason)
}

// InvalidTriggerError reports a trigger mode/type combination the camera
// cannot use in its current state.
type InvalidTriggerError struct {
	Mode   apg.TriggerMode
	Type   apg.TriggerType
	Reason string
}

func (e *InvalidTriggerError) Error() string {
	return fmt.Sprintf("invalid trigger %s:%s: %s", e.Mode, e.Type, e.Reason)
}

// IoError reports a failed register access. When a multi-write sequence
// could not be rolled back, RollbackErr holds the restore failure.
type IoError struct {
	Op          string // e.g. "set mode TDI", "set trigger", "read trigger status"
	Err         error
	RollbackErr error
}

func (e *IoError) Error() string {
	s := fmt.Sprintf("camera io %s: %v", e.Op, e.Err)
	if e.RollbackErr != nil {
		s += fmt.Sprintf(" (rollback failed: %v)", e.RollbackErr)
	}
	return s
}

func (e *IoError) Unwrap() []error {
	if e.RollbackErr != nil {
		return []error{e.Err, e.RollbackErr}
	}
	return []error{e.Err}
}

// IsInvalidMode reports whether err is or wraps an InvalidModeError.
func IsInvalidMode(err error) bool {
	var e *InvalidModeError
	return errors.As(err, &e)
}

// IsInvalidTrigger reports whether err is or wraps an InvalidTriggerError.
func IsInvalidTrigger(err error) bool {
	var e *InvalidTriggerError
	return errors.As(err, &e)
}

// IsIoError reports whether err is or wraps an IoError.
func IsIoError(err error) bool {
	var e *IoError
	return errors.As(err, &e)
}
