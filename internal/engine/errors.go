package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDatagramTooLarge is returned when a framed message would not fit
	// in the engine's receive buffer.
	ErrDatagramTooLarge = errors.New("datagram exceeds engine receive buffer")

	// ErrAlreadyRunning is returned by Start when the process is running.
	ErrAlreadyRunning = errors.New("engine already running")
)

// ProcessError reports a failure to build, start or talk to the engine.
//
// ProcessError includes structured fields for diagnostics:
//   - Code identifies which step failed
//   - Session identifies the engine session, when one exists
//   - Err is the underlying cause and is reachable with errors.Is/As
type ProcessError struct {
	// Code identifies the error category.
	Code ProcessErrorCode

	// Message is a human-readable description.
	Message string

	// Session is the engine session ID, if any.
	Session string

	// Err is the underlying error.
	Err error
}

// ProcessErrorCode categorizes process errors.
type ProcessErrorCode string

const (
	// ErrCodeConfigure indicates the cmake configure step failed.
	ErrCodeConfigure ProcessErrorCode = "CONFIGURE_FAILED"

	// ErrCodeBuild indicates the cmake build step failed.
	ErrCodeBuild ProcessErrorCode = "BUILD_FAILED"

	// ErrCodeStart indicates the engine executable could not be started.
	ErrCodeStart ProcessErrorCode = "START_FAILED"

	// ErrCodeSend indicates a datagram could not be sent.
	ErrCodeSend ProcessErrorCode = "SEND_FAILED"
)

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Session != "" {
		msg += fmt.Sprintf(" (session=%s)", e.Session)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProcessError) Unwrap() error { return e.Err }

// IsBuildError returns true if err is a failed configure or build step.
// Uses errors.As to handle wrapped errors.
func IsBuildError(err error) bool {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeConfigure || pe.Code == ErrCodeBuild
	}
	return false
}

// IsSendError returns true if err is a failed send, including a datagram
// rejected for size.
func IsSendError(err error) bool {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeSend
	}
	return false
}
