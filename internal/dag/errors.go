package dag

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDefault is returned when a declared parameter has no default.
	ErrMissingDefault = errors.New("parameter has no default value")

	// ErrEmptySequence is returned when a broadcast sequence or a vector
	// default has no elements.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrCapacity is returned when a table would outgrow its address space.
	ErrCapacity = errors.New("graph capacity exceeded")

	// ErrTraceInFlight is returned by Trace when the builder is already
	// tracing, whether from another goroutine or from inside a body.
	ErrTraceInFlight = errors.New("trace already in flight on this builder")

	// ErrUnknownParam is returned when a body asks for a parameter that was
	// not declared.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrStaleNode is returned when a node from another trace is used as an
	// input.
	ErrStaleNode = errors.New("node does not belong to the current trace")

	// ErrNilArg is returned for a nil argument or sequence element.
	ErrNilArg = errors.New("nil argument")

	// ErrInvalidParam is returned for an empty or duplicate parameter name.
	ErrInvalidParam = errors.New("invalid parameter declaration")

	// ErrNoInstance is returned when Nodes.At is asked for an instance that
	// does not exist.
	ErrNoInstance = errors.New("no such instance")
)

// ParamError reports a problem with one parameter declaration.
type ParamError struct {
	Index int
	Name  string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %d (%q): %v", e.Index, e.Name, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// CapacityError reports which table overflowed.
type CapacityError struct {
	Table string
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s table full: limit is %d entries", e.Table, e.Limit)
}

// Is makes errors.Is(err, ErrCapacity) match.
func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// ArgError reports which constructor argument was rejected.
type ArgError struct {
	Kind  string
	Index int
	Err   error
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s argument %d: %v", e.Kind, e.Index, e.Err)
}

func (e *ArgError) Unwrap() error { return e.Err }
