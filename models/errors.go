package models

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every InvalidArgumentError
var ErrInvalidArgument = errors.New("invalid argument")

// ParseError reports a missing or malformed embedded state blob
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse page state: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to parse page state: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NavigationError reports that the page became unreachable mid-extraction
type NavigationError struct {
	Op  string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("page unreachable during %s: %v", e.Op, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// InvalidArgumentError reports a bad caller argument, detected before any page interaction
type InvalidArgumentError struct {
	Name  string
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Name, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// DecodeFailure records one streamed response or record that could not be decoded.
// It is collected, never returned as a fatal error.
type DecodeFailure struct {
	Source string // Response URL or record origin
	Err    error
}

func (f DecodeFailure) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", f.Source, f.Err)
}

func (f DecodeFailure) Unwrap() error { return f.Err }
