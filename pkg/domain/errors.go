package domain

import (
	"errors"
	"fmt"
)

// pipeline errors
var (
	ErrNoContent           = errors.New("no content")
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrGenerationTransient = errors.New("generation failed, transient")
	ErrGenerationRejected  = errors.New("generation rejected")
	ErrInvalidContent      = errors.New("invalid generated content")
	ErrTransportFailure    = errors.New("transport failure")
	ErrInsufficientSamples = errors.New("insufficient samples")
	ErrAttemptsExhausted   = errors.New("daily attempts exhausted")
)

// store errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflicting update")
)

// SourceError reports a single failed source. It matches ErrSourceUnavailable with errors.Is.
type SourceError struct {
	SourceID int64
	Kind     SourceKind
	Name     string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %d (%s %s): %v", e.SourceID, e.Kind, e.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error { return e.Err }

// Is makes every SourceError match ErrSourceUnavailable
func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// TransportError reports a failed delivery through one transport
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Transport, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error { return e.Err }

// Is makes every TransportError match ErrTransportFailure
func (e *TransportError) Is(target error) bool { return target == ErrTransportFailure }
