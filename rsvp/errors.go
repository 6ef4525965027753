package rsvp

import "errors"

var (
	// ErrInvalidRate is returned for a WPM outside [MinWPM, MaxWPM] or off-step.
	ErrInvalidRate = errors.New("invalid reading rate")
	// ErrEmptySequence is returned when an operation needs words and there are none.
	ErrEmptySequence = errors.New("no words loaded")
	// ErrIndexExhausted is returned when moving past the last word.
	ErrIndexExhausted = errors.New("end of sequence")
	// ErrInvalidIndex is returned when seeking outside the sequence.
	ErrInvalidIndex = errors.New("invalid word index")

	ErrInvalidFontSize = errors.New("invalid font size")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNoText          = errors.New("no text provided")
)

// IsRecoverableError checks if an error leaves the reader usable.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidFontSize):
		return false
	}
	return true
}

// OpError records the operation that failed.
type OpError struct {
	Op  string // Operation being performed, e.g. "set_rate"
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": unknown error"
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}
