package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine rejections so callers can map them to
// client-facing responses. Every kind is locally recoverable: the action
// is refused and round state is left untouched.
type ErrorKind string

const (
	// KindShape flags a declaration whose melds do not cover the right card count.
	KindShape ErrorKind = "shape"
	// KindMeld flags a specific group failing sequence or set rules.
	KindMeld ErrorKind = "meld"
	// KindRule flags a table-rule violation such as a missing pure sequence.
	KindRule ErrorKind = "rule"
	// KindTurn flags an action issued out of turn.
	KindTurn ErrorKind = "turn"
	// KindState flags an action issued in the wrong phase.
	KindState ErrorKind = "state"
	// KindConfig flags invalid or missing configuration.
	KindConfig ErrorKind = "config"
)

// EngineError is a typed, recoverable rejection carrying a display reason.
type EngineError struct {
	Kind   ErrorKind
	Reason string
}

func (e *EngineError) Error() string {
	return string(e.Kind) + ": " + e.Reason
}

// Errorf builds an EngineError of the given kind with a formatted reason.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &EngineError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or "" when err is not an EngineError.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// ReasonOf extracts the display reason, falling back to err.Error().
func ReasonOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
