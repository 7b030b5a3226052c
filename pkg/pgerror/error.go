// Package pgerror carries PostgreSQL severity and SQLSTATE classification
// alongside a plain error, and recovers that classification from an
// arbitrary error chain via errors.As.
package pgerror

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
)

// Severity mirrors the two backend severities spec.md's error model uses.
// ERROR is recoverable: the session reports it, sends ReadyForQuery and
// stays Idle. FATAL closes the connection.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityFatal Severity = "FATAL"
)

// Error decorates a cause with the Severity/SQLSTATE pair the wire protocol
// needs to build an ErrorResponse message.
type Error struct {
	Severity Severity
	Code     string
	cause    error
}

func (e *Error) Error() string { return e.cause.Error() }
func (e *Error) Unwrap() error { return e.cause }

// New builds a recoverable ERROR with the given SQLSTATE code.
func New(code, msg string) error {
	return &Error{Severity: SeverityError, Code: code, cause: errors.New(msg)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Fatal builds a connection-terminating FATAL error.
func Fatal(code, msg string) error {
	return &Error{Severity: SeverityFatal, Code: code, cause: errors.New(msg)}
}

// WithCode decorates an existing error with a SQLSTATE, defaulting to
// ERROR severity. Returns nil for a nil err.
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &Error{Severity: SeverityError, Code: code, cause: err}
}

// WithSeverity overrides the severity of an already-coded error, or wraps a
// plain error with DataException and the requested severity.
func WithSeverity(err error, severity Severity) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return &Error{Severity: severity, Code: pe.Code, cause: pe.cause}
	}
	return &Error{Severity: severity, Code: pgerrcode.DataException, cause: err}
}

// Code recovers the SQLSTATE carried by err, defaulting to DataException
// for errors that were never classified. This is the Open-Question-1
// fallback from spec.md §9: unknown engine error variants map to
// DATA_EXCEPTION with the engine's message verbatim, never a panic.
func Code(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return pgerrcode.DataException
}

// Classify recovers the Severity/Code/message triple for building an
// ErrorResponse. Unclassified errors default to recoverable ERROR.
func Classify(err error) (severity Severity, code string, message string) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Severity, pe.Code, pe.cause.Error()
	}
	return SeverityError, pgerrcode.DataException, err.Error()
}

// IsFatal reports whether err, once classified, should terminate the
// connection.
func IsFatal(err error) bool {
	severity, _, _ := Classify(err)
	return severity == SeverityFatal
}
