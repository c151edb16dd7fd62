// Package glpi is the resilient client for the GLPI REST API: session
// lifecycle with automatic re-authentication, a retrying request executor,
// search query encoding with count parsing, and remote-schema field
// discovery with fixed fallbacks.
//
// Every network-touching operation returns (T, error). Errors are *Error
// values tagged with a Kind so callers can decide between "treat as zero"
// and "surface"; only KindConfiguration is meant to stop the process.
package glpi

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindTransient
	KindAuthorization
	KindRemote
	KindDataFormat
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindAuthorization:
		return "authorization"
	case KindRemote:
		return "remote"
	case KindDataFormat:
		return "data_format"
	}
	return "unknown"
}

// ErrConfiguration is wrapped by every constructor validation failure.
var ErrConfiguration = errors.New("glpi: invalid configuration")

// Error is the error type returned by this package.
type Error struct {
	Kind   Kind
	Op     string // e.g. "initSession", "search/Ticket"
	Status int    // HTTP status when one was received
	Err    error
}

func (e *Error) Error() string {
	msg := "glpi " + e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == k
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return 0
}

func configError(format string, args ...any) error {
	return &Error{
		Kind: KindConfiguration,
		Op:   "new",
		Err:  fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...)),
	}
}
