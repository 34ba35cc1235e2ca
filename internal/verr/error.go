// Package verr defines the enumerated error kinds surfaced by the engine.
//
// Callers compare with Is(err, kind) or read the kind with KindOf, and
// unwrap with errors.Is/errors.As to reach the wrapped cause. The engine never
// formats a human-facing message; that is left to the caller.
package verr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure. Kind identity is preserved across
// wrapping so callers can switch on it regardless of where the error surfaced.
type Kind int

const (
	// NotFound indicates a ticket, task, or spec could not be located by
	// the given reference.
	NotFound Kind = iota
	// FailedToLock indicates lock contention exceeded the retry budget.
	FailedToLock
	// IoError indicates a filesystem failure unrelated to decoding.
	IoError
	// SerializationError indicates an encode failure.
	SerializationError
	// DeserializationError indicates a decode failure.
	DeserializationError
	// DuplicateSlug indicates a save would create two live tickets
	// sharing a slug.
	DuplicateSlug
	// InvalidSlug indicates a candidate slug failed the format check.
	InvalidSlug
	// InvalidStatus indicates a status string failed to parse.
	InvalidStatus
	// InvalidPriority indicates a priority string failed to parse.
	InvalidPriority
	// NoActiveTicket indicates the caller required an active ticket and
	// none was set.
	NoActiveTicket
	// ProjectNotInitialized indicates the repository root has no state file.
	ProjectNotInitialized
	// ProjectAlreadyInitialized indicates init was called on an existing root.
	ProjectAlreadyInitialized
	// InvalidPhase indicates an approval attempt on an incomplete phase.
	InvalidPhase
	// InvalidTicketState indicates a ticket violates the status/timestamp
	// coupling or timestamp-ordering invariants checked by Ticket.Validate.
	InvalidTicketState
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case FailedToLock:
		return "failed_to_lock"
	case IoError:
		return "io_error"
	case SerializationError:
		return "serialization_error"
	case DeserializationError:
		return "deserialization_error"
	case DuplicateSlug:
		return "duplicate_slug"
	case InvalidSlug:
		return "invalid_slug"
	case InvalidStatus:
		return "invalid_status"
	case InvalidPriority:
		return "invalid_priority"
	case NoActiveTicket:
		return "no_active_ticket"
	case ProjectNotInitialized:
		return "project_not_initialized"
	case ProjectAlreadyInitialized:
		return "project_already_initialized"
	case InvalidPhase:
		return "invalid_phase"
	case InvalidTicketState:
		return "invalid_ticket_state"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by the engine. Msg carries a short
// machine-oriented context string (e.g. a slug or id); Err is the wrapped
// underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, verr.New(kind, "")) style checks, but callers
// are expected to use the package-level Is(err, kind) instead; this method
// compares on Kind only.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Is reports whether the first *Error found in err's chain (err itself or
// an error it wraps) carries the given Kind; an *Error nested inside that
// one is not consulted.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
