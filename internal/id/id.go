// Package id provides the opaque identifiers used for tickets, tasks, and
// specifications. All three share the same 128-bit random representation but
// are distinct Go types so a ticket id cannot be passed where a task id is
// expected.
package id

import "github.com/google/uuid"

// TicketID uniquely identifies a Ticket.
type TicketID struct {
	u uuid.UUID
}

// TaskID uniquely identifies a Task embedded within a Ticket.
type TaskID struct {
	u uuid.UUID
}

// SpecID uniquely identifies a Specification.
type SpecID struct {
	u uuid.UUID
}

// NewTicketID generates a new random ticket identifier.
func NewTicketID() TicketID { return TicketID{u: uuid.New()} }

// NewTaskID generates a new random task identifier.
func NewTaskID() TaskID { return TaskID{u: uuid.New()} }

// NewSpecID generates a new random spec identifier.
func NewSpecID() SpecID { return SpecID{u: uuid.New()} }

// ParseTicketID parses the canonical 36-character form.
func ParseTicketID(s string) (TicketID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TicketID{}, err
	}
	return TicketID{u: u}, nil
}

// ParseTaskID parses the canonical 36-character form.
func ParseTaskID(s string) (TaskID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, err
	}
	return TaskID{u: u}, nil
}

// ParseSpecID parses the canonical 36-character form.
func ParseSpecID(s string) (SpecID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SpecID{}, err
	}
	return SpecID{u: u}, nil
}

// String renders the canonical 36-character form.
func (t TicketID) String() string { return t.u.String() }

// String renders the canonical 36-character form.
func (t TaskID) String() string { return t.u.String() }

// String renders the canonical 36-character form.
func (s SpecID) String() string { return s.u.String() }

// Short renders the first 8 characters, for display only; never use it for
// lookup disambiguation.
func (t TicketID) Short() string { return short(t.u) }

// Short renders the first 8 characters, for display only.
func (t TaskID) Short() string { return short(t.u) }

// Short renders the first 8 characters, for display only.
func (s SpecID) Short() string { return short(s.u) }

// IsZero reports whether the id is the zero value (never generated or parsed).
func (t TicketID) IsZero() bool { return t.u == uuid.Nil }

// IsZero reports whether the id is the zero value.
func (t TaskID) IsZero() bool { return t.u == uuid.Nil }

// IsZero reports whether the id is the zero value.
func (s SpecID) IsZero() bool { return s.u == uuid.Nil }

func short(u uuid.UUID) string {
	s := u.String()
	if len(s) < 8 {
		return s
	}
	return s[:8]
}

// MarshalText implements encoding.TextMarshaler so the id serializes as a
// plain string in YAML/JSON documents.
func (t TicketID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TicketID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	t.u = u
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t TaskID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TaskID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	t.u = u
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s SpecID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SpecID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	s.u = u
	return nil
}
