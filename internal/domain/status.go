package domain

import (
	"strings"

	"github.com/videticket/videticket/internal/verr"
)

// Status is the lifecycle state of a Ticket.
type Status int

const (
	StatusTodo Status = iota
	StatusDoing
	StatusReview
	StatusBlocked
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusDoing:
		return "doing"
	case StatusReview:
		return "review"
	case StatusBlocked:
		return "blocked"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// sortKey orders statuses Doing < Review < Blocked < Todo < Done, the fixed
// order used by list operations.
func (s Status) sortKey() int {
	switch s {
	case StatusDoing:
		return 0
	case StatusReview:
		return 1
	case StatusBlocked:
		return 2
	case StatusTodo:
		return 3
	case StatusDone:
		return 4
	default:
		return 5
	}
}

// Less reports whether s sorts before other under the fixed list ordering.
func (s Status) Less(other Status) bool { return s.sortKey() < other.sortKey() }

// Emoji returns the single-glyph marker used by human-readable renderings
// (markdown export, terminal summaries); purely data, not presentation code.
func (s Status) Emoji() string {
	switch s {
	case StatusTodo:
		return "📋"
	case StatusDoing:
		return "🔨"
	case StatusReview:
		return "👀"
	case StatusBlocked:
		return "🚧"
	case StatusDone:
		return "✅"
	default:
		return "❓"
	}
}

// ColorTag returns the ANSI-agnostic color name associated with the status,
// for callers that want to colorize output without this package depending on
// a terminal library.
func (s Status) ColorTag() string {
	switch s {
	case StatusTodo:
		return "white"
	case StatusDoing:
		return "yellow"
	case StatusReview:
		return "cyan"
	case StatusBlocked:
		return "red"
	case StatusDone:
		return "green"
	default:
		return "white"
	}
}

// IsActive reports whether work is actively underway.
func (s Status) IsActive() bool { return s == StatusDoing || s == StatusReview }

// IsCompleted reports whether the ticket is finished.
func (s Status) IsCompleted() bool { return s == StatusDone }

// CanStart reports whether the status permits a transition into Doing.
func (s Status) CanStart() bool { return s == StatusTodo || s == StatusBlocked }

// ParseStatus accepts case-insensitive spellings and synonyms:
// "in-progress"/"wip" -> Doing, "completed"/"closed" -> Done,
// "reviewing" -> Review.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return StatusTodo, nil
	case "doing", "in-progress", "wip":
		return StatusDoing, nil
	case "review", "reviewing":
		return StatusReview, nil
	case "blocked":
		return StatusBlocked, nil
	case "done", "completed", "closed":
		return StatusDone, nil
	default:
		return 0, verr.New(verr.InvalidStatus, s)
	}
}

// MarshalText implements encoding.TextMarshaler for YAML/JSON encoding.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
