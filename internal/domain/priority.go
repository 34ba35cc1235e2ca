package domain

import (
	"strings"

	"github.com/videticket/videticket/internal/verr"
)

// Priority is totally ordered Low < Medium < High < Critical.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Value returns the 1..4 ordinal used for comparisons and display.
func (p Priority) Value() int { return int(p) }

// Emoji returns the single-glyph marker used by human-readable renderings.
func (p Priority) Emoji() string {
	switch p {
	case PriorityLow:
		return "🔵"
	case PriorityMedium:
		return "🟡"
	case PriorityHigh:
		return "🟠"
	case PriorityCritical:
		return "🔴"
	default:
		return "⚪"
	}
}

// ColorTag returns the ANSI-agnostic color name associated with the
// priority, for callers that want to colorize output without this package
// depending on a terminal library.
func (p Priority) ColorTag() string {
	switch p {
	case PriorityLow:
		return "blue"
	case PriorityMedium:
		return "yellow"
	case PriorityHigh:
		return "magenta"
	case PriorityCritical:
		return "red"
	default:
		return "white"
	}
}

// IsUrgent reports whether the priority is High or Critical.
func (p Priority) IsUrgent() bool { return p == PriorityHigh || p == PriorityCritical }

// ParsePriority accepts abbreviations and synonyms: l/m/h/c, "normal"
// (Medium), "urgent"/"crit" (Critical).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m", "normal":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	case "critical", "crit", "c", "urgent":
		return PriorityCritical, nil
	default:
		return 0, verr.New(verr.InvalidPriority, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
