package specs

import (
	"strconv"
	"time"

	"github.com/videticket/videticket/internal/id"
)

// Version is the auto-bumped {major, minor, patch} triple carried on
// SpecMetadata, defaulting to {0, 1, 0}.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// DefaultVersion is the version a freshly created spec starts at.
func DefaultVersion() Version { return Version{Major: 0, Minor: 1, Patch: 0} }

// BumpPatch increments the patch component. save_document bumps patch only.
func (v *Version) BumpPatch() { v.Patch++ }

// BumpMinor increments minor and resets patch.
func (v *Version) BumpMinor() { v.Minor++; v.Patch = 0 }

// BumpMajor increments major and resets minor and patch.
func (v *Version) BumpMajor() { v.Major++; v.Minor = 0; v.Patch = 0 }

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Progress carries the three completion flags, the three orthogonal
// approval flags, the derived current phase, and an optional free-form
// approval_status map.
type Progress struct {
	RequirementsCompleted bool `json:"requirements_completed"`
	DesignCompleted       bool `json:"design_completed"`
	TasksCompleted        bool `json:"tasks_completed"`

	RequirementsApproved bool `json:"requirements_approved"`
	DesignApproved       bool `json:"design_approved"`
	TasksApproved        bool `json:"tasks_approved"`

	CurrentPhase Phase `json:"current_phase"`

	ApprovalStatus map[string]any `json:"approval_status,omitempty"`
}

// recompute recomputes CurrentPhase from the three completion flags.
func (p *Progress) recompute() {
	p.CurrentPhase = derivePhase(p.RequirementsCompleted, p.DesignCompleted, p.TasksCompleted)
}

// Metadata is the persisted spec.json document.
type Metadata struct {
	ID          id.SpecID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TicketID    *id.TicketID   `json:"ticket_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Progress    Progress       `json:"progress"`
	Version     Version        `json:"version"`
	Tags        []string       `json:"tags"`
}

// NewMetadata constructs a fresh Metadata for a newly created spec. Its
// phase is computed immediately so a freshly created spec already reports
// current_phase = Requirements, matching derivePhase(false, false, false).
func NewMetadata(title, description string) Metadata {
	now := time.Now()
	m := Metadata{
		ID:          id.NewSpecID(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        []string{},
	}
	m.Progress.recompute()
	return m
}

// MarkDocumentCompleted sets the completion flag for kind, bumps the patch
// version, and recomputes current_phase — the exact save_document side
// effects.
func (m *Metadata) MarkDocumentCompleted(kind DocumentKind) {
	switch kind {
	case DocRequirements:
		m.Progress.RequirementsCompleted = true
	case DocDesign:
		m.Progress.DesignCompleted = true
	case DocTasks:
		m.Progress.TasksCompleted = true
	}
	m.Version.BumpPatch()
	m.Progress.recompute()
	m.UpdatedAt = time.Now()
}

// Specification is the logical {metadata, requirements?, design?, tasks?}
// view returned by Load.
type Specification struct {
	Metadata     Metadata
	Requirements *string
	Design       *string
	Tasks        *string
}

// TaskChecklistProgress reports how many GFM task-list checkboxes in the
// tasks.md document are checked, out of the total found. It is a
// supplementary readout for status reporting, independent of
// Metadata.Progress.CurrentPhase, which is derived solely from the three
// completion flags (see phase.go); a tasks.md can be "completed" (the
// document exists) while its checklist is still partially checked.
func (s Specification) TaskChecklistProgress() (completed, total int) {
	if s.Tasks == nil {
		return 0, 0
	}
	return TaskProgress([]byte(*s.Tasks))
}
