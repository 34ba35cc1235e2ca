package domain

import (
	"regexp"
	"time"

	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/verr"
)

// SlugPattern is the mandatory shape of a ticket slug: a twelve-digit
// timestamp prefix followed by a base slug of lowercase ASCII letters,
// digits, and internal single hyphens.
var SlugPattern = regexp.MustCompile(`^\d{12}-[a-z0-9]+(-[a-z0-9]+)*$`)

// Ticket is a single work item.
type Ticket struct {
	ID          id.TicketID    `yaml:"id" json:"id"`
	Slug        string         `yaml:"slug" json:"slug"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Priority    Priority       `yaml:"priority" json:"priority"`
	Status      Status         `yaml:"status" json:"status"`
	Tags        []string       `yaml:"tags" json:"tags"`
	CreatedAt   time.Time      `yaml:"created_at" json:"created_at"`
	StartedAt   *time.Time     `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	ClosedAt    *time.Time     `yaml:"closed_at,omitempty" json:"closed_at,omitempty"`
	Assignee    *string        `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	Tasks       []Task         `yaml:"tasks" json:"tasks"`
	Metadata    map[string]any `yaml:"metadata" json:"metadata"`
}

// NewTicket constructs a Ticket with a fresh id, Todo status, created_at now,
// and empty tags/tasks/metadata. slug is not validated here; callers
// construct it via slugutil before calling save.
func NewTicket(slug, title string, priority Priority) Ticket {
	return Ticket{
		ID:        id.NewTicketID(),
		Slug:      slug,
		Title:     title,
		Priority:  priority,
		Status:    StatusTodo,
		CreatedAt: time.Now(),
		Tags:      []string{},
		Tasks:     []Task{},
		Metadata:  map[string]any{},
	}
}

// Validate checks every invariant from the data model: slug shape, the
// status/timestamp coupling, timestamp ordering, and every embedded task.
func (t Ticket) Validate() error {
	if !SlugPattern.MatchString(t.Slug) {
		return verr.New(verr.InvalidSlug, t.Slug)
	}
	if t.Status == StatusDoing && t.StartedAt == nil {
		return invariantErrf("ticket %s: status is doing but started_at is unset", t.ID)
	}
	if t.Status == StatusDone && t.ClosedAt == nil {
		return invariantErrf("ticket %s: status is done but closed_at is unset", t.ID)
	}
	if t.StartedAt != nil && t.StartedAt.Before(t.CreatedAt) {
		return invariantErrf("ticket %s: started_at precedes created_at", t.ID)
	}
	if t.ClosedAt != nil && t.StartedAt != nil && t.ClosedAt.Before(*t.StartedAt) {
		return invariantErrf("ticket %s: closed_at precedes started_at", t.ID)
	}
	if t.ClosedAt != nil && t.StartedAt == nil && t.ClosedAt.Before(t.CreatedAt) {
		return invariantErrf("ticket %s: closed_at precedes created_at", t.ID)
	}
	for i := range t.Tasks {
		if err := t.Tasks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TransitionTo moves the ticket to newStatus, stamping StartedAt on the
// Todo->Doing transition and ClosedAt on any transition into Done, matching
// the data model's "transitions Todo->Doing and *->Done stamp those
// timestamps" rule.
func (t *Ticket) TransitionTo(newStatus Status) {
	now := time.Now()
	if newStatus == StatusDoing && t.StartedAt == nil {
		t.StartedAt = &now
	}
	if newStatus == StatusDone && t.ClosedAt == nil {
		t.ClosedAt = &now
	}
	t.Status = newStatus
}

// IsArchived reports whether metadata.archived is set truthy.
func (t Ticket) IsArchived() bool {
	if t.Metadata == nil {
		return false
	}
	v, ok := t.Metadata["archived"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// AddTask appends a new task and returns it.
func (t *Ticket) AddTask(title string) Task {
	task := NewTask(title)
	t.Tasks = append(t.Tasks, task)
	return task
}

// FindTask returns a pointer to the task with the given id, or nil.
func (t *Ticket) FindTask(taskID id.TaskID) *Task {
	for i := range t.Tasks {
		if t.Tasks[i].ID == taskID {
			return &t.Tasks[i]
		}
	}
	return nil
}

// RemoveTask deletes the task with the given id, reporting whether it was
// present.
func (t *Ticket) RemoveTask(taskID id.TaskID) bool {
	for i := range t.Tasks {
		if t.Tasks[i].ID == taskID {
			t.Tasks = append(t.Tasks[:i], t.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// ProjectState is the per-repository initialization marker.
type ProjectState struct {
	Name        string    `yaml:"name" json:"name"`
	Description *string   `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
	TicketCount int       `yaml:"ticket_count" json:"ticket_count"`
}

// NewProjectState constructs a fresh ProjectState for project init.
func NewProjectState(name string) ProjectState {
	now := time.Now()
	return ProjectState{Name: name, CreatedAt: now, UpdatedAt: now}
}
