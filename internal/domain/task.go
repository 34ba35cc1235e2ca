package domain

import (
	"time"

	"github.com/videticket/videticket/internal/id"
)

// Task is a subtask embedded within a Ticket.
type Task struct {
	ID          id.TaskID  `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Completed   bool       `yaml:"completed" json:"completed"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// NewTask constructs a Task in its uncompleted initial state.
func NewTask(title string) Task {
	return Task{
		ID:        id.NewTaskID(),
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// Complete marks the task completed, stamping CompletedAt if not already set.
func (t *Task) Complete() {
	if t.Completed {
		return
	}
	now := time.Now()
	t.Completed = true
	t.CompletedAt = &now
}

// Reopen marks the task incomplete and clears CompletedAt.
func (t *Task) Reopen() {
	t.Completed = false
	t.CompletedAt = nil
}

// Validate checks the completed/completed_at invariant and the timestamp
// ordering invariant.
func (t Task) Validate() error {
	if t.Completed && t.CompletedAt == nil {
		return invariantErrf("task %s: completed is true but completed_at is unset", t.ID)
	}
	if !t.Completed && t.CompletedAt != nil {
		return invariantErrf("task %s: completed_at is set but completed is false", t.ID)
	}
	if t.CompletedAt != nil && t.CompletedAt.Before(t.CreatedAt) {
		return invariantErrf("task %s: completed_at precedes created_at", t.ID)
	}
	return nil
}
