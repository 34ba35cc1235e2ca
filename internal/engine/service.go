// Package engine wires the repository, the event bus, and the active
// pointer together into the higher-level ticket mutations the CLI and
// service handlers actually call: create, status transitions, close,
// task mutations, and archive. Each mutation performs exactly one ticket
// save (CloseTicket may also clear the active pointer) and emits exactly one
// event of the corresponding kind;
// a rejected mutation (validation failure, duplicate slug, archive-while-
// active) emits nothing.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/events"
	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/search"
	"github.com/videticket/videticket/internal/slugutil"
	"github.com/videticket/videticket/internal/store"
	"github.com/videticket/videticket/internal/verr"
)

// Service composes a Repository and an event Bus into the engine's
// mutation API.
type Service struct {
	Repo   store.Repository
	Bus    *events.Bus
	Logger *slog.Logger
}

// New constructs a Service. logger may be nil, in which case
// slog.Default() is used.
func New(repo store.Repository, bus *events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Repo: repo, Bus: bus, Logger: logger}
}

// CreateTicket builds a slug from title and the current time, rejects a
// collision, persists the new ticket, and emits Created.
func (s *Service) CreateTicket(title, description string, priority domain.Priority) (domain.Ticket, error) {
	slug, err := slugutil.BuildFromTitle(time.Now(), title)
	if err != nil {
		return domain.Ticket{}, err
	}

	if exists, err := s.Repo.ExistsWithSlug(slug); err != nil {
		return domain.Ticket{}, err
	} else if exists {
		return domain.Ticket{}, verr.New(verr.DuplicateSlug, slug)
	}

	t := domain.NewTicket(slug, title, priority)
	t.Description = description
	if err := s.Repo.Save(t); err != nil {
		return domain.Ticket{}, err
	}
	s.Bus.Emit(events.Created{Ticket: t})
	return t, nil
}

// UpdateTicket persists an arbitrary field edit (title, description, tags,
// metadata, assignee) and emits Updated. Status transitions go through
// ChangeStatus / CloseTicket instead, which emit their own event kinds.
func (s *Service) UpdateTicket(t domain.Ticket) error {
	if err := s.Repo.Save(t); err != nil {
		return err
	}
	s.Bus.Emit(events.Updated{Ticket: t})
	return nil
}

// ChangeStatus transitions ticketID to newStatus and emits StatusChanged.
// Use CloseTicket instead for a transition into Done that also carries a
// closing message.
func (s *Service) ChangeStatus(ticketID id.TicketID, newStatus domain.Status) (domain.Ticket, error) {
	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	old := t.Status
	t.TransitionTo(newStatus)
	if err := s.Repo.Save(t); err != nil {
		return domain.Ticket{}, err
	}
	s.Bus.Emit(events.StatusChanged{ID: ticketID, Old: old, New: newStatus})
	return t, nil
}

// CloseTicket transitions ticketID to Done, persists it, emits Closed, and
// — as a post-condition, not an automatic repository trigger — clears the
// active pointer if ticketID was the active ticket.
func (s *Service) CloseTicket(ticketID id.TicketID, message string) (domain.Ticket, error) {
	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	t.TransitionTo(domain.StatusDone)
	if err := s.Repo.Save(t); err != nil {
		return domain.Ticket{}, err
	}
	s.Bus.Emit(events.Closed{ID: ticketID, Message: message})

	active, err := s.Repo.GetActive()
	if err == nil && active != nil && *active == ticketID {
		if err := s.Repo.ClearActive(); err != nil {
			s.Logger.Warn("failed to clear active pointer after close", "ticket_id", ticketID, "error", err)
		}
	}
	return t, nil
}

// AddTask appends a task to ticketID, persists it, and emits TaskAdded.
func (s *Service) AddTask(ticketID id.TicketID, title string) (domain.Task, error) {
	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return domain.Task{}, err
	}
	task := t.AddTask(title)
	if err := s.Repo.Save(t); err != nil {
		return domain.Task{}, err
	}
	s.Bus.Emit(events.TaskAdded{TicketID: ticketID, Task: task})
	return task, nil
}

// CompleteTask marks a task completed, persists the ticket, and emits
// TaskCompleted.
func (s *Service) CompleteTask(ticketID id.TicketID, taskID id.TaskID) error {
	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return err
	}
	task := t.FindTask(taskID)
	if task == nil {
		return verr.New(verr.NotFound, taskID.String())
	}
	task.Complete()
	if err := s.Repo.Save(t); err != nil {
		return err
	}
	s.Bus.Emit(events.TaskCompleted{TicketID: ticketID, TaskID: taskID})
	return nil
}

// RemoveTask deletes a task, persists the ticket, and emits TaskRemoved.
func (s *Service) RemoveTask(ticketID id.TicketID, taskID id.TaskID) error {
	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return err
	}
	if !t.RemoveTask(taskID) {
		return verr.New(verr.NotFound, taskID.String())
	}
	if err := s.Repo.Save(t); err != nil {
		return err
	}
	s.Bus.Emit(events.TaskRemoved{TicketID: ticketID, TaskID: taskID})
	return nil
}

// Search loads every ticket and ranks them against query via typo-tolerant
// fuzzy matching, using search.DefaultConfig. Exact/predicate lookups
// (Resolve, Find) don't substitute for this: a misspelled title or slug
// still needs to surface its ticket.
func (s *Service) Search(query string) ([]search.Match, error) {
	tickets, err := s.Repo.LoadAll()
	if err != nil {
		return nil, err
	}
	return search.NewDefault().Search(query, tickets), nil
}

// ErrArchiveActiveTicket is returned by Archive when ticketID is the
// currently active ticket; clear the active pointer first.
var ErrArchiveActiveTicket = fmt.Errorf("cannot archive the active ticket: clear the active pointer first")

// Archive sets metadata.archived = true, refusing when ticketID is the
// active ticket. A ticket in Doing or Review is archived anyway, but the
// caller is warned, matching the data model's "caller is warned" rule
// rather than an outright rejection for that case.
func (s *Service) Archive(ticketID id.TicketID) error {
	active, err := s.Repo.GetActive()
	if err != nil {
		return err
	}
	if active != nil && *active == ticketID {
		return ErrArchiveActiveTicket
	}

	t, err := s.Repo.Load(ticketID)
	if err != nil {
		return err
	}
	if t.Status.IsActive() {
		s.Logger.Warn("archiving a ticket that is still in progress", "ticket_id", ticketID, "status", t.Status)
	}
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	t.Metadata["archived"] = true

	if err := s.Repo.Save(t); err != nil {
		return err
	}
	s.Bus.Emit(events.Updated{Ticket: t})
	return nil
}
