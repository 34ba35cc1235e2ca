// Package store implements the Repository trait surface: the abstract
// contract consumed by both CLI handlers and service handlers, and the
// concrete file-backed implementation that maps Ticket/ProjectState
// entities to YAML files under a project root.
package store

import (
	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/id"
)

// TicketRepository is the CRUD + query surface over tickets.
type TicketRepository interface {
	Save(t domain.Ticket) error
	Load(ticketID id.TicketID) (domain.Ticket, error)
	LoadAll() ([]domain.Ticket, error)
	Delete(ticketID id.TicketID) error
	Exists(ticketID id.TicketID) (bool, error)
	Find(pred func(domain.Ticket) bool) ([]domain.Ticket, error)
	Count(pred func(domain.Ticket) bool) (int, error)
	FindBySlug(slug string) (*domain.Ticket, error)
	ExistsWithSlug(slug string) (bool, error)
}

// ActiveTicketRepository manages the single-file "current ticket" pointer.
type ActiveTicketRepository interface {
	SetActive(ticketID id.TicketID) error
	GetActive() (*id.TicketID, error)
	ClearActive() error
}

// StateRepository manages the project's initialization marker.
type StateRepository interface {
	SaveState(state domain.ProjectState) error
	LoadState() (domain.ProjectState, error)
}

// Repository combines every capability a CLI or service handler needs. No
// higher layer should name a concrete storage type; this interface is the
// seam for swapping storage backends.
type Repository interface {
	TicketRepository
	ActiveTicketRepository
	StateRepository
}

// Resolve looks up a ticket by either its canonical id or its slug,
// attempting an id-parse first and falling back to a find_by_slug scan on
// failure. This mirrors the ambiguous-input resolution the data model
// leaves to callers, at the cost of a scan per failed id-parse.
func Resolve(repo TicketRepository, ref string) (domain.Ticket, error) {
	if parsed, err := id.ParseTicketID(ref); err == nil {
		return repo.Load(parsed)
	}
	found, err := repo.FindBySlug(ref)
	if err != nil {
		return domain.Ticket{}, err
	}
	if found == nil {
		return domain.Ticket{}, notFoundErr(ref)
	}
	return *found, nil
}
