package store

import (
	"sync"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/verr"
)

// MemRepository is an in-memory Repository implementation for tests and for
// any future storage backend swap. It honors the same error kinds as
// FileRepository but has no locking or cache semantics of its own, since
// there is nothing external to race against.
type MemRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	bySlug  map[string]string // slug -> ticket id string
	active  *id.TicketID
	state   *domain.ProjectState
}

// NewMemRepository constructs an empty in-memory repository.
func NewMemRepository() *MemRepository {
	return &MemRepository{
		tickets: make(map[string]domain.Ticket),
		bySlug:  make(map[string]string),
	}
}

func (m *MemRepository) Save(t domain.Ticket) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, ok := m.bySlug[t.Slug]; ok && existingID != t.ID.String() {
		return verr.New(verr.DuplicateSlug, t.Slug)
	}
	m.tickets[t.ID.String()] = t
	m.bySlug[t.Slug] = t.ID.String()
	return nil
}

func (m *MemRepository) Load(ticketID id.TicketID) (domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[ticketID.String()]
	if !ok {
		return domain.Ticket{}, verr.New(verr.NotFound, ticketID.String())
	}
	return t, nil
}

func (m *MemRepository) LoadAll() ([]domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (m *MemRepository) Delete(ticketID id.TicketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID.String()]
	if !ok {
		return verr.New(verr.NotFound, ticketID.String())
	}
	delete(m.tickets, ticketID.String())
	delete(m.bySlug, t.Slug)
	return nil
}

func (m *MemRepository) Exists(ticketID id.TicketID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tickets[ticketID.String()]
	return ok, nil
}

func (m *MemRepository) Find(pred func(domain.Ticket) bool) ([]domain.Ticket, error) {
	all, _ := m.LoadAll()
	out := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemRepository) Count(pred func(domain.Ticket) bool) (int, error) {
	found, _ := m.Find(pred)
	return len(found), nil
}

func (m *MemRepository) FindBySlug(slug string) (*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tid, ok := m.bySlug[slug]
	if !ok {
		return nil, nil
	}
	t := m.tickets[tid]
	return &t, nil
}

func (m *MemRepository) ExistsWithSlug(slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bySlug[slug]
	return ok, nil
}

func (m *MemRepository) SetActive(ticketID id.TicketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := ticketID
	m.active = &cp
	return nil
}

func (m *MemRepository) GetActive() (*id.TicketID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, nil
	}
	cp := *m.active
	return &cp, nil
}

func (m *MemRepository) ClearActive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	return nil
}

func (m *MemRepository) SaveState(state domain.ProjectState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := state
	m.state = &cp
	return nil
}

func (m *MemRepository) LoadState() (domain.ProjectState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return domain.ProjectState{}, verr.New(verr.ProjectNotInitialized, "")
	}
	return *m.state, nil
}

var _ Repository = (*MemRepository)(nil)
