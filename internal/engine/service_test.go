package engine

import (
	"sync"
	"testing"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/events"
	"github.com/videticket/videticket/internal/store"
	"github.com/videticket/videticket/internal/verr"
)

type recorder struct {
	mu   sync.Mutex
	kind []string
}

func (r *recorder) handler(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.(type) {
	case events.Created:
		r.kind = append(r.kind, "created")
	case events.Updated:
		r.kind = append(r.kind, "updated")
	case events.Closed:
		r.kind = append(r.kind, "closed")
	case events.TaskAdded:
		r.kind = append(r.kind, "task_added")
	case events.TaskCompleted:
		r.kind = append(r.kind, "task_completed")
	case events.TaskRemoved:
		r.kind = append(r.kind, "task_removed")
	case events.StatusChanged:
		r.kind = append(r.kind, "status_changed")
	}
	return nil
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.kind) == 0 {
		return ""
	}
	return r.kind[len(r.kind)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kind)
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	bus := events.New(nil)
	rec := &recorder{}
	bus.Subscribe(rec.handler)
	return New(store.NewMemRepository(), bus, nil), rec
}

func TestCreateTicketEmitsCreated(t *testing.T) {
	s, rec := newTestService(t)
	ticket, err := s.CreateTicket("Fix login bug", "details", domain.PriorityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != domain.StatusTodo {
		t.Fatalf("expected Todo status, got %v", ticket.Status)
	}
	if rec.count() != 1 || rec.last() != "created" {
		t.Fatalf("expected exactly one created event, got %v", rec.kind)
	}
}

func TestCreateTicketRejectsDuplicateSlug(t *testing.T) {
	s, _ := newTestService(t)
	first, err := s.CreateTicket("Same title", "", domain.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := s.Repo.FindBySlug(first.Slug)
	if err != nil || loaded == nil {
		t.Fatalf("expected to find created ticket by slug")
	}

	// Same title within the same minute yields the same slug.
	if _, err := s.CreateTicket("Same title", "", domain.PriorityLow); !verr.Is(err, verr.DuplicateSlug) {
		t.Fatalf("expected DuplicateSlug for a second ticket with slug %q, got %v", first.Slug, err)
	}
}

func TestChangeStatusEmitsStatusChanged(t *testing.T) {
	s, rec := newTestService(t)
	ticket, err := s.CreateTicket("Some work", "", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := s.ChangeStatus(ticket.ID, domain.StatusDoing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.StartedAt == nil {
		t.Fatalf("expected started_at to be stamped")
	}
	if rec.last() != "status_changed" {
		t.Fatalf("expected status_changed, got %v", rec.kind)
	}
}

func TestCloseTicketEmitsClosedAndClearsActive(t *testing.T) {
	s, rec := newTestService(t)
	ticket, err := s.CreateTicket("Some work", "", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Repo.SetActive(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closed, err := s.CloseTicket(ticket.ID, "shipped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Status != domain.StatusDone || closed.ClosedAt == nil {
		t.Fatalf("expected ticket to be done with closed_at set")
	}
	if rec.last() != "closed" {
		t.Fatalf("expected closed event, got %v", rec.kind)
	}

	active, err := s.Repo.GetActive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Fatalf("expected active pointer to be cleared after closing the active ticket")
	}
}

func TestTaskLifecycleEmitsOneEventEach(t *testing.T) {
	s, rec := newTestService(t)
	ticket, err := s.CreateTicket("Some work", "", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := s.AddTask(ticket.ID, "write a test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.last() != "task_added" {
		t.Fatalf("expected task_added, got %v", rec.kind)
	}

	if err := s.CompleteTask(ticket.ID, task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.last() != "task_completed" {
		t.Fatalf("expected task_completed, got %v", rec.kind)
	}

	if err := s.RemoveTask(ticket.ID, task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.last() != "task_removed" {
		t.Fatalf("expected task_removed, got %v", rec.kind)
	}
}

func TestSearchFindsTypoTolerantMatch(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.CreateTicket("Fix login bug", "Users cannot login", domain.PriorityHigh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.CreateTicket("Add docs", "", domain.PriorityLow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := s.Search("fix logn bug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Ticket.Title != "Fix login bug" {
		t.Fatalf("got %q", results[0].Ticket.Title)
	}
}

func TestArchiveRejectsActiveTicket(t *testing.T) {
	s, _ := newTestService(t)
	ticket, err := s.CreateTicket("Some work", "", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Repo.SetActive(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Archive(ticket.ID); err != ErrArchiveActiveTicket {
		t.Fatalf("expected ErrArchiveActiveTicket, got %v", err)
	}
}

func TestArchiveSetsMetadataAndEmitsUpdated(t *testing.T) {
	s, rec := newTestService(t)
	ticket, err := s.CreateTicket("Some work", "", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Archive(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, err := s.Repo.Load(ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reloaded.IsArchived() {
		t.Fatalf("expected ticket to be archived")
	}
	if rec.last() != "updated" {
		t.Fatalf("expected updated event, got %v", rec.kind)
	}
}
