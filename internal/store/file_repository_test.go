package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/verr"
)

func writeGarbage(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("not: [valid yaml"), 0o644)
}

func newTestRepo(t *testing.T) *FileRepository {
	t.Helper()
	root := t.TempDir()
	return NewFileRepository(root, time.Minute, nil)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	tk.Tags = []string{"bug", "auth"}

	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := repo.Load(tk.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Slug != tk.Slug || loaded.Title != tk.Title {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadAllReturnsSavedTickets(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	tk.Status = domain.StatusTodo
	tk.Tags = []string{"bug", "auth"}
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(all))
	}
	if all[0].Slug != "202501010900-fix-login" {
		t.Fatalf("got slug %q", all[0].Slug)
	}
}

func TestExistsWithSlugDetectsCollision(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := repo.ExistsWithSlug("202501010900-fix-login")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ExistsWithSlug to report true")
	}
}

func TestSaveRejectsDuplicateSlug(t *testing.T) {
	repo := newTestRepo(t)
	first := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := domain.NewTicket("202501010900-fix-login", "Fix login again", domain.PriorityLow)
	err := repo.Save(second)
	if !verr.Is(err, verr.DuplicateSlug) {
		t.Fatalf("expected DuplicateSlug, got %v", err)
	}
}

func TestStartAndCloseTicket(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tk.TransitionTo(domain.StatusDoing)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tk.TransitionTo(domain.StatusDone)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := repo.Load(tk.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.StartedAt == nil || reloaded.ClosedAt == nil {
		t.Fatalf("expected both started_at and closed_at to be set")
	}
	if reloaded.ClosedAt.Before(*reloaded.StartedAt) {
		t.Fatalf("expected closed_at >= started_at")
	}
	if reloaded.StartedAt.Before(reloaded.CreatedAt) {
		t.Fatalf("expected started_at >= created_at")
	}
}

func TestDeleteRemovesTicket(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(tk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := repo.Exists(tk.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatalf("expected ticket to no longer exist")
	}
	if _, err := repo.Load(tk.ID); !verr.Is(err, verr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestFindAndCount(t *testing.T) {
	repo := newTestRepo(t)
	high := domain.NewTicket("202501010900-one", "One", domain.PriorityHigh)
	low := domain.NewTicket("202501010901-two", "Two", domain.PriorityLow)
	if err := repo.Save(high); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Save(low); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.Find(func(tk domain.Ticket) bool { return tk.Priority == domain.PriorityHigh })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 high-priority ticket, got %d", len(found))
	}

	count, err := repo.Count(func(tk domain.Ticket) bool { return true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestActiveTicketPointer(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active ticket initially")
	}

	if err := repo.SetActive(tk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, err = repo.GetActive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active == nil || *active != tk.ID {
		t.Fatalf("expected active pointer to be %v, got %v", tk.ID, active)
	}

	if err := repo.ClearActive(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, err = repo.GetActive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Fatalf("expected active pointer to be cleared")
	}
}

func TestSaveStateAndLoadState(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LoadState(); !verr.Is(err, verr.ProjectNotInitialized) {
		t.Fatalf("expected ProjectNotInitialized, got %v", err)
	}

	state := domain.NewProjectState("demo")
	if err := repo.SaveState(state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, err := repo.LoadState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Name != "demo" {
		t.Fatalf("got name %q", reloaded.Name)
	}
}

func TestTicketCountTracksCreateAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.SaveState(domain.NewProjectState("demo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := repo.LoadState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TicketCount != 1 {
		t.Fatalf("expected ticket_count 1, got %d", state.TicketCount)
	}

	// Re-saving (an update) must not increment the counter again.
	tk.Title = "Fix login (updated)"
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err = repo.LoadState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TicketCount != 1 {
		t.Fatalf("expected ticket_count to stay 1 after update, got %d", state.TicketCount)
	}

	if err := repo.Delete(tk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err = repo.LoadState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TicketCount != 0 {
		t.Fatalf("expected ticket_count 0 after delete, got %d", state.TicketCount)
	}
}

func TestResolveByIDAndSlug(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID, err := Resolve(repo, tk.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.ID != tk.ID {
		t.Fatalf("expected to resolve by id")
	}

	bySlug, err := Resolve(repo, tk.Slug)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bySlug.ID != tk.ID {
		t.Fatalf("expected to resolve by slug")
	}
}

func TestStaleLockIsReclaimedDuringSave(t *testing.T) {
	repo := newTestRepo(t)
	tk := domain.NewTicket("202501010900-fix-login", "Fix login", domain.PriorityHigh)

	ticketsDir := filepath.Join(repo.Root, "tickets")
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Plant a sidecar lock on the ticket file that is 60 seconds old, past
	// the 30-second stale threshold; the next save must reclaim it.
	sidecar := filepath.Join(ticketsDir, "."+tk.ID.String()+".yaml.lock")
	stale := fmt.Sprintf(`{"pid": 999999, "timestamp": %d}`, time.Now().Add(-60*time.Second).Unix())
	if err := os.WriteFile(sidecar, []byte(stale), 0o644); err != nil {
		t.Fatalf("unexpected error writing stale sidecar: %v", err)
	}

	tk.Title = "Fix login, take two"
	if err := repo.Save(tk); err != nil {
		t.Fatalf("unexpected error on second save: %v", err)
	}
	if _, err := os.Stat(sidecar); !os.IsNotExist(err) {
		t.Fatalf("expected the sidecar to be absent after the save released its lock")
	}
}

func TestLoadAllSkipsUndecodableFile(t *testing.T) {
	repo := newTestRepo(t)
	good := domain.NewTicket("202501010900-good", "Good", domain.PriorityLow)
	if err := repo.Save(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badID := id.NewTicketID()
	badPath := repo.ticketPath(badID)
	if err := writeGarbage(badPath); err != nil {
		t.Fatalf("unexpected error writing garbage file: %v", err)
	}

	all, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected the undecodable file to be skipped, got %d tickets", len(all))
	}
}
