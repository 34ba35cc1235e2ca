package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/videticket/videticket/internal/cache"
	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/lock"
	"github.com/videticket/videticket/internal/verr"
)

// FileRepository is the file-backed Repository implementation. Layout under
// Root:
//
//	state.yaml
//	active_ticket
//	tickets/<id>.yaml
type FileRepository struct {
	Root   string
	Logger *slog.Logger

	cache *cache.Cache[any]
}

// NewFileRepository constructs a FileRepository rooted at root, with a cache
// of the given TTL (zero uses cache.DefaultTTL).
func NewFileRepository(root string, ttl time.Duration, logger *slog.Logger) *FileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRepository{
		Root:   root,
		Logger: logger,
		cache:  cache.New[any](ttl),
	}
}

func (f *FileRepository) ticketsDir() string { return filepath.Join(f.Root, "tickets") }

func (f *FileRepository) ticketPath(tid id.TicketID) string {
	return filepath.Join(f.ticketsDir(), tid.String()+".yaml")
}

func (f *FileRepository) statePath() string { return filepath.Join(f.Root, "state.yaml") }

func (f *FileRepository) activePath() string { return filepath.Join(f.Root, "active_ticket") }

// --- ticket operations ---

// Save persists t, validating invariants first, serializing through the
// per-path lock, and invalidating the cache on success.
func (f *FileRepository) Save(t domain.Ticket) error {
	if err := t.Validate(); err != nil {
		return err
	}

	path := f.ticketPath(t.ID)

	if err := os.MkdirAll(f.ticketsDir(), 0o755); err != nil {
		return verr.Wrap(verr.IoError, f.ticketsDir(), err)
	}

	if collision, err := f.findLiveSlugCollision(t.Slug, t.ID); err != nil {
		return err
	} else if collision {
		return verr.New(verr.DuplicateSlug, t.Slug)
	}

	_, statErr := os.Stat(path)
	isCreate := os.IsNotExist(statErr)

	l := f.lockFor(path)
	guard, err := l.Acquire("save")
	if err != nil {
		return err
	}
	defer guard.Release()

	b, err := yaml.Marshal(t)
	if err != nil {
		return verr.Wrap(verr.SerializationError, path, err)
	}
	if err := atomicWrite(path, b); err != nil {
		return err
	}

	f.cache.Invalidate(t.ID.String())
	if isCreate {
		f.bumpTicketCount(1)
	}
	return nil
}

// bumpTicketCount adjusts ProjectState.TicketCount by delta. This is an
// observational counter (see SPEC_FULL.md's Open Question decision); a
// missing or unreadable state file is not an error for ticket operations,
// so failures here are logged and swallowed.
func (f *FileRepository) bumpTicketCount(delta int) {
	state, err := f.LoadState()
	if err != nil {
		if !verr.Is(err, verr.ProjectNotInitialized) {
			f.Logger.Debug("could not update ticket_count", "error", err)
		}
		return
	}
	state.TicketCount += delta
	state.UpdatedAt = time.Now()
	if err := f.SaveState(state); err != nil {
		f.Logger.Debug("could not persist ticket_count update", "error", err)
	}
}

// findLiveSlugCollision reports whether another ticket (not self) already
// owns slug.
func (f *FileRepository) findLiveSlugCollision(slug string, self id.TicketID) (bool, error) {
	all, err := f.LoadAll()
	if err != nil {
		return false, err
	}
	for _, t := range all {
		if t.Slug == slug && t.ID != self {
			return true, nil
		}
	}
	return false, nil
}

// Load returns the ticket for ticketID, preferring a fresh cache entry.
func (f *FileRepository) Load(ticketID id.TicketID) (domain.Ticket, error) {
	if v, ok := f.cache.Get(ticketID.String()); ok {
		return v.(domain.Ticket), nil
	}

	path := f.ticketPath(ticketID)
	l := f.lockFor(path)
	guard, err := l.Acquire("load")
	if err != nil {
		return domain.Ticket{}, err
	}
	defer guard.Release()

	t, err := f.readTicketFile(path)
	if err != nil {
		return domain.Ticket{}, err
	}
	f.cache.Put(ticketID.String(), t)
	return t, nil
}

func (f *FileRepository) readTicketFile(path string) (domain.Ticket, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Ticket{}, verr.New(verr.NotFound, path)
		}
		return domain.Ticket{}, verr.Wrap(verr.IoError, path, err)
	}
	var t domain.Ticket
	if err := yaml.Unmarshal(b, &t); err != nil {
		return domain.Ticket{}, verr.Wrap(verr.DeserializationError, path, err)
	}
	return t, nil
}

// LoadAll returns every decodable ticket. It does not take the repository-
// wide lock: a concurrent save may be observed pre- or post-write for any
// given file, which is accepted as a best-effort snapshot. A single
// undecodable file is logged and skipped rather than aborting the listing.
func (f *FileRepository) LoadAll() ([]domain.Ticket, error) {
	if v, ok := f.cache.GetAll(); ok {
		return v.([]domain.Ticket), nil
	}

	entries, err := os.ReadDir(f.ticketsDir())
	if err != nil {
		if os.IsNotExist(err) {
			f.cache.PutAll([]domain.Ticket{})
			return []domain.Ticket{}, nil
		}
		return nil, verr.Wrap(verr.IoError, f.ticketsDir(), err)
	}

	var out []domain.Ticket
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(f.ticketsDir(), e.Name())
		t, err := f.readTicketFile(path)
		if err != nil {
			f.Logger.Warn("skipping undecodable ticket file", "path", path, "error", err)
			continue
		}
		out = append(out, t)
	}
	if out == nil {
		out = []domain.Ticket{}
	}

	for _, t := range out {
		f.cache.Put(t.ID.String(), t)
	}
	f.cache.PutAll(out)
	return out, nil
}

// Delete removes the ticket file for ticketID.
func (f *FileRepository) Delete(ticketID id.TicketID) error {
	path := f.ticketPath(ticketID)
	l := f.lockFor(path)
	guard, err := l.Acquire("delete")
	if err != nil {
		return err
	}
	defer guard.Release()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return verr.New(verr.NotFound, path)
		}
		return verr.Wrap(verr.IoError, path, err)
	}
	if err := os.Remove(path); err != nil {
		return verr.Wrap(verr.IoError, path, err)
	}

	f.cache.Invalidate(ticketID.String())
	f.bumpTicketCount(-1)
	return nil
}

// Exists reports whether ticketID names a live ticket, propagating any
// error other than NotFound.
func (f *FileRepository) Exists(ticketID id.TicketID) (bool, error) {
	_, err := f.Load(ticketID)
	if err == nil {
		return true, nil
	}
	if verr.Is(err, verr.NotFound) {
		return false, nil
	}
	return false, err
}

// Find returns every ticket satisfying pred.
func (f *FileRepository) Find(pred func(domain.Ticket) bool) ([]domain.Ticket, error) {
	all, err := f.LoadAll()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Count returns the number of tickets satisfying pred.
func (f *FileRepository) Count(pred func(domain.Ticket) bool) (int, error) {
	found, err := f.Find(pred)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

// FindBySlug returns the ticket owning slug, or nil if none does.
func (f *FileRepository) FindBySlug(slug string) (*domain.Ticket, error) {
	all, err := f.LoadAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slug == slug {
			t := all[i]
			return &t, nil
		}
	}
	return nil, nil
}

// ExistsWithSlug reports whether any ticket owns slug.
func (f *FileRepository) ExistsWithSlug(slug string) (bool, error) {
	found, err := f.FindBySlug(slug)
	if err != nil {
		return false, err
	}
	return found != nil, nil
}

// --- active ticket pointer ---

// SetActive writes ticketID as the active pointer.
func (f *FileRepository) SetActive(ticketID id.TicketID) error {
	path := f.activePath()
	l := f.lockFor(path)
	guard, err := l.Acquire("set_active")
	if err != nil {
		return err
	}
	defer guard.Release()

	if err := os.MkdirAll(f.Root, 0o755); err != nil {
		return verr.Wrap(verr.IoError, f.Root, err)
	}
	return atomicWrite(path, []byte(ticketID.String()))
}

// GetActive returns the active ticket id, or nil if none is set.
func (f *FileRepository) GetActive() (*id.TicketID, error) {
	path := f.activePath()
	l := f.lockFor(path)
	guard, err := l.Acquire("get_active")
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, verr.Wrap(verr.IoError, path, err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return nil, nil
	}
	parsed, err := id.ParseTicketID(text)
	if err != nil {
		return nil, verr.Wrap(verr.DeserializationError, path, err)
	}
	return &parsed, nil
}

// ClearActive removes the active pointer file, if present.
func (f *FileRepository) ClearActive() error {
	path := f.activePath()
	l := f.lockFor(path)
	guard, err := l.Acquire("clear_active")
	if err != nil {
		return err
	}
	defer guard.Release()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return verr.Wrap(verr.IoError, path, err)
	}
	return nil
}

// --- project state ---

// SaveState persists state to state.yaml.
func (f *FileRepository) SaveState(state domain.ProjectState) error {
	path := f.statePath()
	l := f.lockFor(path)
	guard, err := l.Acquire("save_state")
	if err != nil {
		return err
	}
	defer guard.Release()

	if err := os.MkdirAll(f.Root, 0o755); err != nil {
		return verr.Wrap(verr.IoError, f.Root, err)
	}
	b, err := yaml.Marshal(state)
	if err != nil {
		return verr.Wrap(verr.SerializationError, path, err)
	}
	return atomicWrite(path, b)
}

// LoadState returns the project's state, or ProjectNotInitialized if the
// root has never been initialized.
func (f *FileRepository) LoadState() (domain.ProjectState, error) {
	path := f.statePath()
	l := f.lockFor(path)
	guard, err := l.Acquire("load_state")
	if err != nil {
		return domain.ProjectState{}, err
	}
	defer guard.Release()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ProjectState{}, verr.New(verr.ProjectNotInitialized, f.Root)
		}
		return domain.ProjectState{}, verr.Wrap(verr.IoError, path, err)
	}
	var state domain.ProjectState
	if err := yaml.Unmarshal(b, &state); err != nil {
		return domain.ProjectState{}, verr.Wrap(verr.DeserializationError, path, err)
	}
	return state, nil
}

func (f *FileRepository) lockFor(path string) *lock.FileLock {
	return lock.New(path)
}

// atomicWrite writes b to path via a temp file plus rename, so readers never
// observe a partially written file.
func atomicWrite(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return verr.Wrap(verr.IoError, path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return verr.Wrap(verr.IoError, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return verr.Wrap(verr.IoError, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return verr.Wrap(verr.IoError, path, err)
	}
	return nil
}
