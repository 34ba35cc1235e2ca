// Package specs implements the spec store: a parallel repository over
// specs/<id>/ holding specification metadata and three markdown documents,
// the phase state machine derived from their completion flags, and the
// active-spec pointer.
package specs

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/videticket/videticket/internal/id"
	"github.com/videticket/videticket/internal/lock"
	"github.com/videticket/videticket/internal/verr"
)

// Store is the file-backed spec repository, rooted at the same project root
// as the ticket repository.
type Store struct {
	Root   string
	Logger *slog.Logger
}

// New constructs a Store rooted at root.
func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Root: root, Logger: logger}
}

func (s *Store) dir(specID id.SpecID) string { return filepath.Join(s.Root, "specs", specID.String()) }

func (s *Store) metadataPath(specID id.SpecID) string { return filepath.Join(s.dir(specID), "spec.json") }

func (s *Store) docPath(specID id.SpecID, kind DocumentKind) string {
	return filepath.Join(s.dir(specID), kind.Filename())
}

func (s *Store) activePath() string { return filepath.Join(s.Root, ".active_spec") }

// Create initializes metadata for a new spec. It does not create any
// document file.
func (s *Store) Create(title, description string) (Metadata, error) {
	m := NewMetadata(title, description)
	if err := s.saveMetadata(m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func (s *Store) saveMetadata(m Metadata) error {
	dir := s.dir(m.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return verr.Wrap(verr.IoError, dir, err)
	}
	path := s.metadataPath(m.ID)
	l := lock.New(path)
	guard, err := l.Acquire("save_spec_metadata")
	if err != nil {
		return err
	}
	defer guard.Release()

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return verr.Wrap(verr.SerializationError, path, err)
	}
	return atomicWriteFile(path, b)
}

func (s *Store) loadMetadata(specID id.SpecID) (Metadata, error) {
	path := s.metadataPath(specID)
	l := lock.New(path)
	guard, err := l.Acquire("load_spec_metadata")
	if err != nil {
		return Metadata{}, err
	}
	defer guard.Release()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, verr.New(verr.NotFound, specID.String())
		}
		return Metadata{}, verr.Wrap(verr.IoError, path, err)
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return Metadata{}, verr.Wrap(verr.DeserializationError, path, err)
	}
	return m, nil
}

// SaveDocument writes the markdown text for kind, sets the corresponding
// completion flag, bumps the patch version, and recomputes current_phase.
func (s *Store) SaveDocument(specID id.SpecID, kind DocumentKind, text string) error {
	m, err := s.loadMetadata(specID)
	if err != nil {
		return err
	}

	path := s.docPath(specID, kind)
	l := lock.New(path)
	guard, err := l.Acquire("save_spec_document")
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, []byte(text)); err != nil {
		guard.Release()
		return err
	}
	guard.Release()

	m.MarkDocumentCompleted(kind)
	return s.saveMetadata(m)
}

// Load returns metadata plus each document that exists; an absent document
// yields a nil field rather than an error.
func (s *Store) Load(specID id.SpecID) (Specification, error) {
	m, err := s.loadMetadata(specID)
	if err != nil {
		return Specification{}, err
	}
	spec := Specification{Metadata: m}
	spec.Requirements = s.readDocIfExists(specID, DocRequirements)
	spec.Design = s.readDocIfExists(specID, DocDesign)
	spec.Tasks = s.readDocIfExists(specID, DocTasks)
	return spec, nil
}

func (s *Store) readDocIfExists(specID id.SpecID, kind DocumentKind) *string {
	path := s.docPath(specID, kind)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := string(b)
	return &text
}

// List returns every decodable spec's metadata, ordered by created_at
// descending. Undecodable entries are skipped with a warning.
func (s *Store) List() ([]Metadata, error) {
	specsDir := filepath.Join(s.Root, "specs")
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, verr.Wrap(verr.IoError, specsDir, err)
	}

	out := make([]Metadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		specID, err := id.ParseSpecID(e.Name())
		if err != nil {
			s.Logger.Warn("skipping spec directory with non-id name", "name", e.Name())
			continue
		}
		m, err := s.loadMetadata(specID)
		if err != nil {
			s.Logger.Warn("skipping undecodable spec metadata", "id", e.Name(), "error", err)
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Progress loads specID and reports its task-checklist completion ratio, the
// reporting path that exercises TaskChecklistProgress/TaskProgress.
func (s *Store) Progress(specID id.SpecID) (completed, total int, err error) {
	spec, err := s.Load(specID)
	if err != nil {
		return 0, 0, err
	}
	completed, total = spec.TaskChecklistProgress()
	return completed, total, nil
}

// Approve sets <phase>_approved, refusing unless the corresponding
// <phase>_completed is true.
func (s *Store) Approve(specID id.SpecID, kind DocumentKind) error {
	m, err := s.loadMetadata(specID)
	if err != nil {
		return err
	}

	switch kind {
	case DocRequirements:
		if !m.Progress.RequirementsCompleted {
			return verr.New(verr.InvalidPhase, "requirements: document not completed")
		}
		m.Progress.RequirementsApproved = true
	case DocDesign:
		if !m.Progress.DesignCompleted {
			return verr.New(verr.InvalidPhase, "design: document not completed")
		}
		m.Progress.DesignApproved = true
	case DocTasks:
		if !m.Progress.TasksCompleted {
			return verr.New(verr.InvalidPhase, "tasks: document not completed")
		}
		m.Progress.TasksApproved = true
	}
	m.UpdatedAt = time.Now()
	return s.saveMetadata(m)
}

// Delete removes the whole specs/<id>/ subdirectory.
func (s *Store) Delete(specID id.SpecID) error {
	dir := s.dir(specID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return verr.New(verr.NotFound, specID.String())
		}
		return verr.Wrap(verr.IoError, dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return verr.Wrap(verr.IoError, dir, err)
	}
	return nil
}

// SetActive writes specID as the active-spec pointer.
func (s *Store) SetActive(specID id.SpecID) error {
	path := s.activePath()
	l := lock.New(path)
	guard, err := l.Acquire("set_active_spec")
	if err != nil {
		return err
	}
	defer guard.Release()

	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return verr.Wrap(verr.IoError, s.Root, err)
	}
	return atomicWriteFile(path, []byte(specID.String()))
}

// GetActive returns the active spec id, or nil if none is set.
func (s *Store) GetActive() (*id.SpecID, error) {
	path := s.activePath()
	l := lock.New(path)
	guard, err := l.Acquire("get_active_spec")
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
	parsed, err := id.ParseSpecID(text)
	if err != nil {
		return nil, verr.Wrap(verr.DeserializationError, path, err)
	}
	return &parsed, nil
}

func atomicWriteFile(path string, b []byte) error {
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
