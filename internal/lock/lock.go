// Package lock implements the sidecar file-locking protocol: an advisory,
// cooperative, per-path exclusion used by every repository mutation and
// read. A lock on <path> is a sidecar file at <parent>/.<filename>.lock
// carrying the holder's pid, acquisition timestamp, and an optional
// operation label. Acquisition is an atomic exclusive file creation; a
// sidecar older than the stale threshold is treated as abandoned and may be
// removed by any process.
package lock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/videticket/videticket/internal/verr"
)

// DefaultStaleThreshold is the age beyond which a sidecar is reclaimable.
const DefaultStaleThreshold = 30 * time.Second

// DefaultMaxAttempts is the total number of acquisition attempts before
// giving up with a contention error.
const DefaultMaxAttempts = 10

// DefaultRetryDelay is the pause between acquisition attempts.
const DefaultRetryDelay = 100 * time.Millisecond

// info is the JSON body written into the sidecar file.
type info struct {
	PID       int     `json:"pid"`
	Timestamp int64   `json:"timestamp"`
	Operation *string `json:"operation,omitempty"`
}

// FileLock acquires and releases sidecar locks for a single target path.
// It is not re-entrant: a process must not nest acquisitions on the same
// path within itself.
type FileLock struct {
	Path           string
	StaleThreshold time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	Logger         *slog.Logger
}

// New constructs a FileLock for path with the spec's default thresholds.
func New(path string) *FileLock {
	return &FileLock{
		Path:           path,
		StaleThreshold: DefaultStaleThreshold,
		MaxAttempts:    DefaultMaxAttempts,
		RetryDelay:     DefaultRetryDelay,
	}
}

func (l *FileLock) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *FileLock) sidecarPath() string {
	dir, file := filepath.Split(l.Path)
	return filepath.Join(dir, "."+file+".lock")
}

// Guard represents a held lock; Release must be called to remove the
// sidecar.
type Guard struct {
	path     string
	released bool
}

// Release removes the sidecar file, relinquishing the lock. Safe to call
// more than once; only the first call has an effect.
func (g *Guard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return verr.Wrap(verr.IoError, g.path, err)
	}
	return nil
}

// Acquire attempts to acquire the lock, retrying past stale or contended
// sidecars up to MaxAttempts times before returning FailedToLock.
func (l *FileLock) Acquire(operation string) (*Guard, error) {
	sidecar := l.sidecarPath()
	staleThreshold := l.StaleThreshold
	if staleThreshold == 0 {
		staleThreshold = DefaultStaleThreshold
	}
	maxAttempts := l.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryDelay := l.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	var lastHolder info
	haveLastHolder := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if existing, ok := readInfo(sidecar); ok {
			age := time.Since(time.Unix(existing.Timestamp, 0))
			if age > staleThreshold {
				l.logger().Debug("reclaiming stale lock", "path", l.Path, "holder_pid", existing.PID, "age", age)
				_ = os.Remove(sidecar)
			} else {
				lastHolder = existing
				haveLastHolder = true
				time.Sleep(retryDelay)
				continue
			}
		}

		f, err := os.OpenFile(sidecar, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, verr.Wrap(verr.IoError, sidecar, err)
		}

		var opPtr *string
		if operation != "" {
			opPtr = &operation
		}
		body := info{PID: os.Getpid(), Timestamp: time.Now().Unix(), Operation: opPtr}
		enc := json.NewEncoder(f)
		encErr := enc.Encode(body)
		closeErr := f.Close()
		if encErr != nil || closeErr != nil {
			_ = os.Remove(sidecar)
			if encErr != nil {
				return nil, verr.Wrap(verr.SerializationError, sidecar, encErr)
			}
			return nil, verr.Wrap(verr.IoError, sidecar, closeErr)
		}
		return &Guard{path: sidecar}, nil
	}

	if haveLastHolder {
		return nil, verr.New(verr.FailedToLock, fmt.Sprintf("%s: held by pid %d since %s", l.Path, lastHolder.PID, time.Unix(lastHolder.Timestamp, 0).Format(time.RFC3339)))
	}
	return nil, verr.New(verr.FailedToLock, l.Path)
}

func readInfo(sidecar string) (info, bool) {
	b, err := os.ReadFile(sidecar)
	if err != nil {
		return info{}, false
	}
	var out info
	if err := json.Unmarshal(b, &out); err != nil {
		return info{}, false
	}
	return out, true
}

// WithLock acquires a lock on path, runs fn, and releases the lock
// regardless of fn's outcome.
func WithLock(path, operation string, fn func() error) error {
	l := New(path)
	guard, err := l.Acquire(operation)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn()
}
