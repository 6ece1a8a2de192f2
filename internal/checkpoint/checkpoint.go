package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"cinematch/internal/fileutil"
	"cinematch/internal/logging"
)

// Mode selects which id list a checkpoint file carries.
type Mode string

const (
	// ModeProcessed tracks records handled by an enrichment run.
	ModeProcessed Mode = "processed"
	// ModeApplied tracks ledger rows written back by the apply pass.
	ModeApplied Mode = "applied"
)

// ErrLocked reports that another run holds the checkpoint lock.
var ErrLocked = errors.New("checkpoint is locked by another run")

// State is the enrichment checkpoint file content.
type State struct {
	ProcessedIDs []int64   `json:"processedIds"`
	LastRun      time.Time `json:"lastRun"`
}

// ApplyState is the apply pass checkpoint file content.
type ApplyState struct {
	AppliedIDs []int64   `json:"appliedIds"`
	LastRun    time.Time `json:"lastRun"`
}

// ProgressPath returns the enrichment checkpoint path for a kind label
// ("movies", "people").
func ProgressPath(dir, label string) string {
	return filepath.Join(dir, "."+label+"-progress.json")
}

// ApplyPath returns the apply pass checkpoint path for a kind label.
func ApplyPath(dir, label string) string {
	return filepath.Join(dir, "."+label+"-apply-progress.json")
}

// Checkpoint is an open, locked checkpoint file. The file lock guards
// against other processes; a Checkpoint itself belongs to one goroutine.
type Checkpoint struct {
	path    string
	mode    Mode
	lock    *flock.Flock
	logger  *slog.Logger
	ids     []int64
	seen    map[int64]struct{}
	lastRun time.Time
	pending int
	now     func() time.Time
}

// Option customizes a Checkpoint.
type Option func(*Checkpoint)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checkpoint) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now for LastRun stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Checkpoint) {
		if now != nil {
			c.now = now
		}
	}
}

// Open locks and loads the checkpoint at path. A missing file is an empty
// checkpoint. It fails with ErrLocked when another process holds the lock.
func Open(path string, mode Mode, opts ...Option) (*Checkpoint, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	c := &Checkpoint{
		path:   path,
		mode:   mode,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewNop(),
		seen:   make(map[int64]struct{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "checkpoint")

	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire checkpoint lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, c.lock.Path())
	}
	if err := c.load(); err != nil {
		_ = c.lock.Unlock()
		return nil, err
	}
	return c, nil
}

// Path returns the checkpoint file path.
func (c *Checkpoint) Path() string {
	return c.path
}

// Contains reports whether id was recorded.
func (c *Checkpoint) Contains(id int64) bool {
	_, ok := c.seen[id]
	return ok
}

// Mark records id. Marking an id twice is a no-op and returns false.
func (c *Checkpoint) Mark(id int64) bool {
	if _, ok := c.seen[id]; ok {
		return false
	}
	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)
	c.pending++
	return true
}

// Pending returns the number of ids marked since the last flush.
func (c *Checkpoint) Pending() int {
	return c.pending
}

// Len returns the number of recorded ids.
func (c *Checkpoint) Len() int {
	return len(c.ids)
}

// IDs returns a copy of the recorded ids in marking order.
func (c *Checkpoint) IDs() []int64 {
	return append([]int64(nil), c.ids...)
}

// LastRun returns the timestamp of the last flush, zero if never flushed.
func (c *Checkpoint) LastRun() time.Time {
	return c.lastRun
}

// Reset forgets every id and removes the file.
func (c *Checkpoint) Reset() error {
	c.ids = nil
	c.seen = make(map[int64]struct{})
	c.pending = 0
	c.lastRun = time.Time{}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	c.logger.Info("checkpoint reset", logging.String("checkpoint_path", c.path))
	return nil
}

// Flush writes the checkpoint atomically and stamps LastRun.
func (c *Checkpoint) Flush() error {
	return c.write()
}

// Close flushes and releases the lock.
func (c *Checkpoint) Close() error {
	if c.lock == nil {
		return nil
	}
	flushErr := c.write()
	unlockErr := c.lock.Unlock()
	c.lock = nil
	return errors.Join(flushErr, unlockErr)
}

func (c *Checkpoint) write() error {
	c.lastRun = c.now().UTC()
	ids := c.ids
	if ids == nil {
		ids = []int64{}
	}
	var payload any
	switch c.mode {
	case ModeApplied:
		payload = ApplyState{AppliedIDs: ids, LastRun: c.lastRun}
	default:
		payload = State{ProcessedIDs: ids, LastRun: c.lastRun}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := fileutil.WriteAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	c.pending = 0
	c.logger.Debug("checkpoint flushed",
		logging.String("checkpoint_path", c.path),
		logging.Int("ids", len(c.ids)))
	return nil
}

func (c *Checkpoint) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var ids []int64
	var lastRun time.Time
	switch c.mode {
	case ModeApplied:
		var state ApplyState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("parse checkpoint %s: %w", c.path, err)
		}
		ids, lastRun = state.AppliedIDs, state.LastRun
	default:
		var state State
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("parse checkpoint %s: %w", c.path, err)
		}
		ids, lastRun = state.ProcessedIDs, state.LastRun
	}
	for _, id := range ids {
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
	c.lastRun = lastRun
	c.logger.Debug("checkpoint loaded",
		logging.String("checkpoint_path", c.path),
		logging.Int("ids", len(c.ids)))
	return nil
}

// Peek reads a checkpoint file without taking the lock.
func Peek(path string, mode Mode) ([]int64, time.Time, error) {
	c := &Checkpoint{path: path, mode: mode, seen: make(map[int64]struct{}), logger: logging.NewNop()}
	if err := c.load(); err != nil {
		return nil, time.Time{}, err
	}
	return c.ids, c.lastRun, nil
}
