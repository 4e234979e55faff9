// Package history keeps the revision log of a prefix: every transaction
// that changes the set of installed packages appends the new set.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fsutil"
)

// FileName is the log file inside <prefix>/EGG-INFO.
const FileName = "history.json"

// Entry is one revision of the log.
type Entry struct {
	Revision  int       `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"`
	State     State     `json:"state"`
	Added     []string  `json:"added,omitempty"`
	Removed   []string  `json:"removed,omitempty"`
}

// History is the revision log of one prefix.
type History struct {
	path    string
	now     func() time.Time
	mu      sync.RWMutex
	entries []Entry
}

// New returns the history of prefix. Nothing is read until Update.
func New(prefix string) *History {
	return &History{
		path: filepath.Join(prefix, "EGG-INFO", FileName),
		now:  time.Now,
	}
}

// Path returns the location of the log file.
func (h *History) Path() string { return h.path }

// Update reloads the log from disk. A missing file is an empty log.
func (h *History) Update() error {
	data, err := os.ReadFile(h.path)
	if os.IsNotExist(err) {
		h.mu.Lock()
		h.entries = nil
		h.mu.Unlock()
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "cannot read history %s", h.path)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: history %s: %w", errors.ErrInvalidFormat, h.path, err)
	}
	for i, e := range entries {
		if e.Revision != i {
			return fmt.Errorf("%w: history %s: entry %d has revision %d", errors.ErrInvalidFormat, h.path, i, e.Revision)
		}
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
	return nil
}

// Len returns the number of revisions.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Entries returns a copy of the log.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Entry(nil), h.entries...)
}

// State returns the installed keys at revision rev. A negative rev counts
// back from the latest revision, -1 being the latest.
func (h *History) State(rev int) (State, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	i := rev
	if i < 0 {
		i += len(h.entries)
	}
	if i < 0 || i >= len(h.entries) {
		return nil, fmt.Errorf("%w: %d", errors.ErrNoSuchRevision, rev)
	}
	return NewState(h.entries[i].State.Keys()...), nil
}

// CurrentState returns the latest state, empty for an empty log.
func (h *History) CurrentState() State {
	state, err := h.State(-1)
	if err != nil {
		return NewState()
	}
	return state
}

// Record appends state as a new revision produced by op and persists the
// log. Nothing is appended when state equals the latest revision; the
// latest entry is returned with false in that case.
func (h *History) Record(state State, op string) (Entry, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var previous State
	if n := len(h.entries); n > 0 {
		last := h.entries[n-1]
		if last.State.Equal(state) {
			return last, false, nil
		}
		previous = last.State
	}

	entry := Entry{
		Revision:  len(h.entries),
		Timestamp: h.now().UTC(),
		Op:        op,
		State:     NewState(state.Keys()...),
		Added:     state.Difference(previous),
		Removed:   previous.Difference(state),
	}
	entries := append(append([]Entry(nil), h.entries...), entry)
	if err := h.save(entries); err != nil {
		return Entry{}, false, err
	}
	h.entries = entries
	logger.Debug("Recorded revision", logger.Fields{"revision": entry.Revision, "op": op})
	return entry, true, nil
}

func (h *History) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal history")
	}
	if err := fsutil.AtomicWriteFile(h.path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "cannot write history %s", h.path)
	}
	return nil
}
