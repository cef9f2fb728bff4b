// Package store provides durable persistence for the soft-queue state.
//
// The queue backup file is the source of truth across restarts. The store
// is the only component that reads or writes it.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrWriteFailed marks persistence write failures. A mutation whose save
// fails must be rolled back by the caller.
var ErrWriteFailed = errors.New("queue backup write failed")

// EntryRecord is the persisted form of a queue entry.
type EntryRecord struct {
	ItemID     int       `json:"item_id"`
	Position   int       `json:"position"`
	Title      string    `json:"title"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Snapshot is the persisted form of the queue state.
type Snapshot struct {
	Entries           []EntryRecord `json:"entries"`
	SuppressionActive bool          `json:"suppression_active"`
	ShuffleWasEnabled bool          `json:"shuffle_was_enabled"`
	SavedAt           time.Time     `json:"saved_at"`
}

// Store persists queue snapshots to a JSON file.
type Store struct {
	path string
}

// New creates a store backed by the given file path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("backup file path is required")
	}
	return &Store{path: path}, nil
}

// Load reads the persisted snapshot. A missing file yields an empty
// snapshot; an unreadable or unrecognized file is logged and reset to empty
// rather than refusing to start.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, errors.Wrap(err, "failed to read queue backup")
	}

	if len(data) == 0 {
		return &Snapshot{}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		zlog.Warn().Str("path", s.path).Msgf("unrecognized queue backup format, starting fresh: %v", err)
		return &Snapshot{}, nil
	}
	return &snap, nil
}

// Save writes the snapshot atomically (temp file + rename) so a crash
// mid-write never leaves a truncated backup.
func (s *Store) Save(snap *Snapshot) error {
	snap.SavedAt = time.Now()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "marshal: %v", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return errors.Wrapf(ErrWriteFailed, "create temp: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(ErrWriteFailed, "write: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrWriteFailed, "close: %v", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrWriteFailed, "rename: %v", err)
	}
	return nil
}

// Remove deletes the backup file. Used when the queue is cleared.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(ErrWriteFailed, "remove: %v", err)
	}
	return nil
}
