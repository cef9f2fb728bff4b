package softqueue

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/kutsaratinidor/ctrlvee/internal/domain/playlist"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/queue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/store"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

// Errors
var (
	ErrInvalidIndex  = errors.New("playlist item not found")
	ErrAlreadyQueued = errors.New("item already queued")
	ErrNotFound      = errors.New("queue entry not found")
)

// Player is the player surface the manager needs.
type Player interface {
	Status(ctx context.Context) (*vlc.Snapshot, error)
	Playlist(ctx context.Context) (playlist.Playlist, error)
	SetShuffle(ctx context.Context, enabled bool) error
}

// Store persists queue snapshots.
type Store interface {
	Load() (*store.Snapshot, error)
	Save(*store.Snapshot) error
}

// Manager owns the queue state. All mutations are serialized behind one
// mutex held for the full operation: read player state, decide, mutate,
// persist, release. Every successful mutation is persisted before the call
// returns; a failed save rolls the in-memory change back.
type Manager struct {
	mu sync.Mutex

	player Player
	store  Store

	entries           []queue.Entry
	state             State
	shuffleWasEnabled bool
}

// NewManager creates a soft-queue manager.
func NewManager(player Player, st Store) *Manager {
	return &Manager{
		player: player,
		store:  st,
		state:  StateIdle,
	}
}

// Load restores persisted queue state. Entries whose playlist item no
// longer exists are dropped silently (stale references, not errors). When
// the player is unreachable the entries are kept unvalidated; the next
// mutation revalidates against a fresh playlist.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.store.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load queue backup")
	}

	entries := make([]queue.Entry, 0, len(snap.Entries))
	for _, rec := range snap.Entries {
		entries = append(entries, queue.Entry{
			ID:         uuid.New(),
			ItemID:     rec.ItemID,
			Position:   rec.Position,
			Title:      rec.Title,
			EnqueuedAt: rec.EnqueuedAt,
		})
	}

	if pl, err := m.player.Playlist(ctx); err != nil {
		zlog.Warn().Msgf("queue: player unreachable during load, keeping %d entries unvalidated: %v", len(entries), err)
	} else {
		kept := entries[:0]
		for _, e := range entries {
			if _, ok := pl.FindByID(e.ItemID); ok {
				kept = append(kept, e)
			} else {
				zlog.Debug().Int("item_id", e.ItemID).Str("title", e.Title).Msg("queue: dropping stale entry")
			}
		}
		entries = kept
	}

	m.entries = entries
	m.shuffleWasEnabled = snap.ShuffleWasEnabled
	switch {
	case !snap.SuppressionActive:
		m.state = StateIdle
	case len(entries) > 0:
		m.state = StateSuppressed
	default:
		m.state = StateRestoring
	}

	zlog.Info().Int("entries", len(m.entries)).Stringer("state", m.state).Msg("queue: state loaded")
	return nil
}

// Enqueue adds the playlist item at the given 1-based playlist position to
// the tail of the queue. If the player is currently shuffling and no
// suppression is active, shuffle is disabled first so the queued item
// cannot be raced by a random pick.
func (m *Manager) Enqueue(ctx context.Context, position int) (queue.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pl, err := m.player.Playlist(ctx)
	if err != nil {
		return queue.Entry{}, errors.Wrap(err, "failed to fetch playlist")
	}

	item, ok := pl.FindByPosition(position)
	if !ok {
		return queue.Entry{}, errors.Wrapf(ErrInvalidIndex, "playlist position %d (playlist has %d items)", position, len(pl))
	}

	for _, e := range m.entries {
		if e.ItemID == item.ID {
			return queue.Entry{}, errors.Wrapf(ErrAlreadyQueued, "#%d %s", position, e.Title)
		}
	}

	prev := m.beginMutation()

	suppressedNow := false
	if m.state == StateIdle {
		snap, err := m.player.Status(ctx)
		if err != nil {
			return queue.Entry{}, errors.Wrap(err, "failed to fetch player status")
		}
		if snap.ShuffleEnabled {
			// Suppress before the entry exists: a shuffle pick mid-flight
			// would select an unrelated next item.
			if err := m.player.SetShuffle(ctx, false); err != nil {
				return queue.Entry{}, errors.Wrap(err, "failed to suppress shuffle")
			}
			m.state = StateSuppressed
			m.shuffleWasEnabled = true
			suppressedNow = true
			zlog.Info().Msg("queue: shuffle suppressed")
		}
	} else if m.state == StateRestoring {
		// A pending restore is superseded by new queue work.
		m.state = StateSuppressed
	}

	entry := queue.NewEntry(item.ID, item.Position, item.Name)
	m.entries = append(m.entries, entry)

	if err := m.persistLocked(); err != nil {
		m.rollback(prev)
		if suppressedNow {
			if rerr := m.player.SetShuffle(ctx, true); rerr != nil {
				zlog.Error().Msgf("queue: failed to re-enable shuffle after aborted enqueue: %v", rerr)
			}
		}
		return queue.Entry{}, err
	}

	zlog.Info().Int("item_id", entry.ItemID).Str("title", entry.Title).Int("queue_len", len(m.entries)).Msg("queue: entry added")
	return entry, nil
}

// Remove deletes the entry matched by the selector. Removing the last
// entry while suppression is active triggers shuffle restoration; an empty
// queue must never leave shuffle suppressed indefinitely.
func (m *Manager) Remove(ctx context.Context, sel queue.Selector) (queue.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	switch sel.Kind {
	case queue.ByQueuePosition:
		if sel.Value >= 1 && sel.Value <= len(m.entries) {
			idx = sel.Value - 1
		}
	case queue.ByPlaylistPosition:
		for i, e := range m.entries {
			if e.Position == sel.Value {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return queue.Entry{}, errors.Wrapf(ErrNotFound, "%s %d", sel.Kind, sel.Value)
	}

	prev := m.beginMutation()

	removed := m.entries[idx]
	m.entries = append(m.entries[:idx:idx], m.entries[idx+1:]...)

	if len(m.entries) == 0 && m.state.Active() {
		m.state = StateRestoring
	}

	if err := m.persistLocked(); err != nil {
		m.rollback(prev)
		return queue.Entry{}, err
	}

	if m.state == StateRestoring {
		m.finishRestoreLocked(ctx)
	}

	zlog.Info().Str("title", removed.Title).Int("queue_len", len(m.entries)).Msg("queue: entry removed")
	return removed, nil
}

// PeekNext returns the head of the queue without mutation.
func (m *Manager) PeekNext() (queue.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return queue.Entry{}, false
	}
	return m.entries[0], true
}

// ConsumeHead removes the head entry once the monitor has observed it
// playing. Consuming the last entry restores shuffle to its pre-suppression
// value. Only the state monitor calls this.
func (m *Manager) ConsumeHead(ctx context.Context) (queue.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return queue.Entry{}, false, nil
	}

	prev := m.beginMutation()

	head := m.entries[0]
	m.entries = m.entries[1:]

	if len(m.entries) == 0 && m.state.Active() {
		m.state = StateRestoring
	}

	if err := m.persistLocked(); err != nil {
		m.rollback(prev)
		return queue.Entry{}, false, err
	}

	if m.state == StateRestoring {
		m.finishRestoreLocked(ctx)
	}

	zlog.Info().Str("title", head.Title).Int("remaining", len(m.entries)).Msg("queue: head consumed")
	return head, true, nil
}

// Clear removes all entries and restores shuffle if suppressed.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.beginMutation()

	m.entries = nil
	if m.state.Active() {
		m.state = StateRestoring
	}

	if err := m.persistLocked(); err != nil {
		m.rollback(prev)
		return err
	}

	if m.state == StateRestoring {
		m.finishRestoreLocked(ctx)
	}

	zlog.Info().Msg("queue: cleared")
	return nil
}

// RestoreShuffleIfDormant restores shuffle when suppression is active but
// no entries remain to justify it. Idempotent; invoked at startup (crash
// recovery) and retried by the monitor on every tick until it converges.
func (m *Manager) RestoreShuffleIfDormant(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle {
		return nil
	}
	if len(m.entries) > 0 {
		// Suppression is legitimately serving pending entries.
		return nil
	}

	m.state = StateRestoring
	return m.finishRestoreLocked(ctx)
}

// List returns a copy of the queued entries in FIFO order.
func (m *Manager) List() []queue.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]queue.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Size returns the number of queued entries.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Suppression returns the suppression state and the recorded
// pre-suppression shuffle flag.
func (m *Manager) Suppression() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.shuffleWasEnabled
}

// mutationSnapshot captures the fields a rollback needs to restore.
type mutationSnapshot struct {
	entries           []queue.Entry
	state             State
	shuffleWasEnabled bool
}

func (m *Manager) beginMutation() mutationSnapshot {
	entries := make([]queue.Entry, len(m.entries))
	copy(entries, m.entries)
	return mutationSnapshot{
		entries:           entries,
		state:             m.state,
		shuffleWasEnabled: m.shuffleWasEnabled,
	}
}

func (m *Manager) rollback(prev mutationSnapshot) {
	m.entries = prev.entries
	m.state = prev.state
	m.shuffleWasEnabled = prev.shuffleWasEnabled
}

// finishRestoreLocked issues the shuffle restore command and transitions to
// idle. On failure the state stays restoring so the monitor retries next
// tick. Must be called with the lock held and state == StateRestoring.
func (m *Manager) finishRestoreLocked(ctx context.Context) error {
	if err := m.player.SetShuffle(ctx, m.shuffleWasEnabled); err != nil {
		zlog.Warn().Msgf("queue: shuffle restore failed, will retry: %v", err)
		return errors.Wrap(err, "failed to restore shuffle")
	}

	restored := m.shuffleWasEnabled
	m.state = StateIdle
	m.shuffleWasEnabled = false

	if err := m.persistLocked(); err != nil {
		// The restore itself succeeded; a stale suppression flag on disk is
		// reconciled by the idempotent startup restore.
		zlog.Error().Msgf("queue: failed to persist restored state: %v", err)
	}

	zlog.Info().Bool("shuffle", restored).Msg("queue: shuffle restored")
	return nil
}

// persistLocked saves the current state. Must be called with the lock held.
func (m *Manager) persistLocked() error {
	records := make([]store.EntryRecord, len(m.entries))
	for i, e := range m.entries {
		records[i] = store.EntryRecord{
			ItemID:     e.ItemID,
			Position:   e.Position,
			Title:      e.Title,
			EnqueuedAt: e.EnqueuedAt,
		}
	}
	return m.store.Save(&store.Snapshot{
		Entries:           records,
		SuppressionActive: m.state.Active(),
		ShuffleWasEnabled: m.shuffleWasEnabled,
	})
}
