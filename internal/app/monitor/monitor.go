// Package monitor polls the player and reacts to state transitions:
// consuming queued items as they start, steering organic advances back
// to the queue head, and announcing what changed.
package monitor

import (
	"context"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/kutsaratinidor/ctrlvee/internal/app/notification"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/media"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/playlist"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/queue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

const displayTitleMaxLen = 80

// QueueService is the queue surface the monitor drives.
type QueueService interface {
	PeekNext() (queue.Entry, bool)
	ConsumeHead(ctx context.Context) (queue.Entry, bool, error)
	RestoreShuffleIfDormant(ctx context.Context) error
	Size() int
}

// Player is the player surface the monitor reads and steers.
type Player interface {
	Status(ctx context.Context) (*vlc.Snapshot, error)
	Playlist(ctx context.Context) (playlist.Playlist, error)
	PlayItem(ctx context.Context, id int) error
}

// Notifier publishes announcements for observed transitions.
type Notifier interface {
	Publish(ctx context.Context, a notification.Announcement)
}

// Config holds the monitor's timing knobs.
type Config struct {
	PollInterval time.Duration
	Cooldown     time.Duration
	GraceWindow  time.Duration
	EndThreshold float64
}

// Monitor owns the poll loop. Run is the only entry point; all fields
// are accessed from the loop goroutine only.
type Monitor struct {
	config   Config
	queue    QueueService
	player   Player
	notifier Notifier

	prev           *vlc.Snapshot
	lastCommandAt  time.Time
	lastAnnounce   map[announceKey]time.Time
	pendingConsume bool
}

// announceKey identifies a transition for cooldown coalescing. Keyed by
// item as well as kind: back-to-back transitions to different items are
// distinct events, not repeats.
type announceKey struct {
	kind   Kind
	itemID int
}

// New creates a monitor.
func New(config Config, q QueueService, player Player, notifier Notifier) *Monitor {
	return &Monitor{
		config:       config,
		queue:        q,
		player:       player,
		notifier:     notifier,
		lastAnnounce: make(map[announceKey]time.Time),
	}
}

// Run polls the player until the context is cancelled. Ticks run
// synchronously so they never overlap; a slow tick delays the next one.
func (m *Monitor) Run(ctx context.Context) {
	zlog.Info().Msgf("monitor started, polling every %s", m.config.PollInterval)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick performs one poll cycle. A fetch failure skips the cycle without
// touching any state; stale snapshots must never look like transitions.
func (m *Monitor) tick(ctx context.Context) {
	snap, err := m.player.Status(ctx)
	if err != nil {
		zlog.Warn().Msgf("status poll failed, skipping cycle: %v", err)
		return
	}

	m.retryConsume(ctx, snap)

	head, hasHead := m.queue.PeekNext()
	in := classifyInput{
		prev:         m.prev,
		cur:          snap,
		withinGrace:  time.Since(m.lastCommandAt) < m.config.GraceWindow,
		endThreshold: m.config.EndThreshold,
	}
	if hasHead {
		in.head = &head
	}

	transition := classify(in)
	m.dispatch(ctx, transition, snap)

	if m.queue.Size() == 0 {
		if err := m.queue.RestoreShuffleIfDormant(ctx); err != nil {
			zlog.Warn().Msgf("shuffle restore failed, will retry: %v", err)
		}
	}

	m.prev = snap
}

// retryConsume finishes a consumption whose persist step failed on an
// earlier tick. The head stays queued after such a failure, so without the
// retry the next organic advance would steer playback back to an item that
// already played.
func (m *Monitor) retryConsume(ctx context.Context, snap *vlc.Snapshot) {
	if !m.pendingConsume {
		return
	}
	head, ok := m.queue.PeekNext()
	if !ok || snap.CurrentItemID != head.ItemID {
		m.pendingConsume = false
		return
	}
	if _, _, err := m.queue.ConsumeHead(ctx); err != nil {
		zlog.Warn().Msgf("failed to consume queue head, will retry: %v", err)
		return
	}
	m.pendingConsume = false
}

func (m *Monitor) dispatch(ctx context.Context, t Transition, snap *vlc.Snapshot) {
	switch t.Kind {
	case KindQueuedItemConsumed:
		entry, ok, err := m.queue.ConsumeHead(ctx)
		if err != nil {
			zlog.Warn().Msgf("failed to consume queue head: %v", err)
			m.pendingConsume = true
		}
		var title string
		if ok && entry.Title != "" {
			title = media.DisplayTitle(entry.Title, displayTitleMaxLen)
		} else {
			title = m.titleFor(ctx, t.ItemID)
		}
		zlog.Info().Int("item_id", t.ItemID).Msgf("queued item started: %s", title)
		m.announce(ctx, t, title, "queued item reached the player")

	case KindOrganicAdvance:
		if head, ok := m.queue.PeekNext(); ok && snap.CurrentItemID != head.ItemID {
			// Playback drifted off the planned order; steer it back.
			if err := m.player.PlayItem(ctx, head.ItemID); err != nil {
				zlog.Warn().Int("item_id", head.ItemID).Msgf("jump to queue head failed: %v", err)
				return
			}
			m.lastCommandAt = time.Now()
			zlog.Info().Int("item_id", head.ItemID).Msg("redirected playback to queue head")
			return
		}
		m.announce(ctx, t, m.titleFor(ctx, t.ItemID), "playback advanced")

	case KindManualIntervention:
		title := m.titleFor(ctx, t.ItemID)
		zlog.Info().Int("item_id", t.ItemID).Msgf("manual intervention detected: %s", title)
		m.announce(ctx, t, title, "user changed the current item")

	case KindPlaybackStopped:
		if head, ok := m.queue.PeekNext(); ok {
			if err := m.player.PlayItem(ctx, head.ItemID); err != nil {
				zlog.Warn().Int("item_id", head.ItemID).Msgf("restart from queue head failed: %v", err)
				return
			}
			m.lastCommandAt = time.Now()
			zlog.Info().Int("item_id", head.ItemID).Msg("playback ended, started queue head")
			return
		}
		m.announce(ctx, t, m.titleFor(ctx, t.ItemID), "playback reached the end")

	case KindNoChange:
	}
}

// announce publishes unless the same transition fired within the cooldown
// window. Rapid identical transitions collapse into one announcement.
func (m *Monitor) announce(ctx context.Context, t Transition, title, reason string) {
	now := time.Now()
	key := announceKey{kind: t.Kind, itemID: t.ItemID}
	if last, ok := m.lastAnnounce[key]; ok && now.Sub(last) < m.config.Cooldown {
		zlog.Debug().Str("kind", t.Kind.String()).Int("item_id", t.ItemID).Msg("announcement suppressed by cooldown")
		return
	}
	m.lastAnnounce[key] = now

	m.notifier.Publish(ctx, notification.Announcement{
		Kind:       t.Kind.String(),
		Title:      title,
		Reason:     reason,
		OccurredAt: now,
	})
}

// titleFor resolves an item id to a display title, falling back to the
// bare id when the playlist cannot be fetched or the item is gone.
func (m *Monitor) titleFor(ctx context.Context, itemID int) string {
	items, err := m.player.Playlist(ctx)
	if err != nil {
		return fmt.Sprintf("item #%d", itemID)
	}
	item, ok := items.FindByID(itemID)
	if !ok {
		return fmt.Sprintf("item #%d", itemID)
	}
	return media.DisplayTitle(item.Name, displayTitleMaxLen)
}
