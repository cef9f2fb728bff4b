// Package notification provides the notification manager for broadcasting
// player transitions to configured sinks.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/kutsaratinidor/ctrlvee/internal/domain/media"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/tmdb"
)

// Announcement is one emitted transition event. Delivery is the sink's
// concern; the manager only fans out.
type Announcement struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink delivers announcements somewhere (log line, webhook, ...).
type Sink interface {
	Name() string
	Send(ctx context.Context, a Announcement) error
}

// Enricher looks up movie metadata for an announcement title.
type Enricher interface {
	SearchMovie(ctx context.Context, title string) (*tmdb.Movie, error)
}

const sendTimeout = 5 * time.Second

// Manager fans announcements out to all registered sinks.
type Manager struct {
	mu       sync.RWMutex
	sinks    []Sink
	enricher Enricher
}

// NewManager creates a notification manager. The enricher may be nil,
// in which case announcements go out unenriched.
func NewManager(sinks []Sink, enricher Enricher) *Manager {
	return &Manager{sinks: sinks, enricher: enricher}
}

// Register adds a sink.
func (m *Manager) Register(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// SinkCount returns the number of registered sinks.
func (m *Manager) SinkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sinks)
}

// Publish sends an announcement to every sink. Each send runs in its own
// goroutine with a timeout so one slow sink cannot stall the rest; sink
// failures are logged, never propagated.
func (m *Manager) Publish(ctx context.Context, a Announcement) {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now()
	}
	a.Title = m.enrichTitle(ctx, a.Title)

	m.mu.RLock()
	sinks := make([]Sink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			if err := s.Send(sendCtx, a); err != nil {
				zlog.Warn().Str("sink", s.Name()).Msgf("notification delivery failed: %v", err)
			}
		}(sink)
	}
	wg.Wait()
}

// enrichTitle appends metadata to the title when a lookup succeeds.
// Lookup failures degrade to the bare title, never block an announcement.
func (m *Manager) enrichTitle(ctx context.Context, title string) string {
	if m.enricher == nil || title == "" {
		return title
	}

	query := media.SearchTitle(title)
	if query == "" {
		return title
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	movie, err := m.enricher.SearchMovie(lookupCtx, query)
	if err != nil {
		zlog.Debug().Str("title", title).Msgf("metadata lookup failed: %v", err)
		return title
	}

	out := movie.Title
	if movie.Year > 0 {
		out = fmt.Sprintf("%s (%d)", movie.Title, movie.Year)
	}
	if movie.Rating > 0 {
		out = fmt.Sprintf("%s [%.1f]", out, movie.Rating)
	}
	return out
}
