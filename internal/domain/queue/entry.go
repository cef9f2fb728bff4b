// Package queue provides the queue entry domain entity.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a playlist item waiting in the soft queue.
// Entries are immutable once created; the only mutation is removal.
type Entry struct {
	ID         uuid.UUID // Insertion token, unique per enqueue
	ItemID     int       // Player-assigned playlist item id
	Position   int       // 1-based playlist position at enqueue time
	Title      string    // Raw item name from the playlist
	EnqueuedAt time.Time // Enqueue timestamp, FIFO order key
}

// NewEntry creates an entry for the given playlist item.
func NewEntry(itemID, position int, title string) Entry {
	return Entry{
		ID:         uuid.New(),
		ItemID:     itemID,
		Position:   position,
		Title:      title,
		EnqueuedAt: time.Now(),
	}
}

// SelectorKind discriminates what a removal selector refers to.
type SelectorKind int

const (
	ByQueuePosition    SelectorKind = iota // 1-based position within the queue
	ByPlaylistPosition                     // 1-based position within the playlist
)

// String returns the string representation of the selector kind.
func (k SelectorKind) String() string {
	switch k {
	case ByQueuePosition:
		return "queue_position"
	case ByPlaylistPosition:
		return "playlist_position"
	default:
		return "unknown"
	}
}

// Selector identifies a queue entry for removal, either by its position in
// the queue or by the playlist position of the item it targets.
type Selector struct {
	Kind  SelectorKind
	Value int
}
