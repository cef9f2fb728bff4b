// Package softqueue provides the soft-queue manager: a priority queue
// overlay on a player that only exposes a flat, optionally-shuffled
// playlist. Queueing suppresses shuffle so the next item is deterministic;
// the suppression state machine guarantees shuffle is restored once the
// queue drains.
package softqueue

// State represents the shuffle-suppression state.
type State int

const (
	StateIdle       State = iota // No suppression in effect
	StateSuppressed              // Shuffle disabled to serve queued items
	StateRestoring               // Queue drained, shuffle restore pending
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSuppressed:
		return "suppressed"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// Active reports whether shuffle suppression is in effect.
func (s State) Active() bool {
	return s != StateIdle
}
