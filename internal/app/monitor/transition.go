package monitor

import (
	"github.com/kutsaratinidor/ctrlvee/internal/domain/queue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

// Kind classifies what one poll observed relative to the previous one.
type Kind int

const (
	KindNoChange           Kind = iota // Nothing noteworthy happened
	KindOrganicAdvance                 // Track change consistent with normal playback
	KindManualIntervention             // Track change caused by a user override
	KindQueuedItemConsumed             // The queue head started playing
	KindPlaybackStopped                // Playback ran out at the end of an item
)

// String returns the string representation of the transition kind.
func (k Kind) String() string {
	switch k {
	case KindNoChange:
		return "no_change"
	case KindOrganicAdvance:
		return "organic_advance"
	case KindManualIntervention:
		return "manual_intervention"
	case KindQueuedItemConsumed:
		return "queued_item_consumed"
	case KindPlaybackStopped:
		return "playback_stopped"
	default:
		return "unknown"
	}
}

// Transition is the result of diffing two snapshots. Computed once per
// poll, dispatched, then discarded.
type Transition struct {
	Kind   Kind
	ItemID int // The item the transition concerns
}

// classifyInput carries everything classification may consult. The
// classifier itself is pure; the monitor fills this in per tick.
type classifyInput struct {
	prev         *vlc.Snapshot
	cur          *vlc.Snapshot
	head         *queue.Entry // Queue head, nil when empty
	withinGrace  bool         // A monitor-issued jump is recent enough to explain a change
	endThreshold float64      // Fraction of item length considered "at the end"
}

// classify diffs two snapshots against the queue state.
//
// Ambiguous changes default to organic advance: a false "manual
// intervention" announcement is worse than a missed one.
func classify(in classifyInput) Transition {
	if in.prev == nil || in.cur == nil {
		return Transition{Kind: KindNoChange}
	}

	wasActive := in.prev.IsPlaying || in.prev.IsPaused
	stoppedNow := !in.cur.IsPlaying && !in.cur.IsPaused

	// At playlist end VLC unloads the item and reports no current id.
	// That is a stop, not a jump to another item.
	if in.cur.CurrentItemID < 0 && stoppedNow {
		if wasActive && in.prev.NearEnd(in.endThreshold) {
			return Transition{Kind: KindPlaybackStopped, ItemID: in.prev.CurrentItemID}
		}
		return Transition{Kind: KindNoChange}
	}

	if in.cur.CurrentItemID != in.prev.CurrentItemID {
		if in.head != nil && in.cur.CurrentItemID == in.head.ItemID {
			return Transition{Kind: KindQueuedItemConsumed, ItemID: in.head.ItemID}
		}
		if in.withinGrace {
			// Our own jump command landing; not a user action.
			return Transition{Kind: KindOrganicAdvance, ItemID: in.cur.CurrentItemID}
		}
		if in.prev.ShuffleEnabled || in.cur.ShuffleEnabled {
			// Under shuffle any next item is plausible.
			return Transition{Kind: KindOrganicAdvance, ItemID: in.cur.CurrentItemID}
		}
		if in.cur.CurrentItemID == in.prev.CurrentItemID+1 {
			return Transition{Kind: KindOrganicAdvance, ItemID: in.cur.CurrentItemID}
		}
		return Transition{Kind: KindManualIntervention, ItemID: in.cur.CurrentItemID}
	}

	if wasActive && stoppedNow && in.prev.NearEnd(in.endThreshold) {
		return Transition{Kind: KindPlaybackStopped, ItemID: in.prev.CurrentItemID}
	}

	return Transition{Kind: KindNoChange}
}
