package vlc

import (
	"encoding/json"
	"strconv"
	"time"
)

// Player states as reported by the VLC HTTP interface.
const (
	stateIdleString    = "stopped"
	statePlayingString = "playing"
	statePausedString  = "paused"
)

// Snapshot is one poll's read of the player's reported state.
// It is produced fresh on every poll and never mutated.
type Snapshot struct {
	CurrentItemID   int       // Playlist id of the loaded item (-1 if none)
	IsPlaying       bool      // State is "playing"
	IsPaused        bool      // State is "paused"
	ShuffleEnabled  bool      // Random playback flag
	PositionSeconds float64   // Elapsed time in the current item
	LengthSeconds   float64   // Total length of the current item (0 if unknown)
	Fraction        float64   // Position as a 0..1 fraction
	ObservedAt      time.Time // When the snapshot was taken
}

// NearEnd reports whether playback position is at or past the given
// fraction of the item's length.
func (s *Snapshot) NearEnd(threshold float64) bool {
	if s.LengthSeconds <= 0 {
		return s.Fraction >= threshold
	}
	return s.PositionSeconds/s.LengthSeconds >= threshold
}

// statusResponse is the wire shape of /requests/status.json.
type statusResponse struct {
	State       string  `json:"state"`
	CurrentPLID int     `json:"currentplid"`
	Time        float64 `json:"time"`
	Length      float64 `json:"length"`
	Position    float64 `json:"position"`
	Random      bool    `json:"random"`
	Loop        bool    `json:"loop"`
	Repeat      bool    `json:"repeat"`
}

func (r *statusResponse) toSnapshot(observedAt time.Time) *Snapshot {
	return &Snapshot{
		CurrentItemID:   r.CurrentPLID,
		IsPlaying:       r.State == statePlayingString,
		IsPaused:        r.State == statePausedString,
		ShuffleEnabled:  r.Random,
		PositionSeconds: r.Time,
		LengthSeconds:   r.Length,
		Fraction:        r.Position,
		ObservedAt:      observedAt,
	}
}

// playlistNode is the wire shape of /requests/playlist.json.
// VLC nests leaves under one or more node levels; ids arrive as strings.
type playlistNode struct {
	Type     string         `json:"type"`
	ID       flexInt        `json:"id"`
	Name     string         `json:"name"`
	URI      string         `json:"uri"`
	Duration int            `json:"duration"`
	Current  string         `json:"current"`
	Children []playlistNode `json:"children"`
}

// flexInt decodes a JSON number or numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return err
		}
	}
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

var _ json.Unmarshaler = (*flexInt)(nil)
