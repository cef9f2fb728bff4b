// Package playlist provides the playlist item domain entity.
package playlist

// Item represents a single entry in the player's flat playlist.
// Items are identified by the id the player assigned when the media was
// loaded; the 1-based position reflects the playlist order at fetch time.
type Item struct {
	ID       int    // Player-assigned item id
	Name     string // Raw item name (usually a filename)
	URI      string // Media URI
	Duration int    // Duration in seconds (0 if unknown)
	Position int    // 1-based position in the playlist
	Current  bool   // True if this item is currently loaded
}

// Playlist is an ordered view of the player's playlist.
type Playlist []Item

// FindByID returns the item with the given player id.
func (p Playlist) FindByID(id int) (Item, bool) {
	for _, it := range p {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// FindByPosition returns the item at the given 1-based position.
func (p Playlist) FindByPosition(pos int) (Item, bool) {
	if pos < 1 || pos > len(p) {
		return Item{}, false
	}
	return p[pos-1], true
}

// Current returns the currently loaded item.
func (p Playlist) Current() (Item, bool) {
	for _, it := range p {
		if it.Current {
			return it, true
		}
	}
	return Item{}, false
}

// IDs returns the ids of all items in playlist order.
func (p Playlist) IDs() []int {
	ids := make([]int, len(p))
	for i, it := range p {
		ids[i] = it.ID
	}
	return ids
}
