package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPlaylist() Playlist {
	return Playlist{
		{ID: 4, Name: "alpha.mkv", Position: 1},
		{ID: 5, Name: "bravo.mkv", Position: 2, Current: true},
		{ID: 9, Name: "charlie.mkv", Position: 3},
	}
}

func TestPlaylist_FindByID(t *testing.T) {
	p := testPlaylist()

	it, ok := p.FindByID(9)
	assert.True(t, ok)
	assert.Equal(t, "charlie.mkv", it.Name)

	_, ok = p.FindByID(99)
	assert.False(t, ok)
}

func TestPlaylist_FindByPosition(t *testing.T) {
	p := testPlaylist()

	tests := []struct {
		name   string
		pos    int
		wantID int
		wantOK bool
	}{
		{name: "first", pos: 1, wantID: 4, wantOK: true},
		{name: "last", pos: 3, wantID: 9, wantOK: true},
		{name: "zero", pos: 0, wantOK: false},
		{name: "negative", pos: -1, wantOK: false},
		{name: "past end", pos: 4, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := p.FindByPosition(tt.pos)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, it.ID)
			}
		})
	}
}

func TestPlaylist_Current(t *testing.T) {
	p := testPlaylist()

	it, ok := p.Current()
	assert.True(t, ok)
	assert.Equal(t, 5, it.ID)

	_, ok = Playlist{{ID: 1}}.Current()
	assert.False(t, ok)
}

func TestPlaylist_IDs(t *testing.T) {
	assert.Equal(t, []int{4, 5, 9}, testPlaylist().IDs())
	assert.Empty(t, Playlist{}.IDs())
}
