package vlc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusPlayingJSON = `{
	"state": "playing",
	"currentplid": 7,
	"time": 120,
	"length": 5400,
	"position": 0.022,
	"random": true,
	"loop": false,
	"repeat": false
}`

const playlistJSON = `{
	"type": "node",
	"name": "Undefined",
	"id": "1",
	"children": [{
		"type": "node",
		"name": "Playlist",
		"id": "2",
		"children": [
			{"type": "leaf", "id": "4", "name": "alpha.mkv", "uri": "file:///m/alpha.mkv", "duration": 5400},
			{"type": "leaf", "id": "7", "name": "bravo.mkv", "uri": "file:///m/bravo.mkv", "duration": 6300, "current": "current"},
			{"type": "leaf", "id": "9", "name": "charlie.mkv", "uri": "file:///m/charlie.mkv", "duration": 4800}
		]
	}]
}`

// fakeVLC records requests and serves canned status/playlist responses.
type fakeVLC struct {
	*httptest.Server
	requests []url.Values
	random   bool
}

func newFakeVLC(t *testing.T) *fakeVLC {
	t.Helper()
	f := &fakeVLC{random: true}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pass, ok := r.BasicAuth()
		if !ok || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.requests = append(f.requests, r.URL.Query())
		switch r.URL.Path {
		case "/requests/status.json":
			if r.URL.Query().Get("command") == "pl_random" {
				f.random = !f.random
			}
			w.Write([]byte(statusPlayingJSON))
		case "/requests/playlist.json":
			w.Write([]byte(playlistJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T, srv *fakeVLC, password string) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	c, err := New(Config{Host: u.Hostname(), Port: port, Password: password, Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestClient_Status(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "secret")

	snap, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, snap.CurrentItemID)
	assert.True(t, snap.IsPlaying)
	assert.False(t, snap.IsPaused)
	assert.True(t, snap.ShuffleEnabled)
	assert.InDelta(t, 120.0, snap.PositionSeconds, 0.001)
	assert.InDelta(t, 5400.0, snap.LengthSeconds, 0.001)
	assert.False(t, snap.ObservedAt.IsZero())
}

func TestClient_Playlist(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "secret")

	items, err := c.Playlist(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 4, items[0].ID)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, "alpha.mkv", items[0].Name)
	assert.True(t, items[1].Current)
	assert.Equal(t, 9, items[2].ID)
	assert.Equal(t, 3, items[2].Position)
}

func TestClient_PlayItem(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "secret")

	require.NoError(t, c.PlayItem(context.Background(), 9))

	last := srv.requests[len(srv.requests)-1]
	assert.Equal(t, "pl_play", last.Get("command"))
	assert.Equal(t, "9", last.Get("id"))
}

func TestClient_SetShuffle_AlreadyDesired(t *testing.T) {
	srv := newFakeVLC(t) // reports random=true
	c := newTestClient(t, srv, "secret")

	require.NoError(t, c.SetShuffle(context.Background(), true))

	// Only the status fetch, no toggle command.
	require.Len(t, srv.requests, 1)
	assert.Empty(t, srv.requests[0].Get("command"))
}

func TestClient_SetShuffle_Toggles(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "secret")

	require.NoError(t, c.SetShuffle(context.Background(), false))

	require.Len(t, srv.requests, 2)
	assert.Equal(t, "pl_random", srv.requests[1].Get("command"))
	assert.False(t, srv.random)
}

func TestClient_AuthFailure(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "wrong")

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication")
	assert.False(t, errors.Is(err, ErrUnreachable))
}

func TestClient_Unreachable(t *testing.T) {
	srv := newFakeVLC(t)
	c := newTestClient(t, srv, "secret")
	srv.Close()

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}
