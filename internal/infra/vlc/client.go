// Package vlc provides a client for the VLC HTTP interface.
//
// VLC 3.x exposes a password-protected JSON API under /requests/. Playback
// commands are issued as query parameters on the status endpoint; there is
// no insert-next primitive and shuffle can only be toggled, not set.
package vlc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/kutsaratinidor/ctrlvee/internal/domain/playlist"
)

// ErrUnreachable marks transport-level failures talking to the player.
// Callers treat these as "unknown, retry next cycle", never as a transition.
var ErrUnreachable = errors.New("vlc unreachable")

// Client is a VLC HTTP interface client.
type Client struct {
	baseURL    string
	password   string
	httpClient *http.Client
}

// Config represents VLC client configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// New creates a new VLC client.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("vlc host and port are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d/requests/", cfg.Host, cfg.Port),
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Status fetches a fresh player snapshot.
func (c *Client) Status(ctx context.Context) (*Snapshot, error) {
	var resp statusResponse
	if err := c.get(ctx, "status.json", nil, &resp); err != nil {
		return nil, err
	}
	return resp.toSnapshot(time.Now()), nil
}

// Playlist fetches the current playlist, flattened into ordered leaves
// with 1-based positions.
func (c *Client) Playlist(ctx context.Context) (playlist.Playlist, error) {
	var root playlistNode
	if err := c.get(ctx, "playlist.json", nil, &root); err != nil {
		return nil, err
	}

	var items playlist.Playlist
	var walk func(n playlistNode)
	walk = func(n playlistNode) {
		if n.Type == "leaf" {
			items = append(items, playlist.Item{
				ID:       int(n.ID),
				Name:     n.Name,
				URI:      n.URI,
				Duration: n.Duration,
				Position: len(items) + 1,
				Current:  n.Current != "",
			})
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return items, nil
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.command(ctx, "pl_play", nil)
}

// PlayItem jumps to a specific playlist item by its id.
func (c *Client) PlayItem(ctx context.Context, id int) error {
	return c.command(ctx, "pl_play", url.Values{"id": {strconv.Itoa(id)}})
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.command(ctx, "pl_pause", nil)
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.command(ctx, "pl_stop", nil)
}

// Next advances to the next playlist item.
func (c *Client) Next(ctx context.Context) error {
	return c.command(ctx, "pl_next", nil)
}

// Previous returns to the previous playlist item.
func (c *Client) Previous(ctx context.Context) error {
	return c.command(ctx, "pl_previous", nil)
}

// Seek seeks within the current item; val uses VLC seek syntax
// ("120", "-10", "25%").
func (c *Client) Seek(ctx context.Context, val string) error {
	return c.command(ctx, "seek", url.Values{"val": {val}})
}

// ToggleShuffle flips random playback. VLC offers no absolute setter.
func (c *Client) ToggleShuffle(ctx context.Context) error {
	return c.command(ctx, "pl_random", nil)
}

// SetShuffle drives shuffle to the desired state by reading the current
// flag and toggling only when it differs. Idempotent by construction.
func (c *Client) SetShuffle(ctx context.Context, enabled bool) error {
	snap, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if snap.ShuffleEnabled == enabled {
		return nil
	}
	zlog.Debug().Bool("enabled", enabled).Msg("vlc: toggling shuffle")
	return c.ToggleShuffle(ctx)
}

// command issues a playback command against the status endpoint.
func (c *Client) command(ctx context.Context, name string, params url.Values) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("command", name)
	var discard statusResponse
	return c.get(ctx, "status.json", params, &discard)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.SetBasicAuth("", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrUnreachable, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return errors.Newf("vlc authentication failed for %s", endpoint)
	default:
		return errors.Wrapf(ErrUnreachable, "%s: status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to parse %s response", endpoint)
	}
	return nil
}
