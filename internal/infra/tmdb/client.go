// Package tmdb provides a client for The Movie Database API.
package tmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie represents the metadata retained for an announcement.
type Movie struct {
	Title     string
	Year      int
	Overview  string
	Rating    float64
	PosterURL string
}

// Client is a TMDB API client with an in-memory search cache.
type Client struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client

	searchCache map[string]*Movie
	cacheMu     sync.RWMutex
}

// Config represents TMDB client configuration.
type Config struct {
	APIKey   string
	Language string
}

// searchResponse is the wire shape of /search/movie.
type searchResponse struct {
	Results []struct {
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		Overview    string  `json:"overview"`
		VoteAverage float64 `json:"vote_average"`
		PosterPath  string  `json:"poster_path"`
	} `json:"results"`
}

// apiError is TMDB's error envelope.
type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// ErrNotFound is returned when no movie matches the query.
var ErrNotFound = errors.New("movie not found")

// New creates a new TMDB client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tmdb API key is required")
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		language:    language,
		baseURL:     "https://api.themoviedb.org/3",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		searchCache: make(map[string]*Movie),
	}, nil
}

// SearchMovie looks up a movie by title and returns the top match.
func (c *Client) SearchMovie(ctx context.Context, title string) (*Movie, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}

	c.cacheMu.RLock()
	if m, ok := c.searchCache[title]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Str("title", title).Msg("tmdb: using cached result")
		return m, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", title)
	params.Set("language", c.language)
	params.Set("include_adult", "false")

	reqURL := c.baseURL + "/search/movie?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.StatusMessage != "" {
			return nil, errors.Newf("tmdb API error %d: %s", apiErr.StatusCode, apiErr.StatusMessage)
		}
		return nil, errors.Newf("tmdb request failed with status %d", resp.StatusCode)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	if len(response.Results) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", title)
	}

	top := response.Results[0]
	movie := &Movie{
		Title:    top.Title,
		Year:     parseYear(top.ReleaseDate),
		Overview: top.Overview,
		Rating:   top.VoteAverage,
	}
	if top.PosterPath != "" {
		movie.PosterURL = posterBaseURL + top.PosterPath
	}

	c.cacheMu.Lock()
	c.searchCache[title] = movie
	c.cacheMu.Unlock()

	return movie, nil
}

// parseYear extracts the year from a "YYYY-MM-DD" release date.
func parseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
