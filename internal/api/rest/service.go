// Package rest exposes the queue and player over a JSON HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/kutsaratinidor/ctrlvee/internal/app/softqueue"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/media"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/playlist"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/queue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/store"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

// QueueService is the queue surface the API exposes.
type QueueService interface {
	Enqueue(ctx context.Context, position int) (queue.Entry, error)
	Remove(ctx context.Context, sel queue.Selector) (queue.Entry, error)
	Clear(ctx context.Context) error
	List() []queue.Entry
	Suppression() (softqueue.State, bool)
}

// Player is the player surface the API exposes.
type Player interface {
	Status(ctx context.Context) (*vlc.Snapshot, error)
	Playlist(ctx context.Context) (playlist.Playlist, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, val string) error
}

// Service handles the HTTP API.
type Service struct {
	queue  QueueService
	player Player
}

// NewService creates the API service.
func NewService(q QueueService, player Player) *Service {
	return &Service{queue: q, player: player}
}

// Register mounts all routes on the given mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/queue", s.handleQueue)
	mux.HandleFunc("/api/queue/clear", s.handleQueueClear)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/playlist", s.handlePlaylist)
	mux.HandleFunc("/api/player/play", s.playerCommand(func(ctx context.Context) error { return s.player.Play(ctx) }))
	mux.HandleFunc("/api/player/pause", s.playerCommand(func(ctx context.Context) error { return s.player.Pause(ctx) }))
	mux.HandleFunc("/api/player/stop", s.playerCommand(func(ctx context.Context) error { return s.player.Stop(ctx) }))
	mux.HandleFunc("/api/player/next", s.playerCommand(func(ctx context.Context) error { return s.player.Next(ctx) }))
	mux.HandleFunc("/api/player/previous", s.playerCommand(func(ctx context.Context) error { return s.player.Previous(ctx) }))
	mux.HandleFunc("/api/player/seek", s.handleSeek)
}

type entryResponse struct {
	QueuePosition    int       `json:"queue_position"`
	PlaylistPosition int       `json:"playlist_position"`
	ItemID           int       `json:"item_id"`
	Title            string    `json:"title"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}

type queueResponse struct {
	Entries           []entryResponse `json:"entries"`
	SuppressionState  string          `json:"suppression_state"`
	ShuffleWasEnabled bool            `json:"shuffle_was_enabled"`
}

type enqueueRequest struct {
	Position int `json:"position"`
	ItemID   int `json:"item_id"`
}

type removeRequest struct {
	QueuePosition    int `json:"queue_position"`
	PlaylistPosition int `json:"playlist_position"`
}

type statusResponse struct {
	State             string  `json:"state"`
	CurrentItemID     int     `json:"current_item_id"`
	CurrentTitle      string  `json:"current_title,omitempty"`
	Elapsed           string  `json:"elapsed"`
	Length            string  `json:"length"`
	ShuffleEnabled    bool    `json:"shuffle_enabled"`
	Fraction          float64 `json:"fraction"`
	QueueSize         int     `json:"queue_size"`
	SuppressionState  string  `json:"suppression_state"`
	ShuffleWasEnabled bool    `json:"shuffle_was_enabled"`
}

type playlistItemResponse struct {
	ItemID   int    `json:"item_id"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Current  bool   `json:"current"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listQueue(w)
	case http.MethodPost:
		s.enqueue(w, r)
	case http.MethodDelete:
		s.remove(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (s *Service) listQueue(w http.ResponseWriter) {
	state, shuffleWas := s.queue.Suppression()
	resp := queueResponse{
		Entries:           toEntryResponses(s.queue.List()),
		SuppressionState:  state.String(),
		ShuffleWasEnabled: shuffleWas,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	position := req.Position
	if position == 0 && req.ItemID != 0 {
		// Addressing by player item id resolves through the live playlist.
		items, err := s.player.Playlist(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		item, ok := items.FindByID(req.ItemID)
		if !ok {
			writeError(w, http.StatusBadRequest, errors.Newf("item %d is not in the playlist", req.ItemID))
			return
		}
		position = item.Position
	}

	entry, err := s.queue.Enqueue(r.Context(), position)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(entry, 1+indexOf(s.queue.List(), entry)))
}

func (s *Service) remove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	if (req.QueuePosition == 0) == (req.PlaylistPosition == 0) {
		writeError(w, http.StatusBadRequest, errors.New("exactly one of queue_position or playlist_position is required"))
		return
	}

	sel := queue.Selector{Kind: queue.ByQueuePosition, Value: req.QueuePosition}
	if req.PlaylistPosition != 0 {
		sel = queue.Selector{Kind: queue.ByPlaylistPosition, Value: req.PlaylistPosition}
	}

	entry, err := s.queue.Remove(r.Context(), sel)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry, 0))
}

func (s *Service) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if err := s.queue.Clear(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	snap, err := s.player.Status(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var title string
	if items, err := s.player.Playlist(r.Context()); err == nil {
		if item, ok := items.FindByID(snap.CurrentItemID); ok {
			title = media.DisplayTitle(item.Name, 80)
		}
	}

	state, shuffleWas := s.queue.Suppression()
	writeJSON(w, http.StatusOK, statusResponse{
		State:             playerState(snap),
		CurrentItemID:     snap.CurrentItemID,
		CurrentTitle:      title,
		Elapsed:           media.FormatDuration(int(snap.PositionSeconds)),
		Length:            media.FormatDuration(int(snap.LengthSeconds)),
		ShuffleEnabled:    snap.ShuffleEnabled,
		Fraction:          snap.Fraction,
		QueueSize:         len(s.queue.List()),
		SuppressionState:  state.String(),
		ShuffleWasEnabled: shuffleWas,
	})
}

func (s *Service) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	items, err := s.player.Playlist(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := make([]playlistItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, playlistItemResponse{
			ItemID:   item.ID,
			Position: item.Position,
			Title:    media.DisplayTitle(item.Name, 80),
			Duration: media.FormatDuration(item.Duration),
			Current:  item.Current,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) playerCommand(cmd func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		if err := cmd(r.Context()); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Service) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == "" {
		writeError(w, http.StatusBadRequest, errors.New("value is required"))
		return
	}
	if err := s.player.Seek(r.Context(), req.Value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, softqueue.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, softqueue.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, softqueue.ErrAlreadyQueued):
		return http.StatusConflict
	case errors.Is(err, vlc.ErrUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrWriteFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func playerState(snap *vlc.Snapshot) string {
	switch {
	case snap.IsPlaying:
		return "playing"
	case snap.IsPaused:
		return "paused"
	default:
		return "stopped"
	}
}

func toEntryResponses(entries []queue.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for i, e := range entries {
		out = append(out, toEntryResponse(e, i+1))
	}
	return out
}

func toEntryResponse(e queue.Entry, queuePos int) entryResponse {
	return entryResponse{
		QueuePosition:    queuePos,
		PlaylistPosition: e.Position,
		ItemID:           e.ItemID,
		Title:            e.Title,
		EnqueuedAt:       e.EnqueuedAt,
	}
}

func indexOf(entries []queue.Entry, target queue.Entry) int {
	for i, e := range entries {
		if e.ID == target.ID {
			return i
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Warn().Msgf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zlog.Error().Msgf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
