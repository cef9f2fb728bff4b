// Package main provides the queue CLI entry point for testing.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("queuectl", "ctrlvee queue client for testing")
	server = app.Flag("server", "Daemon address").Default("http://localhost:8090").String()

	// list command
	listCmd = app.Command("list", "List queued items")

	// add command
	addCmd      = app.Command("add", "Queue a playlist item")
	addPosition = addCmd.Arg("position", "1-based playlist position").Required().Int()

	// remove command
	removeCmd      = app.Command("remove", "Remove a queued item")
	removeQueuePos = removeCmd.Flag("queue-position", "1-based queue position").Int()
	removeListPos  = removeCmd.Flag("playlist-position", "1-based playlist position").Int()

	// clear command
	clearCmd = app.Command("clear", "Clear the queue")

	// status command
	statusCmd = app.Command("status", "Show player and queue status")

	// playlist command
	playlistCmd = app.Command("playlist", "Show the player's playlist")
)

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

type statusResponse struct {
	State            string `json:"state"`
	CurrentItemID    int    `json:"current_item_id"`
	CurrentTitle     string `json:"current_title"`
	Elapsed          string `json:"elapsed"`
	Length           string `json:"length"`
	ShuffleEnabled   bool   `json:"shuffle_enabled"`
	QueueSize        int    `json:"queue_size"`
	SuppressionState string `json:"suppression_state"`
}

type playlistItemResponse struct {
	ItemID   int    `json:"item_id"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Current  bool   `json:"current"`
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listCmd.FullCommand():
		list()
	case addCmd.FullCommand():
		add(*addPosition)
	case removeCmd.FullCommand():
		remove(*removeQueuePos, *removeListPos)
	case clearCmd.FullCommand():
		clear()
	case statusCmd.FullCommand():
		status()
	case playlistCmd.FullCommand():
		showPlaylist()
	}
}

func list() {
	var resp queueResponse
	call(http.MethodGet, "/api/queue", nil, &resp)

	if len(resp.Entries) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	fmt.Printf("Queue (%d item(s), suppression: %s):\n", len(resp.Entries), resp.SuppressionState)
	for _, e := range resp.Entries {
		fmt.Printf("  %2d. %s (playlist #%d)\n", e.QueuePosition, e.Title, e.PlaylistPosition)
	}
}

func add(position int) {
	var entry entryResponse
	call(http.MethodPost, "/api/queue", map[string]int{"position": position}, &entry)
	fmt.Printf("Queued: %s (playlist #%d)\n", entry.Title, entry.PlaylistPosition)
}

func remove(queuePos, playlistPos int) {
	if (queuePos == 0) == (playlistPos == 0) {
		fmt.Println("Error: exactly one of --queue-position or --playlist-position is required")
		os.Exit(1)
	}

	body := map[string]int{"queue_position": queuePos}
	if playlistPos != 0 {
		body = map[string]int{"playlist_position": playlistPos}
	}

	var entry entryResponse
	call(http.MethodDelete, "/api/queue", body, &entry)
	fmt.Printf("Removed: %s\n", entry.Title)
}

func clear() {
	call(http.MethodPost, "/api/queue/clear", nil, nil)
	fmt.Println("Queue cleared")
}

func status() {
	var resp statusResponse
	call(http.MethodGet, "/api/status", nil, &resp)

	fmt.Printf("State:    %s\n", resp.State)
	if resp.CurrentTitle != "" {
		fmt.Printf("Playing:  %s [%s / %s]\n", resp.CurrentTitle, resp.Elapsed, resp.Length)
	}
	fmt.Printf("Shuffle:  %v (suppression: %s)\n", resp.ShuffleEnabled, resp.SuppressionState)
	fmt.Printf("Queued:   %d item(s)\n", resp.QueueSize)
}

func showPlaylist() {
	var items []playlistItemResponse
	call(http.MethodGet, "/api/playlist", nil, &items)

	for _, item := range items {
		marker := "  "
		if item.Current {
			marker = "> "
		}
		fmt.Printf("%s%3d. %s [%s]\n", marker, item.Position, item.Title, item.Duration)
	}
}

// call performs one API request and decodes the response into out.
// Any HTTP or API error terminates the process.
func call(method, path string, body any, out any) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	req, err := http.NewRequest(method, *server+path, &buf)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			fmt.Printf("Error [%d]: %s\n", resp.StatusCode, apiErr.Error)
		} else {
			fmt.Printf("Error [%d]: %s\n", resp.StatusCode, string(data))
		}
		os.Exit(1)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
}
