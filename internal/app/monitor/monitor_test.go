package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutsaratinidor/ctrlvee/internal/app/notification"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/playlist"
	"github.com/kutsaratinidor/ctrlvee/internal/domain/queue"
	"github.com/kutsaratinidor/ctrlvee/internal/infra/vlc"
)

type fakeQueueService struct {
	entries      []queue.Entry
	consumed     []queue.Entry
	consumeErr   error
	restoreCalls int
	restoreErr   error
}

func (q *fakeQueueService) PeekNext() (queue.Entry, bool) {
	if len(q.entries) == 0 {
		return queue.Entry{}, false
	}
	return q.entries[0], true
}

func (q *fakeQueueService) ConsumeHead(_ context.Context) (queue.Entry, bool, error) {
	if q.consumeErr != nil {
		return queue.Entry{}, false, q.consumeErr
	}
	if len(q.entries) == 0 {
		return queue.Entry{}, false, nil
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	q.consumed = append(q.consumed, head)
	return head, true, nil
}

func (q *fakeQueueService) RestoreShuffleIfDormant(_ context.Context) error {
	q.restoreCalls++
	return q.restoreErr
}

func (q *fakeQueueService) Size() int {
	return len(q.entries)
}

type fakeMonitorPlayer struct {
	snap          *vlc.Snapshot
	statusErr     error
	items         playlist.Playlist
	playlistCalls int
	played        []int
	playErr       error
}

func (p *fakeMonitorPlayer) Status(_ context.Context) (*vlc.Snapshot, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	return p.snap, nil
}

func (p *fakeMonitorPlayer) Playlist(_ context.Context) (playlist.Playlist, error) {
	p.playlistCalls++
	return p.items, nil
}

func (p *fakeMonitorPlayer) PlayItem(_ context.Context, id int) error {
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, id)
	return nil
}

type fakeNotifier struct {
	published []notification.Announcement
}

func (n *fakeNotifier) Publish(_ context.Context, a notification.Announcement) {
	n.published = append(n.published, a)
}

func testConfig() Config {
	return Config{
		PollInterval: 100 * time.Millisecond,
		Cooldown:     3 * time.Second,
		GraceWindow:  5 * time.Second,
		EndThreshold: 0.95,
	}
}

func TestTickSkipsCycleOnFetchFailure(t *testing.T) {
	q := &fakeQueueService{entries: []queue.Entry{{ItemID: 7, Title: "Alien"}}}
	player := &fakeMonitorPlayer{statusErr: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())

	assert.Empty(t, q.consumed)
	assert.Empty(t, player.played)
	assert.Empty(t, notifier.published)
	assert.Equal(t, 3, m.prev.CurrentItemID, "a failed poll must not replace the last snapshot")
	assert.Zero(t, q.restoreCalls)
}

func TestTickConsumesHeadWhenItStartsPlaying(t *testing.T) {
	q := &fakeQueueService{entries: []queue.Entry{{ItemID: 7, Title: "Alien"}}}
	player := &fakeMonitorPlayer{snap: snapshot(7, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())

	require.Len(t, q.consumed, 1)
	assert.Equal(t, 7, q.consumed[0].ItemID)
	require.Len(t, notifier.published, 1)
	assert.Equal(t, "queued_item_consumed", notifier.published[0].Kind)
	assert.Equal(t, "Alien", notifier.published[0].Title)
	assert.Equal(t, 1, q.restoreCalls, "restore retry runs once the queue drains")
	assert.Zero(t, player.playlistCalls, "the entry title makes the playlist fetch unnecessary")
}

func TestTickRetriesFailedConsumption(t *testing.T) {
	q := &fakeQueueService{
		entries:    []queue.Entry{{ItemID: 7, Title: "Alien"}},
		consumeErr: errors.New("backup write failed"),
	}
	player := &fakeMonitorPlayer{snap: snapshot(7, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())
	require.Len(t, q.entries, 1, "a failed consumption leaves the head queued")

	q.consumeErr = nil
	m.tick(context.Background())

	assert.Empty(t, q.entries)
	require.Len(t, q.consumed, 1)
	assert.Equal(t, 7, q.consumed[0].ItemID)
	assert.Empty(t, player.played, "the retried consumption must not re-jump to the head")
	assert.Len(t, notifier.published, 1)
}

func TestTickRedirectsOrganicAdvanceToQueueHead(t *testing.T) {
	q := &fakeQueueService{entries: []queue.Entry{{ItemID: 7, Title: "Alien"}}}
	player := &fakeMonitorPlayer{snap: snapshot(4, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())

	require.Equal(t, []int{7}, player.played)
	assert.Empty(t, q.consumed)
	assert.Empty(t, notifier.published, "a monitor jump is not announced")
	assert.False(t, m.lastCommandAt.IsZero())
}

func TestTickAnnouncesOrganicAdvanceWhenQueueEmpty(t *testing.T) {
	q := &fakeQueueService{}
	player := &fakeMonitorPlayer{
		snap:  snapshot(4, true),
		items: playlist.Playlist{{ID: 4, Name: "Blade.Runner.1982.1080p.mkv", Position: 4}},
	}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())

	require.Len(t, notifier.published, 1)
	assert.Equal(t, "organic_advance", notifier.published[0].Kind)
	assert.Equal(t, "Blade Runner (1982)", notifier.published[0].Title)
}

func TestTickAnnouncesManualIntervention(t *testing.T) {
	q := &fakeQueueService{}
	player := &fakeMonitorPlayer{snap: snapshot(11, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	m.prev = snapshot(3, true)

	m.tick(context.Background())

	require.Len(t, notifier.published, 1)
	assert.Equal(t, "manual_intervention", notifier.published[0].Kind)
	assert.Equal(t, "item #11", notifier.published[0].Title, "unknown items fall back to the raw id")
}

func TestTickCoalescesRepeatedAnnouncements(t *testing.T) {
	q := &fakeQueueService{}
	player := &fakeMonitorPlayer{snap: snapshot(11, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)

	m.prev = snapshot(3, true)
	m.tick(context.Background())
	m.prev = snapshot(3, true)
	m.tick(context.Background())

	assert.Len(t, notifier.published, 1, "identical transitions within the cooldown collapse")
}

func TestTickAnnouncesSameKindForDifferentItems(t *testing.T) {
	q := &fakeQueueService{}
	player := &fakeMonitorPlayer{snap: snapshot(11, true)}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)

	m.prev = snapshot(3, true)
	m.tick(context.Background())
	player.snap = snapshot(25, true)
	m.tick(context.Background())

	require.Len(t, notifier.published, 2, "jumps to different items are distinct events")
	assert.Equal(t, "item #11", notifier.published[0].Title)
	assert.Equal(t, "item #25", notifier.published[1].Title)
}

func TestTickRestartsFromQueueHeadAtPlaylistEnd(t *testing.T) {
	q := &fakeQueueService{entries: []queue.Entry{{ItemID: 7, Title: "Alien"}}}
	ended := snapshot(-1, false)
	player := &fakeMonitorPlayer{snap: ended}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	prev := snapshot(3, true)
	prev.PositionSeconds = 98
	prev.LengthSeconds = 100
	prev.Fraction = 0.98
	m.prev = prev

	m.tick(context.Background())

	require.Equal(t, []int{7}, player.played)
	assert.Empty(t, notifier.published)
}

func TestTickRestartsFromQueueHeadWhenPlaybackEnds(t *testing.T) {
	q := &fakeQueueService{entries: []queue.Entry{{ItemID: 7, Title: "Alien"}}}
	ended := snapshot(3, false)
	player := &fakeMonitorPlayer{snap: ended}
	notifier := &fakeNotifier{}
	m := New(testConfig(), q, player, notifier)
	prev := snapshot(3, true)
	prev.PositionSeconds = 98
	prev.LengthSeconds = 100
	prev.Fraction = 0.98
	m.prev = prev

	m.tick(context.Background())

	require.Equal(t, []int{7}, player.played)
	assert.Empty(t, notifier.published)
}

func TestTickRetriesShuffleRestoreEveryCycle(t *testing.T) {
	q := &fakeQueueService{restoreErr: errors.New("player unreachable")}
	player := &fakeMonitorPlayer{snap: snapshot(3, true)}
	m := New(testConfig(), q, player, &fakeNotifier{})
	m.prev = snapshot(3, true)

	m.tick(context.Background())
	m.tick(context.Background())

	assert.Equal(t, 2, q.restoreCalls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := &fakeQueueService{}
	player := &fakeMonitorPlayer{snap: snapshot(3, true)}
	m := New(Config{PollInterval: 10 * time.Millisecond, Cooldown: time.Second, GraceWindow: time.Second, EndThreshold: 0.95}, q, player, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
