package chatclient

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

const defaultPollInterval = 30 * time.Second

type roomLister interface {
	Rooms(ctx context.Context, userID int64) ([]models.RoomSummary, error)
}

// RoomList is the room summary cache: one entry per conversation with the
// counterpart, last message and unread count. It is the only component
// that computes unread totals. Anything that mutates server state calls
// Invalidate instead of refreshing ad hoc; a background ticker revalidates
// while the chat feature is mounted.
type RoomList struct {
	api      roomLister
	userID   int64
	interval time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	rooms []models.RoomSummary
	// gen advances on every local mutation; a fetch started under an
	// older generation is discarded instead of applied, so a stale poll
	// never overwrites an optimistic update.
	gen uint64

	kick chan struct{}
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewRoomList(api roomLister, userID int64, interval time.Duration, log zerolog.Logger) *RoomList {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &RoomList{
		api:      api,
		userID:   userID,
		interval: interval,
		log:      log.With().Str("component", "roomlist").Logger(),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (l *RoomList) Start() {
	l.wg.Add(1)
	go l.poll()
}

func (l *RoomList) Stop() {
	l.once.Do(func() { close(l.done) })
	l.wg.Wait()
}

// Invalidate schedules an immediate background refresh. Bursts coalesce
// into one fetch, and fetches already in flight are superseded.
func (l *RoomList) Invalidate() {
	l.mu.Lock()
	l.gen++
	l.mu.Unlock()

	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// ZeroUnread clears a room's unread count locally, before the server
// confirms the read mark. Opening a room must show zero immediately.
func (l *RoomList) ZeroUnread(roomID int64) {
	l.mu.Lock()
	l.gen++
	for i := range l.rooms {
		if l.rooms[i].ID == roomID {
			l.rooms[i].UnreadCount = 0
			break
		}
	}
	l.mu.Unlock()
}

// Rooms returns a copy of the current snapshot.
func (l *RoomList) Rooms() []models.RoomSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.RoomSummary, len(l.rooms))
	copy(out, l.rooms)
	return out
}

// TotalUnread sums unread counts across rooms, for the navigation badge.
func (l *RoomList) TotalUnread() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, room := range l.rooms {
		total += room.UnreadCount
	}
	return total
}

func (l *RoomList) poll() {
	defer l.wg.Done()

	l.refresh()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		case <-l.kick:
		}
		l.refresh()
	}
}

// refresh fetches a new snapshot. A failed fetch keeps the previous
// snapshot; the next tick or invalidation retries. A fetch under an old
// generation is dropped: the local state it raced is newer.
func (l *RoomList) refresh() {
	l.mu.Lock()
	startGen := l.gen
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	rooms, err := l.api.Rooms(ctx, l.userID)
	if err != nil {
		l.log.Warn().Err(err).Msg("room list refresh failed")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != startGen {
		l.log.Debug().Msg("discarding superseded room list snapshot")
		return
	}
	l.rooms = rooms
}
