// Package chatclient implements the realtime chat core: one owned
// connection to the broker, a single active-room subscription, an ordered
// de-duplicated message store, send with REST fallback, read-state
// synchronization and the polled room list aggregate.
package chatclient

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

type Config struct {
	// BaseURL is the REST boundary, e.g. http://localhost:8080/api/v1.
	BaseURL string
	// WSURL is the realtime endpoint, e.g. ws://localhost:8080/api/v1/ws.
	WSURL  string
	UserID int64
	// PollInterval for the room list aggregate; defaults to 30s.
	PollInterval time.Duration
	// RequestTimeout bounds REST calls, including the send fallback;
	// defaults to 15s.
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// Client wires the chat components into one session. Create it when the
// chat feature mounts for a signed-in user, Close it on unmount or logout;
// nothing here is shared between sessions.
type Client struct {
	cfg    Config
	api    *API
	conn   *Conn
	store  *Store
	subs   *Subscriptions
	rooms  *RoomList
	reads  *ReadSync
	sender *SendCoordinator
	log    zerolog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.UserID <= 0 {
		return nil, errors.New("chatclient: user id is required")
	}
	if cfg.BaseURL == "" || cfg.WSURL == "" {
		return nil, errors.New("chatclient: base and websocket URLs are required")
	}

	log := cfg.Logger.With().Int64("user_id", cfg.UserID).Logger()
	api := NewAPI(cfg.BaseURL, cfg.RequestTimeout)
	store := NewStore()
	conn := NewConn(cfg.WSURL, cfg.UserID, log)
	subs := NewSubscriptions(conn, store, log)
	rooms := NewRoomList(api, cfg.UserID, cfg.PollInterval, log)
	reads := NewReadSync(api, rooms, cfg.UserID, log)
	sender := NewSendCoordinator(conn, api, store, rooms, subs, cfg.UserID, log)

	conn.OnFrame(subs.HandleFrame)
	conn.OnState(subs.SetConnected)

	return &Client{
		cfg:    cfg,
		api:    api,
		conn:   conn,
		store:  store,
		subs:   subs,
		rooms:  rooms,
		reads:  reads,
		sender: sender,
		log:    log,
	}, nil
}

// Start opens the realtime connection and begins room list polling.
func (c *Client) Start() {
	c.conn.Start()
	c.rooms.Start()
}

// Close tears the session down; no reconnects happen afterwards.
func (c *Client) Close() {
	c.conn.Close()
	c.rooms.Stop()
}

// ActivateRoom makes roomID the single subscribed room, reloads its
// history and marks it read. The history fetch is tagged with the
// activation's generation: a late response for a room the user has already
// left is discarded, not applied.
func (c *Client) ActivateRoom(roomID int64) error {
	if roomID <= 0 {
		return errors.New("chatclient: invalid room id")
	}

	c.store.Reset(roomID)
	gen := c.subs.Activate(roomID)

	go c.loadHistory(roomID, gen)
	go c.reads.MarkActive(context.Background(), roomID)
	return nil
}

// LeaveRoom clears the active room and drops its subscription.
func (c *Client) LeaveRoom() {
	c.subs.Activate(0)
}

// Send publishes a text of the given kind to the active room.
func (c *Client) Send(ctx context.Context, body string, kind models.MessageKind) error {
	return c.sender.Send(ctx, c.subs.Active(), body, kind)
}

// Messages returns the room's current ordered sequence.
func (c *Client) Messages(roomID int64) []models.Message {
	return c.store.Messages(roomID)
}

// OnMessage registers a callback fired for every message that enters the
// store. Call before Start.
func (c *Client) OnMessage(fn func(models.Message)) {
	c.store.OnInsert(fn)
}

// Rooms returns the room list snapshot.
func (c *Client) Rooms() []models.RoomSummary {
	return c.rooms.Rooms()
}

// TotalUnread is the aggregate unread badge value.
func (c *Client) TotalUnread() int {
	return c.rooms.TotalUnread()
}

// ActiveRoom returns the active room id, 0 if none.
func (c *Client) ActiveRoom() int64 {
	return c.subs.Active()
}

func (c *Client) Connected() bool {
	return c.conn.Connected()
}

// API exposes the REST wrapper for operations outside the realtime core
// (opening rooms, profile upserts).
func (c *Client) API() *API {
	return c.api
}

func (c *Client) loadHistory(roomID int64, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	msgs, err := c.api.History(ctx, roomID, c.cfg.UserID)
	if err != nil {
		// The view shows an empty state; re-activating the room retries.
		c.log.Warn().Err(err).Int64("room_id", roomID).Msg("history fetch failed")
		return
	}
	if !c.subs.ApplyHistoryIf(roomID, gen, msgs) {
		c.log.Debug().Int64("room_id", roomID).Msg("discarding stale history response")
	}
}
