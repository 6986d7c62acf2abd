package chatws

import (
	"context"
	"encoding/json"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

// Hub fans live messages out to room subscribers. All room membership
// state is owned by the Run loop; clients talk to it through channels.
type Hub struct {
	rooms      map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	subscribe  chan subRequest
	unsub      chan subRequest
	broadcast  chan *models.Message
	done       chan struct{}
	log        zerolog.Logger
}

type subRequest struct {
	client *Client
	roomID int64
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte

	// rooms is touched only by the hub loop.
	rooms map[int64]struct{}

	// mu guards closed so the read pump and the hub loop never race a
	// send against the channel close.
	mu     sync.Mutex
	closed bool
}

// trySend queues a payload for the write pump. It reports false when the
// buffer is full or the client has already been removed; it never sends
// on a closed channel.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) markClosed() {
	c.mu.Lock()
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

type chatSender interface {
	SendMessage(ctx context.Context, env models.SendEnvelope) (*models.Message, error)
	CanAccessRoom(ctx context.Context, actorID, roomID int64) error
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subRequest),
		unsub:      make(chan subRequest),
		broadcast:  make(chan *models.Message, 64),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
		rooms:  make(map[int64]struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			// Membership is per room; registration just logs the arrival.
			h.log.Debug().Int64("user_id", client.userID).Msg("client connected")
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.subscribe:
			// A slow client's read pump can outlive its eviction; its
			// subscribes must not resurrect the closed client.
			if req.client.isClosed() {
				continue
			}
			set, ok := h.rooms[req.roomID]
			if !ok {
				set = make(map[*Client]struct{})
				h.rooms[req.roomID] = set
			}
			set[req.client] = struct{}{}
			req.client.rooms[req.roomID] = struct{}{}
		case req := <-h.unsub:
			h.dropFromRoom(req.client, req.roomID)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Stop ends the Run loop. Queued work is abandoned.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(client *Client, roomID int64) {
	h.subscribe <- subRequest{client: client, roomID: roomID}
}

func (h *Hub) Unsubscribe(client *Client, roomID int64) {
	h.unsub <- subRequest{client: client, roomID: roomID}
}

// Broadcast queues a stored message for delivery to every subscriber of
// its room, the sender's own connections included.
func (h *Hub) Broadcast(message *models.Message) {
	h.broadcast <- message
}

func (h *Hub) removeClient(client *Client) {
	if client.isClosed() {
		return
	}
	for roomID := range client.rooms {
		h.dropFromRoom(client, roomID)
	}
	client.markClosed()
}

func (h *Hub) dropFromRoom(client *Client, roomID int64) {
	delete(client.rooms, roomID)
	set, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) deliver(message *models.Message) {
	set, ok := h.rooms[message.RoomID]
	if !ok {
		return
	}

	encoded, err := encodeMessageFrame(message)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", message.RoomID).Msg("encode message frame")
		return
	}

	var stalled []*Client
	for client := range set {
		if !client.trySend(encoded) {
			stalled = append(stalled, client)
		}
	}
	// A client that cannot keep up is cut loose rather than allowed to
	// stall the room.
	for _, client := range stalled {
		h.log.Warn().Int64("user_id", client.userID).Msg("dropping slow client")
		h.removeClient(client)
	}
}

func encodeMessageFrame(message *models.Message) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Frame{
		Type: models.FrameMessage,
		Room: message.RoomID,
		Data: data,
	})
}

func (c *Client) ReadPump(service chatSender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			writeError(c, "invalid frame")
			continue
		}

		switch frame.Type {
		case models.FrameSubscribe:
			if frame.Room <= 0 {
				writeError(c, "invalid room id")
				continue
			}
			if err := service.CanAccessRoom(context.Background(), c.userID, frame.Room); err != nil {
				writeError(c, "room not available")
				continue
			}
			c.hub.Subscribe(c, frame.Room)
		case models.FrameUnsubscribe:
			if frame.Room <= 0 {
				writeError(c, "invalid room id")
				continue
			}
			c.hub.Unsubscribe(c, frame.Room)
		case models.FrameSend:
			var env models.SendEnvelope
			if err := json.Unmarshal(frame.Data, &env); err != nil {
				writeError(c, "invalid send payload")
				continue
			}
			// The connection identity wins over whatever the payload claims.
			env.SenderID = c.userID
			if env.RoomID == 0 {
				env.RoomID = frame.Room
			}

			message, err := service.SendMessage(context.Background(), env)
			if err != nil {
				writeError(c, "failed to send message")
				continue
			}
			c.hub.Broadcast(message)
		default:
			writeError(c, "unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(models.Frame{
		Type:  models.FrameError,
		Error: message,
	})
	if err != nil {
		return
	}
	if !client.trySend(payload) && !client.isClosed() {
		client.hub.Unregister(client)
	}
}
