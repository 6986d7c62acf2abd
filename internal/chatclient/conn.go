package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	reconnectDelay = 5 * time.Second
	dialTimeout    = 10 * time.Second
	writeDeadline  = 5 * time.Second
)

// wsConn is the slice of *websocket.Conn the manager needs; tests swap in
// a scripted implementation.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type dialer interface {
	Dial(ctx context.Context, url string) (wsConn, error)
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (wsConn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Conn owns the single realtime connection of a chat session. It is
// created with the user identity and discarded on Close; there is
// deliberately no package-level connection, callers hold and inject this
// object. Reconnection uses a fixed delay and retries until Close.
//
// The raw websocket never leaks above this type: callers get Connected,
// Publish, Subscribe/Unsubscribe and the frame/state callbacks.
type Conn struct {
	url    string
	userID int64
	connID string
	dial   dialer
	log    zerolog.Logger

	// backoff is reconnectDelay; tests shorten it.
	backoff time.Duration

	mu       sync.Mutex
	ws       wsConn
	state    ConnState
	attempts int
	onFrame  func(models.Frame)
	onState  func(connected bool)

	writeMu sync.Mutex

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewConn(wsURL string, userID int64, log zerolog.Logger) *Conn {
	return &Conn{
		url:     wsURL,
		userID:  userID,
		connID:  uuid.NewString(),
		dial:    gorillaDialer{},
		log:     log.With().Str("component", "conn").Logger(),
		backoff: reconnectDelay,
		done:    make(chan struct{}),
	}
}

// OnFrame registers the inbound frame handler. Set before Start.
func (c *Conn) OnFrame(fn func(models.Frame)) {
	c.mu.Lock()
	c.onFrame = fn
	c.mu.Unlock()
}

// OnState registers the connected/disconnected callback. Set before Start.
func (c *Conn) OnState(fn func(connected bool)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// Start launches the dial/read loop.
func (c *Conn) Start() {
	c.wg.Add(1)
	go c.run()
}

// Close tears the socket down unconditionally and stops reconnecting.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
	c.wg.Wait()
}

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Publish writes the envelope to the fixed outbound destination. Returns
// ErrNotConnected when the channel is down so the send coordinator can
// fall back to REST.
func (c *Conn) Publish(env models.SendEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.writeFrame(models.Frame{Type: models.FrameSend, Room: env.RoomID, Data: data})
}

// Subscribe asks the broker to start pushing the room's messages.
func (c *Conn) Subscribe(roomID int64) error {
	return c.writeFrame(models.Frame{Type: models.FrameSubscribe, Room: roomID})
}

// Unsubscribe stops the room's pushes.
func (c *Conn) Unsubscribe(roomID int64) error {
	return c.writeFrame(models.Frame{Type: models.FrameUnsubscribe, Room: roomID})
}

func (c *Conn) writeFrame(frame models.Frame) error {
	c.mu.Lock()
	ws := c.ws
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || ws == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := ws.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.setState(StateConnecting)

		dialCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		ws, err := c.dial.Dial(dialCtx, c.endpoint())
		cancel()
		if err != nil {
			c.mu.Lock()
			c.attempts++
			attempt := c.attempts
			c.mu.Unlock()
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("dial failed")
			c.setState(StateDisconnected)
			if !c.sleep() {
				return
			}
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.attempts = 0
		c.mu.Unlock()
		c.setState(StateConnected)

		c.readLoop(ws)

		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		c.setState(StateDisconnected)

		if !c.sleep() {
			return
		}
	}
}

func (c *Conn) readLoop(ws wsConn) {
	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn().Err(err).Msg("read failed, connection lost")
			}
			_ = ws.Close()
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			// Malformed frames are dropped, never fatal.
			c.log.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}

		c.mu.Lock()
		fn := c.onFrame
		c.mu.Unlock()
		if fn != nil {
			fn(frame)
		}
	}
}

func (c *Conn) setState(next ConnState) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	fn := c.onState
	c.mu.Unlock()

	if prev == next {
		return
	}
	c.log.Debug().Str("from", prev.String()).Str("to", next.String()).Msg("connection state")

	wasConnected := prev == StateConnected
	isConnected := next == StateConnected
	if fn != nil && wasConnected != isConnected {
		fn(isConnected)
	}
}

// sleep waits one backoff interval; false means Close happened. The
// reconnect loop never spins without this delay.
func (c *Conn) sleep() bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-c.done:
		return false
	case <-t.C:
		return true
	}
}

func (c *Conn) endpoint() string {
	return fmt.Sprintf("%s?userId=%d&connId=%s", c.url, c.userID, c.connID)
}
