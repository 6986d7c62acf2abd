package chatclient

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

// transport is the slice of Conn the subscription manager depends on.
type transport interface {
	Connected() bool
	Subscribe(roomID int64) error
	Unsubscribe(roomID int64) error
}

// Subscriptions maintains the invariant that a live subscription exists if
// and only if a room is active and the connection is up, and that the
// subscribed topic always matches the active room. Room switches are
// last-request-wins: every activation bumps a generation counter, and work
// started for an older generation is discarded instead of applied.
type Subscriptions struct {
	transport transport
	store     *Store
	log       zerolog.Logger

	mu         sync.Mutex
	active     int64 // 0 = no active room
	subscribed int64 // room currently subscribed on the wire, 0 = none
	gen        uint64
}

func NewSubscriptions(t transport, store *Store, log zerolog.Logger) *Subscriptions {
	return &Subscriptions{
		transport: t,
		store:     store,
		log:       log.With().Str("component", "subscription").Logger(),
	}
}

// Activate makes roomID the active room (0 clears it) and returns the
// activation's generation token. Callers pass the token back through
// Current before applying results of work started for this activation.
func (s *Subscriptions) Activate(roomID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.active = roomID
	s.reconcileLocked()
	return s.gen
}

// SetConnected is wired to the connection's state callback. Subscriptions
// never outlive the connection they were created on; on reconnect the
// active room is re-subscribed.
func (s *Subscriptions) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !connected {
		s.subscribed = 0
		return
	}
	s.reconcileLocked()
}

// Active returns the active room id, 0 if none.
func (s *Subscriptions) Active() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current reports whether (roomID, gen) still names the live activation.
func (s *Subscriptions) Current(roomID int64, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == roomID && s.gen == gen
}

// ApplyHistoryIf merges a history batch into the store only while
// (roomID, gen) is still the live activation. The check and the apply
// share the lock, so a room switch cannot land between them and let a
// stale batch through.
func (s *Subscriptions) ApplyHistoryIf(roomID int64, gen uint64, msgs []models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != roomID || s.gen != gen {
		return false
	}
	s.store.ApplyHistory(roomID, msgs)
	return true
}

// HandleFrame is wired to the connection's frame callback. Messages for
// rooms other than the active one are dropped: they belong to an abandoned
// subscription whose unsubscribe has not completed yet.
func (s *Subscriptions) HandleFrame(frame models.Frame) {
	switch frame.Type {
	case models.FrameMessage:
	case models.FrameError:
		s.log.Warn().Str("error", frame.Error).Msg("broker error frame")
		return
	default:
		s.log.Debug().Str("type", string(frame.Type)).Msg("ignoring frame")
		return
	}

	var msg models.Message
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		s.log.Warn().Err(err).Msg("discarding malformed message frame")
		return
	}
	msg.Kind = models.ParseMessageKind(string(msg.Kind))

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if msg.RoomID != active {
		s.log.Debug().Int64("room_id", msg.RoomID).Msg("dropping push for inactive room")
		return
	}

	s.store.Insert(msg)
}

// reconcileLocked converges the wire subscription to the active room. The
// unsubscribe for the previous room is issued before the new subscribe so
// two subscriptions are never live at once.
func (s *Subscriptions) reconcileLocked() {
	if !s.transport.Connected() {
		s.subscribed = 0
		return
	}
	if s.subscribed == s.active {
		return
	}

	if s.subscribed != 0 {
		if err := s.transport.Unsubscribe(s.subscribed); err != nil {
			s.log.Warn().Err(err).Int64("room_id", s.subscribed).Msg("unsubscribe failed")
		}
		s.subscribed = 0
	}
	if s.active != 0 {
		if err := s.transport.Subscribe(s.active); err != nil {
			s.log.Warn().Err(err).Int64("room_id", s.active).Msg("subscribe failed")
			return
		}
		s.subscribed = s.active
	}
}
