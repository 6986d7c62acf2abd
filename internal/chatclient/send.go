package chatclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

type publisher interface {
	Connected() bool
	Publish(env models.SendEnvelope) error
}

type sendFallback interface {
	Send(ctx context.Context, env models.SendEnvelope) (*models.Message, error)
}

type activeRoom interface {
	Active() int64
}

type invalidator interface {
	Invalidate()
}

// SendCoordinator routes a new message through the live connection when it
// is up and through the synchronous REST fallback when it is not. On the
// live path the persisted message arrives via the room subscription (the
// echo), so nothing is appended locally; on the fallback path the REST
// response is appended directly because no echo will come.
type SendCoordinator struct {
	conn   publisher
	api    sendFallback
	store  *Store
	rooms  invalidator
	subs   activeRoom
	userID int64
	log    zerolog.Logger
}

func NewSendCoordinator(conn publisher, api sendFallback, store *Store, rooms invalidator, subs activeRoom, userID int64, log zerolog.Logger) *SendCoordinator {
	return &SendCoordinator{
		conn:   conn,
		api:    api,
		store:  store,
		rooms:  rooms,
		subs:   subs,
		userID: userID,
		log:    log.With().Str("component", "send").Logger(),
	}
}

// Send publishes a message to the active room. A fallback failure is
// returned to the caller so the composer can re-enable and offer a retry;
// the message is never silently dropped.
func (s *SendCoordinator) Send(ctx context.Context, roomID int64, body string, kind models.MessageKind) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if roomID <= 0 || roomID != s.subs.Active() {
		return ErrRoomNotActive
	}

	env := models.SendEnvelope{
		RoomID:      roomID,
		SenderID:    s.userID,
		Content:     trimmed,
		MessageType: kind,
	}

	if s.conn.Connected() {
		if err := s.conn.Publish(env); err == nil {
			s.rooms.Invalidate()
			return nil
		}
		// The connection dropped between the check and the write;
		// take the fallback path.
		s.log.Debug().Int64("room_id", roomID).Msg("publish failed, using fallback")
	}

	msg, err := s.api.Send(ctx, env)
	if err != nil {
		return fmt.Errorf("send fallback: %w", err)
	}
	s.store.Insert(*msg)
	s.rooms.Invalidate()
	return nil
}
