package chatclient

import (
	"context"

	"github.com/rs/zerolog"
)

type readMarker interface {
	MarkRead(ctx context.Context, roomID, userID int64) error
}

type roomRefresher interface {
	ZeroUnread(roomID int64)
	Invalidate()
}

// ReadSync clears a room's unread state when it becomes active: the local
// count drops to zero immediately, the server mark runs fire-and-forget,
// and a successful mark refreshes the room list aggregate.
type ReadSync struct {
	api    readMarker
	rooms  roomRefresher
	userID int64
	log    zerolog.Logger
}

func NewReadSync(api readMarker, rooms roomRefresher, userID int64, log zerolog.Logger) *ReadSync {
	return &ReadSync{
		api:    api,
		rooms:  rooms,
		userID: userID,
		log:    log.With().Str("component", "readsync").Logger(),
	}
}

// MarkActive never blocks message viewing: a failed mark is only logged,
// and the next activation of the room retries it.
func (r *ReadSync) MarkActive(ctx context.Context, roomID int64) {
	r.rooms.ZeroUnread(roomID)

	if err := r.api.MarkRead(ctx, roomID, r.userID); err != nil {
		r.log.Warn().Err(err).Int64("room_id", roomID).Msg("mark read failed")
		return
	}
	r.rooms.Invalidate()
}
