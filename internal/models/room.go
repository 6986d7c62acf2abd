package models

import "time"

// Room is a two-party conversation channel. Participant ids are stored
// ordered (UserAID < UserBID) so each pair maps to exactly one room.
type Room struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Partner returns the other participant's id from viewerID's perspective.
func (r Room) Partner(viewerID int64) int64 {
	if viewerID == r.UserAID {
		return r.UserBID
	}
	return r.UserAID
}

// RoomSummary is the room-list projection: one entry per conversation with
// the counterpart's identity, the last message and the unread count.
type RoomSummary struct {
	Room
	PartnerID     int64    `json:"partner_id"`
	PartnerName   string   `json:"partner_name"`
	PartnerAvatar string   `json:"partner_avatar,omitempty"`
	LastMessage   *Message `json:"last_message,omitempty"`
	UnreadCount   int      `json:"unread_count"`
}
