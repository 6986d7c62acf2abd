package models

import "time"

// MessageKind is the explicit variant over the wire-level message type.
// Anything the client or broker does not recognize maps to KindUnknown
// instead of being passed through as a raw string.
type MessageKind string

const (
	KindText    MessageKind = "TEXT"
	KindImage   MessageKind = "IMAGE"
	KindSystem  MessageKind = "SYSTEM"
	KindUnknown MessageKind = "UNKNOWN"
)

func ParseMessageKind(raw string) MessageKind {
	switch MessageKind(raw) {
	case KindText, KindImage, KindSystem:
		return MessageKind(raw)
	default:
		return KindUnknown
	}
}

// Message is immutable once the broker has assigned its id. Sender display
// metadata is denormalized at send time so history survives profile edits.
// CreatedAt is the authoritative ordering key.
type Message struct {
	ID           int64       `json:"id"`
	RoomID       int64       `json:"room_id"`
	SenderID     int64       `json:"sender_id"`
	SenderName   string      `json:"sender_name"`
	SenderAvatar string      `json:"sender_avatar,omitempty"`
	Content      string      `json:"content"`
	Kind         MessageKind `json:"message_type"`
	IsRead       bool        `json:"is_read"`
	CreatedAt    time.Time   `json:"created_at"`
}
