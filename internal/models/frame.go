package models

import "encoding/json"

// FrameType discriminates the JSON envelopes exchanged on the realtime
// channel.
type FrameType string

const (
	// Client to broker.
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FrameSend        FrameType = "send"

	// Broker to client.
	FrameMessage FrameType = "message"
	FrameError   FrameType = "error"
)

type Frame struct {
	Type  FrameType       `json:"type"`
	Room  int64           `json:"room_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// SendEnvelope is the outbound publish payload. It carries ids only; the
// broker resolves sender display metadata from the profile store so a
// client cannot spoof another user's name.
type SendEnvelope struct {
	RoomID      int64       `json:"room_id"`
	SenderID    int64       `json:"sender_id"`
	Content     string      `json:"content"`
	MessageType MessageKind `json:"message_type"`
}
