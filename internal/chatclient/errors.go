package chatclient

import "errors"

var (
	ErrNotConnected  = errors.New("chatclient: realtime connection is down")
	ErrEmptyMessage  = errors.New("chatclient: message body is empty")
	ErrRoomNotActive = errors.New("chatclient: room is not the active room")
)
