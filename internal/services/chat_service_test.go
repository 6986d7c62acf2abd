package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skRookies3team/pawchat/internal/models"
)

func TestOpenRoomRejectsBadPairs(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil)

	cases := []struct {
		name    string
		actorID int64
		peerID  int64
	}{
		{name: "zero actor", actorID: 0, peerID: 5},
		{name: "zero peer", actorID: 5, peerID: 0},
		{name: "negative peer", actorID: 5, peerID: -1},
		{name: "self room", actorID: 5, peerID: 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.OpenRoom(context.Background(), tc.actorID, tc.peerID)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("OpenRoom error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestListRoomsRejectsBadActor(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil)

	if _, err := service.ListRooms(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ListRooms error = %v, want ErrInvalidInput", err)
	}
}

func TestHistoryRejectsBadIDs(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil)

	if _, err := service.History(context.Background(), 0, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("History error = %v, want ErrInvalidInput", err)
	}
	if _, err := service.History(context.Background(), 7, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("History error = %v, want ErrInvalidInput", err)
	}
}

func TestMarkReadRejectsBadIDs(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil)

	if err := service.MarkRead(context.Background(), -1, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("MarkRead error = %v, want ErrInvalidInput", err)
	}
	if err := service.MarkRead(context.Background(), 7, -2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("MarkRead error = %v, want ErrInvalidInput", err)
	}
}

func TestSendMessageRejectsInvalidEnvelopes(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil)

	cases := []struct {
		name string
		env  models.SendEnvelope
	}{
		{
			name: "missing room",
			env:  models.SendEnvelope{SenderID: 7, Content: "hi"},
		},
		{
			name: "missing sender",
			env:  models.SendEnvelope{RoomID: 3, Content: "hi"},
		},
		{
			name: "blank content",
			env:  models.SendEnvelope{RoomID: 3, SenderID: 7, Content: "   "},
		},
		{
			name: "unknown kind",
			env:  models.SendEnvelope{RoomID: 3, SenderID: 7, Content: "hi", MessageType: "VIDEO"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SendMessage(context.Background(), tc.env)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("SendMessage error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
