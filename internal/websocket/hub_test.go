package chatws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receiveFrame(t *testing.T, client *Client) models.Frame {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		if !ok {
			t.Fatal("send channel closed while expecting a frame")
		}
		var frame models.Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return models.Frame{}
}

func TestBroadcastReachesEveryRoomSubscriberIncludingSender(t *testing.T) {
	hub := newRunningHub(t)
	sender := NewClient(hub, nil, 7)
	peer := NewClient(hub, nil, 8)
	hub.Subscribe(sender, 5)
	hub.Subscribe(peer, 5)

	hub.Broadcast(&models.Message{ID: 31, RoomID: 5, SenderID: 7, Content: "walk?"})

	for _, client := range []*Client{sender, peer} {
		frame := receiveFrame(t, client)
		if frame.Type != models.FrameMessage || frame.Room != 5 {
			t.Fatalf("unexpected frame: %+v", frame)
		}
		var msg models.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			t.Fatalf("Unmarshal data: %v", err)
		}
		if msg.ID != 31 || msg.SenderID != 7 {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}
}

func TestBroadcastSkipsOtherRooms(t *testing.T) {
	hub := newRunningHub(t)
	subscriber := NewClient(hub, nil, 7)
	bystander := NewClient(hub, nil, 8)
	hub.Subscribe(subscriber, 5)
	hub.Subscribe(bystander, 6)

	hub.Broadcast(&models.Message{ID: 31, RoomID: 5, SenderID: 7, Content: "walk?"})

	receiveFrame(t, subscriber)
	select {
	case payload := <-bystander.send:
		t.Fatalf("expected no delivery to another room's subscriber, got %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := newRunningHub(t)
	client := NewClient(hub, nil, 7)
	hub.Subscribe(client, 5)

	hub.Broadcast(&models.Message{ID: 1, RoomID: 5, SenderID: 7, Content: "first"})
	receiveFrame(t, client)

	hub.Unsubscribe(client, 5)
	hub.Broadcast(&models.Message{ID: 2, RoomID: 5, SenderID: 7, Content: "second"})

	select {
	case payload := <-client.send:
		t.Fatalf("expected no delivery after unsubscribe, got %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowClientIsEvictedAndStaysOut(t *testing.T) {
	hub := newRunningHub(t)
	slow := NewClient(hub, nil, 7)
	healthy := NewClient(hub, nil, 8)
	hub.Subscribe(slow, 5)

	// The slow client never drains; one broadcast past its buffer evicts it.
	overflow := cap(slow.send) + 1
	for i := 0; i < overflow; i++ {
		hub.Broadcast(&models.Message{ID: int64(i + 1), RoomID: 5, SenderID: 8, Content: "spam"})
	}

	deadline := time.Now().Add(2 * time.Second)
	for !slow.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("expected the slow client to be evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The eviction races the read pump in production: a subscribe issued
	// after removal must not put the closed client back into the room.
	hub.Subscribe(slow, 5)
	hub.Subscribe(healthy, 5)
	hub.Broadcast(&models.Message{ID: int64(overflow + 1), RoomID: 5, SenderID: 8, Content: "after"})

	// The healthy client receiving proves the hub loop survived delivery
	// to a room the closed client tried to rejoin.
	frame := receiveFrame(t, healthy)
	if frame.Room != 5 {
		t.Fatalf("unexpected frame: %+v", frame)
	}

	delivered := 0
	for {
		_, ok := <-slow.send
		if !ok {
			break
		}
		delivered++
	}
	if delivered != cap(slow.send) {
		t.Fatalf("expected the evicted client to hold %d buffered frames, got %d", cap(slow.send), delivered)
	}
}
