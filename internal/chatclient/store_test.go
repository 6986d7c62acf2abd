package chatclient

import (
	"testing"
	"time"

	"github.com/skRookies3team/pawchat/internal/models"
)

func msgAt(id, roomID int64, ts int64) models.Message {
	return models.Message{
		ID:        id,
		RoomID:    roomID,
		SenderID:  1,
		Content:   "hello",
		Kind:      models.KindText,
		CreatedAt: time.Unix(ts, 0).UTC(),
	}
}

func messageIDs(msgs []models.Message) []int64 {
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestInsertIsIdempotent(t *testing.T) {
	store := NewStore()

	if !store.Insert(msgAt(501, 42, 100)) {
		t.Fatalf("expected first insert of id 501 to succeed")
	}
	if store.Insert(msgAt(501, 42, 100)) {
		t.Fatalf("expected second insert of id 501 to be a no-op")
	}

	msgs := store.Messages(42)
	if len(msgs) != 1 || msgs[0].ID != 501 {
		t.Fatalf("expected exactly one entry with id 501, got %v", messageIDs(msgs))
	}
}

func TestInsertKeepsTimestampOrder(t *testing.T) {
	store := NewStore()
	store.Insert(msgAt(3, 7, 300))
	store.Insert(msgAt(1, 7, 100))
	store.Insert(msgAt(2, 7, 200))

	got := messageIDs(store.Messages(7))
	want := []int64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestHistoryMergesWithRacingLivePush(t *testing.T) {
	store := NewStore()

	// Live push for id 2 is accepted before the history fetch resolves.
	store.Insert(msgAt(2, 7, 200))
	store.ApplyHistory(7, []models.Message{msgAt(1, 7, 100), msgAt(3, 7, 300)})

	got := messageIDs(store.Messages(7))
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestHistoryDoesNotDuplicateEchoedMessage(t *testing.T) {
	store := NewStore()
	store.Insert(msgAt(5, 9, 500))
	store.ApplyHistory(9, []models.Message{msgAt(5, 9, 500)})

	if msgs := store.Messages(9); len(msgs) != 1 {
		t.Fatalf("expected 1 message after overlapping history, got %d", len(msgs))
	}
}

func TestResetClearsOnlyThatRoom(t *testing.T) {
	store := NewStore()
	store.Insert(msgAt(1, 7, 100))
	store.Insert(msgAt(2, 9, 200))

	store.Reset(7)

	if msgs := store.Messages(7); len(msgs) != 0 {
		t.Fatalf("expected room 7 to be empty after reset, got %v", messageIDs(msgs))
	}
	if msgs := store.Messages(9); len(msgs) != 1 {
		t.Fatalf("expected room 9 untouched, got %v", messageIDs(msgs))
	}

	// After a reset the same id may be inserted again (fresh activation).
	if !store.Insert(msgAt(1, 7, 100)) {
		t.Fatalf("expected insert after reset to succeed")
	}
}

func TestEqualTimestampsKeepArrivalOrder(t *testing.T) {
	store := NewStore()
	store.Insert(msgAt(10, 3, 100))
	store.Insert(msgAt(11, 3, 100))

	got := messageIDs(store.Messages(3))
	if got[0] != 10 || got[1] != 11 {
		t.Fatalf("expected arrival order [10 11] for equal timestamps, got %v", got)
	}
}

func TestOnInsertFiresOncePerUniqueMessage(t *testing.T) {
	store := NewStore()
	var seen []int64
	store.OnInsert(func(m models.Message) { seen = append(seen, m.ID) })

	store.Insert(msgAt(1, 4, 100))
	store.Insert(msgAt(1, 4, 100))
	store.ApplyHistory(4, []models.Message{msgAt(2, 4, 200)})

	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("expected notify only for live insert of id 1, got %v", seen)
	}
}
