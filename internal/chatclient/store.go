package chatclient

import (
	"sort"
	"sync"

	"github.com/skRookies3team/pawchat/internal/models"
)

// Store keeps the per-room message log. Invariants: a room's sequence
// contains each message id at most once and is sorted non-decreasingly by
// creation timestamp. History and live pushes go through the same insert
// path, so a live echo that races the history fetch still lands in order.
type Store struct {
	mu     sync.Mutex
	rooms  map[int64][]models.Message
	seen   map[int64]map[int64]struct{}
	notify func(models.Message)
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[int64][]models.Message),
		seen:  make(map[int64]map[int64]struct{}),
	}
}

// OnInsert registers a callback invoked for every live-inserted message
// (duplicates and history batches do not fire it). Set it before the
// connection starts delivering frames.
func (s *Store) OnInsert(fn func(models.Message)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Reset drops a room's sequence. Called on room activation: the store is
// not persisted across activations, re-opening a room re-fetches history.
func (s *Store) Reset(roomID int64) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	delete(s.seen, roomID)
	s.mu.Unlock()
}

// Insert adds a message in timestamp order. It is idempotent: inserting an
// id that is already present is a no-op and returns false.
func (s *Store) Insert(msg models.Message) bool {
	s.mu.Lock()
	inserted := s.insertLocked(msg)
	fn := s.notify
	s.mu.Unlock()

	if inserted && fn != nil {
		fn(msg)
	}
	return inserted
}

// ApplyHistory merges a history response into the room's sequence. Live
// messages accepted while the fetch was in flight keep their place.
func (s *Store) ApplyHistory(roomID int64, msgs []models.Message) {
	s.mu.Lock()
	for _, msg := range msgs {
		if msg.RoomID == 0 {
			msg.RoomID = roomID
		}
		s.insertLocked(msg)
	}
	s.mu.Unlock()
}

// Messages returns a copy of the room's current sequence.
func (s *Store) Messages(roomID int64) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.rooms[roomID]
	out := make([]models.Message, len(list))
	copy(out, list)
	return out
}

func (s *Store) insertLocked(msg models.Message) bool {
	ids, ok := s.seen[msg.RoomID]
	if !ok {
		ids = make(map[int64]struct{})
		s.seen[msg.RoomID] = ids
	}
	if _, dup := ids[msg.ID]; dup {
		return false
	}
	ids[msg.ID] = struct{}{}

	list := s.rooms[msg.RoomID]
	// Insertion point keeps equal timestamps in arrival order.
	at := sort.Search(len(list), func(i int) bool {
		return list[i].CreatedAt.After(msg.CreatedAt)
	})
	list = append(list, models.Message{})
	copy(list[at+1:], list[at:])
	list[at] = msg
	s.rooms[msg.RoomID] = list
	return true
}
