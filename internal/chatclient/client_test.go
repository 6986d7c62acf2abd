package chatclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/models"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL: baseURL,
		WSURL:   "ws://127.0.0.1:1/api/v1/ws",
		UserID:  77,
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresIdentityAndEndpoints(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://x", WSURL: "ws://x"}); err == nil {
		t.Fatalf("expected error without a user id")
	}
	if _, err := New(Config{UserID: 1}); err == nil {
		t.Fatalf("expected error without endpoints")
	}
}

func TestActivateRoomLoadsHistoryInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/room/7") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []models.Message{msgAt(1, 7, 100), msgAt(3, 7, 300)},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.ActivateRoom(7); err != nil {
		t.Fatalf("ActivateRoom: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(client.Messages(7)) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := messageIDs(client.Messages(7))
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected history [1 3], got %v", got)
	}
}

func TestStaleHistoryIsDiscardedAfterRoomSwitch(t *testing.T) {
	release := make(chan struct{})
	served := make(chan struct{}, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/room/7"):
			// Room 7's history resolves only after the user has moved on.
			<-release
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []models.Message{msgAt(1, 7, 100)},
			})
		case strings.HasPrefix(r.URL.Path, "/room/9"):
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []models.Message{}})
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		served <- struct{}{}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.ActivateRoom(7); err != nil {
		t.Fatalf("ActivateRoom(7): %v", err)
	}
	if err := client.ActivateRoom(9); err != nil {
		t.Fatalf("ActivateRoom(9): %v", err)
	}

	close(release)
	for i := 0; i < 2; i++ {
		select {
		case <-served:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for history responses")
		}
	}
	// Give the discarded response a moment to (incorrectly) apply.
	time.Sleep(20 * time.Millisecond)

	if msgs := client.Messages(7); len(msgs) != 0 {
		t.Fatalf("expected stale history for room 7 to be discarded, got %v", messageIDs(msgs))
	}
	if msgs := client.Messages(9); len(msgs) != 0 {
		t.Fatalf("expected room 9 unaffected, got %v", messageIDs(msgs))
	}
}
