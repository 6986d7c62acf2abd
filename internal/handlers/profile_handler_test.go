package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/skRookies3team/pawchat/internal/models"
)

type stubProfileStore struct {
	result       *models.Profile
	err          error
	lastUserID   int64
	lastName     string
	lastAvatar   string
	upsertCalled bool
}

func (s *stubProfileStore) Upsert(_ context.Context, userID int64, displayName, avatarURL string) (*models.Profile, error) {
	s.upsertCalled = true
	s.lastUserID = userID
	s.lastName = displayName
	s.lastAvatar = avatarURL
	return s.result, s.err
}

func TestUpsertProfileTrimsAndStores(t *testing.T) {
	store := &stubProfileStore{
		result: &models.Profile{UserID: 42, DisplayName: "Dana", AvatarURL: "https://cdn.example.com/d.png"},
	}
	handler := NewProfileHandler(store)

	app := fiber.New()
	app.Put("/api/v1/profiles", handler.UpsertProfile)

	payload := `{"user_id":42,"display_name":"  Dana  ","avatar_url":"https://cdn.example.com/d.png"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.lastUserID != 42 || store.lastName != "Dana" {
		t.Fatalf("unexpected forwarded profile: user=%d name=%q", store.lastUserID, store.lastName)
	}

	var body struct {
		Profile models.Profile `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Profile.DisplayName != "Dana" {
		t.Fatalf("unexpected profile body: %+v", body.Profile)
	}
}

func TestUpsertProfileRejectsBlankName(t *testing.T) {
	store := &stubProfileStore{}
	handler := NewProfileHandler(store)

	app := fiber.New()
	app.Put("/api/v1/profiles", handler.UpsertProfile)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles", strings.NewReader(`{"user_id":42,"display_name":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if store.upsertCalled {
		t.Fatal("expected no store call for blank display name")
	}
}
