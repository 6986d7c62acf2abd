package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skRookies3team/pawchat/internal/models"
)

const defaultRequestTimeout = 15 * time.Second

// API wraps the broker's REST boundary: room list, room history, read
// marks, the synchronous send fallback and profile upserts.
type API struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *API) Rooms(ctx context.Context, userID int64) ([]models.RoomSummary, error) {
	var body struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	url := fmt.Sprintf("%s/rooms/%d", a.baseURL, userID)
	if err := a.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return body.Rooms, nil
}

func (a *API) History(ctx context.Context, roomID, userID int64) ([]models.Message, error) {
	var body struct {
		Messages []models.Message `json:"messages"`
	}
	url := fmt.Sprintf("%s/room/%d?userId=%d", a.baseURL, roomID, userID)
	if err := a.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return nil, fmt.Errorf("room history: %w", err)
	}
	return body.Messages, nil
}

func (a *API) MarkRead(ctx context.Context, roomID, userID int64) error {
	url := fmt.Sprintf("%s/room/%d/read?userId=%d", a.baseURL, roomID, userID)
	if err := a.do(ctx, http.MethodPut, url, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// Send is the fallback path: a synchronous request that returns the
// persisted message, since no echo will arrive for it.
func (a *API) Send(ctx context.Context, env models.SendEnvelope) (*models.Message, error) {
	var body struct {
		Message *models.Message `json:"message"`
	}
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/send", env, &body); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	if body.Message == nil {
		return nil, fmt.Errorf("send: broker returned no message")
	}
	return body.Message, nil
}

func (a *API) OpenRoom(ctx context.Context, userID, peerID int64) (*models.Room, error) {
	var body struct {
		Room *models.Room `json:"room"`
	}
	payload := map[string]int64{"user_id": userID, "peer_id": peerID}
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/rooms", payload, &body); err != nil {
		return nil, fmt.Errorf("open room: %w", err)
	}
	if body.Room == nil {
		return nil, fmt.Errorf("open room: broker returned no room")
	}
	return body.Room, nil
}

func (a *API) UpsertProfile(ctx context.Context, profile models.Profile) error {
	if err := a.do(ctx, http.MethodPut, a.baseURL+"/profiles", profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (a *API) do(ctx context.Context, method, url string, in any, out ...any) error {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if len(out) > 0 && out[0] != nil {
		if err := json.NewDecoder(resp.Body).Decode(out[0]); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
