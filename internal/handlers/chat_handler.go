package handlers

import (
	"context"
	"errors"
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/skRookies3team/pawchat/internal/models"
	"github.com/skRookies3team/pawchat/internal/services"
	chatws "github.com/skRookies3team/pawchat/internal/websocket"
)

type chatApplicationService interface {
	ListRooms(ctx context.Context, actorID int64) ([]models.RoomSummary, error)
	OpenRoom(ctx context.Context, actorID, peerID int64) (*models.Room, error)
	History(ctx context.Context, actorID, roomID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, actorID, roomID int64) error
	SendMessage(ctx context.Context, env models.SendEnvelope) (*models.Message, error)
	CanAccessRoom(ctx context.Context, actorID, roomID int64) error
}

type ChatHandler struct {
	service chatApplicationService
	hub     *chatws.Hub
}

type openRoomRequest struct {
	UserID int64 `json:"user_id"`
	PeerID int64 `json:"peer_id"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub) *ChatHandler {
	return &ChatHandler{
		service: service,
		hub:     hub,
	}
}

func (h *ChatHandler) ListRooms(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	rooms, err := h.service.ListRooms(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"rooms": rooms})
}

func (h *ChatHandler) OpenRoom(c *fiber.Ctx) error {
	var req openRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	room, err := h.service.OpenRoom(c.Context(), req.UserID, req.PeerID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	roomID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room id"})
	}

	userID, err := parseUserIDQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	messages, err := h.service.History(c.Context(), userID, roomID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	roomID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room id"})
	}

	userID, err := parseUserIDQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, roomID); err != nil {
		return mapChatError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Send is the REST fallback for clients whose realtime channel is down.
// The stored message still reaches live subscribers through the hub.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var env models.SendEnvelope
	if err := c.BodyParser(&env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.SendMessage(c.Context(), env)
	if err != nil {
		return mapChatError(c, err)
	}

	h.hub.Broadcast(message)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	userID, err := parseUserIDQuery(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user id"})
	}

	c.Locals("user_id", userID)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(int64)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func parseUserIDQuery(c *fiber.Ctx) (int64, error) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid userId")
	}
	return userID, nil
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
