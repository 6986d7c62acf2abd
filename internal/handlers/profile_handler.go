package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/skRookies3team/pawchat/internal/models"
)

const maxDisplayNameLength = 120

type profileStore interface {
	Upsert(ctx context.Context, userID int64, displayName, avatarURL string) (*models.Profile, error)
}

type ProfileHandler struct {
	profiles profileStore
}

func NewProfileHandler(profiles profileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type upsertProfileRequest struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// UpsertProfile registers or refreshes the display identity that gets
// denormalized onto every message the user sends afterwards.
func (h *ProfileHandler) UpsertProfile(c *fiber.Ctx) error {
	var req upsertProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.UserID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" || len(displayName) > maxDisplayNameLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid display name"})
	}

	profile, err := h.profiles.Upsert(c.Context(), req.UserID, displayName, strings.TrimSpace(req.AvatarURL))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}
