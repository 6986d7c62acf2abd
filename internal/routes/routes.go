package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/handlers"
	"github.com/skRookies3team/pawchat/internal/repository"
	"github.com/skRookies3team/pawchat/internal/services"
	chatws "github.com/skRookies3team/pawchat/internal/websocket"
)

func RegisterRoutes(app *fiber.App, db *pgxpool.Pool, log zerolog.Logger) {
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	chatHub := chatws.NewHub(log)
	go chatHub.Run()

	chatService := services.NewChatService(db, roomRepo, messageRepo, profileRepo)
	chatHandler := handlers.NewChatHandler(chatService, chatHub)
	profileHandler := handlers.NewProfileHandler(profileRepo)

	api := app.Group("/api/v1")

	api.Get("/rooms/:userId", chatHandler.ListRooms)
	api.Post("/rooms", chatHandler.OpenRoom)
	api.Get("/room/:id", chatHandler.GetHistory)
	api.Put("/room/:id/read", chatHandler.MarkRead)
	api.Post("/send", chatHandler.Send)
	api.Put("/profiles", profileHandler.UpsertProfile)

	api.Use("/ws", chatHandler.WebSocketUpgrade)
	api.Get("/ws", websocket.New(chatHandler.HandleWebSocket))
}
