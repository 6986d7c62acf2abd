package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skRookies3team/pawchat/internal/chatclient"
	"github.com/skRookies3team/pawchat/internal/config"
	"github.com/skRookies3team/pawchat/internal/models"
)

// chatctl is a terminal chat client against a running chatd broker.
//
//	/rooms          list rooms with unread counts
//	/open <roomId>  activate a room and print its history
//	/peer <userId>  open (or create) the direct room with a user
//	/unread         print the total unread badge value
//	/quit           exit
//
// Any other input is sent to the active room.
func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	client, err := chatclient.New(chatclient.Config{
		BaseURL:      cfg.BaseURL,
		WSURL:        cfg.WSURL,
		UserID:       cfg.UserID,
		PollInterval: cfg.PollInterval,
		Logger:       zlog,
	})
	if err != nil {
		log.Fatalf("Failed to create chat client: %v", err)
	}

	if cfg.DisplayName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := client.API().UpsertProfile(ctx, models.Profile{
			UserID:      cfg.UserID,
			DisplayName: cfg.DisplayName,
			AvatarURL:   cfg.AvatarURL,
		})
		cancel()
		if err != nil {
			log.Fatalf("Failed to register profile: %v", err)
		}
	}

	client.OnMessage(printMessage)
	client.Start()
	defer client.Close()

	fmt.Printf("connected as user %d, type /rooms to begin\n", cfg.UserID)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/rooms":
			printRooms(client.Rooms())
		case line == "/unread":
			fmt.Printf("unread: %d\n", client.TotalUnread())
		case strings.HasPrefix(line, "/open "):
			openRoom(client, strings.TrimPrefix(line, "/open "))
		case strings.HasPrefix(line, "/peer "):
			openPeer(client, cfg.UserID, strings.TrimPrefix(line, "/peer "))
		case strings.HasPrefix(line, "/"):
			fmt.Println("unknown command")
		default:
			sendText(client, line)
		}
	}
}

func printMessage(msg models.Message) {
	fmt.Printf("[room %d] %s: %s\n", msg.RoomID, msg.SenderName, msg.Content)
}

func printRooms(rooms []models.RoomSummary) {
	if len(rooms) == 0 {
		fmt.Println("no rooms yet, use /peer <userId> to start one")
		return
	}
	for _, room := range rooms {
		last := ""
		if room.LastMessage != nil {
			last = room.LastMessage.Content
		}
		fmt.Printf("room %d with %s (unread %d): %s\n", room.ID, room.PartnerName, room.UnreadCount, last)
	}
}

func openRoom(client *chatclient.Client, arg string) {
	roomID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || roomID <= 0 {
		fmt.Println("usage: /open <roomId>")
		return
	}
	if err := client.ActivateRoom(roomID); err != nil {
		fmt.Printf("open failed: %v\n", err)
		return
	}
	fmt.Printf("room %d active\n", roomID)
}

func openPeer(client *chatclient.Client, userID int64, arg string) {
	peerID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || peerID <= 0 {
		fmt.Println("usage: /peer <userId>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	room, err := client.API().OpenRoom(ctx, userID, peerID)
	cancel()
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		return
	}

	if err := client.ActivateRoom(room.ID); err != nil {
		fmt.Printf("open failed: %v\n", err)
		return
	}
	fmt.Printf("room %d with user %d active\n", room.ID, peerID)
}

func sendText(client *chatclient.Client, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Send(ctx, body, models.KindText); err != nil {
		fmt.Printf("send failed: %v\n", err)
	}
}
