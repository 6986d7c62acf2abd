package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skRookies3team/pawchat/internal/models"
	"github.com/skRookies3team/pawchat/internal/repository"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrRoomNotFound = errors.New("room not found")
)

type profileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

type ChatService struct {
	db          *pgxpool.Pool
	roomRepo    *repository.RoomRepository
	messageRepo *repository.MessageRepository
	profileRepo profileReader
}

func NewChatService(
	db *pgxpool.Pool,
	roomRepo *repository.RoomRepository,
	messageRepo *repository.MessageRepository,
	profileRepo profileReader,
) *ChatService {
	return &ChatService{
		db:          db,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		profileRepo: profileRepo,
	}
}

// OpenRoom returns the direct room between the two users, creating it if
// it does not exist yet. The pair is unordered.
func (s *ChatService) OpenRoom(ctx context.Context, actorID, peerID int64) (*models.Room, error) {
	if actorID <= 0 || peerID <= 0 || actorID == peerID {
		return nil, ErrInvalidInput
	}

	return s.roomRepo.CreateOrGet(ctx, actorID, peerID)
}

func (s *ChatService) ListRooms(ctx context.Context, actorID int64) ([]models.RoomSummary, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}

	return s.roomRepo.ListForParticipant(ctx, actorID)
}

// CanAccessRoom reports whether the actor participates in the room.
func (s *ChatService) CanAccessRoom(ctx context.Context, actorID, roomID int64) error {
	if actorID <= 0 || roomID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.roomRepo.GetByIDForParticipant(ctx, roomID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}

	return nil
}

// History returns the room's messages oldest first. Only participants may
// read a room.
func (s *ChatService) History(ctx context.Context, actorID, roomID int64) ([]models.Message, error) {
	if actorID <= 0 || roomID <= 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.roomRepo.GetByIDForParticipant(ctx, roomID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return s.messageRepo.HistoryAscending(ctx, roomID)
}

// MarkRead flags every message in the room not sent by the actor as read.
func (s *ChatService) MarkRead(ctx context.Context, actorID, roomID int64) error {
	if actorID <= 0 || roomID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.roomRepo.GetByIDForParticipant(ctx, roomID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}

	return s.messageRepo.MarkRoomRead(ctx, roomID, actorID)
}

// SendMessage persists a message in the room on behalf of the sender and
// returns the stored row. The sender's display name and avatar are
// denormalized onto the message so readers never join against profiles.
func (s *ChatService) SendMessage(ctx context.Context, env models.SendEnvelope) (*models.Message, error) {
	if env.RoomID <= 0 || env.SenderID <= 0 {
		return nil, ErrInvalidInput
	}

	kind := env.MessageType
	if kind == "" {
		kind = models.KindText
	}
	if models.ParseMessageKind(string(kind)) == models.KindUnknown {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(env.Content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.roomRepo.GetByIDForParticipant(ctx, env.RoomID, env.SenderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	senderName := fmt.Sprintf("User %d", env.SenderID)
	senderAvatar := ""
	profile, err := s.profileRepo.GetByUserID(ctx, env.SenderID)
	switch {
	case err == nil:
		senderName = profile.DisplayName
		senderAvatar = profile.AvatarURL
	case errors.Is(err, pgx.ErrNoRows):
		// keep the fallback name
	default:
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txRoomRepo := repository.NewRoomRepository(tx)

	message, err := txMessageRepo.Create(ctx, env.RoomID, env.SenderID, senderName, senderAvatar, trimmed, kind)
	if err != nil {
		return nil, err
	}

	if err := txRoomRepo.Touch(ctx, env.RoomID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return message, nil
}
