package repository

import (
	"context"

	"github.com/skRookies3team/pawchat/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	roomID int64,
	senderID int64,
	senderName string,
	senderAvatar string,
	content string,
	kind models.MessageKind,
) (*models.Message, error) {
	query := `
		INSERT INTO messages (room_id, sender_id, sender_name, sender_avatar, content, message_type, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, room_id, sender_id, sender_name, sender_avatar, content, message_type, is_read, created_at
	`

	var message models.Message
	var rawKind string
	err := r.db.QueryRow(ctx, query, roomID, senderID, senderName, senderAvatar, content, string(kind)).Scan(
		&message.ID,
		&message.RoomID,
		&message.SenderID,
		&message.SenderName,
		&message.SenderAvatar,
		&message.Content,
		&rawKind,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	message.Kind = models.ParseMessageKind(rawKind)

	return &message, nil
}

// HistoryAscending returns the full room history ordered oldest first,
// which is the order the client store expects.
func (r *MessageRepository) HistoryAscending(
	ctx context.Context,
	roomID int64,
) ([]models.Message, error) {
	query := `
		SELECT id, room_id, sender_id, sender_name, sender_avatar, content, message_type, is_read, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		var rawKind string
		if err := rows.Scan(
			&message.ID,
			&message.RoomID,
			&message.SenderID,
			&message.SenderName,
			&message.SenderAvatar,
			&message.Content,
			&rawKind,
			&message.IsRead,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		message.Kind = models.ParseMessageKind(rawKind)

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkRoomRead flags every message the reader received in the room.
func (r *MessageRepository) MarkRoomRead(
	ctx context.Context,
	roomID int64,
	readerID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE room_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, roomID, readerID)
	return err
}
