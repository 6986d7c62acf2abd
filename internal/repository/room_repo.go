package repository

import (
	"context"
	"database/sql"

	"github.com/skRookies3team/pawchat/internal/models"
)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateOrGet returns the single room for a participant pair, creating it
// on first contact. The pair is stored ordered so (a,b) and (b,a) resolve
// to the same row.
func (r *RoomRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	peerID int64,
) (*models.Room, error) {
	a, b := userID, peerID
	if a > b {
		a, b = b, a
	}

	query := `
		INSERT INTO rooms (user_a_id, user_b_id)
		VALUES ($1, $2)
		ON CONFLICT (user_a_id, user_b_id)
		DO UPDATE SET updated_at = rooms.updated_at
		RETURNING id, user_a_id, user_b_id, created_at, updated_at
	`

	var room models.Room
	err := r.db.QueryRow(ctx, query, a, b).Scan(
		&room.ID,
		&room.UserAID,
		&room.UserBID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *RoomRepository) GetByIDForParticipant(
	ctx context.Context,
	roomID int64,
	participantID int64,
) (*models.Room, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at, updated_at
		FROM rooms
		WHERE id = $1 AND (user_a_id = $2 OR user_b_id = $2)
	`

	var room models.Room
	err := r.db.QueryRow(ctx, query, roomID, participantID).Scan(
		&room.ID,
		&room.UserAID,
		&room.UserBID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

// ListForParticipant builds the room-list projection: counterpart profile,
// last message and unread count per room, freshest conversation first.
func (r *RoomRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.RoomSummary, error) {
	query := `
		SELECT
			r.id,
			r.user_a_id,
			r.user_b_id,
			r.created_at,
			r.updated_at,
			CASE WHEN r.user_a_id = $1 THEN r.user_b_id ELSE r.user_a_id END,
			COALESCE(p.display_name, ''),
			COALESCE(p.avatar_url, ''),
			lm.id,
			lm.sender_id,
			lm.sender_name,
			lm.content,
			lm.message_type,
			lm.is_read,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM rooms r
		LEFT JOIN profiles p
			ON p.user_id = CASE WHEN r.user_a_id = $1 THEN r.user_b_id ELSE r.user_a_id END
		LEFT JOIN LATERAL (
			SELECT id, sender_id, sender_name, content, message_type, is_read, created_at
			FROM messages
			WHERE room_id = r.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE room_id = r.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE r.user_a_id = $1 OR r.user_b_id = $1
		ORDER BY COALESCE(lm.created_at, r.updated_at, r.created_at) DESC, r.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.RoomSummary, 0)
	for rows.Next() {
		var summary models.RoomSummary
		var messageID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageSenderName sql.NullString
		var messageContent sql.NullString
		var messageKind sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.UserAID,
			&summary.UserBID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.PartnerID,
			&summary.PartnerName,
			&summary.PartnerAvatar,
			&messageID,
			&messageSenderID,
			&messageSenderName,
			&messageContent,
			&messageKind,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.Message{
				ID:         messageID.Int64,
				RoomID:     summary.ID,
				SenderID:   messageSenderID.Int64,
				SenderName: messageSenderName.String,
				Content:    messageContent.String,
				Kind:       models.ParseMessageKind(messageKind.String),
				IsRead:     messageIsRead.Bool,
				CreatedAt:  messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *RoomRepository) Touch(ctx context.Context, roomID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE rooms
		SET updated_at = NOW()
		WHERE id = $1
	`, roomID)
	return err
}
