package repository

import (
	"context"

	"github.com/skRookies3team/pawchat/internal/models"
)

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert creates the profile row or refreshes its display fields.
func (r *ProfileRepository) Upsert(ctx context.Context, userID int64, displayName, avatarURL string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, display_name, avatar_url, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET display_name = EXCLUDED.display_name, avatar_url = EXCLUDED.avatar_url, updated_at = NOW()
		RETURNING user_id, display_name, avatar_url
	`

	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID, displayName, avatarURL).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
	)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, display_name, avatar_url
		FROM profiles
		WHERE user_id = $1
	`

	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
	)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
