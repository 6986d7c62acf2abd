package models

// Profile is the display metadata the broker denormalizes into messages
// when they are created.
type Profile struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
