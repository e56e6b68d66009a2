package models

import "time"

// User is the display identity recovered from a browser session's bearer
// token. The gateway never verifies the token's signature itself; see
// internal/auth for the trust boundary this type sits on.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
