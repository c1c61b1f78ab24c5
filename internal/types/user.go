package types

import "time"

// UserResponse is the client-visible shape of an account, mirroring the
// fields embedded in the session token.
type UserResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Image          string    `json:"image"`
	Role           string    `json:"role"`
	CanComment     bool      `json:"can_comment"`
	SessionVersion int       `json:"session_version"`
	CreatedAt      time.Time `json:"created_at"`
}
