package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"` // Never expose password hash in JSON
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Profile is 1:1 with User. First and last name are fixed at registration;
// gender, preference and bio stay nil until the first profile update.
type Profile struct {
	UserID     uuid.UUID `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Username   string    `json:"username"`
	Gender     *string   `json:"gender"`
	Preference *string   `json:"preference"`
	Bio        *string   `json:"bio"`
	UpdatedAt  time.Time `json:"updated_at"`
}
