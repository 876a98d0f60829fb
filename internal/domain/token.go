package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose partitions secret tokens. A secret issued for one purpose is
// never accepted for another.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposePasswordReset TokenPurpose = "password_reset"
	PurposeSession       TokenPurpose = "session"
)

// SingleUse reports whether a successful validation consumes the token.
func (p TokenPurpose) SingleUse() bool {
	return p != PurposeSession
}

func (p TokenPurpose) Valid() bool {
	switch p {
	case PurposeVerifyEmail, PurposePasswordReset, PurposeSession:
		return true
	}
	return false
}

// SecretToken is the persisted half of an issued secret. Only the SHA-256
// hash of the raw secret is stored.
type SecretToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Purpose    TokenPurpose
	TokenHash  []byte
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Usable reports whether the token can still be presented at now.
func (t *SecretToken) Usable(now time.Time) bool {
	if t.ConsumedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
