// Package token issues and checks the opaque secrets behind email
// verification, password reset and sessions. Raw secrets only ever leave
// through Issue; the store sees their SHA-256 hashes.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
)

// secretLen is the entropy of a raw secret in bytes (256 bits).
const secretLen = 32

type Service struct {
	now func() time.Time
}

// NewService returns a token service. A nil clock means time.Now.
func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{now: now}
}

// Issue stores a new token for userID and returns the raw secret to hand to
// the user.
func (s *Service) Issue(ctx context.Context, repo store.TokenRepository, purpose domain.TokenPurpose, userID uuid.UUID, ttl time.Duration) (string, *domain.SecretToken, error) {
	if !purpose.Valid() {
		return "", nil, fmt.Errorf("unknown token purpose %q", purpose)
	}

	raw, err := generateSecret()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate %s token: %w", purpose, err)
	}

	now := s.now()
	t := &domain.SecretToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: Hash(raw),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, t); err != nil {
		return "", nil, err
	}

	return raw, t, nil
}

// Validate returns the owner of an active token without consuming it.
func (s *Service) Validate(ctx context.Context, repo store.TokenRepository, purpose domain.TokenPurpose, raw string) (uuid.UUID, error) {
	hash, ok := hashIfWellFormed(raw)
	if !ok {
		return uuid.Nil, domain.ErrInvalidOrExpiredToken
	}

	t, err := repo.FindActive(ctx, purpose, hash, s.now())
	if err != nil {
		return uuid.Nil, lookupError(err)
	}
	if subtle.ConstantTimeCompare(t.TokenHash, hash) != 1 || t.Purpose != purpose {
		return uuid.Nil, domain.ErrInvalidOrExpiredToken
	}

	return t.UserID, nil
}

// Consume atomically marks a single-use token consumed and returns its owner.
// Of two concurrent calls with the same secret exactly one succeeds.
func (s *Service) Consume(ctx context.Context, repo store.TokenRepository, purpose domain.TokenPurpose, raw string) (uuid.UUID, error) {
	if !purpose.SingleUse() {
		return uuid.Nil, fmt.Errorf("%s tokens are not single-use", purpose)
	}

	hash, ok := hashIfWellFormed(raw)
	if !ok {
		return uuid.Nil, domain.ErrInvalidOrExpiredToken
	}

	t, err := repo.Consume(ctx, purpose, hash, s.now())
	if err != nil {
		return uuid.Nil, lookupError(err)
	}

	return t.UserID, nil
}

// Revoke deletes the token behind raw. Unknown secrets are ignored.
func (s *Service) Revoke(ctx context.Context, repo store.TokenRepository, purpose domain.TokenPurpose, raw string) error {
	hash, ok := hashIfWellFormed(raw)
	if !ok {
		return nil
	}
	return repo.Delete(ctx, purpose, hash)
}

// RevokeAll deletes every token of the purpose held by userID.
func (s *Service) RevokeAll(ctx context.Context, repo store.TokenRepository, purpose domain.TokenPurpose, userID uuid.UUID) error {
	return repo.DeleteForUser(ctx, userID, purpose)
}

// Prune deletes expired tokens of every purpose.
func (s *Service) Prune(ctx context.Context, repo store.TokenRepository) (int64, error) {
	return repo.DeleteExpired(ctx, s.now())
}

// Hash is the at-rest form of a raw secret.
func Hash(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return sum[:]
}

func hashIfWellFormed(raw string) ([]byte, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(decoded) != secretLen {
		return nil, false
	}
	return Hash(raw), true
}

func lookupError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidOrExpiredToken
	}
	return err
}

// generateSecret creates a cryptographically secure random token
func generateSecret() (string, error) {
	b := make([]byte, secretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
