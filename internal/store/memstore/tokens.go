package memstore

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

type tokenRepository struct {
	s *Store
}

func (r *tokenRepository) Create(_ context.Context, t *domain.SecretToken) error {
	defer r.s.lock()()

	if _, ok := r.s.data.tokens[t.ID]; ok {
		return domain.NewConflictError("id", "id already exists")
	}
	r.s.data.tokens[t.ID] = *t
	return nil
}

func (r *tokenRepository) find(purpose domain.TokenPurpose, hash []byte, now time.Time) (domain.SecretToken, bool) {
	for _, t := range r.s.data.tokens {
		if t.Purpose == purpose && bytes.Equal(t.TokenHash, hash) && t.Usable(now) {
			return t, true
		}
	}
	return domain.SecretToken{}, false
}

func (r *tokenRepository) FindActive(_ context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error) {
	defer r.s.lock()()

	t, ok := r.find(purpose, hash, now)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *tokenRepository) Consume(_ context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error) {
	defer r.s.lock()()

	t, ok := r.find(purpose, hash, now)
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.ConsumedAt = ptr(now)
	r.s.data.tokens[t.ID] = t
	return &t, nil
}

func (r *tokenRepository) Delete(_ context.Context, purpose domain.TokenPurpose, hash []byte) error {
	defer r.s.lock()()

	for id, t := range r.s.data.tokens {
		if t.Purpose == purpose && bytes.Equal(t.TokenHash, hash) {
			delete(r.s.data.tokens, id)
		}
	}
	return nil
}

func (r *tokenRepository) DeleteForUser(_ context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error {
	defer r.s.lock()()

	for id, t := range r.s.data.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			delete(r.s.data.tokens, id)
		}
	}
	return nil
}

func (r *tokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()

	var n int64
	for id, t := range r.s.data.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.s.data.tokens, id)
			n++
		}
	}
	return n, nil
}
