package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

// tokenRepository persists hashed secrets. Every query filters on purpose so
// the three token kinds never overlap even though they share one table.
type tokenRepository struct {
	db bun.IDB
}

func (r *tokenRepository) Create(ctx context.Context, t *domain.SecretToken) error {
	dbToken := &secretTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Purpose:   string(t.Purpose),
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}

	if _, err := r.db.NewInsert().Model(dbToken).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store %s token: %w", t.Purpose, mapError(err))
	}

	return nil
}

func (r *tokenRepository) FindActive(ctx context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error) {
	dbToken := new(secretTokenModel)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("st.purpose = ?", string(purpose)).
		Where("st.token_hash = ?", hash).
		Where("st.consumed_at IS NULL").
		Where("st.expires_at > ?", now).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s token: %w", purpose, mapError(err))
	}

	return dbToken.toDomain(), nil
}

// Consume is a single UPDATE ... RETURNING, so the active check and the
// consumed mark cannot be split by a concurrent replay.
func (r *tokenRepository) Consume(ctx context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error) {
	dbToken := new(secretTokenModel)
	err := r.db.NewUpdate().
		Model(dbToken).
		Set("consumed_at = ?", now).
		Where("purpose = ?", string(purpose)).
		Where("token_hash = ?", hash).
		Where("consumed_at IS NULL").
		Where("expires_at > ?", now).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s token: %w", purpose, mapError(err))
	}

	return dbToken.toDomain(), nil
}

func (r *tokenRepository) Delete(ctx context.Context, purpose domain.TokenPurpose, hash []byte) error {
	_, err := r.db.NewDelete().
		Model((*secretTokenModel)(nil)).
		Where("purpose = ?", string(purpose)).
		Where("token_hash = ?", hash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s token: %w", purpose, err)
	}

	return nil
}

func (r *tokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error {
	_, err := r.db.NewDelete().
		Model((*secretTokenModel)(nil)).
		Where("user_id = ?", userID).
		Where("purpose = ?", string(purpose)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s tokens for user: %w", purpose, err)
	}

	return nil
}

// DeleteExpired removes tokens that can no longer be presented.
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*secretTokenModel)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return result.RowsAffected()
}
