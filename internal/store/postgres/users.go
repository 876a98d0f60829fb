package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

type userRepository struct {
	db bun.IDB
}

// Create inserts a new user. Email uniqueness is enforced by users_email_key.
func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	dbUser := &userModel{
		ID:              u.ID,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}

	if _, err := r.db.NewInsert().Model(dbUser).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	dbUser := new(userModel)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", mapError(err))
	}

	return dbUser.toDomain(), nil
}

// GetByEmail retrieves a user by its normalized email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	dbUser := new(userModel)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("u.email = ?", email).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}

	return dbUser.toDomain(), nil
}

// GetByUsername resolves a user through the case-insensitive profile username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	dbUser := new(userModel)
	err := r.db.NewSelect().
		Model(dbUser).
		Join("JOIN profiles AS p ON p.user_id = u.id").
		Where("lower(p.username) = lower(?)", username).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", mapError(err))
	}

	return dbUser.toDomain(), nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("email_verified = ?", true).
		Set("email_verified_at = COALESCE(email_verified_at, ?)", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return requireRows(result)
}

// UpdatePassword updates a user's password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRows(result)
}

func (r *userRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.NewSelect().
		Model((*userModel)(nil)).
		Column("u.id").
		Where("u.id = ?", id).
		For("UPDATE").
		Scan(ctx, &locked)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", mapError(err))
	}

	return nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireRows(result rowsAffecter) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
