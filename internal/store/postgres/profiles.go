package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

type profileRepository struct {
	db bun.IDB
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	dbProfile := &profileModel{
		UserID:     p.UserID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Username:   p.Username,
		Gender:     p.Gender,
		Preference: p.Preference,
		Bio:        p.Bio,
		UpdatedAt:  p.UpdatedAt,
	}

	if _, err := r.db.NewInsert().Model(dbProfile).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create profile: %w", mapError(err))
	}

	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	dbProfile := new(profileModel)
	err := r.db.NewSelect().
		Model(dbProfile).
		Where("p.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", mapError(err))
	}

	return dbProfile.toDomain(), nil
}

func (r *profileRepository) UpdateBasics(ctx context.Context, userID uuid.UUID, gender, preference, bio string) error {
	result, err := r.db.NewUpdate().
		Model((*profileModel)(nil)).
		Set("gender = ?", gender).
		Set("preference = ?", preference).
		Set("bio = ?", bio).
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return requireRows(result)
}
