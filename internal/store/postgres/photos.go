package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

type photoRepository struct {
	db bun.IDB
}

func (r *photoRepository) Create(ctx context.Context, p *domain.Photo) error {
	dbPhoto := &photoModel{
		ID:        p.ID,
		UserID:    p.UserID,
		URL:       p.URL,
		IsPrimary: p.IsPrimary,
		SortOrder: p.SortOrder,
		CreatedAt: p.CreatedAt,
	}

	if _, err := r.db.NewInsert().Model(dbPhoto).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create photo: %w", mapError(err))
	}

	return nil
}

func (r *photoRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Photo, error) {
	var dbPhotos []photoModel
	err := r.db.NewSelect().
		Model(&dbPhotos).
		Where("ph.user_id = ?", userID).
		OrderExpr("ph.is_primary DESC, ph.sort_order ASC, ph.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	photos := make([]domain.Photo, 0, len(dbPhotos))
	for i := range dbPhotos {
		photos = append(photos, dbPhotos[i].toDomain())
	}
	return photos, nil
}

func (r *photoRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*photoModel)(nil)).
		Where("ph.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}

	return count, nil
}

func (r *photoRepository) GetOwned(ctx context.Context, userID, photoID uuid.UUID) (*domain.Photo, error) {
	dbPhoto := new(photoModel)
	err := r.db.NewSelect().
		Model(dbPhoto).
		Where("ph.id = ?", photoID).
		Where("ph.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", mapError(err))
	}

	photo := dbPhoto.toDomain()
	return &photo, nil
}

func (r *photoRepository) Delete(ctx context.Context, userID, photoID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*photoModel)(nil)).
		Where("id = ?", photoID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	return requireRows(result)
}

// SetPrimary rewrites the flag on every photo of the user in one statement.
// The EXISTS guard leaves the set untouched when photoID is not owned.
func (r *photoRepository) SetPrimary(ctx context.Context, userID, photoID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*photoModel)(nil)).
		Set("is_primary = (id = ?)", photoID).
		Where("user_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM photos AS own WHERE own.id = ? AND own.user_id = ?)", photoID, userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set primary photo: %w", err)
	}

	return requireRows(result)
}

func (r *photoRepository) PromoteOldest(ctx context.Context, userID uuid.UUID) error {
	oldest := r.db.NewSelect().
		TableExpr("photos AS oldest").
		Column("oldest.id").
		Where("oldest.user_id = ?", userID).
		OrderExpr("oldest.created_at ASC, oldest.id ASC").
		Limit(1)

	_, err := r.db.NewUpdate().
		Model((*photoModel)(nil)).
		Set("is_primary = (id = (?))", oldest).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to promote photo: %w", err)
	}

	return nil
}
