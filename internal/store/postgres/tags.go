package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

type tagRepository struct {
	db bun.IDB
}

// GetOrCreate inserts the tag unless its normalized key exists, then reads
// it back. Concurrent creators converge on the same row.
func (r *tagRepository) GetOrCreate(ctx context.Context, normalized, name string) (*domain.Tag, error) {
	_, err := r.db.NewInsert().
		Model(&tagModel{Name: name, Normalized: normalized}).
		On("CONFLICT (normalized) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", mapError(err))
	}

	dbTag := new(tagModel)
	err = r.db.NewSelect().
		Model(dbTag).
		Where("t.normalized = ?", normalized).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", mapError(err))
	}

	tag := dbTag.toDomain()
	return &tag, nil
}

func (r *tagRepository) Link(ctx context.Context, userID uuid.UUID, tagID int64) error {
	_, err := r.db.NewInsert().
		Model(&userTagModel{UserID: userID, TagID: tagID, CreatedAt: time.Now()}).
		On("CONFLICT (user_id, tag_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link tag: %w", mapError(err))
	}

	return nil
}

func (r *tagRepository) Unlink(ctx context.Context, userID uuid.UUID, normalized string) error {
	tagIDs := r.db.NewSelect().
		Model((*tagModel)(nil)).
		Column("t.id").
		Where("t.normalized = ?", normalized)

	_, err := r.db.NewDelete().
		Model((*userTagModel)(nil)).
		Where("user_id = ?", userID).
		Where("tag_id IN (?)", tagIDs).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unlink tag: %w", err)
	}

	return nil
}

func (r *tagRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	var dbTags []tagModel
	err := r.db.NewSelect().
		Model(&dbTags).
		Join("JOIN user_tags AS ut ON ut.tag_id = t.id").
		Where("ut.user_id = ?", userID).
		OrderExpr("t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tags: %w", err)
	}

	return toTags(dbTags), nil
}

func (r *tagRepository) Search(ctx context.Context, prefix string, limit int) ([]domain.Tag, error) {
	var dbTags []tagModel
	err := r.db.NewSelect().
		Model(&dbTags).
		Where(`t.normalized LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		OrderExpr("t.name ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}

	return toTags(dbTags), nil
}

// escapeLike neutralises LIKE wildcards; '_' is a legal tag character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toTags(dbTags []tagModel) []domain.Tag {
	tags := make([]domain.Tag, 0, len(dbTags))
	for i := range dbTags {
		tags = append(tags, dbTags[i].toDomain())
	}
	return tags
}
