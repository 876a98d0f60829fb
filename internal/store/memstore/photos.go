package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

type photoRepository struct {
	s *Store
}

func (r *photoRepository) Create(_ context.Context, p *domain.Photo) error {
	defer r.s.lock()()

	if _, ok := r.s.data.photos[p.ID]; ok {
		return domain.NewConflictError("id", "id already exists")
	}
	r.s.data.photos[p.ID] = *p
	return nil
}

func (r *photoRepository) owned(userID uuid.UUID) []domain.Photo {
	photos := make([]domain.Photo, 0)
	for _, p := range r.s.data.photos {
		if p.UserID == userID {
			photos = append(photos, p)
		}
	}
	return photos
}

func (r *photoRepository) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Photo, error) {
	defer r.s.lock()()

	photos := r.owned(userID)
	sort.Slice(photos, func(i, j int) bool {
		a, b := photos[i], photos[j]
		if a.IsPrimary != b.IsPrimary {
			return a.IsPrimary
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return photos, nil
}

func (r *photoRepository) Count(_ context.Context, userID uuid.UUID) (int, error) {
	defer r.s.lock()()

	return len(r.owned(userID)), nil
}

func (r *photoRepository) GetOwned(_ context.Context, userID, photoID uuid.UUID) (*domain.Photo, error) {
	defer r.s.lock()()

	p, ok := r.s.data.photos[photoID]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *photoRepository) Delete(_ context.Context, userID, photoID uuid.UUID) error {
	defer r.s.lock()()

	p, ok := r.s.data.photos[photoID]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.s.data.photos, photoID)
	return nil
}

func (r *photoRepository) SetPrimary(_ context.Context, userID, photoID uuid.UUID) error {
	defer r.s.lock()()

	target, ok := r.s.data.photos[photoID]
	if !ok || target.UserID != userID {
		return domain.ErrNotFound
	}
	for _, p := range r.owned(userID) {
		p.IsPrimary = p.ID == photoID
		r.s.data.photos[p.ID] = p
	}
	return nil
}

func (r *photoRepository) PromoteOldest(_ context.Context, userID uuid.UUID) error {
	defer r.s.lock()()

	photos := r.owned(userID)
	if len(photos) == 0 {
		return nil
	}
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].CreatedAt.Equal(photos[j].CreatedAt) {
			return photos[i].ID.String() < photos[j].ID.String()
		}
		return photos[i].CreatedAt.Before(photos[j].CreatedAt)
	})
	oldest := photos[0].ID
	for _, p := range photos {
		p.IsPrimary = p.ID == oldest
		r.s.data.photos[p.ID] = p
	}
	return nil
}
