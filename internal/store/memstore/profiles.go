package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

type profileRepository struct {
	s *Store
}

func (r *profileRepository) Create(_ context.Context, p *domain.Profile) error {
	defer r.s.lock()()

	for _, existing := range r.s.data.profiles {
		if strings.EqualFold(existing.Username, p.Username) {
			return domain.NewConflictError("username", "username already exists")
		}
	}
	if _, ok := r.s.data.profiles[p.UserID]; ok {
		return domain.NewConflictError("id", "id already exists")
	}
	r.s.data.profiles[p.UserID] = *p
	return nil
}

func (r *profileRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	defer r.s.lock()()

	p, ok := r.s.data.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepository) UpdateBasics(_ context.Context, userID uuid.UUID, gender, preference, bio string) error {
	defer r.s.lock()()

	p, ok := r.s.data.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Gender = ptr(gender)
	p.Preference = ptr(preference)
	p.Bio = ptr(bio)
	p.UpdatedAt = time.Now()
	r.s.data.profiles[userID] = p
	return nil
}
