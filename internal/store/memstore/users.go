package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	defer r.s.lock()()

	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return domain.NewConflictError("email", "email already exists")
		}
	}
	if _, ok := r.s.data.users[u.ID]; ok {
		return domain.NewConflictError("id", "id already exists")
	}
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.s.lock()()

	for _, p := range r.s.data.profiles {
		if strings.EqualFold(p.Username, username) {
			if u, ok := r.s.data.users[p.UserID]; ok {
				return &u, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepository) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmailVerified = true
	if u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = ptr(at)
	}
	u.UpdatedAt = at
	r.s.data.users[id] = u
	return nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	r.s.data.users[id] = u
	return nil
}

// Lock only checks existence; transactions already hold the store mutex.
func (r *userRepository) Lock(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.data.users[id]; !ok {
		return domain.ErrNotFound
	}
	return nil
}
