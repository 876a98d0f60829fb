// Package store declares the persistence contract used by the services.
// Every repository method runs against whatever handle the Store was
// obtained from, so repositories taken from the Store passed into an InTx
// callback participate in that transaction.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

// Store is a unit of work over all repositories.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Tokens() TokenRepository
	Tags() TagRepository
	Photos() PhotoRepository

	// InTx runs fn inside a transaction. fn's error (or panic) rolls every
	// write back; nil commits. Calling InTx on a Store that is already
	// transactional runs fn in the enclosing transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// Lock takes a row lock on the user until the transaction ends. Photo
	// mutations use it to serialise concurrent requests for the same user.
	Lock(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateBasics(ctx context.Context, userID uuid.UUID, gender, preference, bio string) error
}

type TokenRepository interface {
	Create(ctx context.Context, t *domain.SecretToken) error
	// FindActive returns an unexpired, unconsumed token of the purpose.
	FindActive(ctx context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error)
	// Consume marks an active token consumed in a single conditional write
	// and returns it. Concurrent callers race on that write; exactly one wins.
	Consume(ctx context.Context, purpose domain.TokenPurpose, hash []byte, now time.Time) (*domain.SecretToken, error)
	Delete(ctx context.Context, purpose domain.TokenPurpose, hash []byte) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TagRepository interface {
	GetOrCreate(ctx context.Context, normalized, name string) (*domain.Tag, error)
	Link(ctx context.Context, userID uuid.UUID, tagID int64) error
	Unlink(ctx context.Context, userID uuid.UUID, normalized string) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error)
	Search(ctx context.Context, prefix string, limit int) ([]domain.Tag, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, p *domain.Photo) error
	// ListForUser orders primary first, then by sort order and creation time.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Photo, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	GetOwned(ctx context.Context, userID, photoID uuid.UUID) (*domain.Photo, error)
	Delete(ctx context.Context, userID, photoID uuid.UUID) error
	// SetPrimary flags photoID and clears every other photo of the user in
	// one statement.
	SetPrimary(ctx context.Context, userID, photoID uuid.UUID) error
	// PromoteOldest makes the earliest-created photo of the user primary.
	PromoteOldest(ctx context.Context, userID uuid.UUID) error
}
