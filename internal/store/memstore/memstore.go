// Package memstore is an in-memory store.Store. A transaction holds the
// store mutex for its whole duration and works on a copy of the state that
// replaces the live state only when the callback succeeds.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
)

type state struct {
	users    map[uuid.UUID]domain.User
	profiles map[uuid.UUID]domain.Profile
	tokens   map[uuid.UUID]domain.SecretToken
	tags     map[string]domain.Tag
	tagSeq   int64
	userTags map[uuid.UUID]map[int64]struct{}
	photos   map[uuid.UUID]domain.Photo
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]domain.User),
		profiles: make(map[uuid.UUID]domain.Profile),
		tokens:   make(map[uuid.UUID]domain.SecretToken),
		tags:     make(map[string]domain.Tag),
		userTags: make(map[uuid.UUID]map[int64]struct{}),
		photos:   make(map[uuid.UUID]domain.Photo),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	c.tagSeq = s.tagSeq
	for k, set := range s.userTags {
		cs := make(map[int64]struct{}, len(set))
		for id := range set {
			cs[id] = struct{}{}
		}
		c.userTags[k] = cs
	}
	for k, v := range s.photos {
		c.photos[k] = v
	}
	return c
}

type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
}

func New() *Store {
	return &Store{mu: &sync.Mutex{}, data: newState()}
}

func (s *Store) Users() store.UserRepository       { return &userRepository{s} }
func (s *Store) Profiles() store.ProfileRepository { return &profileRepository{s} }
func (s *Store) Tokens() store.TokenRepository     { return &tokenRepository{s} }
func (s *Store) Tags() store.TagRepository         { return &tagRepository{s} }
func (s *Store) Photos() store.PhotoRepository     { return &photoRepository{s} }

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	*s.data = *tx.data
	return nil
}

// lock guards a single repository call made outside a transaction.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func ptr[T any](v T) *T {
	return &v
}
