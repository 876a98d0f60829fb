// Package postgres implements store.Store on PostgreSQL through bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
)

// Store binds the repositories to either the pool or an open transaction.
type Store struct {
	db   bun.IDB
	root *bun.DB // nil when db is a transaction
}

func New(db *bun.DB) *Store {
	return &Store{db: db, root: db}
}

func (s *Store) Users() store.UserRepository       { return &userRepository{db: s.db} }
func (s *Store) Profiles() store.ProfileRepository { return &profileRepository{db: s.db} }
func (s *Store) Tokens() store.TokenRepository     { return &tokenRepository{db: s.db} }
func (s *Store) Tags() store.TagRepository         { return &tagRepository{db: s.db} }
func (s *Store) Photos() store.PhotoRepository     { return &photoRepository{db: s.db} }

// InTx runs fn in a READ COMMITTED transaction. Row locks taken through
// UserRepository.Lock provide the per-user serialisation on top of that.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.root == nil {
		return fn(ctx, s)
	}

	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return s.root.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}

// Unique constraint and index names from the migrations, mapped to the
// request field that violated them.
var uniqueFields = map[string]string{
	"users_email_key":       "email",
	"profiles_username_key": "username",
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		field := uniqueFields[pqErr.Constraint]
		if field == "" {
			field = "id"
		}
		return domain.NewConflictError(field, field+" already exists")
	}

	return err
}
