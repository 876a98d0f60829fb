package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
)

func seedUser(t *testing.T, s *Store, email, username string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &domain.User{ID: id, Email: email}))
	require.NoError(t, s.Profiles().Create(ctx, &domain.Profile{UserID: id, Username: username}))
	return id
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInTxCommitsAndNests(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.InTx(ctx, func(ctx context.Context, inner store.Store) error {
			return inner.Users().Create(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"})
		})
	})
	require.NoError(t, err)

	u, err := s.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestUniqueEmailAndUsername(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "a@example.com", "Alice")

	err := s.Users().Create(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	err = s.Profiles().Create(ctx, &domain.Profile{UserID: uuid.New(), Username: "alice"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	u, err := s.Users().GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestConsumeIsSingleShot(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hash := []byte("hash")

	require.NoError(t, s.Tokens().Create(ctx, &domain.SecretToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Purpose:   domain.PurposeVerifyEmail,
		TokenHash: hash,
		ExpiresAt: now.Add(time.Hour),
	}))

	_, err := s.Tokens().Consume(ctx, domain.PurposePasswordReset, hash, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Tokens().Consume(ctx, domain.PurposeVerifyEmail, hash, now)
	require.NoError(t, err)

	_, err = s.Tokens().Consume(ctx, domain.PurposeVerifyEmail, hash, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := s.Tokens().DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPhotoPrimaryBookkeeping(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := seedUser(t, s, "a@example.com", "alice")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, s.Photos().Create(ctx, &domain.Photo{
			ID:        ids[i],
			UserID:    userID,
			IsPrimary: i == 0,
			SortOrder: i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, s.Photos().SetPrimary(ctx, userID, ids[2]))
	photos, err := s.Photos().ListForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], photos[0].ID)
	assert.True(t, photos[0].IsPrimary)
	assert.False(t, photos[1].IsPrimary)

	assert.ErrorIs(t, s.Photos().SetPrimary(ctx, uuid.New(), ids[1]), domain.ErrNotFound)

	require.NoError(t, s.Photos().Delete(ctx, userID, ids[2]))
	require.NoError(t, s.Photos().PromoteOldest(ctx, userID))
	photos, err = s.Photos().ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, ids[0], photos[0].ID)
	assert.True(t, photos[0].IsPrimary)
}

func TestTagSearchOrdersAndLimits(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, n := range []string{"golf", "go", "gaming", "hiking"} {
		_, err := s.Tags().GetOrCreate(ctx, n, "#"+n)
		require.NoError(t, err)
	}
	again, err := s.Tags().GetOrCreate(ctx, "go", "#Go")
	require.NoError(t, err)
	assert.Equal(t, "#go", again.Name)

	tags, err := s.Tags().Search(ctx, "go", 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "#go", tags[0].Name)
	assert.Equal(t, "#golf", tags[1].Name)
}
