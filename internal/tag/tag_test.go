package tag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store/memstore"
)

func TestNormalize(t *testing.T) {
	valid := map[string]string{
		"#Geek":        "geek",
		" GEEK ":       "geek",
		"go_lang":      "go_lang",
		"9gag":         "9gag",
		"#rock-n-roll": "rock-n-roll",
	}
	for in, want := range valid {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{"", "#", "a", "##geek", "-dash", "_under", "spa ce", "émoji", "abcdefghijklmnopqrstuvwxyz12345"}
	for _, in := range invalid {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrValidation, in)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "#Geek", DisplayName(" #Geek"))
	assert.Equal(t, "#Geek", DisplayName("Geek"))
}

func TestAttachDeduplicates(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()
	userID := uuid.New()

	tags, err := svc.Attach(ctx, userID, []string{"#Geek", "geek", " GEEK "})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "geek", tags[0].Normalized)
	assert.Equal(t, "#Geek", tags[0].Name)

	tags, err = svc.Attach(ctx, userID, []string{"geek", "Vegan"})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestAttachIsAllOrNothing(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Attach(ctx, userID, []string{"geek", "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Attach(ctx, userID, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no tags provided", verr.Message)

	tags, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	found, err := svc.Search(ctx, "geek")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAttachSkipsBlankEntries(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()
	userID := uuid.New()

	tags, err := svc.Attach(ctx, userID, []string{"", "  ", "#Geek", "\t"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "geek", tags[0].Normalized)

	_, err = svc.Attach(ctx, userID, []string{" ", ""})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no tags provided", verr.Message)
}

func TestTagsAreSharedAcrossUsers(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	a, err := svc.Attach(ctx, alice, []string{"Hiking"})
	require.NoError(t, err)
	b, err := svc.Attach(ctx, bob, []string{"hiking"})
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.Equal(t, "#Hiking", b[0].Name)

	require.NoError(t, svc.Detach(ctx, alice, "#HIKING"))
	tags, err := svc.ListForUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = svc.ListForUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestDetach(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()

	assert.NoError(t, svc.Detach(ctx, uuid.New(), "never-linked"))
	assert.ErrorIs(t, svc.Detach(ctx, uuid.New(), "!"), domain.ErrValidation)
}

func TestSearch(t *testing.T) {
	svc := NewService(memstore.New())
	ctx := context.Background()

	raw := []string{"ga", "gb", "gc", "gd", "ge", "gf", "gg", "gh", "gi", "gj", "gk", "hiking"}
	_, err := svc.Attach(ctx, uuid.New(), raw)
	require.NoError(t, err)

	found, err := svc.Search(ctx, "#G")
	require.NoError(t, err)
	require.Len(t, found, SearchLimit)
	assert.Equal(t, "#ga", found[0].Name)
	assert.Equal(t, "#gj", found[9].Name)

	found, err = svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = svc.Search(ctx, "hik")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "hiking", found[0].Normalized)
}
