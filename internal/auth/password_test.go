package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fastHasher keeps argon2id cheap in tests.
var fastHasher = Hasher{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHasherRoundTrip(t *testing.T) {
	hash, err := fastHasher.Hash("Abcdef1!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.True(t, fastHasher.Verify(hash, "Abcdef1!"))
	assert.False(t, fastHasher.Verify(hash, "abcdef1!"))
	assert.False(t, fastHasher.NeedsRehash(hash))

	again, err := fastHasher.Hash("Abcdef1!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ")
}

func TestHasherAcceptsLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("Abcdef1!"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, fastHasher.Verify(string(legacy), "Abcdef1!"))
	assert.False(t, fastHasher.Verify(string(legacy), "wrong"))
	assert.True(t, fastHasher.NeedsRehash(string(legacy)))
}

func TestHasherRejectsGarbage(t *testing.T) {
	for _, h := range []string{"", "plain", "$argon2id$v=19$m=1,t=1$x$y", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"} {
		assert.False(t, fastHasher.Verify(h, "Abcdef1!"), h)
	}
}
