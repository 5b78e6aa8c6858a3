package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!pass", hash)

	ok, err := hasher.Compare(hash, "Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = hasher.Compare("not-a-hash", "Str0ng!pass")
	assert.Error(t, err)

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
}
