package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_HashPassword(t *testing.T) {
	params := DefaultParams()

	t.Run("produces salt and hash segments", func(t *testing.T) {
		hashed, err := params.HashPassword("secret123")
		assert.NoError(t, err)
		assert.Len(t, strings.Split(hashed, "$"), 2)
	})

	t.Run("same password hashes differently each time", func(t *testing.T) {
		first, err := params.HashPassword("secret123")
		assert.NoError(t, err)
		second, err := params.HashPassword("secret123")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestParams_VerifyPassword(t *testing.T) {
	params := DefaultParams()
	hashed, err := params.HashPassword("secret123")
	assert.NoError(t, err)

	t.Run("correct password verifies", func(t *testing.T) {
		assert.True(t, params.VerifyPassword("secret123", hashed))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		assert.False(t, params.VerifyPassword("secret124", hashed))
	})

	t.Run("malformed stored hash fails", func(t *testing.T) {
		assert.False(t, params.VerifyPassword("secret123", "not-a-valid-hash"))
		assert.False(t, params.VerifyPassword("secret123", "!!!$???"))
	})
}
