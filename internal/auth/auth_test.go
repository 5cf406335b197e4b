package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyToken(t *testing.T) {
	tm := NewTokenManager("test-secret")

	userId := uuid.New()
	token, err := tm.IssueToken(userId, "a@b.com", "ADMIN")
	require.NoError(t, err)

	claims, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userId, claims.UserId)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").IssueToken(uuid.New(), "a@b.com", "STORE")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := NewTokenManager("secret").VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}
