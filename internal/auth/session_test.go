// internal/auth/session_test.go
package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	id := uuid.New()

	token, err := CreateJWT(id)
	require.NoError(t, err)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateJWT(uuid.New())
	require.NoError(t, err)

	require.NoError(t, Init(0))
	_, err = AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = AuthenticateJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	require.NoError(t, Init(-time.Minute))
	token, err := CreateJWT(uuid.New())
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnsureIdentity(t *testing.T) {
	require.NoError(t, Init(time.Hour))

	id, token, fresh, err := EnsureIdentity("")
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.NotEqual(t, uuid.Nil, id)

	again, same, fresh, err := EnsureIdentity(token)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, id, again)
	assert.Equal(t, token, same)

	other, _, fresh, err := EnsureIdentity("garbage")
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.NotEqual(t, id, other)
}
