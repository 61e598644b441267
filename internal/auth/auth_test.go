package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
)

func TestLevelAuthenticatorAcceptsCorrectPassword(t *testing.T) {
	hash, err := HashPassword("internal-secret")
	require.NoError(t, err)

	la, err := NewLevelAuthenticator(map[access.Userlevel]string{access.Internal: hash})
	require.NoError(t, err)

	assert.True(t, la.Authenticate(nil, access.Internal, "internal-secret"))
}

func TestLevelAuthenticatorRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("internal-secret")
	require.NoError(t, err)

	la, err := NewLevelAuthenticator(map[access.Userlevel]string{access.Internal: hash})
	require.NoError(t, err)

	assert.False(t, la.Authenticate(nil, access.Internal, "wrong"))
}

func TestLevelAuthenticatorDeniesUnprovisionedLevel(t *testing.T) {
	la, err := NewLevelAuthenticator(map[access.Userlevel]string{access.Internal: mustHash(t, "x")})
	require.NoError(t, err)

	assert.False(t, la.Authenticate(nil, access.Service, "x"))
}

func TestNewLevelAuthenticatorRejectsMalformedHash(t *testing.T) {
	_, err := NewLevelAuthenticator(map[access.Userlevel]string{access.Internal: "not-a-bcrypt-hash"})
	assert.Error(t, err)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return hash
}
