package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-token",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestFileStore_Token(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  abc.def.ghi\n"), 0600))

	store := NewFileStore(path)
	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestFileStore_MissingFileMeansNoCredential(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent"))
	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStaticStore_SetToken(t *testing.T) {
	store := NewStaticStore("first")
	token, _ := store.Token()
	assert.Equal(t, "first", token)

	store.SetToken("second")
	token, _ = store.Token()
	assert.Equal(t, "second", token)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.WithinDuration(t, exp, got, time.Second)

	_, ok = TokenExpiry("not-a-jwt")
	assert.False(t, ok)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, TokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	assert.False(t, TokenExpired(signedToken(t, now.Add(time.Minute)), now))
	assert.False(t, TokenExpired("opaque-token", now), "non-JWT tokens are never treated as expired")
}
