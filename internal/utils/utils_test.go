package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, 7, "admin", 15)
	require.NoError(t, err)

	id, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, 1, "member", -1)
	require.NoError(t, err)

	_, err = ParseAccessToken("s3cret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsNonNumericSubject(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bob"}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseAccessToken("k", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	raw, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", raw)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}

func TestConfirmationCode(t *testing.T) {
	a, err := NewConfirmationCode()
	require.NoError(t, err)
	b, err := NewConfirmationCode()
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.Regexp(t, "^[0-9A-F]{16}$", a)
	assert.NotEqual(t, a, b)
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("pa55word", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "pa55word"))
	assert.False(t, VerifyPassword(h, "nope"))
}

func TestHashRefreshRawStable(t *testing.T) {
	assert.Equal(t, HashRefreshRaw("x"), HashRefreshRaw("x"))
	assert.Len(t, HashRefreshRaw("x"), 64)
}
