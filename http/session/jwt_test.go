package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/drover/http/session"
)

func signedToken(t *testing.T, key, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).
		SignedString([]byte(key))
	require.Nil(t, err)
	return tok
}

func TestNewJWTIdentity(t *testing.T) {
	// Act
	j, err := session.NewJWTIdentity("")

	// Assert
	require.ErrorIs(t, err, session.ErrNotValid)
	require.Nil(t, j)

	// Act
	j, err = session.NewJWTIdentity("super-secret")

	// Assert
	require.Nil(t, err)
	require.NotNil(t, j)
}

func TestJWTIdentityUserID(t *testing.T) {
	// Arrange
	key := "super-secret"
	j, err := session.NewJWTIdentity(key)
	require.Nil(t, err)

	// Act
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	id, err := j.UserID(r)

	// Assert
	require.ErrorIs(t, err, session.ErrNoUser)
	require.Zero(t, id)

	// Arrange
	r = httptest.NewRequest(http.MethodGet, "https://example.com?jwt="+signedToken(t, key, "42"), nil)

	// Act
	id, err = j.UserID(r)

	// Assert
	require.Nil(t, err)
	require.Equal(t, uint(42), id)

	// Arrange
	r = httptest.NewRequest(http.MethodGet, "https://example.com?jwt="+signedToken(t, "wrong-key", "42"), nil)

	// Act
	_, err = j.UserID(r)

	// Assert
	require.ErrorIs(t, err, session.ErrNotValid)

	// Arrange
	r = httptest.NewRequest(http.MethodGet, "https://example.com?jwt="+signedToken(t, key, "gopher"), nil)

	// Act
	_, err = j.UserID(r)

	// Assert
	require.ErrorIs(t, err, session.ErrNotValid)
}
