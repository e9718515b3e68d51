package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partyplanner/backend/internal/model"
)

var testIdentity = model.Identity{ID: "u1", Email: "u1@example.com", Name: "User One", Image: "/a.png"}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", 30*time.Minute)
	require.NoError(t, err)

	token, expiresIn, err := issuer.Issue(testIdentity)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), expiresIn)

	claim, err := issuer.Read(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claim.SubjectID)
	assert.Equal(t, "u1@example.com", claim.Email)
	assert.Equal(t, "User One", claim.Name)
	assert.Equal(t, "/a.png", claim.Image)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claim.ExpiresAt, 5*time.Second)
}

func TestTokenIssuer_RejectsEmptySubject(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute)
	require.NoError(t, err)

	_, _, err = issuer.Issue(model.Identity{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestTokenIssuer_ReadInvalid(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	wrongSecret, _, err := other.Issue(testIdentity)
	require.NoError(t, err)

	expiredIssuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(testIdentity)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
		"iss": tokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "u1",
		"iss": tokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"iss": tokenIssuer,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": tokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"malformed":    "not.a.jwt",
		"wrong secret": wrongSecret,
		"expired":      expired,
		"alg none":     noneAlg,
		"other alg":    hs512,
		"no expiry":    noExpiry,
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claim, err := issuer.Read(token)
			assert.ErrorIs(t, err, ErrInvalidSession)
			assert.Nil(t, claim)
		})
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMisconfigured)

	_, err = NewTokenIssuer("secret", 0)
	assert.ErrorIs(t, err, ErrMisconfigured)
}
