package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/payments-dashboard/internal/models"
)

func testUser(role models.Role) models.User {
	return models.User{ID: "7f1c2a4e-0000-4000-8000-000000000001", Username: "alice", Role: role}
}

func TestIssueThenValidateRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret-a", "payments-dashboard", time.Hour)

	token, err := tm.Issue(testUser(models.RoleAdmin))
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "7f1c2a4e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAtTime(), 5*time.Second)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "payments-dashboard", time.Hour)
	other := NewTokenManager("secret-b", "payments-dashboard", time.Hour)

	token, err := issuer.Issue(testUser(models.RoleViewer))
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateReportsExpiryNotInvalid(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	tm := NewTokenManager("secret-a", "payments-dashboard", time.Minute).WithClock(func() time.Time { return past })

	token, err := tm.Issue(testUser(models.RoleViewer))
	require.NoError(t, err)

	_, err = NewTokenManager("secret-a", "payments-dashboard", time.Minute).Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnknownRoleAndAlgorithm(t *testing.T) {
	tm := NewTokenManager("secret-a", "payments-dashboard", time.Hour)
	now := time.Now()

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "mallory",
		Role:     models.Role("superuser"),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "payments-dashboard",
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("secret-a"))
	require.NoError(t, err)
	_, err = tm.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "payments-dashboard",
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeSkipsVerification(t *testing.T) {
	issuer := NewTokenManager("secret-a", "payments-dashboard", time.Hour)
	token, err := issuer.Issue(testUser(models.RoleViewer))
	require.NoError(t, err)

	claims, err := NewTokenManager("unrelated", "other", time.Hour).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, claims.Role)

	_, err = issuer.Decode("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
