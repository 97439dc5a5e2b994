package token_test

import (
	"testing"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, at time.Time) (*token.JWTManager, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(at)
	return token.NewJWTManager(testutil.NewTestConfig()).WithClock(fake), fake
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	manager, _ := newManager(t, time.Now())

	// Given: Admin access token
	signed, err := manager.GenerateAccessToken("7", "admin@example.com", "ADMIN")
	require.NoError(t, err)

	// When: Validating as access
	claims, err := token.ValidateAs(manager, signed, token.ACCESS)

	// Then: Claims survive
	require.NoError(t, err)
	assert.Equal(t, "7", claims.MemberID)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "letter-press-api-test", claims.Issuer)
}

func TestJWTManager_Expiry(t *testing.T) {
	manager, fake := newManager(t, time.Now())
	signed, err := manager.GenerateAccessToken("7", "member@example.com", "USER")
	require.NoError(t, err)

	// When: Access expiry (24h) passes
	fake.Advance(25 * time.Hour)

	// Then: Expired
	_, err = manager.ValidateToken(signed)
	assert.ErrorIs(t, err, token.ErrExpiredToken)
}

func TestJWTManager_TokenTypeIsEnforced(t *testing.T) {
	manager, _ := newManager(t, time.Now())
	refresh, err := manager.GenerateRefreshToken("7", "member@example.com", "USER")
	require.NoError(t, err)

	// When: Refresh token used as access token
	_, err = token.ValidateAs(manager, refresh, token.ACCESS)

	// Then: Rejected
	assert.ErrorIs(t, err, token.ErrWrongTokenType)

	claims, err := token.ValidateAs(manager, refresh, token.REFRESH)
	require.NoError(t, err)
	assert.Equal(t, token.REFRESH, claims.TokenType)
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	manager, _ := newManager(t, time.Now())

	otherCfg := testutil.NewTestConfig()
	otherCfg.JWT.Secret = "another-secret-key-that-is-also-long-enough-32"
	foreign, err := token.NewJWTManager(otherCfg).GenerateAccessToken("7", "member@example.com", "ADMIN")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"member_id":  "7",
		"sub":        "7",
		"token_type": token.ACCESS,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"different secret": foreign,
		"alg none":         unsigned,
		"garbage":          "not-a-jwt",
	}
	for name, signed := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := manager.ValidateToken(signed)
			assert.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestJWTManager_RequiresMemberID(t *testing.T) {
	manager, _ := newManager(t, time.Now())

	_, err := manager.GenerateAccessToken("", "member@example.com", "USER")

	assert.ErrorIs(t, err, token.ErrInvalidClaims)
}
