package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-account-auth"
)

func newTestTokenService(now time.Time) *auth.TokenService {
	return auth.NewTokenService(
		[]byte(testSigningKey),
		time.Hour,
		"test-issuer",
		[]string{"test:audience"},
		nil,
	).WithClock(func() time.Time { return now })
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	ts := newTestTokenService(now)

	token, expiresAt, err := ts.Issue(" John@X.com ", auth.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, now.Add(time.Hour).Equal(expiresAt))

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "john@x.com", claims.GetEmail())
	assert.Equal(t, "john@x.com", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.AccountRole())
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, now.Equal(claims.IssuedAtTime()))
	assert.True(t, expiresAt.Equal(claims.Expires()))
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	ts := newTestTokenService(time.Now())

	first, _, err := ts.Issue("john@x.com", auth.RoleStudent)
	require.NoError(t, err)
	second, _, err := ts.Issue("john@x.com", auth.RoleStudent)
	require.NoError(t, err)

	a, err := ts.Validate(first)
	require.NoError(t, err)
	b, err := ts.Validate(second)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenService_IssueErrors(t *testing.T) {
	t.Run("missing signing key", func(t *testing.T) {
		ts := auth.NewTokenService(nil, time.Hour, "", nil, nil)
		_, _, err := ts.Issue("john@x.com", auth.RoleAdmin)
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeSigningKeyMissing))
	})

	t.Run("empty role", func(t *testing.T) {
		_, _, err := newTestTokenService(time.Now()).Issue("john@x.com", "")
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeRoleMissing))
	})

	t.Run("unknown role", func(t *testing.T) {
		_, _, err := newTestTokenService(time.Now()).Issue("john@x.com", auth.Role("Owner"))
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeRoleUnknown))
	})

	t.Run("empty email", func(t *testing.T) {
		_, _, err := newTestTokenService(time.Now()).Issue("  ", auth.RoleAdmin)
		require.Error(t, err)
	})
}

func TestTokenService_ValidateExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, _, err := newTestTokenService(issuedAt).Issue("john@x.com", auth.RoleStudent)
	require.NoError(t, err)

	_, err = newTestTokenService(time.Now()).Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
	assert.True(t, auth.IsUnauthenticated(err))
}

func TestTokenService_ValidateRejects(t *testing.T) {
	now := time.Now()
	ts := newTestTokenService(now)

	valid, _, err := ts.Issue("john@x.com", auth.RoleStudent)
	require.NoError(t, err)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	baseClaims := func(role string) *auth.AccountClaims {
		return &auth.AccountClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "john@x.com",
				Issuer:    "test-issuer",
				Audience:  jwt.ClaimStrings{"test:audience"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Email: "john@x.com",
			Role:  role,
		}
	}

	// flip the role claim to Admin while keeping the Student signature
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	forged := sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), baseClaims("Admin"))
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	noExp := baseClaims("Student")
	noExp.ExpiresAt = nil

	wrongIssuer := baseClaims("Student")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := baseClaims("Student")
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noEmail := baseClaims("Student")
	noEmail.Email = ""
	noEmail.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "tampered payload", token: tampered},
		{name: "wrong key", token: sign(t, jwt.SigningMethodHS256, []byte("another-signing-key-of-32-bytes!!"), baseClaims("Student"))},
		{name: "alg none", token: sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, baseClaims("Admin"))},
		{name: "other hmac alg", token: sign(t, jwt.SigningMethodHS512, []byte(testSigningKey), baseClaims("Student"))},
		{name: "missing exp", token: sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), noExp)},
		{name: "wrong issuer", token: sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), wrongIssuer)},
		{name: "wrong audience", token: sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), wrongAudience)},
		{name: "unknown role", token: sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), baseClaims("Owner"))},
		{name: "missing email", token: sign(t, jwt.SigningMethodHS256, []byte(testSigningKey), noEmail)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Validate(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.True(t, auth.IsMalformedError(err), err.Error())
			assert.True(t, auth.IsUnauthenticated(err))
		})
	}
}

func TestTokenService_ValidateMissing(t *testing.T) {
	_, err := newTestTokenService(time.Now()).Validate("")
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeTokenMissing))

	_, err = auth.NewTokenService(nil, 0, "", nil, nil).Validate("a.b.c")
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeSigningKeyMissing))
}

func TestTokenService_DefaultTTL(t *testing.T) {
	ts := auth.NewTokenService([]byte(testSigningKey), 0, "", nil, nil)
	assert.Equal(t, auth.DefaultTokenTTL, ts.TTL())
}

func TestTokenServiceFromConfig(t *testing.T) {
	cfg := newMockConfig()
	cfg.TTL = 30 * time.Minute

	ts := auth.TokenServiceFromConfig(cfg, nil)
	assert.Equal(t, 30*time.Minute, ts.TTL())

	token, _, err := ts.Issue("jane@x.com", auth.RoleTeacher)
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "test-issuer", claims.Issuer)
}
