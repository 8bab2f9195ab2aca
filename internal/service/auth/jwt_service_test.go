package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

var issuedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newJWTService(config.AuthConfig{
		JWTSecret:                   secret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	}, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := testService(t, testSecret, issuedAt)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := testService(t, testSecret, issuedAt)
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, issuedAt.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestValidateTokenErrors(t *testing.T) {
	t.Parallel()

	signer := testService(t, testSecret, issuedAt)
	userID := uuid.New()
	access, err := signer.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	refresh, err := signer.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		validator *hmacJWTService
		token     string
		refresh   bool
		wantErr   error
	}{
		{"expired access", testService(t, testSecret, issuedAt.Add(2*time.Hour)), access, false, ErrExpiredToken},
		{"access within skew", testService(t, testSecret, issuedAt.Add(61*time.Minute)), access, false, nil},
		{"wrong secret", testService(t, "another-secret-that-is-long-enough-too", issuedAt), access, false, ErrInvalidToken},
		{"garbage", signer, "not.a.token", false, ErrInvalidToken},
		{"refresh as access", signer, refresh, false, ErrWrongTokenType},
		{"access as refresh", signer, access, true, ErrWrongTokenType},
		{"expired refresh", testService(t, testSecret, issuedAt.Add(48*time.Hour)), refresh, true, ErrExpiredRefreshToken},
		{"garbage refresh", signer, "", true, ErrInvalidRefreshToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var err error
			if tc.refresh {
				_, err = tc.validator.ValidateRefreshToken(context.Background(), tc.token)
			} else {
				_, err = tc.validator.ValidateToken(context.Background(), tc.token)
			}
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 1, RefreshTokenLifetimeMinutes: 2})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.NoError(t, v.Compare(string(hash), "correct-horse-battery"))
	assert.Error(t, v.Compare(string(hash), "wrong-password-here"))
}
