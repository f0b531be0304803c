package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, now time.Time) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("0123456789abcdef-secret", "claimwise", "claims-api", time.Hour)
	require.NoError(t, err)
	m.nowFunc = func() time.Time { return now }
	return m
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)
	m := newManager(t, now)

	token, err := m.IssueToken(Reviewer{ID: "rev-7", Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Reviewer{ID: "rev-7", Name: "Asha", Email: "asha@example.com", Role: "reviewer"}, claims.Reviewer())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt)
}

func TestValidateRejects(t *testing.T) {
	now := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)
	m := newManager(t, now)
	token, err := m.IssueToken(Reviewer{ID: "rev-7"})
	require.NoError(t, err)

	other, err := NewJWTManager("another-secret-of-length", "claimwise", "claims-api", time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssueToken(Reviewer{ID: "rev-7"})
	require.NoError(t, err)

	wrongAudience, err := NewJWTManager("0123456789abcdef-secret", "claimwise", "admin-api", time.Hour)
	require.NoError(t, err)
	audToken, err := wrongAudience.IssueToken(Reviewer{ID: "rev-7"})
	require.NoError(t, err)

	cases := map[string]struct {
		token string
		want  error
	}{
		"empty":          {"", ErrEmptyToken},
		"two segments":   {"a.b", ErrMalformedToken},
		"tampered":       {token[:strings.LastIndex(token, ".")] + ".AAAA", ErrInvalidSignature},
		"foreign secret": {foreign, ErrInvalidSignature},
		"audience":       {audToken, ErrInvalidAudience},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateToken(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	m.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = m.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestShortSecretRejected(t *testing.T) {
	_, err := NewJWTManager("short", "i", "a", time.Hour)
	assert.Error(t, err)
}
