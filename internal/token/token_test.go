package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func TestNewManagerEmptySecret(t *testing.T) {
	_, err := NewManager("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(t, clock)

	tok, err := m.Issue("admin-1", "a@x.com")
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clock.t.Add(Lifetime), claims.ExpiresAt.Time.UTC())

	other, err := m.Issue("admin-1", "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, tok, other, "each token gets its own id")
}

func TestVerifyExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(t, clock)

	tok, err := m.Issue("admin-1", "a@x.com")
	require.NoError(t, err)

	clock.t = clock.t.Add(Lifetime - time.Minute)
	_, err = m.Verify(tok)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejects(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newManager(t, clock)

	good, err := m.Issue("admin-1", "a@x.com")
	require.NoError(t, err)

	otherKey, err := NewManager("a-completely-different-secret-value")
	require.NoError(t, err)
	foreign, err := otherKey.Issue("admin-1", "a@x.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin-1",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "garbage"},
		{"empty", ""},
		{"corrupted signature", good[:len(good)-4] + "AAAA"},
		{"other secret", foreign},
		{"alg none", none},
		{"wrong algorithm", hs512},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
