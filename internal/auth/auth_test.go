package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/logger"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
)

const secret = "test-secret"

func TestParseBearerToken(t *testing.T) {
	tok, err := ParseBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = ParseBearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err := ParseBearerToken(h)
		assert.Error(t, err, h)
	}
}

func TestParseAndValidateToken(t *testing.T) {
	tok, err := IssueToken(secret, "u1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAndValidateToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = ParseAndValidateToken("other-secret", tok)
	assert.Error(t, err)

	expired, err := IssueToken(secret, "u1", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAndValidateToken(secret, expired)
	assert.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseAndValidateToken(secret, noExp)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAndValidateToken(secret, none)
	assert.Error(t, err)
}

func newAuthenticator(t *testing.T) (*Authenticator, *repository.MemorySessionStore) {
	t.Helper()
	sessions := repository.NewMemorySessionStore()
	return NewAuthenticator(secret, sessions, logger.Nop()), sessions
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	a, sessions := newAuthenticator(t)
	tok, err := IssueToken(secret, "u1", "agent", time.Hour)
	require.NoError(t, err)
	sessions.Put(&model.Session{Token: tok, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})

	id, err := a.Authenticate(ctx, "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.False(t, id.IsAdmin())
}

func TestAuthenticateRejections(t *testing.T) {
	ctx := context.Background()
	a, sessions := newAuthenticator(t)

	noSession, err := IssueToken(secret, "u1", "", time.Hour)
	require.NoError(t, err)

	otherUser, err := IssueToken(secret, "u2", "", 2*time.Hour)
	require.NoError(t, err)
	sessions.Put(&model.Session{Token: otherUser, UserID: "u3", ExpiresAt: time.Now().Add(time.Hour)})

	badSig, err := IssueToken("wrong", "u1", "", time.Hour)
	require.NoError(t, err)
	sessions.Put(&model.Session{Token: badSig, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})

	for name, header := range map[string]string{
		"missing header":     "",
		"malformed header":   "Token abc",
		"bad signature":      "Bearer " + badSig,
		"no session":         "Bearer " + noSession,
		"session other user": "Bearer " + otherUser,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authenticate(ctx, header)
			assert.ErrorIs(t, err, errs.ErrUnauthorized)
		})
	}
}

func TestAuthenticateDeletesExpiredSession(t *testing.T) {
	ctx := context.Background()
	a, sessions := newAuthenticator(t)
	tok, err := IssueToken(secret, "u1", "", time.Hour)
	require.NoError(t, err)
	sessions.Put(&model.Session{Token: tok, UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)})

	a.WithClock(func() time.Time { return time.Now().Add(2 * time.Minute) })
	_, err = a.Authenticate(ctx, "Bearer "+tok)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = sessions.FindByToken(ctx, tok)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
