package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
	Token  string
}

func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Authenticator checks a bearer token against its signature, its expiry and
// a live session row. Every failure is reported as errs.ErrUnauthorized; the
// failing stage is only logged.
type Authenticator struct {
	secret   string
	sessions repository.SessionStore
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewAuthenticator(secret string, sessions repository.SessionStore, log *zap.SugaredLogger) *Authenticator {
	return &Authenticator{secret: secret, sessions: sessions, now: time.Now, log: log}
}

// WithClock replaces the clock used for session expiry.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*Identity, error) {
	token, err := ParseBearerToken(authHeader)
	if err != nil {
		a.log.Debugw("auth rejected", "stage", "header", "error", err)
		return nil, errs.ErrUnauthorized
	}
	claims, err := ParseAndValidateToken(a.secret, token)
	if err != nil {
		a.log.Debugw("auth rejected", "stage", "token", "error", err)
		return nil, errs.ErrUnauthorized
	}
	sess, err := a.sessions.FindByToken(ctx, token)
	if err != nil {
		a.log.Debugw("auth rejected", "stage", "session", "error", err)
		return nil, errs.ErrUnauthorized
	}
	if sess.Expired(a.now()) {
		if err := a.sessions.Delete(ctx, token); err != nil {
			a.log.Warnw("delete expired session failed", "user_id", sess.UserID, "error", err)
		}
		a.log.Debugw("auth rejected", "stage", "session_expired", "user_id", sess.UserID)
		return nil, errs.ErrUnauthorized
	}
	if claims.UserID != "" && claims.UserID != sess.UserID {
		a.log.Debugw("auth rejected", "stage", "session_user", "user_id", sess.UserID)
		return nil, errs.ErrUnauthorized
	}
	return &Identity{UserID: sess.UserID, Role: claims.Role, Token: token}, nil
}
