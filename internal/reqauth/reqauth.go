// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package reqauth binds the session cookie of an HTTP request to a user.
//
// A Context is created once per request by the API handler, stored in the
// request's context.Context, and consulted by resolvers that need a logged-in
// user. Authentication is lazy: the session store is only queried when a
// protected operation asks for the user.
package reqauth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// CookieMaxAge is the cookie lifetime in seconds, 30 seconds short of the
// session TTL.
const CookieMaxAge = int(account.SessionTTL/time.Second) - 30

// UserResolver loads the current state of a user.
type UserResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (account.PublicUser, error)
}

// UserResolverFunc adapts a function to UserResolver.
type UserResolverFunc func(ctx context.Context, id uuid.UUID) (account.PublicUser, error)

// GetByID calls f.
func (f UserResolverFunc) GetByID(ctx context.Context, id uuid.UUID) (account.PublicUser, error) {
	return f(ctx, id)
}

// Context is the per-request authentication state.
type Context struct {
	r        *http.Request
	w        http.ResponseWriter
	sessions account.SessionStore
	users    UserResolver
	user     *account.PublicUser
}

// New creates an unauthenticated Context for one request.
func New(w http.ResponseWriter, r *http.Request, sessions account.SessionStore, users UserResolver) *Context {
	return &Context{r: r, w: w, sessions: sessions, users: users}
}

// Authenticate resolves the session cookie to a user and binds it.
//
// A request without a session cookie is denied. A malformed, expired or
// unknown session id is an expired session. A session whose user has since
// been deleted yields account.UserNotFound.
func (c *Context) Authenticate(ctx context.Context) error {
	cookie, err := c.r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return account.PermissionDenied()
	}

	id, ok := account.ParseSessionID(cookie.Value)
	if !ok {
		return account.ExpiredSession()
	}

	snapshot, found, err := c.sessions.GetAndTouch(ctx, id)
	if err != nil {
		return oops.Code("AUTH_SESSION_LOOKUP_FAILED").With("session_id", id.String()).Wrap(err)
	}
	if !found {
		return account.ExpiredSession()
	}

	// The snapshot may be stale; only its id is trusted.
	user, err := c.users.GetByID(ctx, snapshot.ID)
	if err != nil {
		return err
	}
	if user.ID != uuid.Nil {
		c.user = &user
	}
	return nil
}

// RequireUser returns the bound user, authenticating first if needed.
func (c *Context) RequireUser(ctx context.Context) (account.PublicUser, error) {
	if c.user == nil {
		if err := c.Authenticate(ctx); err != nil {
			return account.PublicUser{}, err
		}
	}
	if c.user == nil {
		return account.PublicUser{}, oops.Code("AUTH_CONTEXT_UNBOUND").
			Errorf("authentication succeeded but no user was bound")
	}
	return *c.user, nil
}

// User returns the bound user without authenticating.
func (c *Context) User() (account.PublicUser, bool) {
	if c.user == nil {
		return account.PublicUser{}, false
	}
	return *c.user, true
}

// SessionID returns the session id carried by the request cookie.
func (c *Context) SessionID() (uuid.UUID, bool) {
	cookie, err := c.r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, false
	}
	return account.ParseSessionID(cookie.Value)
}

// SetSessionCookie sends the session cookie for id on the response.
func (c *Context) SetSessionCookie(id uuid.UUID) {
	http.SetCookie(c.w, sessionCookie(id.String(), CookieMaxAge))
}

// ClearSessionCookie expires the session cookie on the client and unbinds
// the user.
func (c *Context) ClearSessionCookie() {
	http.SetCookie(c.w, sessionCookie("", -1))
	c.user = nil
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying c.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Context stored by WithContext.
func FromContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(contextKey{}).(*Context)
	return c, ok && c != nil
}
