// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/internal/reqauth"
	"github.com/holomush/accounts/pkg/errutil"
)

// UserService is the account operation surface used by the resolvers.
type UserService interface {
	Create(ctx context.Context, in account.CreateUserInput) (account.PublicUser, error)
	Update(ctx context.Context, id uuid.UUID, in account.UpdateUserInput) (account.PublicUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (account.PublicUser, error)
	Delete(ctx context.Context, id uuid.UUID, in account.DeleteUserInput) error
}

// AuthService is the credential operation surface used by the resolvers.
type AuthService interface {
	Login(ctx context.Context, in account.LoginInput) (account.PublicUser, error)
	ChangePassword(ctx context.Context, id uuid.UUID, in account.ChangePasswordInput) (account.PublicUser, error)
}

// Resolver is the root resolver for Query and Mutation.
type Resolver struct {
	users    UserService
	auth     AuthService
	sessions account.SessionStore
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver. logger and metrics may be nil.
func NewResolver(users UserService, auth AuthService, sessions account.SessionStore, logger *slog.Logger, metrics *observability.Metrics) (*Resolver, error) {
	if users == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("user service is required")
	}
	if auth == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("auth service is required")
	}
	if sessions == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{users: users, auth: auth, sessions: sessions, logger: logger, metrics: metrics}, nil
}

// Me resolves the logged-in user from storage.
func (r *Resolver) Me(ctx context.Context) (*User, error) {
	current, _, err := r.currentUser(ctx, "fetching user")
	if err != nil {
		return nil, err
	}
	view, err := r.users.GetByID(ctx, current.ID)
	if err != nil {
		return nil, r.unexpected(ctx, "fetching user", err)
	}
	return &User{view}, nil
}

// Logout deletes the current session and expires the cookie.
func (r *Resolver) Logout(ctx context.Context) (*LogoutResult, error) {
	_, ac, err := r.currentUser(ctx, "logging out")
	if err != nil {
		return nil, err
	}
	if id, ok := ac.SessionID(); ok {
		if err := r.sessions.Delete(ctx, id); err != nil {
			return nil, r.unexpected(ctx, "logging out", err)
		}
	}
	ac.ClearSessionCookie()
	return &LogoutResult{success: true}, nil
}

// CreateUser registers a new account.
func (r *Resolver) CreateUser(ctx context.Context, args struct{ Data account.CreateUserInput }) (*User, error) {
	if err := args.Data.Validate(); err != nil {
		return nil, r.unexpected(ctx, "creating user", err)
	}
	view, err := r.users.Create(ctx, args.Data)
	if err != nil {
		return nil, r.unexpected(ctx, "creating user", err)
	}
	return &User{view}, nil
}

// Login checks credentials, opens a session and sets the session cookie.
func (r *Resolver) Login(ctx context.Context, args struct{ Data account.LoginInput }) (*User, error) {
	ac, err := authContext(ctx)
	if err != nil {
		return nil, r.unexpected(ctx, "logging in", err)
	}
	if err := args.Data.Validate(); err != nil {
		return nil, r.unexpected(ctx, "logging in", err)
	}

	view, err := r.auth.Login(ctx, args.Data)
	if err != nil {
		return nil, r.unexpected(ctx, "logging in", err)
	}

	sessionID, err := r.sessions.Create(ctx, view)
	if err != nil {
		return nil, r.unexpected(ctx, "logging in", err)
	}
	ac.SetSessionCookie(sessionID)
	r.metrics.SessionCreated()
	return &User{view}, nil
}

// UpdateUser changes the profile of the logged-in user.
func (r *Resolver) UpdateUser(ctx context.Context, args struct{ Data account.UpdateUserInput }) (*User, error) {
	current, _, err := r.currentUser(ctx, "updating user")
	if err != nil {
		return nil, err
	}
	if err := args.Data.Validate(); err != nil {
		return nil, r.unexpected(ctx, "updating user", err)
	}
	view, err := r.users.Update(ctx, current.ID, args.Data)
	if err != nil {
		return nil, r.unexpected(ctx, "updating user", err)
	}
	return &User{view}, nil
}

// ChangePassword replaces the password of the logged-in user.
func (r *Resolver) ChangePassword(ctx context.Context, args struct{ Data account.ChangePasswordInput }) (*User, error) {
	current, _, err := r.currentUser(ctx, "changing password")
	if err != nil {
		return nil, err
	}
	if err := args.Data.Validate(); err != nil {
		return nil, r.unexpected(ctx, "changing password", err)
	}
	view, err := r.auth.ChangePassword(ctx, current.ID, args.Data)
	if err != nil {
		return nil, r.unexpected(ctx, "changing password", err)
	}
	return &User{view}, nil
}

// DeleteUser removes the logged-in user and ends the current session.
func (r *Resolver) DeleteUser(ctx context.Context, args struct{ Data account.DeleteUserInput }) (bool, error) {
	current, ac, err := r.currentUser(ctx, "deleting user")
	if err != nil {
		return false, err
	}
	if err := args.Data.Validate(); err != nil {
		return false, r.unexpected(ctx, "deleting user", err)
	}
	if err := r.users.Delete(ctx, current.ID, args.Data); err != nil {
		return false, r.unexpected(ctx, "deleting user", err)
	}

	if id, ok := ac.SessionID(); ok {
		if err := r.sessions.Delete(ctx, id); err != nil {
			errutil.LogErrorContext(ctx, r.logger, "session of deleted user not removed", err)
		}
	}
	ac.ClearSessionCookie()
	return true, nil
}

// currentUser authenticates the request and returns the bound user.
func (r *Resolver) currentUser(ctx context.Context, action string) (account.PublicUser, *reqauth.Context, error) {
	ac, err := authContext(ctx)
	if err != nil {
		return account.PublicUser{}, nil, r.unexpected(ctx, action, err)
	}
	user, err := ac.RequireUser(ctx)
	if err != nil {
		return account.PublicUser{}, nil, r.unexpected(ctx, action, err)
	}
	return user, ac, nil
}

// unexpected passes domain errors through and rewrites anything else as
// "unexpected error <action>: <message>".
func (r *Resolver) unexpected(ctx context.Context, action string, err error) error {
	if _, ok := account.AsError(err); ok {
		return err
	}
	errutil.LogErrorContext(ctx, r.logger.With("action", action), "unexpected resolver error", err)
	return fmt.Errorf("unexpected error %s: %w", action, err)
}

func authContext(ctx context.Context) (*reqauth.Context, error) {
	ac, ok := reqauth.FromContext(ctx)
	if !ok {
		return nil, oops.Code("AUTH_CONTEXT_MISSING").Errorf("request carries no authentication context")
	}
	return ac, nil
}

// User resolves the User type.
type User struct {
	view account.PublicUser
}

func (u *User) ID() graphql.ID   { return graphql.ID(u.view.ID.String()) }
func (u *User) Name() string     { return u.view.Name }
func (u *User) Username() string { return u.view.Username }
func (u *User) Email() string    { return u.view.Email }
func (u *User) IsMaster() bool   { return u.view.IsMaster }

// LogoutResult resolves the LogoutResult type.
type LogoutResult struct {
	success bool
}

func (l *LogoutResult) Success() bool { return l.success }
