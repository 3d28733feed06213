// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// AuthService verifies credentials and changes passwords.
type AuthService struct {
	users  UserRepository
	tx     Transactor
	hasher PasswordHasher
	logger *slog.Logger
}

// NewAuthService creates an AuthService using the default logger.
func NewAuthService(users UserRepository, tx Transactor, hasher PasswordHasher) (*AuthService, error) {
	return NewAuthServiceWithLogger(users, tx, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates an AuthService with an explicit logger.
func NewAuthServiceWithLogger(users UserRepository, tx Transactor, hasher PasswordHasher, logger *slog.Logger) (*AuthService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if tx == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("transactor is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &AuthService{users: users, tx: tx, hasher: hasher, logger: logger}, nil
}

// dummyPasswordHash is verified when the email is unknown so that the
// response time does not reveal whether an account exists.
//
//nolint:gosec // G101: intentionally fake hash, never matches any password.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login checks credentials and returns the user's public view. It does not
// create a session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (PublicUser, error) {
	var (
		user    *User
		upgrade bool
	)

	err := inTransaction(ctx, s.tx, "login", uniqueValues{}, func(ctx context.Context) error {
		found, lookupErr := s.users.GetByEmail(ctx, in.Email)
		if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
			return oops.Code("AUTH_LOGIN_FAILED").With("operation", "get user by email").Wrap(lookupErr)
		}

		targetHash := dummyPasswordHash
		if found != nil {
			targetHash = found.PasswordHash
		}

		// Always verify, even for unknown emails.
		valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
		if found == nil {
			return UserNotFound()
		}
		if verifyErr != nil {
			return oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "verify password").
				With("user_id", found.ID.String()).
				Wrap(verifyErr)
		}
		if !valid {
			return InvalidCredentials()
		}

		user = found
		upgrade = s.hasher.NeedsUpgrade(found.PasswordHash)
		return nil
	})
	if err != nil {
		return PublicUser{}, err
	}

	if upgrade {
		s.upgradeHash(ctx, user, in.Password)
	}
	return user.Public(), nil
}

// upgradeHash rehashes the password with current parameters. Failures are
// logged and do not affect the login.
func (s *AuthService) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID.String(), "error", err)
		return
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		current, err := s.users.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		current.PasswordHash = hash
		return s.users.Update(ctx, current)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade not persisted", "user_id", user.ID.String(), "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID.String())
}

// ChangePassword replaces the password after verifying the current one. The
// input must already be validated (strength, new differs from current).
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, in ChangePasswordInput) (PublicUser, error) {
	var view PublicUser

	err := inTransaction(ctx, s.tx, "change password", uniqueValues{}, func(ctx context.Context) error {
		user, err := loadUser(ctx, s.users, id)
		if err != nil {
			return err
		}
		if err := confirmPassword(s.hasher, user, in.CurrentPassword); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
		}
		user.PasswordHash = hash

		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		if err := s.users.Refresh(ctx, user); err != nil {
			return err
		}
		view = user.Public()
		return nil
	})
	if err != nil {
		return PublicUser{}, err
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", id.String())
	return view, nil
}
