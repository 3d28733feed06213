// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// UserService manages account records.
type UserService struct {
	users  UserRepository
	tx     Transactor
	hasher PasswordHasher
	logger *slog.Logger
}

// NewUserService creates a UserService using the default logger.
func NewUserService(users UserRepository, tx Transactor, hasher PasswordHasher) (*UserService, error) {
	return NewUserServiceWithLogger(users, tx, hasher, slog.Default())
}

// NewUserServiceWithLogger creates a UserService with an explicit logger.
func NewUserServiceWithLogger(users UserRepository, tx Transactor, hasher PasswordHasher, logger *slog.Logger) (*UserService, error) {
	if users == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("user repository is required")
	}
	if tx == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("transactor is required")
	}
	if hasher == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("logger is required")
	}
	return &UserService{users: users, tx: tx, hasher: hasher, logger: logger}, nil
}

// Create registers a new, non-privileged user. The input must already be validated.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (PublicUser, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return PublicUser{}, oops.Code("USER_CREATE_FAILED").With("operation", "hash password").Wrap(err)
	}

	user := &User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsMaster:     false,
	}

	values := uniqueValues{email: &in.Email, username: &in.Username}
	err = inTransaction(ctx, s.tx, "create user", values, func(ctx context.Context) error {
		if err := s.users.Insert(ctx, user); err != nil {
			return err
		}
		return s.users.Refresh(ctx, user)
	})
	if err != nil {
		return PublicUser{}, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID.String())
	return user.Public(), nil
}

// Update applies the supplied profile fields after confirming the password.
// Fields left nil in the input are not modified.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (PublicUser, error) {
	var view PublicUser

	values := uniqueValues{email: in.Email, username: in.Username}
	err := inTransaction(ctx, s.tx, "update user", values, func(ctx context.Context) error {
		user, err := loadUser(ctx, s.users, id)
		if err != nil {
			return err
		}
		if err := confirmPassword(s.hasher, user, in.Password); err != nil {
			return err
		}

		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Username != nil {
			user.Username = *in.Username
		}
		if in.Email != nil {
			user.Email = *in.Email
		}

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
	return view, nil
}

// GetByID returns the public view of a user.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (PublicUser, error) {
	var view PublicUser
	err := inTransaction(ctx, s.tx, "get user", uniqueValues{}, func(ctx context.Context) error {
		user, err := loadUser(ctx, s.users, id)
		if err != nil {
			return err
		}
		view = user.Public()
		return nil
	})
	if err != nil {
		return PublicUser{}, err
	}
	return view, nil
}

// Delete removes a user after confirming the password.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID, in DeleteUserInput) error {
	err := inTransaction(ctx, s.tx, "delete user", uniqueValues{}, func(ctx context.Context) error {
		user, err := loadUser(ctx, s.users, id)
		if err != nil {
			return err
		}
		if err := confirmPassword(s.hasher, user, in.Password); err != nil {
			return err
		}
		return s.users.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id.String())
	return nil
}
