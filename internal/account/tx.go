// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// uniqueValues records the unique fields an operation tries to write, so a
// constraint violation can be attributed to the value that caused it.
type uniqueValues struct {
	email    *string
	username *string
}

// inTransaction runs fn in a transaction and translates unique violations
// after the rollback. Domain errors pass through untouched; anything else is
// wrapped with the operation name.
func inTransaction(ctx context.Context, tx Transactor, operation string, values uniqueValues, fn func(ctx context.Context) error) error {
	err := tx.InTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	if domainErr, ok := AsError(err); ok {
		return domainErr
	}
	// A row that vanished between read and write.
	if errors.Is(err, ErrNotFound) {
		return UserNotFound()
	}

	var constraintErr *ConstraintError
	if errors.As(err, &constraintErr) {
		switch {
		case constraintErr.Constraint == ConstraintUserEmail && values.email != nil:
			return DuplicateEmail(*values.email)
		case constraintErr.Constraint == ConstraintUserUsername && values.username != nil:
			return DuplicateUsername(*values.username)
		}
		return oops.Code("USER_CONFLICT_UNMAPPED").
			With("operation", operation).
			With("constraint", constraintErr.Constraint).
			Wrap(err)
	}

	return oops.Code("USER_OPERATION_FAILED").With("operation", operation).Wrap(err)
}

// loadUser fetches a user by id, mapping absence to UserNotFound.
func loadUser(ctx context.Context, users UserRepository, id uuid.UUID) (*User, error) {
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, UserNotFound()
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// confirmPassword verifies a confirmation password against the stored hash.
func confirmPassword(hasher PasswordHasher, user *User, password string) error {
	ok, err := hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	if !ok {
		return InvalidCredentials()
	}
	return nil
}
