// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
)

const userColumns = `id, name, username, email, hashed_password, is_master, created_at, updated_at`

// UserRepository implements account.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. The match is exact.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// Insert stores a new user and sets its generated ID.
func (r *UserRepository) Insert(ctx context.Context, user *account.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (name, username, email, hashed_password, is_master)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsMaster,
	).Scan(&user.ID)
	if err != nil {
		return oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(translateConstraint(err))
	}
	return nil
}

// Update writes the mutable fields of an existing user and bumps updated_at.
func (r *UserRepository) Update(ctx context.Context, user *account.User) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE users
		SET name = $2, username = $3, email = $4, hashed_password = $5, updated_at = now()
		WHERE id = $1
	`,
		user.ID,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(translateConstraint(err))
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Refresh reloads the persisted row into user.
func (r *UserRepository) Refresh(ctx context.Context, user *account.User) error {
	fresh, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *fresh
	return nil
}

func scanUser(row pgx.Row) (*account.User, error) {
	var u account.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsMaster,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	return &u, nil
}

// translateConstraint reports unique violations as *account.ConstraintError
// so the service layer can attribute them to a field.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return &account.ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// Compile-time interface check.
var _ account.UserRepository = (*UserRepository)(nil)
