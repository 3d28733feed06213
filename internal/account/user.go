// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Unique index names on the users table.
const (
	ConstraintUserEmail    = "ix_users_email"
	ConstraintUserUsername = "ix_users_username"
)

// User is a persisted account.
type User struct {
	ID           uuid.UUID
	Name         string
	Username     string
	Email        string
	PasswordHash string `json:"-"`
	IsMaster     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the outward view of a User. It never carries the password hash.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsMaster bool      `json:"is_master"`
}

// Public returns the public view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		IsMaster: u.IsMaster,
	}
}

// UserRepository persists users. Implementations run on the transaction
// carried by ctx when there is one and never commit or roll back themselves.
type UserRepository interface {
	// GetByID returns the user or an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail returns the user or an error wrapping ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Insert persists a new user and sets its generated ID.
	// A unique violation is reported as *ConstraintError.
	Insert(ctx context.Context, user *User) error

	// Update writes profile fields and the password hash.
	// A unique violation is reported as *ConstraintError.
	Update(ctx context.Context, user *User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// Refresh reloads the persisted row into user, picking up server-set fields.
	Refresh(ctx context.Context, user *User) error
}

// Transactor runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise, before the error is
// returned.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
