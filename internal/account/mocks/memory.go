// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
)

var errDuplicateKey = errors.New("duplicate key value violates unique constraint")

// MemoryUserRepository is an in-memory account.UserRepository that enforces
// the same unique indexes as the users table.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]account.User
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]account.User)}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(account.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(account.ErrNotFound)
}

func (r *MemoryUserRepository) Insert(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(uuid.Nil, user); err != nil {
		return err
	}
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID.String()).Wrap(account.ErrNotFound)
	}
	if err := r.checkUnique(user.ID, user); err != nil {
		return err
	}
	stored.Name = user.Name
	stored.Username = user.Username
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = stored
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(account.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) Refresh(ctx context.Context, user *account.User) error {
	fresh, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *fresh
	return nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// checkUnique reports the first unique index user would violate. self is
// excluded from the comparison. Callers hold r.mu.
func (r *MemoryUserRepository) checkUnique(self uuid.UUID, user *account.User) error {
	for id, u := range r.users {
		if id == self {
			continue
		}
		if u.Email == user.Email {
			return &account.ConstraintError{Constraint: account.ConstraintUserEmail, Err: errDuplicateKey}
		}
		if u.Username == user.Username {
			return &account.ConstraintError{Constraint: account.ConstraintUserUsername, Err: errDuplicateKey}
		}
	}
	return nil
}

var _ account.UserRepository = (*MemoryUserRepository)(nil)
