// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/internal/account"
	"github.com/holomush/accounts/internal/account/postgres"
	"github.com/holomush/accounts/pkg/errutil"
)

var userCols = []string{"id", "name", "username", "email", "hashed_password", "is_master", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return mock
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errCode   string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow(id, "Ana Silva", "anas", "ana@x.com", "hash", false, now, now))
			},
		},
		{
			name: "absent",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows(userCols))
			},
			wantErr: account.ErrNotFound,
			errCode: "USER_NOT_FOUND",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
					WithArgs(id).
					WillReturnError(errors.New("connection refused"))
			},
			errCode: "USER_GET_BY_ID_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			user, err := postgres.NewUserRepository(mock).GetByID(ctx, id)
			if tt.errCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.errCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, user.ID)
			assert.Equal(t, "anas", user.Username)
			assert.Equal(t, "hash", user.PasswordHash)
			assert.Equal(t, now, user.CreatedAt)
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("ana@x.com").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id, "Ana Silva", "anas", "ana@x.com", "hash", true, now, now))

		user, err := postgres.NewUserRepository(mock).GetByEmail(ctx, "ana@x.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.True(t, user.IsMaster)
	})

	t.Run("absent", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("nobody@x.com").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := postgres.NewUserRepository(mock).GetByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestUserRepository_Insert(t *testing.T) {
	ctx := context.Background()
	newUser := func() *account.User {
		return &account.User{Name: "Ana Silva", Username: "anas", Email: "ana@x.com", PasswordHash: "hash"}
	}

	t.Run("sets generated id", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ana Silva", "anas", "ana@x.com", "hash", false).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

		user := newUser()
		require.NoError(t, postgres.NewUserRepository(mock).Insert(ctx, user))
		assert.Equal(t, id, user.ID)
	})

	for _, constraint := range []string{account.ConstraintUserEmail, account.ConstraintUserUsername} {
		t.Run("unique violation on "+constraint, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery(`INSERT INTO users`).
				WithArgs("Ana Silva", "anas", "ana@x.com", "hash", false).
				WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint})

			err := postgres.NewUserRepository(mock).Insert(ctx, newUser())
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "USER_INSERT_FAILED")

			var constraintErr *account.ConstraintError
			require.ErrorAs(t, err, &constraintErr)
			assert.Equal(t, constraint, constraintErr.Constraint)
		})
	}

	t.Run("other database errors are not constraint errors", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ana Silva", "anas", "ana@x.com", "hash", false).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ConstraintName: "users_name_not_null"})

		err := postgres.NewUserRepository(mock).Insert(ctx, newUser())
		require.Error(t, err)
		var constraintErr *account.ConstraintError
		assert.False(t, errors.As(err, &constraintErr))
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	user := &account.User{ID: uuid.New(), Name: "Ana Souza", Username: "anas", Email: "ana@x.com", PasswordHash: "hash"}

	t.Run("updates row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs(user.ID, "Ana Souza", "anas", "ana@x.com", "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, postgres.NewUserRepository(mock).Update(ctx, user))
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs(user.ID, "Ana Souza", "anas", "ana@x.com", "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := postgres.NewUserRepository(mock).Update(ctx, user)
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("unique violation", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs(user.ID, "Ana Souza", "anas", "ana@x.com", "hash").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: account.ConstraintUserUsername})

		err := postgres.NewUserRepository(mock).Update(ctx, user)
		var constraintErr *account.ConstraintError
		require.ErrorAs(t, err, &constraintErr)
		assert.Equal(t, account.ConstraintUserUsername, constraintErr.Constraint)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deletes row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, postgres.NewUserRepository(mock).Delete(ctx, id))
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, postgres.NewUserRepository(mock).Delete(ctx, id), account.ErrNotFound)
	})
}

func TestUserRepository_Refresh(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	created := time.Now().Add(-time.Hour).UTC()
	updated := time.Now().UTC()

	mock := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "Ana Silva", "anas", "ana@x.com", "hash", false, created, updated))

	user := &account.User{ID: id, Name: "stale"}
	require.NoError(t, postgres.NewUserRepository(mock).Refresh(ctx, user))
	assert.Equal(t, "Ana Silva", user.Name)
	assert.Equal(t, created, user.CreatedAt)
	assert.Equal(t, updated, user.UpdatedAt)
}
