// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/internal/account/postgres"
	"github.com/holomush/accounts/pkg/errutil"
)

func TestTransactor_InTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := postgres.NewTransactor(mock).InTransaction(ctx, func(context.Context) error { return nil })
		require.NoError(t, err)
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := postgres.NewTransactor(mock).InTransaction(ctx, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("begin failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := postgres.NewTransactor(mock).InTransaction(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		errutil.AssertErrorCode(t, err, "TX_BEGIN_FAILED")
	})

	t.Run("commit failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := postgres.NewTransactor(mock).InTransaction(ctx, func(context.Context) error { return nil })
		errutil.AssertErrorCode(t, err, "TX_COMMIT_FAILED")
	})

	t.Run("repository calls run on the transaction", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		repo := postgres.NewUserRepository(mock)
		err := postgres.NewTransactor(mock).InTransaction(ctx, func(ctx context.Context) error {
			return repo.Delete(ctx, id)
		})
		require.NoError(t, err)
	})

	t.Run("nested call joins the active transaction", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		txr := postgres.NewTransactor(mock)
		inner := 0
		err := txr.InTransaction(ctx, func(ctx context.Context) error {
			return txr.InTransaction(ctx, func(context.Context) error {
				inner++
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, inner)
	})
}
