// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
	"github.com/holomush/accounts/pkg/errutil"
)

func TestAssertErrorCode_InnermostCode(t *testing.T) {
	inner := oops.Code("USER_INSERT_FAILED").Errorf("insert")
	errutil.AssertErrorCode(t, inner, "USER_INSERT_FAILED")
	errutil.AssertErrorCode(t, oops.Code("USER_OPERATION_FAILED").Wrap(inner), "USER_INSERT_FAILED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "123").Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", "123")
}

func TestAssertAccountError(t *testing.T) {
	errutil.AssertAccountError(t, account.DuplicateEmail("ana@x.com"), account.CodeDuplicateEmail, account.ErrConflict)

	wrapped := oops.Code("LOGIN_FAILED").Wrap(account.InvalidCredentials())
	errutil.AssertAccountError(t, wrapped, account.CodeInvalidCredentials, account.ErrUnauthorized)
	errutil.AssertAccountError(t, account.UserNotFound(), account.CodeUserNotFound, nil)
}

func TestAssertStorageError(t *testing.T) {
	err := oops.Code("USER_OPERATION_FAILED").With("operation", "create user").Wrap(errors.New("db down"))
	errutil.AssertStorageError(t, err, "USER_OPERATION_FAILED")
}
