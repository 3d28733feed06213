// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accounts/internal/account"
)

// AssertErrorCode asserts that err carries the given oops code. For wrapped
// chains the innermost code is compared, which is the one LogError reports.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "oops code of %v", err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key, "oops context of %v", err)
	assert.Equal(t, value, ctx[key])
}

// AssertAccountError asserts that err resolves to an *account.Error with the
// given client code, and that it matches kind through errors.Is.
func AssertAccountError(t *testing.T, err error, code string, kind error) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := account.AsError(err)
	require.True(t, ok, "expected *account.Error, got %T: %v", err, err)
	assert.Equal(t, code, domainErr.Code)
	if kind != nil {
		assert.True(t, errors.Is(err, kind), "%v is not %v", err, kind)
	}
}

// AssertStorageError asserts that err is not a client-facing account error
// and carries the given oops code, as infrastructure failures must.
func AssertStorageError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, isDomain := account.AsError(err)
	assert.False(t, isDomain, "storage failure surfaced as account error: %v", err)
	AssertErrorCode(t, err, code)
}
