// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// ReadinessChecker reports why the service cannot take traffic, or nil.
type ReadinessChecker func(ctx context.Context) error

// Check is one named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// PingChecker runs every check with a shared timeout and fails on the first
// dependency that does not answer.
func PingChecker(timeout time.Duration, checks ...Check) ReadinessChecker {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				return oops.Code("NOT_READY").With("dependency", check.Name).Wrap(err)
			}
		}
		return nil
	}
}
