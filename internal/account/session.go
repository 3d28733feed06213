// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the sliding lifetime of a session. Each successful lookup
// renews it to the full duration.
const SessionTTL = 90 * time.Minute

// SessionStore maps opaque session ids to a snapshot of the user taken at
// login. The snapshot is not refreshed when the profile changes.
type SessionStore interface {
	// Create stores view under a fresh random id and returns the id.
	Create(ctx context.Context, view PublicUser) (uuid.UUID, error)

	// GetAndTouch returns the snapshot and renews its TTL. found is false when
	// the session is absent or expired; that is not an error. A payload that
	// cannot be decoded is returned as an error.
	GetAndTouch(ctx context.Context, id uuid.UUID) (view PublicUser, found bool, err error)

	// Delete removes the session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewSessionID returns a random (version 4) session id.
func NewSessionID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

// ParseSessionID parses a token presented by a client. It returns false
// unless the token parses as a version 4 UUID.
func ParseSessionID(token string) (uuid.UUID, bool) {
	id, err := uuid.Parse(token)
	if err != nil || id.Version() != 4 {
		return uuid.Nil, false
	}
	return id, true
}
