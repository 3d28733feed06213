// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package redis implements account.SessionStore on Redis.
package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/account"
)

const keyPrefix = "session:"

// SessionStore implements account.SessionStore. Each session is a single
// key holding the JSON public view with a sliding expiry.
type SessionStore struct {
	client goredis.Cmdable
}

// NewSessionStore creates a SessionStore on client. The client is shared and
// owned by the caller.
func NewSessionStore(client goredis.Cmdable) *SessionStore {
	return &SessionStore{client: client}
}

// Key returns the Redis key for a session id.
func Key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Create stores view under a fresh id.
func (s *SessionStore) Create(ctx context.Context, view account.PublicUser) (uuid.UUID, error) {
	id, err := account.NewSessionID()
	if err != nil {
		return uuid.Nil, oops.Code("SESSION_ID_FAILED").Wrap(err)
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return uuid.Nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "marshal session").
			Wrap(err)
	}

	if err := s.client.Set(ctx, Key(id), payload, account.SessionTTL).Err(); err != nil {
		return uuid.Nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "set session").
			With("user_id", view.ID.String()).
			Wrap(err)
	}
	return id, nil
}

// GetAndTouch returns the stored view and resets its expiry.
func (s *SessionStore) GetAndTouch(ctx context.Context, id uuid.UUID) (account.PublicUser, bool, error) {
	key := Key(id)

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return account.PublicUser{}, false, nil
	}
	if err != nil {
		return account.PublicUser{}, false, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			With("session_id", id.String()).
			Wrap(err)
	}

	if err := s.client.Expire(ctx, key, account.SessionTTL).Err(); err != nil {
		return account.PublicUser{}, false, oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "expire session").
			With("session_id", id.String()).
			Wrap(err)
	}

	var view account.PublicUser
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&view); err != nil {
		return account.PublicUser{}, false, oops.Code("SESSION_DECODE_FAILED").
			With("session_id", id.String()).
			Wrap(err)
	}
	return view, true, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ account.SessionStore = (*SessionStore)(nil)
