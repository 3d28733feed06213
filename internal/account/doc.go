// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package account provides user accounts and password authentication.
//
// # Domain Types
//
// User is the persistent account record. PublicUser is its outward projection
// and is the only shape that leaves the package boundary: it is what GraphQL
// renders and what a session snapshot stores. The password hash never appears
// in a PublicUser.
//
// Input types (CreateUserInput, UpdateUserInput, LoginInput,
// ChangePasswordInput, DeleteUserInput) are validated by their Validate method
// before reaching a service. Services trust validated input and only enforce
// business rules: password confirmation and uniqueness.
//
// # Services
//
//   - UserService - create, update, read and delete accounts
//   - AuthService - login and password change
//
// Both run every operation inside a Transactor scope. Unique violations raised
// by the store are translated into DuplicateEmailError or
// DuplicateUsernameError after the transaction has rolled back.
//
// # Errors
//
// Domain outcomes are *Error values carrying a stable code. Use errors.Is with
// ErrNotFound, ErrConflict, ErrUnauthorized, ErrForbidden or ErrValidation to
// branch on the kind.
package account
