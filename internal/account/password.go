// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePasswordStrength returns password unchanged when it is at least
// MinPasswordLength characters and contains an uppercase letter, a digit and a
// special character. Rules are checked in that order; the first failure is
// reported as a validation error.
func ValidatePasswordStrength(password string) (string, error) {
	if len([]rune(password)) < MinPasswordLength {
		return "", Validation("password", "must be at least 8 characters long")
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case isSpecial(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return "", Validation("password", "must contain at least one uppercase letter")
	}
	if !hasDigit {
		return "", Validation("password", "must contain at least one number")
	}
	if !hasSpecial {
		return "", Validation("password", "must contain at least one special character")
	}
	return password, nil
}

// isSpecial reports whether r is neither an ASCII letter, a digit nor whitespace.
func isSpecial(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return false
	}
	return !unicode.IsSpace(r)
}
