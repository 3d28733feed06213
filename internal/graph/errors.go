// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package graph

import (
	"strings"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"

	"github.com/holomush/accounts/internal/account"
)

// Error codes for failures raised by the GraphQL layer itself.
const (
	CodeInvalidQueryField    = "InvalidQueryFieldError"
	CodeUnexpectedInput      = "UnexpectedInputError"
	CodeMissingRequiredInput = "MissingRequiredInputError"
	CodeInvalidArgumentType  = "InvalidArgumentTypeError"
	CodeInvalidArgumentValue = account.CodeInvalidArgument
	CodeUnknown              = "UnknownError"
	CodeBadRequest           = "BadRequestError"
)

const (
	friendlyInvalidQueryField = "you tried to open a door, but it was only a drawing on the wall"
	friendlyInvalidArgument   = "your attempt set off a security rune and the whole arcane council is laughing, " +
		"check your input, noble conjurer"
	friendlyMissingInput = "your spell failed, at least one essential component is missing, " +
		"check your grimoire and try again"
	friendlyUnexpectedInput = "leopard mane is not a component of this spell, " +
		"remove it and we will pretend nothing happened"
)

// FormattedError is the client-facing shape of a GraphQL error.
type FormattedError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

type messageRule struct {
	patterns []string
	code     string
	friendly string
}

// Checked in order; the first rule with a matching pattern wins.
var messageRules = []messageRule{
	{[]string{"Cannot query field"}, CodeInvalidQueryField, friendlyInvalidQueryField},
	{[]string{"Unknown argument", "Unknown field", "is not defined"}, CodeUnexpectedInput, friendlyUnexpectedInput},
	{[]string{"found null", "required type", "is required"}, CodeMissingRequiredInput, friendlyMissingInput},
	{[]string{"Expected type", "cannot represent", "has invalid value"}, CodeInvalidArgumentType, friendlyInvalidArgument},
}

// FormatError maps an execution or validation error to a FormattedError.
func FormatError(qe *gqlerrors.QueryError) FormattedError {
	if qe == nil {
		return FormattedError{Message: "unknown error", Code: CodeUnknown, Details: "unknown error"}
	}

	if domainErr, ok := account.AsError(qe.ResolverError); ok {
		if domainErr.Code == account.CodeInvalidArgument {
			return FormattedError{Message: friendlyInvalidArgument, Code: CodeInvalidArgumentValue, Details: domainErr.Error()}
		}
		details := domainErr.Detail
		if details == "" {
			details = domainErr.Message
		}
		return FormattedError{Message: domainErr.Error(), Code: domainErr.Code, Details: details}
	}

	for _, rule := range messageRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(qe.Message, pattern) {
				return FormattedError{Message: rule.friendly, Code: rule.code, Details: qe.Message}
			}
		}
	}

	return FormattedError{Message: qe.Message, Code: CodeUnknown, Details: qe.Message}
}

// FormatErrors formats every error in errs. It returns nil for no errors.
func FormatErrors(errs []*gqlerrors.QueryError) []FormattedError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FormattedError, 0, len(errs))
	for _, qe := range errs {
		out = append(out, FormatError(qe))
	}
	return out
}
