// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

// CreateUserInput registers a new account.
type CreateUserInput struct {
	Name     string `json:"name" jsonschema:"minLength=5,maxLength=256"`
	Username string `json:"username" jsonschema:"minLength=3,maxLength=64"`
	Email    string `json:"email" jsonschema:"format=email,maxLength=256"`
	Password string `json:"password" jsonschema:"minLength=8"`
}

// UpdateUserInput changes profile fields. Password is the confirmation
// password; nil fields are left untouched.
type UpdateUserInput struct {
	Password string  `json:"password" jsonschema:"minLength=8"`
	Name     *string `json:"name,omitempty" jsonschema:"minLength=5,maxLength=256"`
	Username *string `json:"username,omitempty" jsonschema:"minLength=3,maxLength=64"`
	Email    *string `json:"email,omitempty" jsonschema:"format=email,maxLength=256"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email" jsonschema:"format=email,maxLength=256"`
	Password string `json:"password" jsonschema:"minLength=8"`
}

// ChangePasswordInput replaces the password after confirming the current one.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" jsonschema:"minLength=8"`
	NewPassword     string `json:"new_password" jsonschema:"minLength=8"`
}

// DeleteUserInput confirms an account deletion.
type DeleteUserInput struct {
	Password string `json:"password" jsonschema:"minLength=8"`
}

// Validate checks shape and password strength.
func (in CreateUserInput) Validate() error {
	if err := validateSchema(in); err != nil {
		return err
	}
	_, err := ValidatePasswordStrength(in.Password)
	return err
}

// Validate checks shape, password strength and that at least one field changes.
func (in UpdateUserInput) Validate() error {
	if err := validateSchema(in); err != nil {
		return err
	}
	if _, err := ValidatePasswordStrength(in.Password); err != nil {
		return err
	}
	if isBlank(in.Name) && isBlank(in.Username) && isBlank(in.Email) {
		return Validation("", "no field to update, provide at least one of name, username or email")
	}
	return nil
}

// Validate checks shape and password strength.
func (in LoginInput) Validate() error {
	if err := validateSchema(in); err != nil {
		return err
	}
	_, err := ValidatePasswordStrength(in.Password)
	return err
}

// Validate checks shape, strength of the new password and that it differs
// from the current one.
func (in ChangePasswordInput) Validate() error {
	if err := validateSchema(in); err != nil {
		return err
	}
	if _, err := ValidatePasswordStrength(in.NewPassword); err != nil {
		return err
	}
	if in.CurrentPassword == in.NewPassword {
		return Validation("new_password", "the new password must differ from the current one")
	}
	return nil
}

// Validate checks shape.
func (in DeleteUserInput) Validate() error {
	return validateSchema(in)
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[reflect.Type]*jschema.Schema{}
)

// validateSchema checks v against a JSON Schema reflected from its type.
func validateSchema(v any) error {
	sch, err := compiledSchema(v)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return oops.Code("INPUT_ENCODE_FAILED").Wrap(err)
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code("INPUT_ENCODE_FAILED").Wrap(err)
	}

	if err := sch.Validate(inst); err != nil {
		return Validation("", lastLine(err.Error()))
	}
	return nil
}

func compiledSchema(v any) (*jschema.Schema, error) {
	t := reflect.TypeOf(v)

	schemaMu.Lock()
	defer schemaMu.Unlock()

	if sch, ok := schemaCache[t]; ok {
		return sch, nil
	}

	reflected, err := reflectSchema(v)
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(reflected))
	if err != nil {
		return nil, oops.Code("INPUT_SCHEMA_FAILED").With("type", t.Name()).Wrap(err)
	}

	c := jschema.NewCompiler()
	c.AssertFormat()
	url := strings.ToLower(t.Name()) + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, oops.Code("INPUT_SCHEMA_FAILED").With("type", t.Name()).Wrap(err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, oops.Code("INPUT_SCHEMA_FAILED").With("type", t.Name()).Wrap(err)
	}

	schemaCache[t] = sch
	return sch, nil
}

func reflectSchema(v any) ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	reflected, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, oops.Code("INPUT_SCHEMA_FAILED").With("type", reflect.TypeOf(v).Name()).Wrap(err)
	}
	return reflected, nil
}

// inputs names every request input published by InputSchemas.
var inputs = map[string]any{
	"user-create":          CreateUserInput{},
	"user-update":          UpdateUserInput{},
	"user-login":           LoginInput{},
	"user-change-password": ChangePasswordInput{},
	"user-delete":          DeleteUserInput{},
}

// InputSchemas returns the indented JSON Schema of every request input,
// keyed by input name. These are the schemas Validate enforces.
func InputSchemas() (map[string][]byte, error) {
	out := make(map[string][]byte, len(inputs))
	for name, v := range inputs {
		raw, err := reflectSchema(v)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, oops.Code("INPUT_SCHEMA_FAILED").With("input", name).Wrap(err)
		}
		buf.WriteByte('\n')
		out[name] = buf.Bytes()
	}
	return out, nil
}

// lastLine returns the most specific line of a multi-line validation report.
func lastLine(msg string) string {
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[len(lines)-1]), "- "))
}
