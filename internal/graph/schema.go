// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package graph is the GraphQL API of the account service.
package graph

import (
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/oops"
)

//go:embed schema.graphql
var schemaSDL string

// MaxQueryDepth bounds the nesting of accepted queries.
const MaxQueryDepth = 8

// SchemaSDL returns the schema definition served by the API.
func SchemaSDL() string {
	return schemaSDL
}

// NewSchema parses the schema and binds it to r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(schemaSDL, r, graphql.MaxDepth(MaxQueryDepth))
	if err != nil {
		return nil, oops.Code("GRAPHQL_SCHEMA_INVALID").Wrap(err)
	}
	return schema, nil
}
