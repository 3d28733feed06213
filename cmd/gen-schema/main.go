// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the GraphQL schema and the JSON Schemas of the
// account inputs into the schemas directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/holomush/accounts/internal/account"
	"github.com/holomush/accounts/internal/graph"
)

func main() {
	written, err := generate("schemas")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schemas: %v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Printf("Generated %s\n", path)
	}
}

// generate writes every schema under dir and returns the written paths.
func generate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	files := map[string][]byte{
		"schema.graphql": []byte(graph.SchemaSDL()),
	}
	inputs, err := account.InputSchemas()
	if err != nil {
		return nil, err
	}
	for name, schema := range inputs {
		files[name+".schema.json"] = schema
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
