// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/accounts/internal/store"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("accounts %s\n", version)
			cmd.Printf("  commit: %s\n", commit)
			cmd.Printf("  built:  %s\n", date)

			versions, err := store.MigrationVersions()
			if err != nil {
				return err //nolint:wrapcheck // store errors carry oops codes
			}
			if len(versions) > 0 {
				cmd.Printf("  schema: %d\n", versions[len(versions)-1])
			}
			return nil
		},
	}
}
