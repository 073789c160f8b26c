// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ddlsync/ddlsync"
)

// applyCmd runs the migration for real, committing on success.
func applyCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Compute and execute the migration against the database, committing on success",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, f, ddlsync.Apply)
		},
	}
	addCommonFlags(cmd, f)
	return cmd
}
