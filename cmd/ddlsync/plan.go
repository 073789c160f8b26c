// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ddlsync/ddlsync"
)

// planCmd prints the change list and the step count of the migration.
// It runs in DryRun mode, so the steps execute inside a transaction
// that is always rolled back and nothing is committed; exit codes
// follow section 6's contract.
func planCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the changes a migration would apply, running its steps in a transaction that is always rolled back",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, f, ddlsync.DryRun)
		},
	}
	addCommonFlags(cmd, f)
	return cmd
}
