// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ddlsync/ddlsync"
)

// dryRunCmd is plan's synonym: both run in ddlsync.DryRun mode, which
// opens a real transaction, runs every step and the integrity check,
// then always rolls back. It exists separately from "plan" because
// section 6 names dry-run and plan as distinct external operations
// even though they share one Mode.
func dryRunCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Run the full migration inside a transaction that is always rolled back",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, f, ddlsync.DryRun)
		},
	}
	addCommonFlags(cmd, f)
	return cmd
}
