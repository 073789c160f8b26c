// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ddlsync/ddlsync"
)

// scriptCmd renders the migration's SQL to stdout without opening a
// transaction, for review or for feeding to another tool.
func scriptCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Print the migration's SQL statements without executing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, f, ddlsync.ScriptOnly)
		},
	}
	addCommonFlags(cmd, f)
	return cmd
}
