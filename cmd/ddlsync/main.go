// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Command ddlsync is the external-collaborator CLI around the core
// migration engine: it discovers and concatenates *.sql files, opens
// the target SQLite database, and reports the core's exit codes back
// to the shell, per section 6 of the core design. It does not itself
// diff or plan anything.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ddlsync",
		Short:         "A declarative SQLite schema-migration engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(planCmd(), applyCmd(), dryRunCmd(), scriptCmd())
	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isIntegrityViolation(err):
		return 2
	case isBusyErr(err):
		return 3
	default:
		fmt.Fprintln(os.Stderr, "ddlsync:", err)
		return 1
	}
}
