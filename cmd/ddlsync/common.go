// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/ddlsync/ddlsync"
	"github.com/ddlsync/ddlsync/conn"
	"github.com/ddlsync/ddlsync/config"
	"github.com/ddlsync/ddlsync/exec"
	"github.com/ddlsync/ddlsync/logging"
	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

// flags are the settings shared by every subcommand; each subcommand
// registers its own copy of them through addCommonFlags.
type flags struct {
	database       string
	schema         []string
	cfgPath        string
	env            string
	strictFK       bool
	strictFKIsSet  bool
	ignore         []string
	extension      []string
}

func addCommonFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().StringVar(&f.database, "db", "", "path to the SQLite database file")
	cmd.Flags().StringArrayVar(&f.schema, "schema", nil, "glob(s) of *.sql files making up the target schema")
	cmd.Flags().StringVar(&f.cfgPath, "config", "", "path to a ddlsync.hcl configuration file")
	cmd.Flags().StringVar(&f.env, "env", "local", "named env block to use within --config")
	cmd.Flags().BoolVar(&f.strictFK, "strict-fk", true, "fail on foreign keys referencing unknown tables")
	cmd.Flags().StringArrayVar(&f.ignore, "ignore", nil, "regexp(s) over \"kind:name\" to exclude from diffing")
	cmd.Flags().StringArrayVar(&f.extension, "extension", nil, "SQLite extension(s) to load before reading the live schema")
}

// resolve merges an optional config file's env block with the flags
// explicitly given, flags taking precedence, matching the teacher's
// config-then-flags override order. The returned pragmas (if any) come
// only from the config file's env.pragma block — there is no
// flag-level equivalent — and must be run on the connection before
// Migrate is called.
func (f *flags) resolve() (*ddlsync.Options, string, []string, []string, error) {
	opts := ddlsync.Options{StrictForeignKeys: f.strictFK}
	database := f.database
	globs := f.schema
	extensions := f.extension
	var patterns []*regexp.Regexp
	var pragmas []string

	if len(f.ignore) > 0 {
		compiled, err := compileIgnorePatterns(f.ignore)
		if err != nil {
			return nil, "", nil, nil, err
		}
		patterns = compiled
	}

	if f.cfgPath != "" {
		file, err := config.Load(f.cfgPath)
		if err != nil {
			return nil, "", nil, nil, err
		}
		env, err := file.Env(f.env)
		if err != nil {
			return nil, "", nil, nil, err
		}
		if database == "" {
			database = env.Database
		}
		if len(globs) == 0 {
			globs = env.SchemaGlobs
		}
		if patterns == nil {
			compiled, err := env.IgnorePatterns()
			if err != nil {
				return nil, "", nil, nil, fmt.Errorf("ddlsync: %w", err)
			}
			patterns = compiled
		}
		if len(extensions) == 0 {
			extensions = env.Extensions
		}
		if !f.strictFKIsSet {
			opts.StrictForeignKeys = env.Strict()
		}
		pragmas, err = env.Pragmas()
		if err != nil {
			return nil, "", nil, nil, fmt.Errorf("ddlsync: %w", err)
		}
	}

	if database == "" {
		return nil, "", nil, nil, fmt.Errorf("ddlsync: --db or a config env's database is required")
	}

	opts.IgnoreObjects = patterns
	opts.Extensions = extensions
	opts.Logger = logging.NewZerologLogger()

	return &opts, database, globs, pragmas, nil
}

// compileIgnorePatterns compiles --ignore flag values the same way
// config.Env.IgnorePatterns compiles the config file's ignore list.
func compileIgnorePatterns(raw []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, pat := range raw {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("ddlsync: invalid --ignore %q: %w", pat, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// loadTargetSQL concatenates every *.sql file matched by globs, sorted
// by path for determinism, separated by blank lines.
func loadTargetSQL(globs []string) (string, error) {
	if len(globs) == 0 {
		return "", fmt.Errorf("ddlsync: --schema is required")
	}
	var paths []string
	seen := map[string]bool{}
	for _, g := range globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return "", fmt.Errorf("ddlsync: invalid --schema glob %q: %w", g, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return "", fmt.Errorf("ddlsync: --schema matched no files")
	}
	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("ddlsync: read %s: %w", p, err)
		}
		b.Write(data)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func openDB(path string) (conn.DB, *sql.DB, error) {
	// _txlock=immediate makes every BeginTx open "BEGIN IMMEDIATE" rather
	// than SQLite's default deferred transaction, so a concurrent writer's
	// lock is detected at BeginTx (section 4.7 step 1) instead of
	// surfacing later as a plain statement error on the first write.
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_txlock=immediate"
	} else {
		dsn += "?_txlock=immediate"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("ddlsync: open %s: %w", path, err)
	}
	return conn.WrapDB(db), db, nil
}

// runMigrate is the body shared by plan/apply/dry-run/script: it wires
// a *flags into a ddlsync.Migrate call at the given mode and prints
// the resulting report.
func runMigrate(cmd *cobra.Command, f *flags, mode ddlsync.Mode) error {
	f.strictFKIsSet = cmd.Flags().Changed("strict-fk")
	opts, database, globs, pragmas, err := f.resolve()
	if err != nil {
		return err
	}
	targetSQL, err := loadTargetSQL(globs)
	if err != nil {
		return err
	}

	db, sqlDB, err := openDB(database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx := context.Background()
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("ddlsync: %s: %w", p, err)
		}
	}

	report, err := ddlsync.Migrate(ctx, db, targetSQL, mode, *opts)
	if err != nil {
		printReport(report)
		return err
	}
	printReport(report)
	return nil
}

func printReport(report *ddlsync.Report) {
	if report == nil {
		return
	}
	if report.Outcome == exec.ScriptRendered {
		fmt.Print(report.SQL)
		return
	}
	fmt.Printf("ddlsync: report %s — %d change(s), %d step(s), outcome=%s\n",
		report.ID, len(report.Changes), len(report.Steps), report.Outcome)
	for _, c := range report.Changes {
		fmt.Printf("  %s\n", describeChange(c))
	}
}

// describeChange renders a Change as a short "verb kind:name" line for
// plan/apply/dry-run output; Change carries no Describe method of its
// own since it is a pure data-model type (schema/change.go).
func describeChange(c schema.Change) string {
	switch v := c.(type) {
	case schema.AddObject:
		return "add " + v.Key().String()
	case schema.DropObject:
		return "drop " + v.Key().String()
	case schema.ReplaceObject:
		return "replace " + v.Key().String()
	default:
		return c.Key().String()
	}
}

func isIntegrityViolation(err error) bool {
	return schemaerr.Is(err, schemaerr.IntegrityViolation)
}

func isBusyErr(err error) bool {
	return schemaerr.Is(err, schemaerr.Busy)
}
