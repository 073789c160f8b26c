// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package ddlsync ties the lexer/parser, schema model, live-schema
// reader, differ, planner and executor into a single entry point,
// generalizing the teacher's top-level Inspect/Plan/Diff convenience
// functions (api.go) into the one Migrate pipeline section 6 of the
// core design describes.
package ddlsync

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/ddlsync/ddlsync/conn"
	"github.com/ddlsync/ddlsync/ddl"
	"github.com/ddlsync/ddlsync/diff"
	"github.com/ddlsync/ddlsync/exec"
	"github.com/ddlsync/ddlsync/live"
	"github.com/ddlsync/ddlsync/logging"
	"github.com/ddlsync/ddlsync/plan"
	"github.com/ddlsync/ddlsync/schema"
)

// Mode selects how Migrate applies the plan it computes.
type Mode = exec.Mode

const (
	Apply      = exec.Apply
	DryRun     = exec.DryRun
	ScriptOnly = exec.ScriptOnly
)

// Options configures a single Migrate call, per section 6's external
// interface.
type Options struct {
	// IgnoreObjects excludes matching "(kind:name)" objects from both
	// schemas before diffing.
	IgnoreObjects []*regexp.Regexp
	// Extensions are loaded via load_extension before the live schema
	// is read.
	Extensions []string
	// StrictForeignKeys, when true, makes Migrate fail with an
	// UnknownReference error if a foreign key in the target references
	// a table the target does not declare. When false the check is
	// skipped and no warning is recorded. The zero value is false;
	// cmd/ddlsync turns it on by default.
	StrictForeignKeys bool
	// Logger receives Executor progress events.
	Logger logging.Logger
}

// Report is the MigrationReport of section 6: the change list, the
// step list, the rendered SQL, the execution outcome and any error,
// plus an ID correlating this report across log lines and CLI output.
type Report struct {
	ID      uuid.UUID
	Changes []schema.Change
	Steps   []schema.Step
	SQL     string
	Outcome exec.Outcome
	Err     error
}

// Migrate parses targetSQL, reads the live schema from db, diffs
// them, plans the migration, and executes it per mode.
func Migrate(ctx context.Context, db conn.DB, targetSQL string, mode Mode, opts Options) (*Report, error) {
	report := &Report{ID: newReportID()}

	target, err := ddl.ParseSchema(targetSQL)
	if err != nil {
		report.Err = err
		return report, err
	}

	liveSchema, err := live.Read(ctx, db, opts.Extensions)
	if err != nil {
		report.Err = err
		return report, err
	}

	if err := checkUnknownReferences(target, opts.StrictForeignKeys); err != nil {
		report.Err = err
		return report, err
	}

	changes := diff.Diff(target, liveSchema, diff.WithIgnoreObjects(opts.IgnoreObjects))
	report.Changes = changes

	steps, err := plan.Plan(changes, liveSchema, target)
	if err != nil {
		report.Err = err
		return report, err
	}
	report.Steps = steps

	result, err := exec.Execute(ctx, db, steps, mode, opts.Logger)
	if result != nil {
		report.SQL = result.SQL
		report.Outcome = result.Outcome
	}
	if err != nil {
		report.Err = err
		return report, err
	}
	return report, nil
}

// checkUnknownReferences validates that every foreign key in target
// references a table declared in target, per the post-planning
// invariant of section 3. When strict is false the check is skipped
// and nothing is reported; when strict, the first violation found is
// returned as an UnknownReference error.
func checkUnknownReferences(target *schema.Schema, strict bool) error {
	if !strict {
		return nil
	}
	for _, t := range target.Tables() {
		for _, c := range t.TableConstraints {
			fk, ok := c.(schema.ForeignKeyConstraint)
			if !ok {
				continue
			}
			if _, ok := target.Table(fk.RefTable); !ok {
				return unknownReferenceError(t.Name, fk.RefTable)
			}
		}
	}
	return nil
}
