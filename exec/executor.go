// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package exec implements the Executor (component G): it receives an
// already-opened connection and a Step list, and runs the steps
// inside a single transaction with integrity checks and safe
// rollback, per section 4.7.
package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/ddlsync/ddlsync/conn"
	"github.com/ddlsync/ddlsync/logging"
	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

// Mode selects how Execute applies the plan.
type Mode int

const (
	// Apply commits on success.
	Apply Mode = iota
	// DryRun always rolls back, regardless of outcome, but still runs
	// the integrity check so a preview surfaces IntegrityViolation the
	// same way Apply would.
	DryRun
	// ScriptOnly performs no connection work; Execute returns the
	// rendered SQL only.
	ScriptOnly
)

// Outcome reports what happened to the transaction.
type Outcome int

const (
	Applied Outcome = iota
	RolledBack
	Previewed
	ScriptRendered
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RolledBack:
		return "rolled_back"
	case Previewed:
		return "previewed"
	case ScriptRendered:
		return "script_only"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single Execute call.
type Result struct {
	Steps   []schema.Step
	SQL     string
	Outcome Outcome
	Err     error
}

// Execute runs steps against db per mode. logger receives progress
// entries; pass logging.NopLogger{} to discard them.
func Execute(ctx context.Context, db conn.DB, steps []schema.Step, mode Mode, logger logging.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if mode == ScriptOnly {
		return &Result{Steps: steps, SQL: renderScript(steps), Outcome: ScriptRendered}, nil
	}

	logger.Log(logging.EntryBegin{Steps: len(steps)})

	tx, err := db.BeginTx(ctx)
	if err != nil {
		if isBusy(err) {
			return nil, schemaerr.New(schemaerr.Busy, "exec.Execute", err)
		}
		return nil, fmt.Errorf("exec.Execute: begin transaction: %w", err)
	}

	applied := 0
	checked := false
	for i, step := range steps {
		logger.Log(logging.EntryStep{Index: i, Label: step.Describe(), SQL: schema.SQL(step)})
		for _, stmt := range step.Statements() {
			// The planner always emits this exact pragma as the final
			// step (section 4.6); its result must be inspected via a
			// query, not merely executed, so it is special-cased here
			// rather than run blind like every other statement.
			if strings.EqualFold(strings.TrimSpace(stmt), "PRAGMA foreign_key_check") {
				if err := checkIntegrity(ctx, tx); err != nil {
					logger.Log(logging.EntryError{Index: i, Err: err})
					_ = tx.Rollback()
					return &Result{Steps: steps, Outcome: RolledBack}, err
				}
				checked = true
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				logger.Log(logging.EntryError{Index: i, Err: err})
				_ = tx.Rollback()
				kind := schemaerr.StepFailed
				if isRebuildInsert(step, stmt) {
					// Section 4.6: the shadow copy's INSERT can fail on a
					// new NOT NULL column with no default. The planner
					// accepted that risk when it emitted this RebuildTable;
					// surface it as DataLoss, not a generic step failure, so
					// callers can distinguish the two per section 7.
					kind = schemaerr.DataLoss
				}
				return &Result{Steps: steps[:i], Outcome: RolledBack}, schemaerr.New(kind, "exec.Execute", fmt.Errorf("step %d (%s): %w", i, step.Describe(), err))
			}
		}
		applied++
	}

	if !checked {
		if err := checkIntegrity(ctx, tx); err != nil {
			_ = tx.Rollback()
			return &Result{Steps: steps, Outcome: RolledBack}, err
		}
	}

	if mode == DryRun {
		_ = tx.Rollback()
		logger.Log(logging.EntryDone{Applied: applied})
		return &Result{Steps: steps, Outcome: Previewed}, nil
	}

	if err := tx.Commit(); err != nil {
		return &Result{Steps: steps, Outcome: RolledBack}, fmt.Errorf("exec.Execute: commit: %w", err)
	}
	logger.Log(logging.EntryDone{Applied: applied})
	return &Result{Steps: steps, Outcome: Applied}, nil
}

// checkIntegrity runs PRAGMA foreign_key_check within tx and returns
// an IntegrityViolation error if any orphan rows are found.
func checkIntegrity(ctx context.Context, tx conn.Tx) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("exec.checkIntegrity: %w", err)
	}
	violations, err := collectViolations(rows)
	if err != nil {
		return fmt.Errorf("exec.checkIntegrity: scan: %w", err)
	}
	if len(violations) > 0 {
		return schemaerr.New(schemaerr.IntegrityViolation, "exec.checkIntegrity", fmt.Errorf("%d orphan row(s): %s", len(violations), strings.Join(violations, "; ")))
	}
	return nil
}

// collectViolations scans the rows of a PRAGMA foreign_key_check
// result into human-readable "table(rowid)->ref_table" descriptions.
func collectViolations(rows conn.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var table string
		var rowid any
		var refTable string
		var fkid int
		if err := rows.Scan(&table, &rowid, &refTable, &fkid); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s(%v)->%s", table, rowid, refTable))
	}
	return out, rows.Err()
}

func renderScript(steps []schema.Step) string {
	var b strings.Builder
	for _, s := range steps {
		for _, stmt := range s.Statements() {
			fmt.Fprintf(&b, "-- %s\n%s;\n", s.Describe(), stmt)
		}
	}
	return b.String()
}

// isRebuildInsert reports whether stmt is the copy-forward INSERT of a
// RebuildTable step, as opposed to its CREATE/DROP/RENAME statements.
func isRebuildInsert(step schema.Step, stmt string) bool {
	_, ok := step.(schema.RebuildTable)
	return ok && strings.HasPrefix(strings.TrimSpace(stmt), "INSERT INTO")
}

// isBusy reports whether err indicates the database could not be
// locked, independent of which SQLite driver produced it.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "locked") || strings.Contains(s, "busy")
}
