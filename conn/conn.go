// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package conn defines the minimal database handle the engine needs,
// generalizing the teacher's schema.ExecQuerier abstraction over
// *sql.DB and *sql.Tx so every stage can accept either without
// depending on database/sql's concrete types directly.
package conn

import "context"

// ExecQuerier wraps the subset of *sql.DB / *sql.Tx the engine uses.
type ExecQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
}

// Rows is the subset of *sql.Rows the engine scans.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Result is the subset of sql.Result the engine inspects.
type Result interface {
	RowsAffected() (int64, error)
}

// Tx is an in-progress transaction: an ExecQuerier plus the two ways
// out of it.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// DB is a handle that can both execute statements directly (used by
// the Live-Schema Reader) and begin a transaction (used by the
// Executor).
type DB interface {
	ExecQuerier
	BeginTx(ctx context.Context) (Tx, error)
}
