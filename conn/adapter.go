// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package conn

import (
	"context"
	"database/sql"
)

// sqlHandle is satisfied by both *sql.DB and *sql.Tx.
type sqlHandle interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type adapter struct{ h sqlHandle }

// Wrap adapts a *sql.DB or *sql.Tx to ExecQuerier.
func Wrap(h sqlHandle) ExecQuerier { return adapter{h: h} }

func (a adapter) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := a.h.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (a adapter) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return a.h.ExecContext(ctx, query, args...)
}

// dbAdapter wraps *sql.DB, additionally exposing BeginTx so the
// Executor can begin a transaction per section 4.7. Whether that
// transaction is immediate (so a concurrent writer's lock is detected
// here rather than on the first write) is a property of the DSN the
// *sql.DB was opened with ("_txlock=immediate"), not of this adapter;
// see cmd/ddlsync's openDB.
type dbAdapter struct {
	adapter
	db *sql.DB
}

// WrapDB adapts a *sql.DB to DB.
func WrapDB(db *sql.DB) DB {
	return dbAdapter{adapter: adapter{h: db}, db: db}
}

func (a dbAdapter) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return txAdapter{adapter: adapter{h: tx}, tx: tx}, nil
}

type txAdapter struct {
	adapter
	tx *sql.Tx
}

func (a txAdapter) Commit() error   { return a.tx.Commit() }
func (a txAdapter) Rollback() error { return a.tx.Rollback() }
