// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddlsync_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ddlsync/ddlsync"
	"github.com/ddlsync/ddlsync/conn"
	"github.com/ddlsync/ddlsync/exec"
	"github.com/ddlsync/ddlsync/schemaerr"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_EmptyToOneTable(t *testing.T) {
	db := openMemDB(t)
	report, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db),
		"CREATE TABLE t1 (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		ddlsync.Apply, ddlsync.Options{StrictForeignKeys: true})
	require.NoError(t, err)
	require.Equal(t, exec.Applied, report.Outcome)
	require.Len(t, report.Changes, 1)

	var name string
	row := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='t1'")
	require.NoError(t, row.Scan(&name))
	require.Equal(t, "t1", name)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := openMemDB(t)
	targetSQL := "CREATE TABLE t1 (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"
	opts := ddlsync.Options{StrictForeignKeys: true}

	_, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db), targetSQL, ddlsync.Apply, opts)
	require.NoError(t, err)

	report, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db), targetSQL, ddlsync.Apply, opts)
	require.NoError(t, err)
	require.Empty(t, report.Changes, "applying the same target twice must be a no-op the second time")
}

func TestMigrate_AddColumnRebuildsPreservingData(t *testing.T) {
	db := openMemDB(t)
	_, err := db.Exec("CREATE TABLE t1 (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t1 (id, name) VALUES (1, 'alice')")
	require.NoError(t, err)

	report, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db),
		"CREATE TABLE t1 (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER)",
		ddlsync.Apply, ddlsync.Options{StrictForeignKeys: true})
	require.NoError(t, err)
	require.Equal(t, exec.Applied, report.Outcome)

	var name string
	row := db.QueryRow("SELECT name FROM t1 WHERE id = 1")
	require.NoError(t, row.Scan(&name))
	require.Equal(t, "alice", name, "rebuild must preserve existing rows")
}

func TestMigrate_UnknownForeignKeyReferenceIsStrictError(t *testing.T) {
	db := openMemDB(t)
	_, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db),
		"CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES missing_parent(id))",
		ddlsync.Apply, ddlsync.Options{StrictForeignKeys: true})
	require.Error(t, err)
	require.True(t, schemaerr.Is(err, schemaerr.UnknownReference))
}

func TestMigrate_DryRunDoesNotPersist(t *testing.T) {
	db := openMemDB(t)
	report, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db),
		"CREATE TABLE t1 (id INTEGER PRIMARY KEY)",
		ddlsync.DryRun, ddlsync.Options{StrictForeignKeys: true})
	require.NoError(t, err)
	require.Equal(t, exec.Previewed, report.Outcome)

	var count int
	row := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='t1'")
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 0, count)
}

func TestMigrate_ScriptOnlyRendersWithoutConnecting(t *testing.T) {
	db := openMemDB(t)
	report, err := ddlsync.Migrate(context.Background(), conn.WrapDB(db),
		"CREATE TABLE t1 (id INTEGER PRIMARY KEY)",
		ddlsync.ScriptOnly, ddlsync.Options{StrictForeignKeys: true})
	require.NoError(t, err)
	require.Contains(t, report.SQL, "CREATE TABLE t1")

	var count int
	row := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='t1'")
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 0, count)
}
