// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ddlsync/ddlsync/ddl"
	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

func TestParse_Table(t *testing.T) {
	obj, err := ddl.Parse(`create table Orders (
		id integer primary key autoincrement,
		customer_id integer not null references customers(id) on delete cascade,
		total real default 0,
		unique(customer_id, total)
	)`)
	require.NoError(t, err)
	require.Equal(t, schema.KindTable, obj.Kind)
	require.Equal(t, "Orders", obj.Name)
	require.Len(t, obj.Columns, 3)
	require.True(t, obj.Columns[0].IsPrimaryKey)
	require.True(t, obj.Columns[0].AutoIncrement)
	require.True(t, obj.Columns[1].NotNull)

	var fks, uniques int
	for _, c := range obj.TableConstraints {
		switch v := c.(type) {
		case schema.ForeignKeyConstraint:
			fks++
			require.Equal(t, "customers", v.RefTable)
			require.Equal(t, "CASCADE", v.OnDelete)
		case schema.UniqueConstraint:
			uniques++
			require.Len(t, v.Columns, 2)
		}
	}
	require.Equal(t, 1, fks, "inline REFERENCES promoted to a table-level constraint")
	require.Equal(t, 1, uniques)
}

func TestParse_RejectsNonCreateStatement(t *testing.T) {
	_, err := ddl.Parse("SELECT 1")
	require.Error(t, err)
	require.True(t, schemaerr.Is(err, schemaerr.Parse))
}

func TestParse_View(t *testing.T) {
	obj, err := ddl.Parse("CREATE VIEW recent AS SELECT * FROM orders WHERE total > 0")
	require.NoError(t, err)
	require.Equal(t, schema.KindView, obj.Kind)
	require.Equal(t, "recent", obj.Name)
	require.Contains(t, obj.NormalizedSQL, "SELECT * FROM orders")
}

func TestParse_VirtualTable(t *testing.T) {
	obj, err := ddl.Parse("CREATE VIRTUAL TABLE search USING fts5(body)")
	require.NoError(t, err)
	require.Equal(t, schema.KindVirtualTable, obj.Kind)
	require.Equal(t, "fts5", obj.Module)
}

func TestParseSchema_DuplicateNameError(t *testing.T) {
	_, err := ddl.ParseSchema(`
		CREATE TABLE t (id INTEGER PRIMARY KEY);
		CREATE TABLE T (id INTEGER PRIMARY KEY);
	`)
	require.Error(t, err)
	require.True(t, schemaerr.Is(err, schemaerr.DuplicateObject))
}

func TestParseSchema_MultipleStatements(t *testing.T) {
	s, err := ddl.ParseSchema(`
		CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers(id));
		CREATE INDEX idx_orders_customer ON orders(customer_id);
	`)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	_, ok := s.Table("customers")
	require.True(t, ok)
}

func TestNormalization_IdenticalUnderWhitespaceAndCase(t *testing.T) {
	a, err := ddl.Parse("CREATE TABLE t (id INTEGER NOT NULL)")
	require.NoError(t, err)
	b, err := ddl.Parse("create   table   t(   id    integer   not   null   )")
	require.NoError(t, err)
	require.True(t, a.Equal(b), "normalization must make equivalent DDL compare equal")
}

func TestIdentifiers_ScansSimpleNamesFromSQL(t *testing.T) {
	ids := ddl.Identifiers("SELECT * FROM orders JOIN customers ON orders.customer_id = customers.id")
	require.Contains(t, ids, "orders")
	require.Contains(t, ids, "customers")
}
