// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

func table(name string, cols ...*schema.Column) *schema.Object {
	return &schema.Object{Kind: schema.KindTable, Name: name, Columns: cols}
}

func TestSchema_InsertDuplicate(t *testing.T) {
	s := schema.New()
	require.NoError(t, s.Insert(table("orders")))
	err := s.Insert(table("Orders"))
	require.Error(t, err)
	require.True(t, schemaerr.Is(err, schemaerr.DuplicateObject))
}

func TestSchema_LookupCaseInsensitive(t *testing.T) {
	s := schema.New()
	require.NoError(t, s.Insert(table("Orders")))
	_, ok := s.Table("orders")
	require.True(t, ok)
	_, ok = s.Table("missing")
	require.False(t, ok)
}

func TestSchema_ObjectsOrderedByKindThenName(t *testing.T) {
	s := schema.New()
	require.NoError(t, s.Insert(table("zebra")))
	require.NoError(t, s.Insert(table("apple")))
	require.NoError(t, s.Insert(&schema.Object{Kind: schema.KindIndex, Name: "idx_zebra", Parent: "zebra"}))

	objs := s.Objects()
	require.Len(t, objs, 3)
	require.Equal(t, "apple", objs[0].Name)
	require.Equal(t, "zebra", objs[1].Name)
	require.Equal(t, schema.KindIndex, objs[2].Kind)
}

func TestObject_EqualTable(t *testing.T) {
	a := table("t", &schema.Column{Name: "id", DeclaredType: "INTEGER", IsPrimaryKey: true})
	b := table("t", &schema.Column{Name: "ID", DeclaredType: "INTEGER", IsPrimaryKey: true})
	require.True(t, a.Equal(b))

	c := table("t", &schema.Column{Name: "id", DeclaredType: "TEXT", IsPrimaryKey: true})
	require.False(t, a.Equal(c))
}

func TestObject_EqualNonTableComparesNormalizedSQL(t *testing.T) {
	a := &schema.Object{Kind: schema.KindView, Name: "v", NormalizedSQL: "CREATE VIEW v AS SELECT 1"}
	b := &schema.Object{Kind: schema.KindView, Name: "v", NormalizedSQL: "CREATE VIEW v AS SELECT 1"}
	require.True(t, a.Equal(b))
	b.NormalizedSQL = "CREATE VIEW v AS SELECT 2"
	require.False(t, a.Equal(b))
}

func TestObject_EqualConstraintSets(t *testing.T) {
	a := table("t", &schema.Column{Name: "id", DeclaredType: "INTEGER"})
	a.TableConstraints = []schema.Constraint{
		schema.ForeignKeyConstraint{Columns: []string{"id"}, RefTable: "parent", RefColumns: []string{"id"}},
	}
	b := table("t", &schema.Column{Name: "id", DeclaredType: "INTEGER"})
	b.TableConstraints = []schema.Constraint{
		schema.ForeignKeyConstraint{Columns: []string{"id"}, RefTable: "Parent", RefColumns: []string{"id"}},
	}
	require.True(t, a.Equal(b))

	b.TableConstraints = []schema.Constraint{
		schema.ForeignKeyConstraint{Columns: []string{"id"}, RefTable: "other", RefColumns: []string{"id"}},
	}
	require.False(t, a.Equal(b))
}
