// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package diff_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ddlsync/ddlsync/diff"
	"github.com/ddlsync/ddlsync/schema"
)

func mustInsert(t *testing.T, s *schema.Schema, o *schema.Object) {
	t.Helper()
	require.NoError(t, s.Insert(o))
}

func TestDiff_AddDropReplace(t *testing.T) {
	live := schema.New()
	target := schema.New()

	mustInsert(t, live, &schema.Object{Kind: schema.KindTable, Name: "gone", NormalizedSQL: "CREATE TABLE gone (id INTEGER)"})
	mustInsert(t, live, &schema.Object{Kind: schema.KindTable, Name: "changed", NormalizedSQL: "CREATE TABLE changed (id INTEGER)",
		Columns: []*schema.Column{{Name: "id", DeclaredType: "INTEGER"}}})

	mustInsert(t, target, &schema.Object{Kind: schema.KindTable, Name: "changed", NormalizedSQL: "CREATE TABLE changed (id INTEGER NOT NULL)",
		Columns: []*schema.Column{{Name: "id", DeclaredType: "INTEGER", NotNull: true}}})
	mustInsert(t, target, &schema.Object{Kind: schema.KindTable, Name: "new", NormalizedSQL: "CREATE TABLE new (id INTEGER)"})

	changes := diff.Diff(target, live)
	require.Len(t, changes, 3)

	var kinds []string
	for _, c := range changes {
		switch c.(type) {
		case schema.AddObject:
			kinds = append(kinds, "add:"+c.Key().Name)
		case schema.DropObject:
			kinds = append(kinds, "drop:"+c.Key().Name)
		case schema.ReplaceObject:
			kinds = append(kinds, "replace:"+c.Key().Name)
		}
	}
	require.ElementsMatch(t, []string{"add:new", "drop:gone", "replace:changed"}, kinds)
}

func TestDiff_IdenticalObjectsProduceNoChange(t *testing.T) {
	live := schema.New()
	target := schema.New()
	mustInsert(t, live, &schema.Object{Kind: schema.KindView, Name: "v", NormalizedSQL: "CREATE VIEW v AS SELECT 1"})
	mustInsert(t, target, &schema.Object{Kind: schema.KindView, Name: "v", NormalizedSQL: "CREATE VIEW v AS SELECT 1"})

	changes := diff.Diff(target, live)
	require.Empty(t, changes)
}

func TestDiff_IgnoreObjects(t *testing.T) {
	live := schema.New()
	target := schema.New()
	mustInsert(t, target, &schema.Object{Kind: schema.KindIndex, Name: "sqlite_autoindex_t_1", NormalizedSQL: "CREATE INDEX sqlite_autoindex_t_1 ON t(id)"})
	mustInsert(t, target, &schema.Object{Kind: schema.KindTable, Name: "t", NormalizedSQL: "CREATE TABLE t (id INTEGER)"})

	changes := diff.Diff(target, live, diff.WithIgnoreObjects([]*regexp.Regexp{regexp.MustCompile(`^index:sqlite_autoindex_`)}))
	require.Len(t, changes, 1)
	require.Equal(t, "t", changes[0].Key().Name)
}

func TestDiff_OrderedByKindRankThenName(t *testing.T) {
	live := schema.New()
	target := schema.New()
	mustInsert(t, target, &schema.Object{Kind: schema.KindTrigger, Name: "trg", Parent: "t", NormalizedSQL: "x"})
	mustInsert(t, target, &schema.Object{Kind: schema.KindTable, Name: "zzz", NormalizedSQL: "x"})
	mustInsert(t, target, &schema.Object{Kind: schema.KindView, Name: "v", NormalizedSQL: "x"})

	changes := diff.Diff(target, live)
	require.Len(t, changes, 3)
	require.Equal(t, schema.KindTable, changes[0].Key().Kind)
	require.Equal(t, schema.KindView, changes[1].Key().Kind)
	require.Equal(t, schema.KindTrigger, changes[2].Key().Kind)
}
