// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ddlsync/ddlsync/ddl"
	"github.com/ddlsync/ddlsync/plan"
	"github.com/ddlsync/ddlsync/schema"
)

func parseOne(t *testing.T, ddlText string) *schema.Object {
	t.Helper()
	obj, err := ddl.Parse(ddlText)
	require.NoError(t, err)
	return obj
}

func TestPlan_EmptyToOneTable(t *testing.T) {
	live := schema.New()
	target := schema.New()
	t1 := parseOne(t, "CREATE TABLE t1 (id INTEGER PRIMARY KEY)")
	require.NoError(t, target.Insert(t1))

	changes := []schema.Change{schema.AddObject{Object: t1}}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	require.Equal(t, "begin: defer foreign keys", steps[0].Describe())
	require.Equal(t, "create table: t1", steps[1].Describe())
	require.Equal(t, "pre-commit integrity check", steps[len(steps)-1].Describe())
	require.Equal(t, []string{"PRAGMA foreign_key_check"}, steps[len(steps)-1].Statements())
}

func TestPlan_DropTriggerKeepsTable(t *testing.T) {
	live := schema.New()
	target := schema.New()
	tbl := parseOne(t, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	trg := parseOne(t, "CREATE TRIGGER trg AFTER INSERT ON t BEGIN SELECT 1; END")
	require.NoError(t, live.Insert(tbl))
	require.NoError(t, live.Insert(trg))
	require.NoError(t, target.Insert(tbl))

	changes := []schema.Change{schema.DropObject{Object: trg}}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	var sawDropTrigger, sawDropTable bool
	for _, s := range steps {
		switch s.(type) {
		case schema.DropTrigger:
			sawDropTrigger = true
		case schema.DropTable:
			sawDropTable = true
		}
	}
	require.True(t, sawDropTrigger)
	require.False(t, sawDropTable, "dropping a trigger must not drop its parent table")
}

func TestPlan_CreateRespectsForeignKeyOrder(t *testing.T) {
	live := schema.New()
	target := schema.New()
	parent := parseOne(t, "CREATE TABLE parent (id INTEGER PRIMARY KEY)")
	child := parseOne(t, "CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent(id))")
	require.NoError(t, target.Insert(parent))
	require.NoError(t, target.Insert(child))

	changes := []schema.Change{
		schema.AddObject{Object: parent},
		schema.AddObject{Object: child},
	}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	var parentIdx, childIdx int
	for i, s := range steps {
		if c, ok := s.(schema.CreateObject); ok {
			if c.Name == "parent" {
				parentIdx = i
			}
			if c.Name == "child" {
				childIdx = i
			}
		}
	}
	require.Less(t, parentIdx, childIdx, "referenced table must be created before its referencer")
}

func TestPlan_DropRespectsForeignKeyOrder(t *testing.T) {
	live := schema.New()
	target := schema.New()
	parent := parseOne(t, "CREATE TABLE parent (id INTEGER PRIMARY KEY)")
	child := parseOne(t, "CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent(id))")
	require.NoError(t, live.Insert(parent))
	require.NoError(t, live.Insert(child))

	changes := []schema.Change{
		schema.DropObject{Object: parent},
		schema.DropObject{Object: child},
	}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	var parentIdx, childIdx int
	for i, s := range steps {
		if d, ok := s.(schema.DropTable); ok {
			if d.Name == "parent" {
				parentIdx = i
			}
			if d.Name == "child" {
				childIdx = i
			}
		}
	}
	require.Less(t, childIdx, parentIdx, "referencer must be dropped before its referent")
}

func TestPlan_ReplaceTableProducesRebuild(t *testing.T) {
	live := schema.New()
	target := schema.New()
	oldT := parseOne(t, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	newT := parseOne(t, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER)")
	require.NoError(t, live.Insert(oldT))
	require.NoError(t, target.Insert(newT))

	changes := []schema.Change{schema.ReplaceObject{Old: oldT, New: newT}}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	var rebuild schema.RebuildTable
	var found bool
	for _, s := range steps {
		if r, ok := s.(schema.RebuildTable); ok {
			rebuild = r
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, "t__slite_new", rebuild.ShadowName)
	require.True(t, rebuild.HasCommonCols)
	require.ElementsMatch(t, []string{"id", "name"}, rebuild.CommonCols)

	stmts := rebuild.Statements()
	require.Len(t, stmts, 4)
	require.Contains(t, stmts[0], "t__slite_new")
	require.Contains(t, stmts[1], "INSERT INTO")
	require.Contains(t, stmts[2], "DROP TABLE")
	require.Contains(t, stmts[3], "RENAME TO")
}

func TestPlan_ViewRecreatedWhenDependencyChanges(t *testing.T) {
	live := schema.New()
	target := schema.New()
	oldT := parseOne(t, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	newT := parseOne(t, "CREATE TABLE t (id INTEGER PRIMARY KEY, extra TEXT)")
	view := parseOne(t, "CREATE VIEW v AS SELECT id FROM t")
	require.NoError(t, live.Insert(oldT))
	require.NoError(t, live.Insert(view))
	require.NoError(t, target.Insert(newT))
	require.NoError(t, target.Insert(view))

	changes := []schema.Change{schema.ReplaceObject{Old: oldT, New: newT}}
	steps, err := plan.Plan(changes, live, target)
	require.NoError(t, err)

	var sawDropView, sawCreateView bool
	for _, s := range steps {
		switch v := s.(type) {
		case schema.DropView:
			sawDropView = v.Name == "v"
		case schema.CreateObject:
			if v.Kind == schema.KindView {
				sawCreateView = v.Name == "v"
			}
		}
	}
	require.True(t, sawDropView, "view depending on a rebuilt table must be dropped")
	require.True(t, sawCreateView, "view depending on a rebuilt table must be recreated")
}

func TestPlan_CyclicForeignKeysError(t *testing.T) {
	live := schema.New()
	target := schema.New()
	a := parseOne(t, "CREATE TABLE a (id INTEGER PRIMARY KEY, b_id INTEGER REFERENCES b(id))")
	b := parseOne(t, "CREATE TABLE b (id INTEGER PRIMARY KEY, a_id INTEGER REFERENCES a(id))")
	require.NoError(t, target.Insert(a))
	require.NoError(t, target.Insert(b))

	changes := []schema.Change{
		schema.AddObject{Object: a},
		schema.AddObject{Object: b},
	}
	_, err := plan.Plan(changes, live, target)
	require.Error(t, err)
}
