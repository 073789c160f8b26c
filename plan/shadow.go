// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package plan

import (
	"strings"

	"github.com/ddlsync/ddlsync/schema"
)

// shadowSuffix names the temporary table used during a rebuild, per
// section 4.6 step 1.
const shadowSuffix = "__slite_new"

// orderRebuilds builds the Phase 2 RebuildTable steps for every
// table-kind ReplaceObject, ordered so a table with a foreign key to
// another rebuilt table is rebuilt after that table (referenced
// before referencer, restricted to the set of tables being rebuilt).
func (p *planner) orderRebuilds(replaces []schema.ReplaceObject) ([]schema.Step, error) {
	if len(replaces) == 0 {
		return nil, nil
	}
	byName := map[string]schema.ReplaceObject{}
	combined := schema.New()
	for _, r := range replaces {
		byName[lowerName(r.New.Name)] = r
		_ = combined.Insert(r.New)
	}
	var names []string
	for _, r := range replaces {
		names = append(names, r.New.Name)
	}
	ordered, err := orderTableNames(combined, names, false)
	if err != nil {
		return nil, err
	}
	steps := make([]schema.Step, 0, len(ordered))
	for _, n := range ordered {
		steps = append(steps, buildRebuild(byName[lowerName(n)]))
	}
	return steps, nil
}

// buildRebuild constructs the RebuildTable step for a single table
// replacement, per section 4.6:
//  1. create the new table under a shadow name;
//  2. compute the intersection of old/new column names;
//  3. the Step's Statements() renders the INSERT/DROP/RENAME sequence
//     (step renders lazily so the Executor can log each statement).
func buildRebuild(r schema.ReplaceObject) schema.Step {
	shadow := r.New.Name + shadowSuffix
	createSQL := shadowCreateSQL(r.New, shadow)

	oldCols := map[string]bool{}
	for _, c := range r.Old.Columns {
		oldCols[lowerName(c.Name)] = true
	}
	var common []string
	for _, c := range r.New.Columns {
		if oldCols[lowerName(c.Name)] {
			common = append(common, c.Name)
		}
	}
	return schema.RebuildTable{
		TableName:     r.New.Name,
		ShadowName:    shadow,
		CreateSQL:     createSQL,
		CommonCols:    common,
		HasCommonCols: len(common) > 0,
	}
}

// shadowCreateSQL rewrites a table's normalized CREATE statement to
// target the shadow name. The normalized form is always produced by
// ddl.Parse as "CREATE TABLE <name> (...)  ...", so a single targeted
// replacement of the first "CREATE TABLE <name>" occurrence suffices
// -- unlike a general-purpose tool reading arbitrary third-party SQL,
// ddlsync controls the exact shape of this text.
func shadowCreateSQL(obj *schema.Object, shadow string) string {
	from := "CREATE TABLE " + obj.Name
	to := "CREATE TABLE " + shadow
	return strings.Replace(obj.NormalizedSQL, from, to, 1)
}
