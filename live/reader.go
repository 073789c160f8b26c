// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package live reads the schema materialized in a live SQLite
// database, per section 4.4 of the core design: it lists
// sqlite_master and routes every surviving row's CREATE text through
// the same object parser used for the target schema.
package live

import (
	"context"
	"fmt"

	"github.com/ddlsync/ddlsync/conn"
	"github.com/ddlsync/ddlsync/ddl"
	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

// listQuery mirrors the teacher's sqlite_master filter-query
// convention (sql/sqlite/inspect.go's tablesQuery): select every
// object whose CREATE text is present and whose name is not one of
// SQLite's own internal objects.
const listQuery = `SELECT name, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`

// Read builds a Schema describing what currently exists in the
// database reachable through c. extensions are loaded via
// load_extension before the catalog is read, so virtual-table CREATE
// statements backed by them (fts5, spellfix1, ...) parse correctly.
func Read(ctx context.Context, c conn.ExecQuerier, extensions []string) (*schema.Schema, error) {
	for _, ext := range extensions {
		if _, err := c.ExecContext(ctx, "SELECT load_extension(?)", ext); err != nil {
			return nil, schemaerr.New(schemaerr.Parse, "live.Read", fmt.Errorf("load_extension(%s): %w", ext, err))
		}
	}
	rows, err := c.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("live.Read: query sqlite_master: %w", err)
	}
	defer rows.Close()

	s := schema.New()
	for rows.Next() {
		var name, sqlText string
		if err := rows.Scan(&name, &sqlText); err != nil {
			return nil, fmt.Errorf("live.Read: scan sqlite_master row: %w", err)
		}
		obj, err := ddl.Parse(sqlText)
		if err != nil {
			return nil, err
		}
		if err := s.Insert(obj); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("live.Read: iterate sqlite_master: %w", err)
	}
	return s, nil
}
