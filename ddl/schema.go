// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl

import "github.com/ddlsync/ddlsync/schema"

// ParseSchema splits targetSQL into statements and parses each into
// an Object, inserting them into a fresh Schema. This is the A→B→C
// path of the core design applied to user-authored target DDL.
func ParseSchema(targetSQL string) (*schema.Schema, error) {
	stmts, err := Stmts(targetSQL)
	if err != nil {
		return nil, err
	}
	s := schema.New()
	for _, stmt := range stmts {
		obj, err := Parse(stmt)
		if err != nil {
			return nil, err
		}
		if err := s.Insert(obj); err != nil {
			return nil, err
		}
	}
	return s, nil
}
