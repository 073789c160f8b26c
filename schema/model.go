// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"fmt"
	"sort"

	"github.com/ddlsync/ddlsync/schemaerr"
)

// Schema is a mapping from (kind, lower_case_name) to Object. No two
// objects may share a key; Insert enforces that invariant.
type Schema struct {
	objects map[Key]*Object
}

// New returns an empty Schema.
func New() *Schema {
	return &Schema{objects: make(map[Key]*Object)}
}

// Insert adds o to the schema, failing with schemaerr.DuplicateObject
// if its key is already taken.
func (s *Schema) Insert(o *Object) error {
	k := o.Key()
	if _, ok := s.objects[k]; ok {
		return schemaerr.New(schemaerr.DuplicateObject, "schema.Insert", fmt.Errorf("object %s already declared", k))
	}
	s.objects[k] = o
	return nil
}

// Lookup returns the Object for k, if any.
func (s *Schema) Lookup(k Key) (*Object, bool) {
	o, ok := s.objects[k]
	return o, ok
}

// Table looks up a table by name (case-insensitive).
func (s *Schema) Table(name string) (*Object, bool) {
	return s.Lookup(Key{Kind: KindTable, Name: lower(name)})
}

// Len returns the number of objects in the schema.
func (s *Schema) Len() int { return len(s.objects) }

// Objects returns every object ordered by (kind_rank, lower_name), the
// canonical creation order used by the Planner.
func (s *Schema) Objects() []*Object {
	out := make([]*Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key(), out[j].Key()
		if ki.Kind.rank() != kj.Kind.rank() {
			return ki.Kind.rank() < kj.Kind.rank()
		}
		return ki.Name < kj.Name
	})
	return out
}

// Keys returns every key in the schema, unordered.
func (s *Schema) Keys() []Key {
	out := make([]Key, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

// Tables returns every table object, ordered by lower-case name.
func (s *Schema) Tables() []*Object {
	var out []*Object
	for _, o := range s.objects {
		if o.Kind == KindTable {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lower(out[i].Name) < lower(out[j].Name) })
	return out
}
