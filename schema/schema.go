// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package schema defines the in-memory representation of a SQLite
// schema: its objects, their columns and constraints, and the typed
// changes and migration steps derived from comparing two schemas.
package schema

import "fmt"

// Kind identifies the category of a schema Object.
type Kind int

const (
	KindTable Kind = iota
	KindIndex
	KindView
	KindTrigger
	KindVirtualTable
)

// rank returns the creation-order rank used for canonical enumeration
// (table < virtual_table < index < view < trigger).
func (k Kind) rank() int {
	switch k {
	case KindTable:
		return 0
	case KindVirtualTable:
		return 1
	case KindIndex:
		return 2
	case KindView:
		return 3
	case KindTrigger:
		return 4
	default:
		return 5
	}
}

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindIndex:
		return "index"
	case KindView:
		return "view"
	case KindTrigger:
		return "trigger"
	case KindVirtualTable:
		return "virtual_table"
	default:
		return "unknown"
	}
}

// Key uniquely identifies an Object within a Schema.
type Key struct {
	Kind Kind
	Name string // lower-case
}

func (k Key) String() string { return fmt.Sprintf("%s:%s", k.Kind, k.Name) }

// Object is a named, typed schema element, as defined in section 3 of
// the core design: a table, index, view, trigger or virtual table.
type Object struct {
	Kind   Kind
	Name   string // as declared, case preserved
	Parent string // table name for indexes/triggers; empty otherwise

	NormalizedSQL string

	Columns          []*Column    // tables only
	TableConstraints []Constraint // tables only

	Module string // virtual tables only: fts5, spellfix1, ...
}

// Key returns the Object's lookup key in its owning Schema.
func (o *Object) Key() Key { return Key{Kind: o.Kind, Name: lower(o.Name)} }

// Equal reports structural equality per the rules of section 4.5:
// tables compare field-wise (ordered columns, then constraint set),
// other kinds compare on normalized SQL text.
func (o *Object) Equal(other *Object) bool {
	if o.Kind != other.Kind {
		return false
	}
	if o.Kind != KindTable {
		return o.NormalizedSQL == other.NormalizedSQL
	}
	if len(o.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range o.Columns {
		if !c.Equal(other.Columns[i]) {
			return false
		}
	}
	if len(o.TableConstraints) != len(other.TableConstraints) {
		return false
	}
	used := make([]bool, len(other.TableConstraints))
	for _, c := range o.TableConstraints {
		found := false
		for i, oc := range other.TableConstraints {
			if used[i] {
				continue
			}
			if constraintEqual(c, oc) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Column is an ordered attribute of a table Object.
type Column struct {
	Name          string
	DeclaredType  string
	NotNull       bool
	DefaultExpr   string // empty means absent; use HasDefault to distinguish
	HasDefault    bool
	Collation     string // upper-cased, empty if absent
	IsPrimaryKey  bool
	AutoIncrement bool
	CheckExpr     string
}

// Equal compares all attributes literally after canonicalization, per
// section 3.
func (c *Column) Equal(other *Column) bool {
	return lower(c.Name) == lower(other.Name) &&
		c.DeclaredType == other.DeclaredType &&
		c.NotNull == other.NotNull &&
		c.HasDefault == other.HasDefault &&
		c.DefaultExpr == other.DefaultExpr &&
		c.Collation == other.Collation &&
		c.IsPrimaryKey == other.IsPrimaryKey &&
		c.AutoIncrement == other.AutoIncrement &&
		c.CheckExpr == other.CheckExpr
}

// Constraint is a tagged variant of table-level constraints not
// attached to a single column: PrimaryKey, Unique, ForeignKey, Check.
type Constraint interface {
	constraint()
}

// PrimaryKeyConstraint is a table-level PRIMARY KEY(...) clause.
type PrimaryKeyConstraint struct {
	Columns       []string
	AutoIncrement bool
}

// UniqueConstraint is a table-level UNIQUE(...) clause.
type UniqueConstraint struct {
	Columns []ColumnCollation
}

// ColumnCollation names a column optionally qualified by COLLATE.
type ColumnCollation struct {
	Column    string
	Collation string
}

// ForeignKeyConstraint is a table-level FOREIGN KEY(...) REFERENCES clause.
type ForeignKeyConstraint struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// CheckConstraint is a table-level CHECK(...) clause.
type CheckConstraint struct {
	Expr string
}

func (PrimaryKeyConstraint) constraint() {}
func (UniqueConstraint) constraint()     {}
func (ForeignKeyConstraint) constraint() {}
func (CheckConstraint) constraint()      {}

func constraintEqual(a, b Constraint) bool {
	switch av := a.(type) {
	case PrimaryKeyConstraint:
		bv, ok := b.(PrimaryKeyConstraint)
		return ok && stringsEqual(av.Columns, bv.Columns) && av.AutoIncrement == bv.AutoIncrement
	case UniqueConstraint:
		bv, ok := b.(UniqueConstraint)
		if !ok || len(av.Columns) != len(bv.Columns) {
			return false
		}
		for i := range av.Columns {
			if av.Columns[i] != bv.Columns[i] {
				return false
			}
		}
		return true
	case ForeignKeyConstraint:
		bv, ok := b.(ForeignKeyConstraint)
		return ok && stringsEqual(av.Columns, bv.Columns) &&
			lower(av.RefTable) == lower(bv.RefTable) &&
			stringsEqual(av.RefColumns, bv.RefColumns) &&
			av.OnDelete == bv.OnDelete && av.OnUpdate == bv.OnUpdate
	case CheckConstraint:
		bv, ok := b.(CheckConstraint)
		return ok && av.Expr == bv.Expr
	default:
		return false
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
