// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl

import (
	"fmt"
	"strings"

	"github.com/ddlsync/ddlsync/schema"
)

// parseTable handles CREATE TABLE [IF NOT EXISTS] name (body) [WITHOUT ROWID].
func parseTable(stmt string, toks []token, i int) (*schema.Object, error) {
	i = skipIfNotExists(toks, i)
	name, i := readName(toks, i)
	if name == "" {
		return nil, perr(stmt, "missing table name")
	}
	if i >= len(toks) || toks[i].text != "(" {
		return nil, perr(stmt, "expected '(' after table name")
	}
	body, after, err := matchParen(toks, i)
	if err != nil {
		return nil, perr(stmt, err.Error())
	}
	items := splitTopLevel(body)

	obj := &schema.Object{Kind: schema.KindTable, Name: name}
	for _, item := range items {
		if len(item) == 0 {
			continue
		}
		if isTableConstraintStart(item) {
			c, perr2 := parseTableConstraint(item)
			if perr2 != nil {
				return nil, perr(stmt, perr2.Error())
			}
			obj.TableConstraints = append(obj.TableConstraints, c)
			continue
		}
		col, extra, perr2 := parseColumnDef(item)
		if perr2 != nil {
			return nil, perr(stmt, perr2.Error())
		}
		obj.Columns = append(obj.Columns, col)
		obj.TableConstraints = append(obj.TableConstraints, extra...)
	}

	tail := normalizeWhitespaceAroundPunct(renderTokens(upperAll(toks[after:])))
	obj.NormalizedSQL = collapseSpace(fmt.Sprintf("CREATE TABLE %s (%s) %s", name, renderTableBody(obj), tail))
	return obj, nil
}

// matchParen returns the tokens strictly inside the parenthesis that
// starts at toks[open] ("(") and the index immediately after the
// matching ")".
func matchParen(toks []token, open int) ([]token, int, error) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return toks[open+1 : i], i + 1, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("unterminated parenthesis")
}

// splitTopLevel splits toks on commas at paren-depth 0, tolerating
// (and dropping) a trailing comma per section 4.2 rule 6.
func splitTopLevel(toks []token) [][]token {
	var out [][]token
	var cur []token
	depth := 0
	for _, t := range toks {
		switch t.text {
		case "(":
			depth++
			cur = append(cur, t)
			continue
		case ")":
			depth--
			cur = append(cur, t)
			continue
		case ",":
			if depth == 0 {
				out = append(out, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func isTableConstraintStart(item []token) bool {
	if len(item) == 0 {
		return false
	}
	switch {
	case eqKw(item[0].text, "PRIMARY"), eqKw(item[0].text, "FOREIGN"),
		eqKw(item[0].text, "UNIQUE"), eqKw(item[0].text, "CHECK"),
		eqKw(item[0].text, "CONSTRAINT"):
		return true
	}
	return false
}

// parseColumnDef parses a single column definition: name, declared
// type, and trailing modifiers in any order. An inline column-level
// REFERENCES clause is promoted to a table-level ForeignKeyConstraint
// since the Column model carries no reference fields of its own.
func parseColumnDef(item []token) (*schema.Column, []schema.Constraint, error) {
	if len(item) == 0 {
		return nil, nil, fmt.Errorf("empty column definition")
	}
	col := &schema.Column{Name: unquoteIdent(item[0].text)}
	i := 1
	var typeParts []string
	for i < len(item) && !isModifierKeyword(item[i].text) {
		typeParts = append(typeParts, item[i].text)
		i++
	}
	col.DeclaredType = strings.ToUpper(normalizeWhitespaceAroundPunct(renderTokens(toksFromStrings(typeParts))))

	var extra []schema.Constraint
	for i < len(item) {
		switch {
		case eqKw(item[i].text, "NOT") && i+1 < len(item) && eqKw(item[i+1].text, "NULL"):
			col.NotNull = true
			i += 2
		case eqKw(item[i].text, "NULL"):
			i++
		case eqKw(item[i].text, "DEFAULT"):
			expr, next := readDefaultExpr(item, i+1)
			col.DefaultExpr = expr
			col.HasDefault = true
			i = next
		case eqKw(item[i].text, "COLLATE") && i+1 < len(item):
			col.Collation = strings.ToUpper(unquoteIdent(item[i+1].text))
			i += 2
		case eqKw(item[i].text, "CHECK") && i+1 < len(item) && item[i+1].text == "(":
			body, next, err := matchParen(item, i+1)
			if err != nil {
				return nil, nil, err
			}
			col.CheckExpr = normalizeWhitespaceAroundPunct(renderTokens(body))
			i = next
		case eqKw(item[i].text, "PRIMARY") && i+1 < len(item) && eqKw(item[i+1].text, "KEY"):
			col.IsPrimaryKey = true
			i += 2
			if i < len(item) && eqKw(item[i].text, "AUTOINCREMENT") {
				col.AutoIncrement = true
				i++
			}
		case eqKw(item[i].text, "UNIQUE"):
			extra = append(extra, schema.UniqueConstraint{Columns: []schema.ColumnCollation{{Column: lowerIdent(col.Name), Collation: col.Collation}}})
			i++
		case eqKw(item[i].text, "REFERENCES"):
			fk, next, err := parseInlineReference(item, i+1, col.Name)
			if err != nil {
				return nil, nil, err
			}
			extra = append(extra, fk)
			i = next
		case eqKw(item[i].text, "CONSTRAINT") && i+1 < len(item):
			// named column constraint label: the constraint name is
			// not part of the data model, so it is consumed and
			// discarded; parsing continues at the clause that follows.
			i += 2
		default:
			i++
		}
	}
	return col, extra, nil
}

func isModifierKeyword(tok string) bool {
	for _, kw := range []string{"NOT", "NULL", "DEFAULT", "COLLATE", "CHECK", "PRIMARY", "UNIQUE", "REFERENCES", "CONSTRAINT"} {
		if eqKw(tok, kw) {
			return true
		}
	}
	return false
}

// readDefaultExpr reads a DEFAULT expression: either a parenthesized
// expression, a single literal/identifier token, or a signed number.
func readDefaultExpr(item []token, i int) (string, int) {
	if i >= len(item) {
		return "", i
	}
	if item[i].text == "(" {
		body, next, err := matchParen(item, i)
		if err != nil {
			return renderTokens(item[i:]), len(item)
		}
		return "(" + normalizeWhitespaceAroundPunct(renderTokens(body)) + ")", next
	}
	if item[i].text == "-" || item[i].text == "+" {
		if i+1 < len(item) {
			return item[i].text + item[i+1].text, i + 2
		}
	}
	return item[i].text, i + 1
}

// parseInlineReference parses the remainder of a column-level
// REFERENCES table(cols) [ON DELETE action] [ON UPDATE action] clause.
func parseInlineReference(item []token, i int, fromCol string) (schema.ForeignKeyConstraint, int, error) {
	fk := schema.ForeignKeyConstraint{Columns: []string{lowerIdent(fromCol)}}
	name, i := readName(item, i)
	fk.RefTable = name
	if i < len(item) && item[i].text == "(" {
		body, next, err := matchParen(item, i)
		if err != nil {
			return fk, i, err
		}
		fk.RefColumns = identList(body)
		i = next
	}
	i = parseFKActions(item, i, &fk)
	return fk, i, nil
}

// parseTableConstraint parses a single table-level constraint clause.
func parseTableConstraint(item []token) (schema.Constraint, error) {
	i := 0
	if eqKw(item[i].text, "CONSTRAINT") {
		// named constraint label: not part of the data model (see
		// spec.md section 3's Constraint variant, which carries no name).
		i += 2
	}
	switch {
	case i < len(item) && eqKw(item[i].text, "PRIMARY"):
		// PRIMARY KEY (cols) [AUTOINCREMENT]
		i += 2 // PRIMARY KEY
		if i >= len(item) || item[i].text != "(" {
			return nil, fmt.Errorf("expected '(' in PRIMARY KEY constraint")
		}
		body, next, err := matchParen(item, i)
		if err != nil {
			return nil, err
		}
		auto := next < len(item) && eqKw(item[next].text, "AUTOINCREMENT")
		return schema.PrimaryKeyConstraint{Columns: identList(body), AutoIncrement: auto}, nil
	case i < len(item) && eqKw(item[i].text, "UNIQUE"):
		i++
		if i >= len(item) || item[i].text != "(" {
			return nil, fmt.Errorf("expected '(' in UNIQUE constraint")
		}
		body, _, err := matchParen(item, i)
		if err != nil {
			return nil, err
		}
		return schema.UniqueConstraint{Columns: columnCollationList(body)}, nil
	case i < len(item) && eqKw(item[i].text, "FOREIGN"):
		i += 2 // FOREIGN KEY
		if i >= len(item) || item[i].text != "(" {
			return nil, fmt.Errorf("expected '(' in FOREIGN KEY constraint")
		}
		body, next, err := matchParen(item, i)
		if err != nil {
			return nil, err
		}
		fk := schema.ForeignKeyConstraint{Columns: identList(body)}
		i = next
		if i >= len(item) || !eqKw(item[i].text, "REFERENCES") {
			return nil, fmt.Errorf("expected REFERENCES in FOREIGN KEY constraint")
		}
		i++
		name, ni := readName(item, i)
		fk.RefTable = name
		i = ni
		if i < len(item) && item[i].text == "(" {
			rbody, rnext, err := matchParen(item, i)
			if err != nil {
				return nil, err
			}
			fk.RefColumns = identList(rbody)
			i = rnext
		}
		parseFKActions(item, i, &fk)
		return fk, nil
	case i < len(item) && eqKw(item[i].text, "CHECK"):
		i++
		if i >= len(item) || item[i].text != "(" {
			return nil, fmt.Errorf("expected '(' in CHECK constraint")
		}
		body, _, err := matchParen(item, i)
		if err != nil {
			return nil, err
		}
		return schema.CheckConstraint{Expr: normalizeWhitespaceAroundPunct(renderTokens(body))}, nil
	default:
		return nil, fmt.Errorf("unrecognized table constraint")
	}
}

func parseFKActions(item []token, i int, fk *schema.ForeignKeyConstraint) int {
	for i+2 < len(item) && eqKw(item[i].text, "ON") {
		action := item[i+2].text
		rest := i + 3
		if eqKw(action, "NO") && rest < len(item) && eqKw(item[rest].text, "ACTION") {
			action = "NO ACTION"
			rest++
		} else if eqKw(action, "SET") && rest < len(item) {
			action = "SET " + strings.ToUpper(item[rest].text)
			rest++
		}
		if eqKw(item[i+1].text, "DELETE") {
			fk.OnDelete = strings.ToUpper(action)
		} else if eqKw(item[i+1].text, "UPDATE") {
			fk.OnUpdate = strings.ToUpper(action)
		}
		i = rest
	}
	return i
}

func identList(toks []token) []string {
	var out []string
	for _, t := range splitTopLevel(toks) {
		for _, tok := range t {
			if tok.text != "," {
				out = append(out, lowerIdent(tok.text))
				break
			}
		}
	}
	return out
}

func columnCollationList(toks []token) []schema.ColumnCollation {
	var out []schema.ColumnCollation
	for _, item := range splitTopLevel(toks) {
		if len(item) == 0 {
			continue
		}
		cc := schema.ColumnCollation{Column: lowerIdent(item[0].text)}
		for j := 1; j+1 < len(item); j++ {
			if eqKw(item[j].text, "COLLATE") {
				cc.Collation = strings.ToUpper(unquoteIdent(item[j+1].text))
			}
		}
		out = append(out, cc)
	}
	return out
}

func toksFromStrings(parts []string) []token {
	out := make([]token, len(parts))
	for i, p := range parts {
		out[i] = token{text: p}
	}
	return out
}

// renderTableBody renders a table's columns and constraints back to
// canonical DDL text in the modifier order mandated by section 4.2
// rule 5: NOT NULL | DEFAULT | COLLATE | CHECK | PRIMARY KEY
// [AUTOINCREMENT]. A column-level REFERENCES clause is not rendered on
// its column: parseColumnDef promotes it to a table-level FOREIGN KEY
// constraint, which is rendered after all columns.
func renderTableBody(o *schema.Object) string {
	var parts []string
	for _, c := range o.Columns {
		parts = append(parts, renderColumn(c))
	}
	for _, c := range o.TableConstraints {
		parts = append(parts, renderConstraint(c))
	}
	return strings.Join(parts, ", ")
}

func renderColumn(c *schema.Column) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.DeclaredType)
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.HasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.DefaultExpr)
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(c.Collation)
	}
	if c.CheckExpr != "" {
		b.WriteString(" CHECK(")
		b.WriteString(c.CheckExpr)
		b.WriteString(")")
	}
	if c.IsPrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	return b.String()
}

func renderConstraint(c schema.Constraint) string {
	switch v := c.(type) {
	case schema.PrimaryKeyConstraint:
		s := "PRIMARY KEY(" + strings.Join(v.Columns, ", ") + ")"
		if v.AutoIncrement {
			s += " AUTOINCREMENT"
		}
		return s
	case schema.UniqueConstraint:
		cols := make([]string, len(v.Columns))
		for i, cc := range v.Columns {
			cols[i] = cc.Column
			if cc.Collation != "" {
				cols[i] += " COLLATE " + cc.Collation
			}
		}
		return "UNIQUE(" + strings.Join(cols, ", ") + ")"
	case schema.ForeignKeyConstraint:
		s := "FOREIGN KEY(" + strings.Join(v.Columns, ", ") + ") REFERENCES " + v.RefTable + "(" + strings.Join(v.RefColumns, ", ") + ")"
		if v.OnDelete != "" {
			s += " ON DELETE " + v.OnDelete
		}
		if v.OnUpdate != "" {
			s += " ON UPDATE " + v.OnUpdate
		}
		return s
	case schema.CheckConstraint:
		return "CHECK(" + v.Expr + ")"
	default:
		return ""
	}
}
