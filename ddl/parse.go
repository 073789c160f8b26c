// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl

import (
	"fmt"
	"strings"

	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

// Parse classifies a single DDL statement and extracts its name and a
// normalized in-memory form, per section 4.2. The statement must
// already be isolated by Stmts (i.e. contain no trailing ';' from a
// sibling statement).
func Parse(stmt string) (*schema.Object, error) {
	toks := tokenize(stmt)
	toks = trimTrailing(toks, ";")
	if len(toks) == 0 {
		return nil, perr(stmt, "empty statement")
	}
	if !eqKw(toks[0].text, "CREATE") {
		return nil, perr(stmt, "expected CREATE")
	}
	i := 1
	// CREATE [TEMP|TEMPORARY] ...  (temp-ness is accepted, not tracked)
	if i < len(toks) && (eqKw(toks[i].text, "TEMP") || eqKw(toks[i].text, "TEMPORARY")) {
		i++
	}
	if i >= len(toks) {
		return nil, perr(stmt, "truncated CREATE statement")
	}
	switch {
	case eqKw(toks[i].text, "UNIQUE") && i+1 < len(toks) && eqKw(toks[i+1].text, "INDEX"):
		return parseIndex(stmt, toks, i+2, true)
	case eqKw(toks[i].text, "INDEX"):
		return parseIndex(stmt, toks, i+1, false)
	case eqKw(toks[i].text, "TABLE"):
		return parseTable(stmt, toks, i+1)
	case eqKw(toks[i].text, "VIEW"):
		return parseView(stmt, toks, i+1)
	case eqKw(toks[i].text, "TRIGGER"):
		return parseTrigger(stmt, toks, i+1)
	case eqKw(toks[i].text, "VIRTUAL") && i+1 < len(toks) && eqKw(toks[i+1].text, "TABLE"):
		return parseVirtualTable(stmt, toks, i+2)
	default:
		return nil, perr(stmt, "unrecognized statement form")
	}
}

func perr(stmt, reason string) error {
	return schemaerr.New(schemaerr.Parse, "ddl.Parse", fmt.Errorf("%s: %s", reason, stmt))
}

func eqKw(tok, kw string) bool { return !isQuotedLike(tok) && strings.EqualFold(tok, kw) }

func isQuotedLike(tok string) bool {
	if tok == "" {
		return false
	}
	switch tok[0] {
	case '"', '`', '[', '\'':
		return true
	}
	return false
}

// skipIfNotExists consumes an "IF NOT EXISTS" sequence at i, if present.
func skipIfNotExists(toks []token, i int) int {
	if i+2 < len(toks) && eqKw(toks[i].text, "IF") && eqKw(toks[i+1].text, "NOT") && eqKw(toks[i+2].text, "EXISTS") {
		return i + 3
	}
	return i
}

func trimTrailing(toks []token, text string) []token {
	if len(toks) > 0 && toks[len(toks)-1].text == text {
		return toks[:len(toks)-1]
	}
	return toks
}

// readName reads a single (possibly dotted schema.name, possibly
// quoted) identifier starting at i, returning its unquoted form and
// the index past it.
func readName(toks []token, i int) (string, int) {
	if i >= len(toks) {
		return "", i
	}
	name := unquoteIdent(toks[i].text)
	j := i + 1
	// tolerate a schema-qualified "main"."name" prefix by keeping only
	// the final component, matching sqlite_master's unqualified naming.
	if j+1 < len(toks) && toks[j].text == "." {
		name = unquoteIdent(toks[j+1].text)
		j += 2
	}
	return name, j
}

// parseIndex handles CREATE [UNIQUE] INDEX [IF NOT EXISTS] name ON
// table (col, ...) [WHERE expr].
func parseIndex(stmt string, toks []token, i int, unique bool) (*schema.Object, error) {
	i = skipIfNotExists(toks, i)
	name, i := readName(toks, i)
	if name == "" {
		return nil, perr(stmt, "missing index name")
	}
	if i >= len(toks) || !eqKw(toks[i].text, "ON") {
		return nil, perr(stmt, "expected ON in CREATE INDEX")
	}
	i++
	table, i := readName(toks, i)
	if table == "" {
		return nil, perr(stmt, "missing index target table")
	}
	rest := renderTokens(upperAll(toks[i:]))
	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(name)
	b.WriteString(" ON ")
	b.WriteString(table)
	b.WriteString(" ")
	b.WriteString(normalizeWhitespaceAroundPunct(rest))
	return &schema.Object{
		Kind:          schema.KindIndex,
		Name:          name,
		Parent:        table,
		NormalizedSQL: collapseSpace(b.String()),
	}, nil
}

// parseView handles CREATE VIEW [IF NOT EXISTS] name [(cols)] AS select.
func parseView(stmt string, toks []token, i int) (*schema.Object, error) {
	i = skipIfNotExists(toks, i)
	name, i := readName(toks, i)
	if name == "" {
		return nil, perr(stmt, "missing view name")
	}
	rest := renderTokens(upperAll(toks[i:]))
	sql := fmt.Sprintf("CREATE VIEW %s %s", name, normalizeWhitespaceAroundPunct(rest))
	return &schema.Object{
		Kind:          schema.KindView,
		Name:          name,
		NormalizedSQL: collapseSpace(sql),
	}, nil
}

// parseTrigger handles CREATE TRIGGER [IF NOT EXISTS] name
// {BEFORE|AFTER|INSTEAD OF} event ON table ... BEGIN ... END. The
// BEGIN...END body is captured verbatim (after whitespace
// normalization) per section 4.2.
func parseTrigger(stmt string, toks []token, i int) (*schema.Object, error) {
	i = skipIfNotExists(toks, i)
	name, i := readName(toks, i)
	if name == "" {
		return nil, perr(stmt, "missing trigger name")
	}
	// find "ON" to extract the parent table.
	onIdx := -1
	for j := i; j < len(toks); j++ {
		if eqKw(toks[j].text, "ON") {
			onIdx = j
			break
		}
	}
	if onIdx < 0 {
		return nil, perr(stmt, "expected ON in CREATE TRIGGER")
	}
	table, _ := readName(toks, onIdx+1)
	if table == "" {
		return nil, perr(stmt, "missing trigger target table")
	}
	rest := renderTokens(upperAll(toks[i:]))
	sql := fmt.Sprintf("CREATE TRIGGER %s %s", name, normalizeWhitespaceAroundPunct(rest))
	return &schema.Object{
		Kind:          schema.KindTrigger,
		Name:          name,
		Parent:        table,
		NormalizedSQL: collapseSpace(sql),
	}, nil
}

// parseVirtualTable handles CREATE VIRTUAL TABLE [IF NOT EXISTS] name
// USING module(args).
func parseVirtualTable(stmt string, toks []token, i int) (*schema.Object, error) {
	i = skipIfNotExists(toks, i)
	name, i := readName(toks, i)
	if name == "" {
		return nil, perr(stmt, "missing virtual table name")
	}
	if i >= len(toks) || !eqKw(toks[i].text, "USING") {
		return nil, perr(stmt, "expected USING in CREATE VIRTUAL TABLE")
	}
	i++
	if i >= len(toks) {
		return nil, perr(stmt, "missing virtual table module")
	}
	module := toks[i].text
	i++
	rest := renderTokens(toks[i:])
	sql := fmt.Sprintf("CREATE VIRTUAL TABLE %s USING %s%s", name, module, rest)
	return &schema.Object{
		Kind:          schema.KindVirtualTable,
		Name:          name,
		Module:        module,
		NormalizedSQL: collapseSpace(sql),
	}, nil
}

func upperAll(toks []token) []token {
	out := make([]token, len(toks))
	for i, t := range toks {
		if t.quoted {
			out[i] = t
			continue
		}
		out[i] = token{text: upperKeywordToken(t.text)}
	}
	return out
}
