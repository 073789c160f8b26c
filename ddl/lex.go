// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package ddl implements the statement lexer/splitter and object
// parser/normalizer: it turns a blob of SQLite DDL text into a
// sequence of statement strings, and each statement into a
// normalized *schema.Object.
package ddl

import (
	"fmt"
	"strings"

	"github.com/ddlsync/ddlsync/schemaerr"
)

// Stmts splits input into individual DDL statement strings, treating
// ';' as a separator only when it lies outside quoted literals,
// quoted/bracketed identifiers, comments, and BEGIN...END blocks
// (tracked by nesting depth). Comments are stripped from the
// returned text.
func Stmts(input string) ([]string, error) {
	var (
		out        []string
		buf        strings.Builder
		depth      int // BEGIN...END nesting depth
		runes      = []rune(input)
		n          = len(runes)
	)
	flush := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}
	for i := 0; i < n; i++ {
		c := runes[i]
		switch {
		case c == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
			buf.WriteByte(' ')
			continue
		case c == '/' && i+1 < n && runes[i+1] == '*':
			j := i + 2
			closed := false
			for j+1 < n {
				if runes[j] == '*' && runes[j+1] == '/' {
					closed = true
					break
				}
				j++
			}
			if !closed {
				return nil, schemaerr.New(schemaerr.Lex, "ddl.Stmts", fmt.Errorf("unterminated block comment"))
			}
			i = j + 1
			buf.WriteByte(' ')
			continue
		case c == '\'' || c == '"' || c == '`':
			quote := c
			buf.WriteRune(c)
			i++
			closed := false
			for i < n {
				if runes[i] == quote {
					// doubled quote is an escaped literal quote
					if i+1 < n && runes[i+1] == quote {
						buf.WriteRune(quote)
						buf.WriteRune(quote)
						i++
						i++
						continue
					}
					buf.WriteRune(quote)
					closed = true
					break
				}
				buf.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, schemaerr.New(schemaerr.Lex, "ddl.Stmts", fmt.Errorf("unterminated quoted literal"))
			}
			continue
		case c == '[':
			buf.WriteRune(c)
			i++
			closed := false
			for i < n {
				buf.WriteRune(runes[i])
				if runes[i] == ']' {
					closed = true
					break
				}
				i++
			}
			if !closed {
				return nil, schemaerr.New(schemaerr.Lex, "ddl.Stmts", fmt.Errorf("unterminated bracketed identifier"))
			}
			continue
		case c == ';' && depth == 0:
			flush()
			continue
		default:
			buf.WriteRune(c)
		}
		if isWordBoundaryBegin(runes, i) {
			depth++
		} else if isWordBoundaryEnd(runes, i) {
			depth--
			if depth < 0 {
				return nil, schemaerr.New(schemaerr.Lex, "ddl.Stmts", fmt.Errorf("END with no matching BEGIN"))
			}
		}
	}
	flush()
	if depth != 0 {
		return nil, schemaerr.New(schemaerr.Lex, "ddl.Stmts", fmt.Errorf("unterminated BEGIN block"))
	}
	return out, nil
}

// isWordBoundaryBegin reports whether the keyword ending at rune index i
// (inclusive) is "BEGIN" on a word boundary.
func isWordBoundaryBegin(runes []rune, i int) bool {
	return matchesKeywordEndingAt(runes, i, "begin")
}

func isWordBoundaryEnd(runes []rune, i int) bool {
	return matchesKeywordEndingAt(runes, i, "end")
}

func matchesKeywordEndingAt(runes []rune, i int, kw string) bool {
	if i+1 < len(kw) {
		return false
	}
	start := i - len(kw) + 1
	if start < 0 {
		return false
	}
	if start > 0 && isIdentRune(runes[start-1]) {
		return false
	}
	if i+1 < len(runes) && isIdentRune(runes[i+1]) {
		return false
	}
	for j := 0; j < len(kw); j++ {
		if lowerRune(runes[start+j]) != rune(kw[j]) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func lowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
