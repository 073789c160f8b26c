// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl

import "strings"

// token is a lexical unit of a single DDL statement: an identifier
// (quoted or bare), a string literal, a number, or a single piece of
// punctuation. Parens and commas are always their own token so callers
// can track nesting depth positionally.
type token struct {
	text   string
	quoted bool // true if text is a "-, `- or [-quoted identifier
}

// tokenize splits a single statement (already isolated by Stmts) into
// tokens. It is deliberately small: it only needs to support the
// handful of DDL shapes section 4.2 recognizes.
func tokenize(s string) []token {
	var out []token
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; i++ {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c == '(' || c == ')' || c == ',' || c == ';' || c == '.':
			out = append(out, token{text: string(c)})
		case c == '\'' || c == '"' || c == '`':
			quote := c
			j := i + 1
			var b strings.Builder
			b.WriteRune(quote)
			for j < n {
				if runes[j] == quote {
					if j+1 < n && runes[j+1] == quote {
						b.WriteRune(quote)
						b.WriteRune(quote)
						j += 2
						continue
					}
					b.WriteRune(quote)
					j++
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			out = append(out, token{text: b.String(), quoted: quote != '\''})
			i = j - 1
		case c == '[':
			j := i + 1
			var b strings.Builder
			b.WriteRune('[')
			for j < n && runes[j] != ']' {
				b.WriteRune(runes[j])
				j++
			}
			if j < n {
				b.WriteRune(']')
			}
			out = append(out, token{text: b.String(), quoted: true})
			i = j
		case isIdentStart(c):
			j := i
			for j < n && isIdentRune(runes[j]) {
				j++
			}
			out = append(out, token{text: string(runes[i:j])})
			i = j - 1
		case c >= '0' && c <= '9':
			j := i
			for j < n && (isIdentRune(runes[j]) || runes[j] == '.') {
				j++
			}
			out = append(out, token{text: string(runes[i:j])})
			i = j - 1
		default:
			// operators and everything else: consume a single rune as
			// its own token (covers =, <, >, +, -, *, etc. appearing
			// inside CHECK/DEFAULT expressions, which are captured
			// verbatim rather than re-parsed).
			out = append(out, token{text: string(c)})
		}
	}
	return out
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// renderTokens renders a token sequence back to normalized text: a
// single space between tokens, except none before ')' ',' ';' '.' and
// none after '(' '.'.
func renderTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && needsSpaceBefore(toks, i) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func needsSpaceBefore(toks []token, i int) bool {
	prev, cur := toks[i-1].text, toks[i].text
	switch cur {
	case ")", ",", ";", ".":
		return false
	}
	switch prev {
	case "(", ".":
		return false
	}
	return true
}
