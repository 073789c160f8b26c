// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package ddl

// Identifiers returns every non-keyword identifier token appearing in
// sql, lower-cased, de-duplicated. It is a lightweight alternative to
// a full SELECT grammar, used by the Planner to approximate which
// tables/views a CREATE VIEW or CREATE TRIGGER body references.
func Identifiers(sqlText string) []string {
	toks := tokenize(sqlText)
	seen := map[string]bool{}
	var out []string
	for _, t := range toks {
		name := lowerIdent(t.text)
		if name == "" || !isBareIdent(name) {
			continue
		}
		if _, isKw := keywordSet[name]; isKw {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
