// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package plan

import (
	"fmt"
	"sort"

	"github.com/ddlsync/ddlsync/schema"
	"github.com/ddlsync/ddlsync/schemaerr"
)

// graph is a "must come before" adjacency list over table names:
// edges[a] contains every b that a must precede in the output order.
// It is a small, purpose-built stand-in for the teacher's
// sqlx.sortMap/dependencies DFS-based topological sort
// (sql/internal/sqlx/plan.go), generalized to SQLite's single-dialect
// foreign-key graph instead of Atlas's cross-dialect Change slices.
type graph struct {
	nodes map[string]bool
	edges map[string]map[string]bool
}

func newGraph() *graph {
	return &graph{nodes: map[string]bool{}, edges: map[string]map[string]bool{}}
}

func (g *graph) addNode(n string) {
	g.nodes[n] = true
	if g.edges[n] == nil {
		g.edges[n] = map[string]bool{}
	}
}

func (g *graph) addEdge(before, after string) {
	g.addNode(before)
	g.addNode(after)
	g.edges[before][after] = true
}

// sorted returns the nodes in an order respecting every "before"
// edge, detecting cycles via DFS with a three-color (white/gray/black)
// scheme, matching the teacher's visit/progress/sorted pattern.
func (g *graph) sorted() ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.nodes))
	var order []string
	var names []string
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names) // deterministic traversal order

	var visit func(n string) error
	visit = func(n string) error {
		switch color[n] {
		case black:
			return nil
		case gray:
			return schemaerr.New(schemaerr.CyclicDependency, "plan.graph.sorted", fmt.Errorf("cycle at %s", n))
		}
		color[n] = gray
		var nexts []string
		for m := range g.edges[n] {
			nexts = append(nexts, m)
		}
		sort.Strings(nexts)
		for _, m := range nexts {
			if err := visit(m); err != nil {
				return err
			}
		}
		color[n] = black
		order = append(order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	// visit appends a node after all the nodes it must precede have
	// been appended, so the natural DFS post-order is already
	// "precede-last"; reverse it to get "precede-first".
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// tableFKGraph builds a "before" graph over s's tables using
// direction: if forward, an edge runs from a table to each table it
// references (referencer before referenced); if !forward, the edge is
// reversed (referenced before referencer).
func tableFKGraph(s *schema.Schema, forward bool, include func(name string) bool) *graph {
	g := newGraph()
	for _, t := range s.Tables() {
		name := lowerName(t.Name)
		if include != nil && !include(name) {
			continue
		}
		g.addNode(name)
		for _, c := range t.TableConstraints {
			fk, ok := c.(schema.ForeignKeyConstraint)
			if !ok {
				continue
			}
			ref := lowerName(fk.RefTable)
			if include != nil && !include(ref) {
				continue
			}
			if ref == name {
				continue // self-reference never constrains ordering
			}
			if forward {
				g.addEdge(name, ref)
			} else {
				g.addEdge(ref, name)
			}
		}
	}
	return g
}

func lowerName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
