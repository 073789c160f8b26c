// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package diff implements the Differ (component E): given a target
// and a live Schema, it emits a stably-ordered, typed list of Change
// values.
package diff

import (
	"regexp"
	"sort"

	"github.com/ddlsync/ddlsync/schema"
)

// Options configures Diff, following the teacher's functional-options
// pattern (sql/schema/migrate.go's DiffOptions/DiffOption).
type Options struct {
	// IgnoreObjects excludes any object whose "kind:name" string
	// matches one of these patterns from both schemas before diffing.
	IgnoreObjects []*regexp.Regexp
}

// Option configures an Options value.
type Option func(*Options)

// WithIgnoreObjects sets the ignore patterns.
func WithIgnoreObjects(patterns []*regexp.Regexp) Option {
	return func(o *Options) { o.IgnoreObjects = patterns }
}

// Diff compares target against live per section 4.5: objects present
// only in target are AddObject, objects present only in live are
// DropObject, objects present in both under the same key but
// structurally unequal are ReplaceObject. The result is ordered first
// by kind rank, then by lower-case name, so downstream stages are fed
// deterministically.
func Diff(target, live *schema.Schema, opts ...Option) []schema.Change {
	var o Options
	for _, f := range opts {
		f(&o)
	}

	keys := map[schema.Key]bool{}
	for _, k := range target.Keys() {
		keys[k] = true
	}
	for _, k := range live.Keys() {
		keys[k] = true
	}

	var changes []schema.Change
	for k := range keys {
		if ignored(k, o.IgnoreObjects) {
			continue
		}
		tObj, inTarget := target.Lookup(k)
		lObj, inLive := live.Lookup(k)
		switch {
		case inTarget && !inLive:
			changes = append(changes, schema.AddObject{Object: tObj})
		case !inTarget && inLive:
			changes = append(changes, schema.DropObject{Object: lObj})
		case inTarget && inLive:
			if !tObj.Equal(lObj) {
				changes = append(changes, schema.ReplaceObject{Old: lObj, New: tObj})
			}
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		ki, kj := changes[i].Key(), changes[j].Key()
		return lessKey(ki, kj)
	})
	return changes
}

func ignored(k schema.Key, patterns []*regexp.Regexp) bool {
	if len(patterns) == 0 {
		return false
	}
	s := k.String()
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func lessKey(a, b schema.Key) bool {
	ar, br := kindRank(a.Kind), kindRank(b.Kind)
	if ar != br {
		return ar < br
	}
	return a.Name < b.Name
}

func kindRank(k schema.Kind) int {
	switch k {
	case schema.KindTable:
		return 0
	case schema.KindVirtualTable:
		return 1
	case schema.KindIndex:
		return 2
	case schema.KindView:
		return 3
	case schema.KindTrigger:
		return 4
	default:
		return 5
	}
}
