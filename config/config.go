// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package config loads the ambient CLI configuration file (database
// path, ignore patterns, extensions to preload, strict-FK toggle).
// This is deliberately separate from the target schema, which is
// always raw DDL text per the core design's external interface; here
// the teacher's HCL/cty stack (normally used to author a schema as
// code) is reused for a different concern: ordinary tool
// configuration, following the same block-and-attribute shape as the
// teacher's atlas.hcl project file.
package config

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// File is the decoded shape of a ddlsync.hcl configuration file:
//
//	env "local" {
//	  database  = "app.db"
//	  schema    = ["schema/*.sql"]
//	  strict_fk = true
//	  ignore    = ["index:sqlite_autoindex_.*"]
//	  extension = ["spellfix1"]
//	}
type File struct {
	Envs []Env `hcl:"env,block"`
}

// Env is one named environment block.
type Env struct {
	Name        string   `hcl:"name,label"`
	Database    string   `hcl:"database"`
	SchemaGlobs []string `hcl:"schema,optional"`
	StrictFK    *bool    `hcl:"strict_fk,optional"`
	Ignore      []string `hcl:"ignore,optional"`
	Extensions  []string `hcl:"extension,optional"`
	// Pragma holds arbitrary connection-time PRAGMA settings (e.g.
	// busy_timeout, journal_mode) as a raw cty value, since their
	// value types vary (numbers, strings, booleans) and HCL has no
	// single Go type to decode them into directly.
	Pragma map[string]cty.Value `hcl:"pragma,optional"`
}

// Pragmas renders the env's pragma block into "PRAGMA name = value"
// statements the caller executes on the connection before Migrate
// runs, converting each cty.Value to its string representation.
func (e *Env) Pragmas() ([]string, error) {
	out := make([]string, 0, len(e.Pragma))
	for name, v := range e.Pragma {
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("config: pragma %s: %w", name, err)
		}
		out = append(out, fmt.Sprintf("PRAGMA %s = %s", name, s.AsString()))
	}
	return out, nil
}

// Load parses the HCL file at path.
func Load(path string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config.Load: parse %s: %w", path, diags)
	}
	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("config.Load: decode %s: %w", path, diags)
	}
	return &f, nil
}

// Env looks up a named environment block.
func (f *File) Env(name string) (*Env, error) {
	for i := range f.Envs {
		if f.Envs[i].Name == name {
			return &f.Envs[i], nil
		}
	}
	return nil, fmt.Errorf("config: no env named %q", name)
}

// IgnorePatterns compiles the env's Ignore strings into regexps.
func (e *Env) IgnorePatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(e.Ignore))
	for _, pat := range e.Ignore {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("config: invalid ignore pattern %q: %w", pat, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Strict reports the strict_fk setting, defaulting to true (fail
// closed) when unset, matching the teacher's generally fail-closed
// posture for ambiguous input.
func (e *Env) Strict() bool {
	if e.StrictFK == nil {
		return true
	}
	return *e.StrictFK
}
