// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package logging defines the Logger/Entry event taxonomy the
// Executor reports progress through, carried from the teacher's
// migrate.Logger/migrate.LogEntry (sql/migrate/migrate.go), backed by
// default by github.com/rs/zerolog instead of the teacher's
// plain-text formatter so callers get structured fields.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Entry is a tagged variant of executor progress events.
type Entry interface {
	entry()
}

// EntryBegin reports that a migration is starting with n steps.
type EntryBegin struct{ Steps int }

// EntryStep reports that a single step is about to execute.
type EntryStep struct {
	Index int
	Label string
	SQL   string
}

// EntryDone reports successful completion.
type EntryDone struct{ Applied int }

// EntryError reports a failure at a given step.
type EntryError struct {
	Index int
	Err   error
}

func (EntryBegin) entry() {}
func (EntryStep) entry()  {}
func (EntryDone) entry()  {}
func (EntryError) entry() {}

// Logger receives Executor progress events.
type Logger interface {
	Log(Entry)
}

// NopLogger discards every entry, matching migrate.NopLogger.
type NopLogger struct{}

func (NopLogger) Log(Entry) {}

// ZerologLogger adapts zerolog.Logger to Logger, emitting one
// structured log line per entry.
type ZerologLogger struct {
	L zerolog.Logger
}

// NewZerologLogger returns a ZerologLogger writing to stderr.
func NewZerologLogger() ZerologLogger {
	return ZerologLogger{L: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (z ZerologLogger) Log(e Entry) {
	switch v := e.(type) {
	case EntryBegin:
		z.L.Info().Int("steps", v.Steps).Msg("migration starting")
	case EntryStep:
		z.L.Info().Int("step_index", v.Index).Str("label", v.Label).Msg("executing step")
	case EntryDone:
		z.L.Info().Int("applied", v.Applied).Msg("migration complete")
	case EntryError:
		z.L.Error().Int("step_index", v.Index).Err(v.Err).Msg("step failed")
	}
}
