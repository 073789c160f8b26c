// Copyright 2024-present The ddlsync Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package schemaerr defines the error-kind taxonomy shared by every
// stage of the migration pipeline, following the teacher's convention
// of small, wrapped, typed errors per package rather than bare
// errors.New strings.
package schemaerr

import (
	"errors"
	"fmt"
)

// Kind classifies the stage and nature of a pipeline failure.
type Kind int

const (
	// Lex indicates a statement-splitter failure: unterminated string,
	// unterminated block comment, or an END with no matching BEGIN.
	Lex Kind = iota
	// Parse indicates the object parser rejected a statement.
	Parse
	// DuplicateObject indicates two objects declared the same (kind, name).
	DuplicateObject
	// UnknownReference indicates a foreign key references a table absent
	// from the target schema.
	UnknownReference
	// CyclicDependency indicates an irreducible cycle in drop/create order.
	CyclicDependency
	// DataLoss indicates a rebuild would require values the old schema
	// cannot supply.
	DataLoss
	// Busy indicates a transaction could not be acquired.
	Busy
	// StepFailed indicates the underlying engine rejected a planned step.
	StepFailed
	// IntegrityViolation indicates foreign_key_check found orphan rows.
	IntegrityViolation
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case DuplicateObject:
		return "duplicate_object"
	case UnknownReference:
		return "unknown_reference"
	case CyclicDependency:
		return "cyclic_dependency"
	case DataLoss:
		return "data_loss"
	case Busy:
		return "busy"
	case StepFailed:
		return "step_failed"
	case IntegrityViolation:
		return "integrity_violation"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with its pipeline Kind and the
// operation in which it occurred.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
