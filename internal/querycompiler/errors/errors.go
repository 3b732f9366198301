/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

// Package errors provides the error types reported by the query compiler.
//
// Compilation never returns partial results: any of the typed errors below aborts the whole
// clause. Callers inspect them with errors.As; the HTTP layer maps them to 400 Bad Request.
package errors

import (
	"errors"
	"fmt"

	"github.com/mogudian/elasticsearch-orm/internal/common"
)

// ParseError reports a clause construct the compiler cannot translate.
type ParseError struct {
	// Fragment is the offending clause text, rendered back from the parse tree where possible.
	Fragment string
	// Reason is a short human readable explanation.
	Reason string
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error: %s: %s", e.Reason, e.Fragment)
}

// UnsupportedNegation reports a NOT applied to an operator without a complement.
type UnsupportedNegation struct {
	Operator string
}

func (e *UnsupportedNegation) Error() string {
	return fmt.Sprintf("operator %s cannot be negated", e.Operator)
}

// UnsupportedCast reports a CAST to a target type without a script translation.
type UnsupportedCast struct {
	Type string
}

func (e *UnsupportedCast) Error() string {
	return fmt.Sprintf("unsupported cast type %q", e.Type)
}

// FieldResolutionError reports a property unknown to the entity metadata.
type FieldResolutionError struct {
	EntityType string
	Property   string
}

func (e *FieldResolutionError) Error() string {
	return fmt.Sprintf("entity %s has no property %s", e.EntityType, e.Property)
}

// Registry-related errors
var (
	// ErrEntityTypeNotFound is returned when a clause targets an entity type that was never registered.
	ErrEntityTypeNotFound = common.NewErrNotFound("Entity type not found")

	// ErrEntityTypeAlreadyRegistered is returned when the same entity type is registered twice.
	ErrEntityTypeAlreadyRegistered = common.NewErrConflict("Entity type already registered")

	// ErrNoLifecycleField is returned when a lifecycle filter targets an entity type without lifecycle property.
	ErrNoLifecycleField = common.NewErrBadRequest("Entity type has no lifecycle property")
)

// Parameter-related errors
var (
	// ErrTooFewParameters is returned when a clause has more placeholders than supplied parameters.
	ErrTooFewParameters = common.NewErrBadRequest("not enough parameters for placeholders")

	// ErrSubqueryResolverMissing is returned when a clause contains a sub-select but no resolver is configured.
	ErrSubqueryResolverMissing = common.NewErrBadRequest("sub-select used without a subquery resolver")
)

// IsCompileError reports whether err is one of the typed compilation errors.
func IsCompileError(err error) bool {
	var pe *ParseError
	var ne *UnsupportedNegation
	var ce *UnsupportedCast
	var fe *FieldResolutionError
	return errors.As(err, &pe) || errors.As(err, &ne) || errors.As(err, &ce) || errors.As(err, &fe)
}

// Parse builds a ParseError with a formatted reason.
func Parse(fragment string, format string, args ...any) error {
	return &ParseError{Fragment: fragment, Reason: fmt.Sprintf(format, args...)}
}
