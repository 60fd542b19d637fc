// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package validators holds the semantic checks run over a linked
// [grammar.Ast]. Each check reads the graph and appends diagnostics; none of
// them modifies an entity, so running them twice yields the same results.
package validators

import (
	"fmt"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
)

// Validate runs every check over every entity in declaration order.
func Validate(ast *grammar.Ast, diags *diagnostics.Diagnostics) {
	for _, f := range ast.Files() {
		validateFileAttributes(f, diags)
	}
	for e := range ast.Entities() {
		validateEntity(e, diags)
	}
}

func validateEntity(e grammar.Entity, diags *diagnostics.Diagnostics) {
	validateAttributes(e, diags)
	switch e := e.(type) {
	case *grammar.Module:
	case *grammar.Struct:
		validateMembers(fieldMembers(e.Fields), diags)
	case *grammar.Class:
		validateClass(e, diags)
	case *grammar.Exception:
		validateMembers(fieldMembers(e.Fields), diags)
	case *grammar.Field:
		validateTypeRef(e, e.DataType, diags)
	case *grammar.Interface:
	case *grammar.Operation:
		validateOperation(e, diags)
	case *grammar.Parameter:
		validateTypeRef(e, e.DataType, diags)
	case *grammar.Enum:
		validateEnum(e, diags)
	case *grammar.Enumerator:
	case *grammar.CustomType:
	case *grammar.TypeAlias:
		validateTypeRef(e, e.Underlying, diags)
	default:
		panic(fmt.Sprintf("validators: unhandled entity kind %T", e))
	}
}

// AddModeNotes explains which mode a file is compiled in and where that
// mode was chosen.
func AddModeNotes(d *diagnostics.Diagnostic, file *grammar.File) *diagnostics.Diagnostic {
	if file == nil {
		return d
	}
	if file.HasExplicitMode() {
		d.AddNote(fmt.Sprintf("file's mode is set to %s here:", file.Mode), file.ModeSpan)
		return d
	}
	d.AddNote(fmt.Sprintf("file is using the %s mode by default", grammar.DefaultMode), nil)
	d.AddNote("to use a different mode, specify it at the top of the slice file\nex: 'mode = Slice1'", nil)
	return d
}

// redefinitions reports every identifier that repeats an earlier one in
// the same list.
func redefinitions[E grammar.Entity](items []E, diags *diagnostics.Diagnostics) {
	seen := make(map[string]E, len(items))
	for _, item := range items {
		prev, ok := seen[item.Identifier()]
		if !ok {
			seen[item.Identifier()] = item
			continue
		}
		prevSpan := prev.Span()
		diagnostics.Redefinition(item.Identifier()).
			SetSpan(item.Span()).
			SetScope(item.ScopedIdentifier()).
			AddNote(fmt.Sprintf("'%s' was previously defined here", prev.Identifier()), &prevSpan).
			PushInto(diags)
	}
}
