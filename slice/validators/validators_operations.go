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

package validators

import (
	"fmt"
	"slices"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
)

func validateOperation(op *grammar.Operation, diags *diagnostics.Diagnostics) {
	exceptionSpecificationRequiresSlice1(op, diags)
	returnTupleMustHaveTwoElements(op, diags)

	validateMembers(parameterMembers(op.Parameters), diags)
	validateStreamedMembers(op.Parameters, diags)
	if op.ReturnTuple {
		validateMembers(parameterMembers(op.ReturnMembers), diags)
	}
	validateStreamedMembers(op.ReturnMembers, diags)

	if comment := op.Comment(); comment != nil {
		validateParamTags(comment, op, diags)
		validateReturnsTags(comment, op, diags)
		validateThrowsTags(comment, op, diags)
	}
}

func exceptionSpecificationRequiresSlice1(op *grammar.Operation, diags *diagnostics.Diagnostics) {
	if op.Encoding() == grammar.Slice1 || len(op.ExceptionSpecification) == 0 {
		return
	}
	span := op.ExceptionSpecification[0].Location
	span = span.Cover(op.ExceptionSpecification[len(op.ExceptionSpecification)-1].Location)
	d := diagnostics.ExceptionSpecificationNotSupported().
		SetSpan(span).
		SetScope(op.ScopedIdentifier())
	AddModeNotes(d, op.File()).PushInto(diags)
}

func returnTupleMustHaveTwoElements(op *grammar.Operation, diags *diagnostics.Diagnostics) {
	if op.ReturnTuple && len(op.ReturnMembers) < 2 {
		diagnostics.ReturnTuplesMustContainAtLeastTwoElements().
			SetSpan(op.ReturnSpan).
			SetScope(op.ScopedIdentifier()).
			PushInto(diags)
	}
}

// validateStreamedMembers reports every streamed member that is not last,
// and separately reports lists with more than one streamed member.
func validateStreamedMembers(members []*grammar.Parameter, diags *diagnostics.Diagnostics) {
	var streamed []*grammar.Parameter
	for i, m := range members {
		if !m.IsStreamed {
			continue
		}
		streamed = append(streamed, m)
		if i != len(members)-1 {
			diagnostics.StreamedMembersMustBeLast(m.Ident).
				SetSpan(m.Location).
				SetScope(m.ScopedIdentifier()).
				PushInto(diags)
		}
		if m.Tag != nil {
			diagnostics.StreamedMembersCannotBeTagged(m.Ident).
				SetSpan(m.Tag.Span).
				SetScope(m.ScopedIdentifier()).
				PushInto(diags)
		}
	}
	if len(streamed) > 1 {
		last := streamed[len(streamed)-1]
		diagnostics.MultipleStreamedMembers().
			SetSpan(last.Location).
			SetScope(last.Container.ScopedIdentifier()).
			PushInto(diags)
	}
}

func validateParamTags(comment *grammar.DocComment, op *grammar.Operation, diags *diagnostics.Diagnostics) {
	for _, tag := range comment.Params {
		name := tag.Identifier.Value
		if slices.ContainsFunc(op.Parameters, func(p *grammar.Parameter) bool { return p.Ident == name }) {
			continue
		}
		diagnostics.IncorrectDocComment(fmt.Sprintf(
			"comment has a 'param' tag for '%s', but operation '%s' has no parameter with that name",
			name, op.Ident,
		)).
			SetSpan(tag.Span).
			SetScope(op.ScopedIdentifier()).
			PushInto(diags)
	}
}

func validateReturnsTags(comment *grammar.DocComment, op *grammar.Operation, diags *diagnostics.Diagnostics) {
	switch {
	case len(op.ReturnMembers) == 0:
		for _, tag := range comment.Returns {
			diagnostics.IncorrectDocComment(fmt.Sprintf(
				"comment has a 'returns' tag, but operation '%s' does not return anything",
				op.Ident,
			)).
				SetSpan(tag.Span).
				SetScope(op.ScopedIdentifier()).
				PushInto(diags)
		}
	case len(op.ReturnMembers) == 1:
		for _, tag := range comment.Returns {
			if tag.Identifier == nil {
				continue
			}
			opSpan := op.Location
			diagnostics.IncorrectDocComment(fmt.Sprintf(
				"comment has a 'returns' tag for '%s', but operation '%s' doesn't return anything with that name",
				tag.Identifier.Value, op.Ident,
			)).
				SetSpan(tag.Span).
				SetScope(op.ScopedIdentifier()).
				AddNote(fmt.Sprintf("operation '%s' returns a single unnamed type", op.Ident), &opSpan).
				AddNote(`try removing the identifier from your comment: "@returns: ..."`, nil).
				PushInto(diags)
		}
	default:
		for _, tag := range comment.Returns {
			if tag.Identifier == nil {
				continue
			}
			name := tag.Identifier.Value
			if slices.ContainsFunc(op.ReturnMembers, func(p *grammar.Parameter) bool { return p.Ident == name }) {
				continue
			}
			diagnostics.IncorrectDocComment(fmt.Sprintf(
				"comment has a 'returns' tag for '%s', but operation '%s' doesn't return anything with that name",
				name, op.Ident,
			)).
				SetSpan(tag.Span).
				SetScope(op.ScopedIdentifier()).
				PushInto(diags)
		}
	}
}

func validateThrowsTags(comment *grammar.DocComment, op *grammar.Operation, diags *diagnostics.Diagnostics) {
	if len(op.ExceptionSpecification) == 0 {
		for _, tag := range comment.Throws {
			diagnostics.IncorrectDocComment(fmt.Sprintf(
				"comment has a 'throws' tag, but operation '%s' does not throw anything",
				op.Ident,
			)).
				SetSpan(tag.Span).
				SetScope(op.ScopedIdentifier()).
				PushInto(diags)
		}
		return
	}

	thrown := op.Thrown()
	for _, tag := range comment.Throws {
		documented, ok := tag.ThrownType()
		if !ok {
			continue
		}
		compatible := slices.ContainsFunc(thrown, func(e *grammar.Exception) bool {
			return IsDocumentedExceptionCompatible(e, documented)
		})
		if compatible {
			continue
		}
		diagnostics.IncorrectDocComment(fmt.Sprintf(
			"comment has a 'throws' tag for '%s', but operation '%s' doesn't throw this exception",
			documented.Ident, op.Ident,
		)).
			SetSpan(tag.Span).
			SetScope(op.ScopedIdentifier()).
			PushInto(diags)
	}
}

// IsDocumentedExceptionCompatible reports whether documented is thrown or
// derives from it.
func IsDocumentedExceptionCompatible(thrown, documented *grammar.Exception) bool {
	seen := map[*grammar.Exception]bool{}
	for e := documented; e != nil && !seen[e]; e = e.Base {
		if e == thrown {
			return true
		}
		seen[e] = true
	}
	return false
}
