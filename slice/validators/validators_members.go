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
	"math"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
)

// member is the common view of fields and parameters.
type member struct {
	entity   grammar.Entity
	dataType *grammar.TypeRef
	tag      *grammar.Integer
}

func fieldMembers(fields []*grammar.Field) []member {
	out := make([]member, 0, len(fields))
	for _, f := range fields {
		out = append(out, member{entity: f, dataType: f.DataType, tag: f.Tag})
	}
	return out
}

func parameterMembers(params []*grammar.Parameter) []member {
	out := make([]member, 0, len(params))
	for _, p := range params {
		out = append(out, member{entity: p, dataType: p.DataType, tag: p.Tag})
	}
	return out
}

func validateMembers(members []member, diags *diagnostics.Diagnostics) {
	entities := make([]grammar.Entity, 0, len(members))
	for _, m := range members {
		entities = append(entities, m.entity)
	}
	redefinitions(entities, diags)
	validateTags(members, diags)
}

func validateTags(members []member, diags *diagnostics.Diagnostics) {
	byValue := make(map[int64]member)
	for _, m := range members {
		if m.tag == nil {
			continue
		}
		ident := m.entity.Identifier()
		if !m.dataType.Optional {
			diagnostics.TaggedMemberMustBeOptional(ident).
				SetSpan(m.entity.Span()).
				SetScope(m.entity.ScopedIdentifier()).
				AddNote(fmt.Sprintf("try 'tag(%d) %s: %s?'", m.tag.Value, ident, m.dataType.TypeString()), nil).
				PushInto(diags)
		}
		if prev, ok := byValue[m.tag.Value]; ok {
			prevSpan := prev.entity.Span()
			diagnostics.CannotHaveDuplicateTag(ident).
				SetSpan(m.entity.Span()).
				SetScope(m.entity.ScopedIdentifier()).
				AddNote(fmt.Sprintf(
					"The tag '%d' is already being used by member '%s'",
					m.tag.Value, prev.entity.Identifier(),
				), &prevSpan).
				PushInto(diags)
			continue
		}
		byValue[m.tag.Value] = m
	}
}

func validateClass(c *grammar.Class, diags *diagnostics.Diagnostics) {
	validateMembers(fieldMembers(c.Fields), diags)
	if c.CompactID != nil && (c.CompactID.Value < 0 || c.CompactID.Value > math.MaxInt32) {
		diagnostics.CompactIdOutOfBounds().
			SetSpan(c.CompactID.Span).
			SetScope(c.ScopedIdentifier()).
			PushInto(diags)
	}
}
