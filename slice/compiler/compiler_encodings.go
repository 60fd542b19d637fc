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

package compiler

import (
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/validators"
)

// restriction is what a declaration allows on its own, before the types it
// contains are taken into account.
type restriction struct {
	allowed grammar.SupportedEncodings
	reason  string
}

type encodingPatcher struct {
	c   *compiler
	own map[grammar.DeclaredType]restriction

	// tentative holds the narrowing estimate for every declared type while
	// the fixpoint runs. It is nil once encodings have been resolved.
	tentative map[grammar.DeclaredType]grammar.SupportedEncodings
}

// resolveEncodings narrows every declared type to the intersection of its own
// restriction and the encodings of the types it contains. Containment may be
// cyclic, so estimates start at each type's own restriction and shrink until
// nothing changes; only then are they stored on the types.
func (c *compiler) resolveEncodings() {
	p := &encodingPatcher{
		c:         c,
		own:       make(map[grammar.DeclaredType]restriction),
		tentative: make(map[grammar.DeclaredType]grammar.SupportedEncodings),
	}
	var types []grammar.DeclaredType
	contained := make(map[grammar.DeclaredType][]*grammar.TypeRef)
	for e := range c.ast.Entities() {
		dt, ok := e.(grammar.DeclaredType)
		if !ok || dt.EncodingsResolved() {
			continue
		}
		own := ownRestriction(dt)
		p.own[dt] = own
		p.tentative[dt] = own.allowed
		contained[dt] = containedTypes(dt)
		types = append(types, dt)
	}

	for changed := true; changed; {
		changed = false
		for _, dt := range types {
			encodings := p.tentative[dt]
			for _, ref := range contained[dt] {
				encodings = encodings.Intersect(p.encodingsOf(ref.Definition))
			}
			if encodings != p.tentative[dt] {
				p.tentative[dt] = encodings
				changed = true
			}
		}
	}

	for _, dt := range types {
		dt.ResolveSupportedEncodings(p.tentative[dt])
	}
	p.tentative = nil

	for e := range c.ast.Entities() {
		p.check(e)
	}
}

func (p *encodingPatcher) encodingsOf(t grammar.Type) grammar.SupportedEncodings {
	switch t := t.(type) {
	case grammar.DeclaredType:
		if encodings, ok := p.tentative[t]; ok {
			return encodings
		}
		if !t.EncodingsResolved() {
			// Declared outside the AST; nothing narrows it.
			return grammar.AllEncodings()
		}
		return t.SupportedEncodings()
	case *grammar.Sequence:
		encodings := p.encodingsOf(t.ElementType.Definition)
		if t.ElementType.Optional && !t.ElementType.IsClassType() {
			encodings = encodings.Without(grammar.Slice1)
		}
		return encodings
	case *grammar.Dictionary:
		encodings := p.encodingsOf(t.KeyType.Definition).Intersect(p.encodingsOf(t.ValueType.Definition))
		if t.ValueType.Optional && !t.ValueType.IsClassType() {
			encodings = encodings.Without(grammar.Slice1)
		}
		return encodings
	}
	return t.SupportedEncodings()
}

func ownRestriction(dt grammar.DeclaredType) restriction {
	all := grammar.AllEncodings()
	switch dt := dt.(type) {
	case *grammar.Class:
		return restriction{grammar.EncodingsOf(grammar.Slice1), "classes are only supported by the Slice1 mode"}
	case *grammar.Exception:
		if dt.BaseRef != nil {
			return restriction{grammar.EncodingsOf(grammar.Slice1), "exception inheritance is only supported by the Slice1 mode"}
		}
	case *grammar.CustomType:
		return restriction{grammar.EncodingsOf(grammar.Slice2), "custom types are not supported by the Slice1 mode"}
	case *grammar.Enum:
		if dt.Underlying != nil {
			return restriction{grammar.EncodingsOf(grammar.Slice2), "enums with underlying types are not supported by the Slice1 mode"}
		}
		if dt.Unchecked {
			return restriction{grammar.EncodingsOf(grammar.Slice2), "unchecked enums are not supported by the Slice1 mode"}
		}
	case *grammar.Struct:
		if !dt.Compact {
			return restriction{grammar.EncodingsOf(grammar.Slice2), "structs must be 'compact' to be supported by the Slice1 mode"}
		}
	}
	return restriction{allowed: all}
}

func containedTypes(dt grammar.DeclaredType) []*grammar.TypeRef {
	var refs []*grammar.TypeRef
	switch dt := dt.(type) {
	case *grammar.Struct:
		for _, f := range dt.Fields {
			refs = append(refs, f.DataType)
		}
	case *grammar.Class:
		for _, f := range dt.Fields {
			refs = append(refs, f.DataType)
		}
		if dt.BaseRef != nil {
			refs = append(refs, dt.BaseRef)
		}
	case *grammar.Exception:
		for _, f := range dt.Fields {
			refs = append(refs, f.DataType)
		}
		if dt.BaseRef != nil {
			refs = append(refs, dt.BaseRef)
		}
	case *grammar.Enum:
		if dt.Underlying != nil {
			refs = append(refs, dt.Underlying)
		}
	case *grammar.TypeAlias:
		refs = append(refs, dt.Underlying)
	}
	return refs
}

// check reports declarations that their file's mode cannot encode. A
// declaration is only blamed for its own restriction; a contained type that
// is not supported is reported where it is used.
func (p *encodingPatcher) check(e grammar.Entity) {
	file := e.File()
	if file == nil {
		return
	}
	mode := file.Mode
	switch e := e.(type) {
	case grammar.DeclaredType:
		own := p.own[e]
		if !own.allowed.Supports(mode) {
			d := diagnostics.NotSupportedWithEncoding(e.Kind(), e.Identifier(), mode.String()).
				SetSpan(e.Span()).
				SetScope(e.ScopedIdentifier())
			validators.AddModeNotes(d, file)
			d.AddNote(own.reason, nil)
			p.c.push(d)
		}
		if alias, ok := e.(*grammar.TypeAlias); ok {
			p.checkTypeRef(alias, alias.Underlying, mode)
		}
	case *grammar.Field:
		p.checkMember(e, e.DataType, e.Tag != nil, mode)
	case *grammar.Parameter:
		p.checkMember(e, e.DataType, e.Tag != nil, mode)
		if e.IsStreamed && mode == grammar.Slice1 {
			d := diagnostics.NotSupportedWithEncoding("streamed "+e.Kind(), e.Identifier(), mode.String()).
				SetSpan(e.Span()).
				SetScope(e.ScopedIdentifier())
			validators.AddModeNotes(d, file)
			d.AddNote("streaming is only supported by the Slice2 mode", nil)
			p.c.push(d)
		}
	}
}

func (p *encodingPatcher) checkMember(member grammar.Entity, ref *grammar.TypeRef, tagged bool, mode grammar.Mode) {
	if !p.checkTypeRef(member, ref, mode) {
		return
	}
	if mode != grammar.Slice1 {
		return
	}
	if ref.Optional && !tagged && !ref.IsClassType() {
		if _, isProxy := ref.Concrete().(*grammar.Interface); !isProxy {
			d := diagnostics.UnsupportedType(ref.TypeString(), mode.String()).
				SetSpan(ref.Location).
				SetScope(member.ScopedIdentifier())
			validators.AddModeNotes(d, member.File())
			d.AddNote("optional types can only be used with tags in the Slice1 mode", nil)
			p.c.push(d)
		}
	}
	if _, isException := ref.Concrete().(*grammar.Exception); isException {
		d := diagnostics.UnsupportedType(ref.TypeString(), mode.String()).
			SetSpan(ref.Location).
			SetScope(member.ScopedIdentifier())
		validators.AddModeNotes(d, member.File())
		d.AddNote("exceptions can only be used as a data type with the Slice2 mode", nil)
		p.c.push(d)
	}
}

func (p *encodingPatcher) checkTypeRef(user grammar.Entity, ref *grammar.TypeRef, mode grammar.Mode) bool {
	if p.encodingsOf(ref.Definition).Supports(mode) {
		return true
	}
	d := diagnostics.UnsupportedType(ref.TypeString(), mode.String()).
		SetSpan(ref.Location).
		SetScope(user.ScopedIdentifier())
	validators.AddModeNotes(d, user.File())
	p.c.push(d)
	return false
}
