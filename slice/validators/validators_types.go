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

func validateTypeRef(user grammar.Entity, ref *grammar.TypeRef, diags *diagnostics.Diagnostics) {
	if ref == nil {
		return
	}
	validateTypeRefAttributes(user, ref, diags)
	validateDeprecatedUse(user, ref, diags)
	switch def := ref.Definition.(type) {
	case *grammar.Sequence:
		validateTypeRef(user, def.ElementType, diags)
	case *grammar.Dictionary:
		validateDictionaryKey(user, def.KeyType, diags)
		validateTypeRef(user, def.KeyType, diags)
		validateTypeRef(user, def.ValueType, diags)
	}
}

func validateDeprecatedUse(user grammar.Entity, ref *grammar.TypeRef, diags *diagnostics.Diagnostics) {
	target, ok := ref.Definition.(grammar.Entity)
	if !ok {
		return
	}
	deprecated, ok := grammar.IsDeprecated(target)
	if !ok || isWithin(user, target) {
		return
	}
	diagnostics.Deprecated(target.Identifier(), deprecated.Reason).
		SetSpan(ref.Location).
		SetScope(user.ScopedIdentifier()).
		PushInto(diags)
}

// isWithin reports whether e is ancestor or is nested inside it.
func isWithin(e, ancestor grammar.Entity) bool {
	for ; e != nil; e = e.Parent() {
		if e == ancestor {
			return true
		}
	}
	return false
}

func validateDictionaryKey(user grammar.Entity, key *grammar.TypeRef, diags *diagnostics.Diagnostics) {
	reason, ok := dictionaryKeyProblem(key, map[*grammar.Struct]bool{})
	if ok {
		return
	}
	diagnostics.KeyTypeNotSupported(key.TypeString()).
		SetSpan(key.Location).
		SetScope(user.ScopedIdentifier()).
		AddNote(reason, nil).
		PushInto(diags)
}

// dictionaryKeyProblem returns false and a reason when key cannot be used
// as a dictionary key.
func dictionaryKeyProblem(key *grammar.TypeRef, visiting map[*grammar.Struct]bool) (string, bool) {
	if key.Optional {
		return "optional types cannot be used as dictionary keys", false
	}
	switch def := key.Concrete().(type) {
	case grammar.Primitive:
		if def.IsFloatingPoint() {
			return "floating point types cannot be used as dictionary keys", false
		}
		if def == grammar.PrimitiveAnyClass {
			return "classes cannot be used as dictionary keys", false
		}
		return "", true
	case *grammar.Enum, *grammar.CustomType, *grammar.Unresolved:
		return "", true
	case *grammar.Struct:
		if !def.Compact {
			return fmt.Sprintf("struct '%s' must be compact to be used as a dictionary key", def.Ident), false
		}
		if visiting[def] {
			return "", true
		}
		visiting[def] = true
		for _, f := range def.Fields {
			if reason, ok := dictionaryKeyProblem(f.DataType, visiting); !ok {
				return fmt.Sprintf("field '%s' of struct '%s' cannot be used as a dictionary key: %s", f.Ident, def.Ident, reason), false
			}
		}
		return "", true
	case grammar.Type:
		return fmt.Sprintf("%s types cannot be used as dictionary keys", def.Kind()), false
	}
	return "", true
}

func validateEnum(enum *grammar.Enum, diags *diagnostics.Diagnostics) {
	if len(enum.Enumerators) == 0 {
		diagnostics.MustContainEnumerators(enum.Ident).
			SetSpan(enum.Location).
			SetScope(enum.ScopedIdentifier()).
			PushInto(diags)
	}
	redefinitions(enum.Enumerators, diags)

	lo, hi := int64(0), int64(math.MaxInt32)
	if enum.File() != nil && enum.File().Mode == grammar.Slice2 {
		lo = math.MinInt32
	}
	if enum.Underlying != nil {
		p, isPrimitive := enum.Underlying.Concrete().(grammar.Primitive)
		if !isPrimitive || !p.IsIntegral() {
			if enum.Underlying.IsResolved() {
				diagnostics.TypeMismatch("integral type", enum.Underlying.Kind()).
					SetSpan(enum.Underlying.Location).
					SetScope(enum.ScopedIdentifier()).
					PushInto(diags)
			}
			return
		}
		lo, hi, _ = p.IntegralBounds()
	}

	byValue := make(map[int64]*grammar.Enumerator)
	for _, enumerator := range enum.Enumerators {
		span := enumerator.Location
		if enumerator.ValueSpan != nil {
			span = *enumerator.ValueSpan
		}
		if enumerator.Value < lo || enumerator.Value > hi {
			diagnostics.EnumeratorValueOutOfBounds(enumerator.Ident, enumerator.Value, lo, hi).
				SetSpan(span).
				SetScope(enumerator.ScopedIdentifier()).
				PushInto(diags)
		}
		if prev, ok := byValue[enumerator.Value]; ok {
			prevSpan := prev.Location
			diagnostics.DuplicateEnumeratorValue(enumerator.Value).
				SetSpan(span).
				SetScope(enumerator.ScopedIdentifier()).
				AddNote(fmt.Sprintf("the value was previously used by '%s' here:", prev.Ident), &prevSpan).
				PushInto(diags)
			continue
		}
		byValue[enumerator.Value] = enumerator
	}
}
