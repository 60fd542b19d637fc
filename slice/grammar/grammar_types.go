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

package grammar

import (
	"fmt"
	"math"

	"github.com/externl/slicec/slice/syntax"
)

type Primitive uint8

const (
	PrimitiveBool Primitive = iota + 1
	PrimitiveInt8
	PrimitiveUInt8
	PrimitiveInt16
	PrimitiveUInt16
	PrimitiveInt32
	PrimitiveUInt32
	PrimitiveVarInt32
	PrimitiveVarUInt32
	PrimitiveInt64
	PrimitiveUInt64
	PrimitiveVarInt62
	PrimitiveVarUInt62
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveString
	PrimitiveAnyClass
)

var primitiveNames = map[Primitive]string{
	PrimitiveBool:      "bool",
	PrimitiveInt8:      "int8",
	PrimitiveUInt8:     "uint8",
	PrimitiveInt16:     "int16",
	PrimitiveUInt16:    "uint16",
	PrimitiveInt32:     "int32",
	PrimitiveUInt32:    "uint32",
	PrimitiveVarInt32:  "varint32",
	PrimitiveVarUInt32: "varuint32",
	PrimitiveInt64:     "int64",
	PrimitiveUInt64:    "uint64",
	PrimitiveVarInt62:  "varint62",
	PrimitiveVarUInt62: "varuint62",
	PrimitiveFloat32:   "float32",
	PrimitiveFloat64:   "float64",
	PrimitiveString:    "string",
	PrimitiveAnyClass:  "AnyClass",
}

var primitivesByName = func() map[string]Primitive {
	out := make(map[string]Primitive, len(primitiveNames))
	for p, name := range primitiveNames {
		out[name] = p
	}
	return out
}()

func PrimitiveByName(name string) (Primitive, bool) {
	p, ok := primitivesByName[name]
	return p, ok
}

func (Primitive) Kind() string { return "primitive" }

func (p Primitive) TypeString() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Primitive(%d)", uint8(p))
}

func (p Primitive) FixedWireSize() (uint32, bool) {
	switch p {
	case PrimitiveBool, PrimitiveInt8, PrimitiveUInt8:
		return 1, true
	case PrimitiveInt16, PrimitiveUInt16:
		return 2, true
	case PrimitiveInt32, PrimitiveUInt32, PrimitiveFloat32:
		return 4, true
	case PrimitiveInt64, PrimitiveUInt64, PrimitiveFloat64:
		return 8, true
	}
	return 0, false
}

func (p Primitive) IsClassType() bool {
	return p == PrimitiveAnyClass
}

func (p Primitive) TagFormat() (TagFormat, bool) {
	if !p.SupportedEncodings().Supports(Slice1) {
		return 0, false
	}
	switch p {
	case PrimitiveString:
		return TagFormatOptimizedVSize, true
	case PrimitiveAnyClass:
		return TagFormatClass, true
	}
	switch size, _ := p.FixedWireSize(); size {
	case 1:
		return TagFormatF1, true
	case 2:
		return TagFormatF2, true
	case 4:
		return TagFormatF4, true
	case 8:
		return TagFormatF8, true
	}
	return 0, false
}

func (p Primitive) SupportedEncodings() SupportedEncodings {
	switch p {
	case PrimitiveBool, PrimitiveUInt8, PrimitiveInt16, PrimitiveInt32,
		PrimitiveInt64, PrimitiveFloat32, PrimitiveFloat64, PrimitiveString:
		return AllEncodings()
	case PrimitiveAnyClass:
		return EncodingsOf(Slice1)
	}
	return EncodingsOf(Slice2)
}

func (p Primitive) IsIntegral() bool {
	_, _, ok := p.IntegralBounds()
	return ok
}

func (p Primitive) IsFloatingPoint() bool {
	return p == PrimitiveFloat32 || p == PrimitiveFloat64
}

// IntegralBounds is the inclusive range of an integral primitive. The upper
// bound of uint64 is clamped to the int64 range.
func (p Primitive) IntegralBounds() (lo, hi int64, ok bool) {
	switch p {
	case PrimitiveInt8:
		return math.MinInt8, math.MaxInt8, true
	case PrimitiveUInt8:
		return 0, math.MaxUint8, true
	case PrimitiveInt16:
		return math.MinInt16, math.MaxInt16, true
	case PrimitiveUInt16:
		return 0, math.MaxUint16, true
	case PrimitiveInt32, PrimitiveVarInt32:
		return math.MinInt32, math.MaxInt32, true
	case PrimitiveUInt32, PrimitiveVarUInt32:
		return 0, math.MaxUint32, true
	case PrimitiveInt64:
		return math.MinInt64, math.MaxInt64, true
	case PrimitiveUInt64:
		return 0, math.MaxInt64, true
	case PrimitiveVarInt62:
		return -(1 << 61), (1 << 61) - 1, true
	case PrimitiveVarUInt62:
		return 0, (1 << 62) - 1, true
	}
	return 0, 0, false
}

type Sequence struct {
	ElementType *TypeRef
}

func (*Sequence) Kind() string { return "sequence" }

func (s *Sequence) TypeString() string {
	return fmt.Sprintf("sequence<%s>", s.ElementType.TypeString())
}

func (*Sequence) FixedWireSize() (uint32, bool) { return 0, false }

func (*Sequence) IsClassType() bool { return false }

func (s *Sequence) TagFormat() (TagFormat, bool) {
	if _, ok := s.ElementType.TagFormat(); !ok {
		return 0, false
	}
	switch size, ok := s.ElementType.FixedWireSize(); {
	case ok && size == 1:
		return TagFormatOptimizedVSize, true
	case ok:
		return TagFormatVSize, true
	}
	return TagFormatFSize, true
}

func (s *Sequence) SupportedEncodings() SupportedEncodings {
	encodings := s.ElementType.SupportedEncodings()
	if s.ElementType.Optional && !s.ElementType.IsClassType() {
		encodings = encodings.Without(Slice1)
	}
	return encodings
}

type Dictionary struct {
	KeyType   *TypeRef
	ValueType *TypeRef
}

func (*Dictionary) Kind() string { return "dictionary" }

func (d *Dictionary) TypeString() string {
	return fmt.Sprintf("dictionary<%s, %s>", d.KeyType.TypeString(), d.ValueType.TypeString())
}

func (*Dictionary) FixedWireSize() (uint32, bool) { return 0, false }

func (*Dictionary) IsClassType() bool { return false }

func (d *Dictionary) TagFormat() (TagFormat, bool) {
	if _, ok := d.KeyType.TagFormat(); !ok {
		return 0, false
	}
	if _, ok := d.ValueType.TagFormat(); !ok {
		return 0, false
	}
	_, keyFixed := d.KeyType.FixedWireSize()
	_, valueFixed := d.ValueType.FixedWireSize()
	if keyFixed && valueFixed {
		return TagFormatVSize, true
	}
	return TagFormatFSize, true
}

func (d *Dictionary) SupportedEncodings() SupportedEncodings {
	encodings := d.KeyType.SupportedEncodings().Intersect(d.ValueType.SupportedEncodings())
	if d.ValueType.Optional && !d.ValueType.IsClassType() {
		encodings = encodings.Without(Slice1)
	}
	return encodings
}

// Unresolved stands in for a type reference that could not be linked. It
// claims support for every encoding so that a missing type is reported once.
type Unresolved struct {
	Name string
}

func (*Unresolved) Kind() string                           { return "unresolved type" }
func (u *Unresolved) TypeString() string                   { return u.Name }
func (*Unresolved) FixedWireSize() (uint32, bool)          { return 0, false }
func (*Unresolved) IsClassType() bool                      { return false }
func (*Unresolved) TagFormat() (TagFormat, bool)           { return 0, false }
func (*Unresolved) SupportedEncodings() SupportedEncodings { return AllEncodings() }

// TypeRef is a use of a type, with its own optionality and attributes.
type TypeRef struct {
	Definition Type
	Optional   bool
	Attrs      []*Attribute
	Location   syntax.Span
}

func (r *TypeRef) Kind() string {
	return r.Definition.Kind()
}

func (r *TypeRef) TypeString() string {
	if r.Optional {
		return r.Definition.TypeString() + "?"
	}
	return r.Definition.TypeString()
}

func (r *TypeRef) FixedWireSize() (uint32, bool) {
	if r.Optional {
		return 0, false
	}
	return r.Definition.FixedWireSize()
}

func (r *TypeRef) IsClassType() bool {
	return r.Definition.IsClassType()
}

func (r *TypeRef) TagFormat() (TagFormat, bool) {
	return r.Definition.TagFormat()
}

func (r *TypeRef) SupportedEncodings() SupportedEncodings {
	return r.Definition.SupportedEncodings()
}

func (r *TypeRef) Span() syntax.Span {
	return r.Location
}

func (r *TypeRef) Attributes() []*Attribute {
	return r.Attrs
}

func (r *TypeRef) IsResolved() bool {
	_, unresolved := r.Definition.(*Unresolved)
	return !unresolved
}

// Concrete follows type aliases to the underlying definition.
func (r *TypeRef) Concrete() Type {
	def := r.Definition
	seen := map[*TypeAlias]bool{}
	for {
		alias, ok := def.(*TypeAlias)
		if !ok || seen[alias] {
			return def
		}
		seen[alias] = true
		def = alias.Underlying.Definition
	}
}

// UsesClasses reports whether values of t can contain class instances.
func UsesClasses(t Type) bool {
	return usesClasses(t, map[Type]bool{})
}

func usesClasses(t Type, seen map[Type]bool) bool {
	if ref, ok := t.(*TypeRef); ok {
		t = ref.Definition
	}
	if t.IsClassType() {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t := t.(type) {
	case *Sequence:
		return usesClasses(t.ElementType, seen)
	case *Dictionary:
		return usesClasses(t.KeyType, seen) || usesClasses(t.ValueType, seen)
	case *TypeAlias:
		return usesClasses(t.Underlying, seen)
	case *Struct:
		for _, f := range t.Fields {
			if usesClasses(f.DataType, seen) {
				return true
			}
		}
	case *Exception:
		for _, f := range t.AllFields() {
			if usesClasses(f.DataType, seen) {
				return true
			}
		}
	}
	return false
}
