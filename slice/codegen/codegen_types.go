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

package codegen

import (
	"fmt"
	"slices"

	"github.com/externl/slicec/slice/grammar"
)

// Go type and runtime method suffix of each primitive.
var primitives = map[grammar.Primitive]struct{ goType, method string }{
	grammar.PrimitiveBool:      {"bool", "Bool"},
	grammar.PrimitiveInt8:      {"int8", "Int8"},
	grammar.PrimitiveUInt8:     {"uint8", "UInt8"},
	grammar.PrimitiveInt16:     {"int16", "Int16"},
	grammar.PrimitiveUInt16:    {"uint16", "UInt16"},
	grammar.PrimitiveInt32:     {"int32", "Int32"},
	grammar.PrimitiveUInt32:    {"uint32", "UInt32"},
	grammar.PrimitiveVarInt32:  {"int32", "VarInt32"},
	grammar.PrimitiveVarUInt32: {"uint32", "VarUInt32"},
	grammar.PrimitiveInt64:     {"int64", "Int64"},
	grammar.PrimitiveUInt64:    {"uint64", "UInt64"},
	grammar.PrimitiveVarInt62:  {"int64", "VarInt62"},
	grammar.PrimitiveVarUInt62: {"uint64", "VarUInt62"},
	grammar.PrimitiveFloat32:   {"float32", "Float32"},
	grammar.PrimitiveFloat64:   {"float64", "Float64"},
	grammar.PrimitiveString:    {"string", "String"},
}

// resolve follows type aliases, returning the concrete definition and
// whether the reference is optional through any alias on the way.
func resolve(ref *grammar.TypeRef) (grammar.Type, bool) {
	def, optional := ref.Definition, ref.Optional
	seen := map[*grammar.TypeAlias]bool{}
	for {
		alias, ok := def.(*grammar.TypeAlias)
		if !ok || seen[alias] {
			return def, optional
		}
		seen[alias] = true
		optional = optional || alias.Underlying.Optional
		def = alias.Underlying.Definition
	}
}

// needsPointer reports whether an optional value of def is represented by a
// pointer. Class references are already nilable.
func needsPointer(def grammar.Type, optional bool) bool {
	return optional && !def.IsClassType()
}

func (g *generator) goType(ref *grammar.TypeRef) string {
	def, optional := resolve(ref)
	if needsPointer(def, optional) {
		return "*" + g.baseType(def)
	}
	return g.baseType(def)
}

// baseType is the Go type of a non-optional value of def.
func (g *generator) baseType(def grammar.Type) string {
	switch def := def.(type) {
	case grammar.Primitive:
		if def == grammar.PrimitiveAnyClass {
			return g.rt("Class")
		}
		return primitives[def].goType
	case *grammar.Struct:
		return g.qualify(def, "", "")
	case *grammar.Exception:
		return g.qualify(def, "", "")
	case *grammar.Enum:
		return g.qualify(def, "", "")
	case *grammar.CustomType:
		return g.qualify(def, "", "")
	case *grammar.Class:
		return "*" + g.qualify(def, "", "")
	case *grammar.Interface:
		return g.qualify(def, "", "Proxy")
	case *grammar.Sequence:
		return "[]" + g.goType(def.ElementType)
	case *grammar.Dictionary:
		return fmt.Sprintf("map[%s]%s", g.goType(def.KeyType), g.goType(def.ValueType))
	}
	panic(fmt.Sprintf("codegen: no Go type for %s (%T)", def.TypeString(), def))
}

func (g *generator) encodingName(mode grammar.Mode) string {
	return g.rt(mode.String())
}

func (g *generator) tagFormat(ref *grammar.TypeRef) string {
	format, ok := ref.TagFormat()
	if !ok {
		// Slice2 does not write tag formats.
		return g.rt("TagVSize")
	}
	return g.rt("Tag" + format.String())
}

// deref returns the value pointed to by expr.
func deref(expr string) string {
	return "*" + expr
}

// addr returns a pointer to the addressable expression expr.
func addr(expr string) string {
	if len(expr) > 1 && expr[0] == '*' {
		return expr[1:]
	}
	return "&" + expr
}

// recv makes expr usable as the operand of a method call.
func recv(expr string) string {
	if len(expr) > 0 && expr[0] == '*' {
		return "(" + expr + ")"
	}
	return expr
}

// Values {{{

// encodeValue writes statements that encode expr, a non-optional value of
// def.
func (g *generator) encodeValue(b *CodeBlock, def grammar.Type, expr string, mode grammar.Mode) {
	switch def := def.(type) {
	case grammar.Primitive:
		if def == grammar.PrimitiveAnyClass {
			b.Linef("enc.EncodeClass(%s)", expr)
			return
		}
		b.Linef("enc.Encode%s(%s)", primitives[def].method, expr)
	case *grammar.Struct, *grammar.Exception:
		b.Linef("%s.Encode(enc)", recv(expr))
	case *grammar.Enum:
		b.Linef("%s(enc, %s)", g.qualify(def, "Encode", ""), expr)
	case *grammar.CustomType:
		b.Linef("%s.Encode(enc, %s)", g.qualify(def, "", "Codec"), expr)
	case *grammar.Class:
		b.Linef("enc.EncodeClass(%s)", expr)
	case *grammar.Interface:
		b.Linef("enc.EncodeProxy(%s.Proxy)", recv(expr))
	case *grammar.Sequence:
		g.encodeSequence(b, def, expr, mode)
	case *grammar.Dictionary:
		g.encodeDictionary(b, def, expr, mode)
	default:
		panic(fmt.Sprintf("codegen: cannot encode %s (%T)", def.TypeString(), def))
	}
}

// encodeAny encodes expr where no bit sequence records its presence. The
// only optional values allowed there are class references and Slice1
// proxies.
func (g *generator) encodeAny(b *CodeBlock, def grammar.Type, optional bool, expr string, mode grammar.Mode) {
	if !needsPointer(def, optional) {
		g.encodeValue(b, def, expr, mode)
		return
	}
	if _, isProxy := def.(*grammar.Interface); isProxy && mode == grammar.Slice1 {
		b.open("if %s != nil {", expr)
		b.Linef("enc.EncodeNullableProxy(&%s.Proxy)", expr)
		b.middle("} else {")
		b.Line("enc.EncodeNullableProxy(nil)")
		b.close("}")
		return
	}
	g.encodeValue(b, def, deref(expr), mode)
}

func (g *generator) encodeSequence(b *CodeBlock, seq *grammar.Sequence, expr string, mode grammar.Mode) {
	elemDef, elemOptional := resolve(seq.ElementType)
	elemType := g.goType(seq.ElementType)
	e := g.fresh("e")
	if needsPointer(elemDef, elemOptional) && mode == grammar.Slice2 {
		b.open("%s(enc, %s, func(%s %s) bool { return %s != nil }, func(enc *%s, %s %s) {",
			g.rt("EncodeOptionalSequence"), expr, e, elemType, e, g.rt("Encoder"), e, elemType)
		g.encodeValue(b, elemDef, deref(e), mode)
		b.close("})")
		return
	}
	b.open("%s(enc, %s, func(enc *%s, %s %s) {", g.rt("EncodeSequence"), expr, g.rt("Encoder"), e, elemType)
	g.encodeAny(b, elemDef, elemOptional, e, mode)
	b.close("})")
}

func (g *generator) encodeDictionary(b *CodeBlock, dict *grammar.Dictionary, expr string, mode grammar.Mode) {
	keyDef, _ := resolve(dict.KeyType)
	valueDef, valueOptional := resolve(dict.ValueType)
	keyType, valueType := g.goType(dict.KeyType), g.goType(dict.ValueType)
	k, e := g.fresh("k"), g.fresh("e")
	bitSequence := needsPointer(valueDef, valueOptional) && mode == grammar.Slice2

	helper := "EncodeDictionary"
	if bitSequence {
		helper = "EncodeOptionalDictionary"
	}
	b.open("%s(enc, %s, func(enc *%s, %s %s) {", g.rt(helper), expr, g.rt("Encoder"), k, keyType)
	g.encodeValue(b, keyDef, k, mode)
	if bitSequence {
		b.middle("}, func(%s %s) bool { return %s != nil }, func(enc *%s, %s %s) {",
			e, valueType, e, g.rt("Encoder"), e, valueType)
		g.encodeValue(b, valueDef, deref(e), mode)
	} else {
		b.middle("}, func(enc *%s, %s %s) {", g.rt("Encoder"), e, valueType)
		g.encodeAny(b, valueDef, valueOptional, e, mode)
	}
	b.close("})")
}

// decodeValue writes statements that decode a non-optional value of def
// into target, which must be addressable.
func (g *generator) decodeValue(b *CodeBlock, def grammar.Type, target string, mode grammar.Mode) {
	switch def := def.(type) {
	case grammar.Primitive:
		if def == grammar.PrimitiveAnyClass {
			b.Linef("%s(dec, %s)", g.rt("DecodeClassInto"), addr(target))
			return
		}
		b.Linef("%s = dec.Decode%s()", target, primitives[def].method)
	case *grammar.Struct, *grammar.Exception:
		b.Linef("%s.Decode(dec)", recv(target))
	case *grammar.Enum:
		b.Linef("%s = %s(dec)", target, g.qualify(def, "Decode", ""))
	case *grammar.CustomType:
		b.Linef("%s = %s.Decode(dec)", target, g.qualify(def, "", "Codec"))
	case *grammar.Class:
		b.Linef("%s(dec, %s)", g.rt("DecodeClassInto"), addr(target))
	case *grammar.Interface:
		b.Linef("%s = %s{Proxy: dec.DecodeProxy()}", target, g.qualify(def, "", "Proxy"))
	case *grammar.Sequence:
		g.decodeSequence(b, def, target, mode)
	case *grammar.Dictionary:
		g.decodeDictionary(b, def, target, mode)
	default:
		panic(fmt.Sprintf("codegen: cannot decode %s (%T)", def.TypeString(), def))
	}
}

// decodeOptional allocates the value behind the pointer target, then
// decodes into it.
func (g *generator) decodeOptional(b *CodeBlock, def grammar.Type, target string, mode grammar.Mode) {
	if def.IsClassType() {
		g.decodeValue(b, def, target, mode)
		return
	}
	b.Linef("%s = new(%s)", target, g.baseType(def))
	g.decodeValue(b, def, deref(target), mode)
}

// decodeAny is the counterpart of encodeAny.
func (g *generator) decodeAny(b *CodeBlock, def grammar.Type, optional bool, target string, mode grammar.Mode) {
	if !needsPointer(def, optional) {
		g.decodeValue(b, def, target, mode)
		return
	}
	if iface, isProxy := def.(*grammar.Interface); isProxy && mode == grammar.Slice1 {
		p := g.fresh("p")
		b.open("if %s := dec.DecodeNullableProxy(); %s != nil {", p, p)
		b.Linef("%s = &%s{Proxy: *%s}", target, g.qualify(iface, "", "Proxy"), p)
		b.close("}")
		return
	}
	g.decodeOptional(b, def, target, mode)
}

func (g *generator) decodeSequence(b *CodeBlock, seq *grammar.Sequence, target string, mode grammar.Mode) {
	elemDef, elemOptional := resolve(seq.ElementType)
	elemType := g.goType(seq.ElementType)
	e := g.fresh("e")
	if needsPointer(elemDef, elemOptional) && mode == grammar.Slice2 {
		b.open("%s = %s(dec, func(dec *%s, %s *%s) {",
			target, g.rt("DecodeOptionalSequence"), g.rt("Decoder"), e, elemType)
		g.decodeOptional(b, elemDef, deref(e), mode)
		b.close("})")
		return
	}
	b.open("%s = %s(dec, func(dec *%s, %s *%s) {", target, g.rt("DecodeSequence"), g.rt("Decoder"), e, elemType)
	g.decodeAny(b, elemDef, elemOptional, deref(e), mode)
	b.close("})")
}

func (g *generator) decodeDictionary(b *CodeBlock, dict *grammar.Dictionary, target string, mode grammar.Mode) {
	keyDef, _ := resolve(dict.KeyType)
	valueDef, valueOptional := resolve(dict.ValueType)
	keyType, valueType := g.goType(dict.KeyType), g.goType(dict.ValueType)
	k, e := g.fresh("k"), g.fresh("e")
	bitSequence := needsPointer(valueDef, valueOptional) && mode == grammar.Slice2

	helper := "DecodeDictionary"
	if bitSequence {
		helper = "DecodeOptionalDictionary"
	}
	b.open("%s = %s(dec, func(dec *%s) %s {", target, g.rt(helper), g.rt("Decoder"), keyType)
	b.Linef("var %s %s", k, keyType)
	g.decodeValue(b, keyDef, k, mode)
	b.Linef("return %s", k)
	b.middle("}, func(dec *%s, %s *%s) {", g.rt("Decoder"), e, valueType)
	if bitSequence {
		g.decodeOptional(b, valueDef, deref(e), mode)
	} else {
		g.decodeAny(b, valueDef, valueOptional, deref(e), mode)
	}
	b.close("})")
}

// }}}

// Member lists {{{

// member is a field or parameter, referenced in generated code by expr.
type member struct {
	expr string
	ref  *grammar.TypeRef
	tag  *grammar.Integer
}

func fieldMembers(fields []*grammar.Field, prefix string) []member {
	out := make([]member, 0, len(fields))
	for _, f := range fields {
		out = append(out, member{expr: prefix + fieldName(f.Ident), ref: f.DataType, tag: f.Tag})
	}
	return out
}

// splitMembers separates untagged members, which keep declaration order,
// from tagged members, which are sorted by tag.
func splitMembers(members []member) (required, tagged []member) {
	for _, m := range members {
		if m.tag == nil {
			required = append(required, m)
		} else {
			tagged = append(tagged, m)
		}
	}
	slices.SortStableFunc(tagged, func(a, b member) int {
		return int(a.tag.Value - b.tag.Value)
	})
	return required, tagged
}

// bitSequenceSize counts the members whose presence is recorded in a
// Slice2 bit sequence.
func bitSequenceSize(required []member, mode grammar.Mode) int {
	if mode != grammar.Slice2 {
		return 0
	}
	n := 0
	for _, m := range required {
		if def, optional := resolve(m.ref); needsPointer(def, optional) {
			n += 1
		}
	}
	return n
}

func (g *generator) encodeMembers(b *CodeBlock, members []member, mode grammar.Mode) {
	required, tagged := splitMembers(members)
	bits := bitSequenceSize(required, mode) > 0
	if bits {
		b.Linef("bits := enc.EncodeBitSequence(%d)", bitSequenceSize(required, mode))
	}
	for _, m := range required {
		def, optional := resolve(m.ref)
		if bits && needsPointer(def, optional) {
			b.Linef("bits.Next(%s != nil)", m.expr)
			b.open("if %s != nil {", m.expr)
			g.encodeValue(b, def, deref(m.expr), mode)
			b.close("}")
			continue
		}
		g.encodeAny(b, def, optional, m.expr, mode)
	}
	for _, m := range tagged {
		def, _ := resolve(m.ref)
		b.open("if %s != nil {", m.expr)
		b.open("enc.EncodeTagged(%d, %s, func(enc *%s) {", m.tag.Value, g.tagFormat(m.ref), g.rt("Encoder"))
		if def.IsClassType() {
			g.encodeValue(b, def, m.expr, mode)
		} else {
			g.encodeValue(b, def, deref(m.expr), mode)
		}
		b.close("})")
		b.close("}")
	}
}

func (g *generator) decodeMembers(b *CodeBlock, members []member, mode grammar.Mode) {
	required, tagged := splitMembers(members)
	bits := bitSequenceSize(required, mode) > 0
	if bits {
		b.Linef("bits := dec.DecodeBitSequence(%d)", bitSequenceSize(required, mode))
	}
	for _, m := range required {
		def, optional := resolve(m.ref)
		if bits && needsPointer(def, optional) {
			b.open("if bits.Next() {")
			g.decodeOptional(b, def, m.expr, mode)
			b.close("}")
			continue
		}
		g.decodeAny(b, def, optional, m.expr, mode)
	}
	for _, m := range tagged {
		def, _ := resolve(m.ref)
		b.open("dec.DecodeTagged(%d, %s, func(dec *%s) {", m.tag.Value, g.tagFormat(m.ref), g.rt("Decoder"))
		g.decodeOptional(b, def, m.expr, mode)
		b.close("})")
	}
}

func hasTagged(members []member) bool {
	return slices.ContainsFunc(members, func(m member) bool { return m.tag != nil })
}

func hasClasses(members []member) bool {
	return slices.ContainsFunc(members, func(m member) bool { return grammar.UsesClasses(m.ref) })
}

// }}}
