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
	"strconv"
	"strings"

	"github.com/externl/slicec/slice/grammar"
)

// add appends a declaration to the current block, separated from the
// previous one by a blank line.
// add appends a finished declaration. Temporaries are numbered per
// declaration, so the next one starts again from 1.
func (g *generator) add(decl *CodeBlock) {
	if !g.cur.IsEmpty() {
		g.cur.Line("")
	}
	g.cur.appendBlock(decl)
	g.temp = 0
}

func (g *generator) doc(e grammar.Entity) []string {
	var lines []string
	if c := e.Comment(); c != nil {
		if overview := strings.TrimSpace(c.Overview); overview != "" {
			for _, l := range strings.Split(overview, "\n") {
				lines = append(lines, strings.TrimSpace(l))
			}
		}
	}
	if d, ok := grammar.FindAttribute[*grammar.Deprecated](e.Attributes()); ok {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		if d.Reason != "" {
			lines = append(lines, "Deprecated: "+d.Reason)
		} else {
			lines = append(lines, fmt.Sprintf("Deprecated: %s is deprecated.", e.Identifier()))
		}
	}
	return lines
}

// modesOf returns the encodings that the generated code of t handles.
func modesOf(t grammar.DeclaredType) []grammar.Mode {
	if modes := t.SupportedEncodings().Modes(); len(modes) > 0 {
		return modes
	}
	return []grammar.Mode{t.File().Mode}
}

func supports(modes []grammar.Mode, mode grammar.Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// byEncoding writes body once per mode. With more than one mode, the
// generated code chooses a branch from the encoding of subject, which is an
// encoder or decoder. Branches that come out identical are written once.
func (g *generator) byEncoding(b *CodeBlock, subject string, modes []grammar.Mode, body func(*CodeBlock, grammar.Mode)) {
	start := g.temp
	branches := make([]*CodeBlock, len(modes))
	for ii, mode := range modes {
		g.temp = start
		branches[ii] = &CodeBlock{}
		body(branches[ii], mode)
	}
	if len(branches) == 1 || branches[0].String() == branches[1].String() {
		b.appendBlock(branches[0])
		return
	}
	b.open("if %s.Encoding() == %s {", subject, g.encodingName(modes[0]))
	b.appendBlock(branches[0])
	b.Line("return")
	b.close("}")
	b.appendBlock(branches[1])
}

// paramNames returns a distinct parameter name for each identifier.
func paramNames(idents []string) []string {
	out := make([]string, len(idents))
	seen := map[string]bool{}
	for ii, ident := range idents {
		name := unexportedName(ident)
		for jj := 2; seen[name]; jj++ {
			name = unexportedName(ident) + strconv.Itoa(jj)
		}
		seen[name] = true
		out[ii] = name
	}
	return out
}

// defaultValue is the Go expression of a field's default value.
func (g *generator) defaultValue(f *grammar.Field) (string, bool) {
	if f.Default == nil {
		return "", false
	}
	def, optional := resolve(f.DataType)
	if optional {
		return "", false
	}
	text := strings.TrimSpace(f.Default.Text)
	if enum, ok := def.(*grammar.Enum); ok {
		enumerator, ok := enum.Enumerator(text[strings.LastIndex(text, ":")+1:])
		if !ok {
			return "", false
		}
		return g.qualify(enum, "", exportedName(enumerator.Ident)), true
	}
	return text, true
}

// Structs {{{

func (g *generator) visitStruct(s *grammar.Struct) {
	name := typeName(s)
	container := NewContainerBuilder("struct", name).AddComment(g.doc(s)...)
	for _, f := range s.Fields {
		container.AddMember("%s %s", fieldName(f.Ident), g.goType(f.DataType))
	}
	g.add(container.Build())

	ctor := NewFunctionBuilder("New" + name).AddResult(name)
	var inits []string
	names := paramNames(identsOf(s.Fields))
	for ii, f := range s.Fields {
		ctor.AddParameter(names[ii], g.goType(f.DataType))
		inits = append(inits, fmt.Sprintf("%s: %s", fieldName(f.Ident), names[ii]))
	}
	ctor.Body().Linef("return %s{%s}", name, strings.Join(inits, ", "))
	g.add(ctor.Build())

	members := fieldMembers(s.Fields, "v.")
	endMarker := func(mode grammar.Mode) bool {
		return (mode == grammar.Slice2 && !s.Compact) || hasTagged(members)
	}
	modes := modesOf(s)

	encode := NewFunctionBuilder("Encode").
		SetReceiver("v *"+name).
		AddParameter("enc", "*"+g.rt("Encoder"))
	g.byEncoding(encode.Body(), "enc", modes, func(b *CodeBlock, mode grammar.Mode) {
		g.encodeMembers(b, members, mode)
		if endMarker(mode) {
			b.Line("enc.EncodeTagEndMarker()")
		}
	})
	g.add(encode.Build())

	decode := NewFunctionBuilder("Decode").
		SetReceiver("v *"+name).
		AddParameter("dec", "*"+g.rt("Decoder"))
	g.byEncoding(decode.Body(), "dec", modes, func(b *CodeBlock, mode grammar.Mode) {
		g.decodeMembers(b, members, mode)
		if endMarker(mode) {
			b.Line("dec.SkipTaggedUntilEndMarker()")
		}
	})
	g.add(decode.Build())
}

func identsOf(fields []*grammar.Field) []string {
	out := make([]string, len(fields))
	for ii, f := range fields {
		out[ii] = f.Ident
	}
	return out
}

// }}}

// Classes {{{

// lineageField is a field of a class or exception hierarchy, with its path
// from the most-derived value.
type lineageField struct {
	field *grammar.Field
	path  string
}

// lineageFields lists the fields of a hierarchy, base fields first. lineage
// is ordered most derived first.
func lineageFields(lineage []grammar.Entity, fields func(int) []*grammar.Field) []lineageField {
	var out []lineageField
	for ii := len(lineage) - 1; ii >= 0; ii-- {
		path := "v."
		for _, ancestor := range lineage[1 : ii+1] {
			path += typeName(ancestor) + "."
		}
		for _, f := range fields(ii) {
			out = append(out, lineageField{field: f, path: path + fieldName(f.Ident)})
		}
	}
	return out
}

func classLineage(c *grammar.Class) ([]grammar.Entity, func(int) []*grammar.Field) {
	classes := c.Lineage()
	out := make([]grammar.Entity, len(classes))
	for ii, class := range classes {
		out[ii] = class
	}
	return out, func(ii int) []*grammar.Field { return classes[ii].Fields }
}

func exceptionLineage(e *grammar.Exception) ([]grammar.Entity, func(int) []*grammar.Field) {
	exceptions := e.Lineage()
	out := make([]grammar.Entity, len(exceptions))
	for ii, exception := range exceptions {
		out[ii] = exception
	}
	return out, func(ii int) []*grammar.Field { return exceptions[ii].Fields }
}

func (g *generator) visitClass(c *grammar.Class) {
	name := typeName(c)
	typeIDConst := name + "TypeID"
	compactIDConst := ""

	consts := &CodeBlock{}
	consts.Linef("const %s = %q", typeIDConst, typeID(c))
	if c.CompactID != nil {
		compactIDConst = lowerFirst(name) + "CompactTypeID"
		consts.Linef("const %s int32 = %d", compactIDConst, c.CompactID.Value)
	}
	g.add(consts)

	container := NewContainerBuilder("struct", name).AddComment(g.doc(c)...)
	if c.Base != nil {
		container.AddMember("%s", g.qualify(c.Base, "", ""))
	} else {
		container.AddMember("%s", g.rt("AnyClass"))
	}
	for _, f := range c.Fields {
		container.AddMember("%s %s", fieldName(f.Ident), g.goType(f.DataType))
	}
	g.add(container.Build())

	g.constructors(name, "*"+name, "&"+name+"{}", lineageFields(classLineage(c)))

	members := fieldMembers(c.Fields, "v.")
	encode := NewFunctionBuilder("EncodeSlices").
		SetReceiver("v *"+name).
		AddParameter("enc", "*"+g.rt("Encoder"))
	body := encode.Body()
	if compactIDConst != "" {
		body.Linef("enc.StartSlice(%s, %s)", typeIDConst, compactIDConst)
	} else {
		body.Linef("enc.StartSlice(%s)", typeIDConst)
	}
	g.encodeMembers(body, members, grammar.Slice1)
	body.Linef("enc.EndSlice(%t)", c.Base == nil)
	if c.Base != nil {
		body.Linef("v.%s.EncodeSlices(enc)", typeName(c.Base))
	}
	g.add(encode.Build())

	decode := NewFunctionBuilder("DecodeSlices").
		SetReceiver("v *"+name).
		AddParameter("dec", "*"+g.rt("Decoder"))
	body = decode.Body()
	body.Line("dec.StartSlice()")
	g.decodeMembers(body, members, grammar.Slice1)
	body.Line("dec.EndSlice()")
	if c.Base != nil {
		body.Linef("v.%s.DecodeSlices(dec)", typeName(c.Base))
	}
	g.add(decode.Build())

	factory := "new" + name + "ForDecode"
	forDecode := NewFunctionBuilder(factory).
		AddParameter("dec", "*"+g.rt("Decoder")).
		AddResult(g.rt("Class"))
	forDecode.Body().Linef("return &%s{}", name)
	g.add(forDecode.Build())

	compactID := "-1"
	if compactIDConst != "" {
		compactID = compactIDConst
	}
	register := NewFunctionBuilder("init")
	register.Body().Linef("%s(%s, %s, %s)", g.rt("RegisterClass"), typeIDConst, compactID, factory)
	g.add(register.Build())
}

// constructors emits the one-shot constructor and, when some fields can be
// left out, the constructor that fills them with their defaults.
func (g *generator) constructors(name, result, zero string, fields []lineageField) {
	if len(fields) == 0 {
		ctor := NewFunctionBuilder("New" + name).AddResult(result)
		ctor.Body().Linef("return %s", zero)
		g.add(ctor.Build())
		return
	}

	idents := make([]string, len(fields))
	for ii, f := range fields {
		idents[ii] = f.field.Ident
	}
	names := paramNames(idents)

	ctor := NewFunctionBuilder("New" + name).AddResult(result)
	ctor.Body().Linef("v := %s", zero)
	for ii, f := range fields {
		ctor.AddParameter(names[ii], g.goType(f.field.DataType))
		ctor.Body().Linef("%s = %s", f.path, names[ii])
	}
	ctor.Body().Line("return v")
	g.add(ctor.Build())

	withDefaults := NewFunctionBuilder("New" + name + "WithDefaults").AddResult(result)
	withDefaults.Body().Linef("v := %s", zero)
	omitted := 0
	for ii, f := range fields {
		if !f.field.IsDefaultInitialized() {
			withDefaults.AddParameter(names[ii], g.goType(f.field.DataType))
			withDefaults.Body().Linef("%s = %s", f.path, names[ii])
			continue
		}
		omitted += 1
		if value, ok := g.defaultValue(f.field); ok {
			withDefaults.Body().Linef("%s = %s", f.path, value)
		}
	}
	withDefaults.Body().Line("return v")
	if omitted > 0 {
		g.add(withDefaults.Build())
	}
}

// }}}

// Exceptions {{{

func (g *generator) visitException(e *grammar.Exception) {
	name := typeName(e)
	modes := modesOf(e)
	typeIDConst := name + "TypeID"

	consts := &CodeBlock{}
	consts.Linef("const %s = %q", typeIDConst, typeID(e))
	g.add(consts)

	container := NewContainerBuilder("struct", name).AddComment(g.doc(e)...)
	if e.Base != nil {
		container.AddMember("%s", g.qualify(e.Base, "", ""))
	}
	for _, f := range e.Fields {
		container.AddMember("%s %s", fieldName(f.Ident), g.goType(f.DataType))
	}
	g.add(container.Build())

	errorMethod := NewFunctionBuilder("Error").SetReceiver("v *" + name).AddResult("string")
	errorMethod.Body().Linef("return \"slice exception \" + %s", typeIDConst)
	g.add(errorMethod.Build())

	fields := lineageFields(exceptionLineage(e))
	g.constructors(name, "*"+name, "&"+name+"{}", fields)

	if supports(modes, grammar.Slice1) {
		g.exceptionSlices(e, name, typeIDConst)
	}
	if supports(modes, grammar.Slice2) {
		members := make([]member, len(fields))
		for ii, f := range fields {
			members[ii] = member{expr: f.path, ref: f.field.DataType, tag: f.field.Tag}
		}

		encode := NewFunctionBuilder("Encode").
			SetReceiver("v *"+name).
			AddParameter("enc", "*"+g.rt("Encoder"))
		g.encodeMembers(encode.Body(), members, grammar.Slice2)
		encode.Body().Line("enc.EncodeTagEndMarker()")
		g.add(encode.Build())

		decode := NewFunctionBuilder("Decode").
			SetReceiver("v *"+name).
			AddParameter("dec", "*"+g.rt("Decoder"))
		g.decodeMembers(decode.Body(), members, grammar.Slice2)
		decode.Body().Line("dec.SkipTaggedUntilEndMarker()")
		g.add(decode.Build())
	}
}

func (g *generator) exceptionSlices(e *grammar.Exception, name, typeIDConst string) {
	members := fieldMembers(e.Fields, "v.")

	encode := NewFunctionBuilder("EncodeSlices").
		SetReceiver("v *"+name).
		AddParameter("enc", "*"+g.rt("Encoder"))
	body := encode.Body()
	body.Linef("enc.StartSlice(%s)", typeIDConst)
	g.encodeMembers(body, members, grammar.Slice1)
	body.Linef("enc.EndSlice(%t)", e.Base == nil)
	if e.Base != nil {
		body.Linef("v.%s.EncodeSlices(enc)", typeName(e.Base))
	}
	g.add(encode.Build())

	decode := NewFunctionBuilder("DecodeSlices").
		SetReceiver("v *"+name).
		AddParameter("dec", "*"+g.rt("Decoder"))
	body = decode.Body()
	body.Line("dec.StartSlice()")
	g.decodeMembers(body, members, grammar.Slice1)
	body.Line("dec.EndSlice()")
	if e.Base != nil {
		body.Linef("v.%s.DecodeSlices(dec)", typeName(e.Base))
	}
	g.add(decode.Build())

	register := NewFunctionBuilder("init")
	register.Body().open("%s(%s, func() %s {", g.rt("RegisterException"), typeIDConst, g.rt("UserException"))
	register.Body().Linef("return &%s{}", name)
	register.Body().close("})")
	g.add(register.Build())
}

// }}}

// Enums {{{

func (g *generator) visitEnum(e *grammar.Enum) {
	name := typeName(e)
	underlying := "int32"
	var underlyingPrim grammar.Primitive
	if e.Underlying != nil {
		if p, ok := e.Underlying.Concrete().(grammar.Primitive); ok {
			underlyingPrim = p
			underlying = primitives[p].goType
		}
	}

	decl := &CodeBlock{}
	decl.comment(g.doc(e))
	decl.Linef("type %s %s", name, underlying)
	g.add(decl)

	consts := &CodeBlock{}
	consts.open("const (")
	for _, enumerator := range e.Enumerators {
		consts.comment(g.doc(enumerator))
		consts.Linef("%s %s = %d", name+exportedName(enumerator.Ident), name, enumerator.Value)
	}
	consts.close(")")
	g.add(consts)

	str := NewFunctionBuilder("String").SetReceiver("v " + name).AddResult("string")
	str.Body().open("switch v {")
	for _, enumerator := range e.Enumerators {
		str.Body().Linef("case %s:", name+exportedName(enumerator.Ident))
		str.Body().Linef("\treturn %q", enumerator.Ident)
	}
	str.Body().close("}")
	g.use("fmt")
	str.Body().Linef("return fmt.Sprintf(\"%s(%%d)\", %s(v))", name, underlying)
	g.add(str.Build())

	if !e.Unchecked {
		valid := NewFunctionBuilder("IsValid").SetReceiver("v " + name).AddResult("bool")
		cases := make([]string, len(e.Enumerators))
		for ii, enumerator := range e.Enumerators {
			cases[ii] = name + exportedName(enumerator.Ident)
		}
		if len(cases) > 0 {
			valid.Body().open("switch v {")
			valid.Body().Linef("case %s:", strings.Join(cases, ", "))
			valid.Body().Line("\treturn true")
			valid.Body().close("}")
		}
		valid.Body().Line("return false")
		g.add(valid.Build())
	}

	modes := modesOf(e)
	encode := NewFunctionBuilder("Encode"+name).
		AddParameter("enc", "*"+g.rt("Encoder")).
		AddParameter("v", name)
	g.byEncoding(encode.Body(), "enc", modes, func(b *CodeBlock, mode grammar.Mode) {
		switch {
		case underlyingPrim != 0:
			b.Linef("enc.Encode%s(%s(v))", primitives[underlyingPrim].method, underlying)
		case mode == grammar.Slice1:
			b.Line("enc.EncodeSize(int(v))")
		default:
			b.Line("enc.EncodeVarInt32(int32(v))")
		}
	})
	g.add(encode.Build())

	decode := NewFunctionBuilder("Decode"+name).
		AddParameter("dec", "*"+g.rt("Decoder")).
		AddResult(name)
	body := decode.Body()
	body.Linef("var v %s", name)
	read := func(mode grammar.Mode) string {
		switch {
		case underlyingPrim != 0:
			return fmt.Sprintf("dec.Decode%s()", primitives[underlyingPrim].method)
		case mode == grammar.Slice1:
			return "dec.DecodeSize()"
		}
		return "dec.DecodeVarInt32()"
	}
	if len(modes) > 1 {
		body.open("if dec.Encoding() == %s {", g.encodingName(modes[0]))
		body.Linef("v = %s(%s)", name, read(modes[0]))
		body.middle("} else {")
		body.Linef("v = %s(%s)", name, read(modes[1]))
		body.close("}")
	} else {
		body.Linef("v = %s(%s)", name, read(modes[0]))
	}
	if !e.Unchecked {
		body.open("if !v.IsValid() {")
		body.Linef("dec.Errorf(\"invalid value %%d for enum '%s'\", %s(v))", typeID(e), underlying)
		body.close("}")
	}
	body.Line("return v")
	g.add(decode.Build())
}

// }}}

// Custom types and aliases {{{

func (g *generator) visitCustomType(c *grammar.CustomType) {
	name := typeName(c)
	decl := &CodeBlock{}
	decl.comment(g.doc(c))
	decl.Linef("type %s any", name)
	g.add(decl)

	codec := &CodeBlock{}
	codec.Linef("// %sCodec encodes values of %s. Its functions must be set by the", name, name)
	codec.Line("// application.")
	codec.Linef("var %sCodec = &%s[%s]{TypeID: %q}", name, g.rt("CustomCodec"), name, typeID(c))
	g.add(codec)
}

func (g *generator) visitTypeAlias(a *grammar.TypeAlias) {
	decl := &CodeBlock{}
	decl.comment(g.doc(a))
	decl.Linef("type %s = %s", typeName(a), g.goType(a.Underlying))
	g.add(decl)
}

// }}}
