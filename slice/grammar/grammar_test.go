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

package grammar_test

import (
	"testing"

	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

func primitive(name string) *grammar.TypeRef {
	p, ok := grammar.PrimitiveByName(name)
	if !ok {
		panic("unknown primitive " + name)
	}
	return &grammar.TypeRef{Definition: p}
}

func expectPanic(t *testing.T, want string, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		got := recover()
		if got == nil {
			t.Errorf("expected panic %q", want)
			return
		}
		testutil.ExpectEq[any](t, want, got)
	}()
	f()
}

func TestParseMode(t *testing.T) {
	mode, ok := grammar.ParseMode("Slice1")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, grammar.Slice1, mode)

	_, ok = grammar.ParseMode("slice1")
	testutil.ExpectFalse(t, ok)

	testutil.ExpectEq(t, "Slice2", grammar.DefaultMode.String())
}

func TestSupportedEncodings(t *testing.T) {
	all := grammar.AllEncodings()
	slice1 := grammar.EncodingsOf(grammar.Slice1)
	slice2 := grammar.EncodingsOf(grammar.Slice2)

	testutil.ExpectEq(t, "{Slice1, Slice2}", all.String())
	testutil.ExpectEq(t, slice1, all.Intersect(slice1))
	testutil.ExpectEq(t, slice2, all.Without(grammar.Slice1))
	testutil.ExpectTrue(t, slice1.Intersect(slice2).IsEmpty())
	testutil.ExpectEq(t, "{}", slice1.Intersect(slice2).String())
	testutil.ExpectSliceEq(t, []grammar.Mode{grammar.Slice2}, slice2.Modes())
	testutil.ExpectFalse(t, slice2.Supports(grammar.Slice1))
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name      string
		size      uint32
		fixed     bool
		format    grammar.TagFormat
		hasFormat bool
		encodings grammar.SupportedEncodings
	}{
		{"bool", 1, true, grammar.TagFormatF1, true, grammar.AllEncodings()},
		{"int16", 2, true, grammar.TagFormatF2, true, grammar.AllEncodings()},
		{"int32", 4, true, grammar.TagFormatF4, true, grammar.AllEncodings()},
		{"float64", 8, true, grammar.TagFormatF8, true, grammar.AllEncodings()},
		{"string", 0, false, grammar.TagFormatOptimizedVSize, true, grammar.AllEncodings()},
		{"AnyClass", 0, false, grammar.TagFormatClass, true, grammar.EncodingsOf(grammar.Slice1)},
		{"varint32", 0, false, 0, false, grammar.EncodingsOf(grammar.Slice2)},
		{"uint32", 4, true, 0, false, grammar.EncodingsOf(grammar.Slice2)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ref := primitive(test.name)
			testutil.ExpectEq(t, test.name, ref.TypeString())

			size, fixed := ref.FixedWireSize()
			testutil.ExpectEq(t, test.fixed, fixed)
			testutil.ExpectEq(t, test.size, size)

			format, ok := ref.TagFormat()
			testutil.ExpectEq(t, test.hasFormat, ok)
			testutil.ExpectEq(t, test.format, format)

			testutil.ExpectEq(t, test.encodings, ref.SupportedEncodings())
		})
	}
}

func TestOptionalTypeRef(t *testing.T) {
	ref := primitive("int32")
	ref.Optional = true
	testutil.ExpectEq(t, "int32?", ref.TypeString())
	_, fixed := ref.FixedWireSize()
	testutil.ExpectFalse(t, fixed)
}

func TestSequenceTagFormat(t *testing.T) {
	tests := []struct {
		element string
		want    grammar.TagFormat
	}{
		{"uint8", grammar.TagFormatOptimizedVSize},
		{"int32", grammar.TagFormatVSize},
		{"string", grammar.TagFormatFSize},
	}
	for _, test := range tests {
		seq := &grammar.Sequence{ElementType: primitive(test.element)}
		format, ok := seq.TagFormat()
		testutil.ExpectTrue(t, ok)
		testutil.ExpectEq(t, test.want, format)
	}

	seq := &grammar.Sequence{ElementType: primitive("varint32")}
	_, ok := seq.TagFormat()
	testutil.ExpectFalse(t, ok)
	testutil.ExpectEq(t, "sequence<varint32>", seq.TypeString())
}

func TestOptionalElementsRequireSlice2(t *testing.T) {
	element := primitive("int32")
	element.Optional = true
	seq := &grammar.Sequence{ElementType: element}
	testutil.ExpectEq(t, grammar.EncodingsOf(grammar.Slice2), seq.SupportedEncodings())

	dict := &grammar.Dictionary{KeyType: primitive("string"), ValueType: element}
	testutil.ExpectEq(t, grammar.EncodingsOf(grammar.Slice2), dict.SupportedEncodings())
	testutil.ExpectEq(t, "dictionary<string, int32?>", dict.TypeString())
}

func TestStructFixedWireSize(t *testing.T) {
	point := &grammar.Struct{Fields: []*grammar.Field{
		{DataType: primitive("int32")},
		{DataType: primitive("int16")},
	}}
	size, ok := point.FixedWireSize()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(6), size)

	line := &grammar.Struct{Fields: []*grammar.Field{
		{DataType: &grammar.TypeRef{Definition: point}},
		{DataType: &grammar.TypeRef{Definition: point}},
	}}
	size, ok = line.FixedWireSize()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(12), size)

	tagged := &grammar.Struct{Fields: []*grammar.Field{
		{DataType: primitive("int32"), Tag: &grammar.Integer{Value: 1}},
	}}
	_, ok = tagged.FixedWireSize()
	testutil.ExpectFalse(t, ok)
	tagged.Compact = true
	tagged.ResolveSupportedEncodings(grammar.AllEncodings())
	format, ok := tagged.TagFormat()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, grammar.TagFormatFSize, format)
}

func TestTagFormatRequiresSlice1(t *testing.T) {
	result := compiler.Compile([]*syntax.File{
		testutil.File("demo.slice", "", testutil.Module("Demo",
			testutil.Struct("S", testutil.Field("x", testutil.Named("int32"))),
			testutil.CompactStruct("P", testutil.Field("x", testutil.Named("int32"))),
			testutil.Enum("E", "uint8", "A"),
			testutil.Enum("Plain", "", "B"),
			testutil.Interface("I"),
		)),
	})
	testutil.CheckNoDiagnostics(t, result.Diagnostics)

	tests := []struct {
		scope  string
		format grammar.TagFormat
		ok     bool
	}{
		{"Demo::S", 0, false},
		{"Demo::P", grammar.TagFormatVSize, true},
		{"Demo::E", 0, false},
		{"Demo::Plain", grammar.TagFormatSize, true},
		{"Demo::I", grammar.TagFormatFSize, true},
	}
	for _, test := range tests {
		e, ok := result.Ast.Lookup(test.scope)
		if !ok {
			t.Errorf("no entity %s", test.scope)
			continue
		}
		format, ok := e.(grammar.Type).TagFormat()
		if ok != test.ok || format != test.format {
			t.Errorf("%s: got tag format (%v, %t), want (%v, %t)", test.scope, format, ok, test.format, test.ok)
		}
	}
}

func TestEncodingsResolvedOnce(t *testing.T) {
	s := &grammar.Struct{EntityInfo: grammar.EntityInfo{Ident: "S", Scope: "Demo"}}
	testutil.ExpectFalse(t, s.EncodingsResolved())
	expectPanic(t, "supported encodings of 'Demo::S' read before they were resolved", func() {
		s.SupportedEncodings()
	})

	s.ResolveSupportedEncodings(grammar.AllEncodings())
	testutil.ExpectTrue(t, s.EncodingsResolved())
	testutil.ExpectEq(t, grammar.AllEncodings(), s.SupportedEncodings())
	expectPanic(t, "supported encodings of 'Demo::S' resolved twice", func() {
		s.ResolveSupportedEncodings(grammar.EncodingsOf(grammar.Slice1))
	})
}

func TestParseAttribute(t *testing.T) {
	span := syntax.NewSpan("demo.slice", 3, 20)

	diags := &diagnostics.Diagnostics{}
	attr := grammar.ParseAttribute("deprecated", []string{"use New"}, span, diags)
	testutil.CheckNoDiagnostics(t, diags)
	deprecated, ok := attr.Kind.(*grammar.Deprecated)
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectEq(t, "use New", deprecated.Reason)
	}
	testutil.ExpectEq(t, "deprecated(use New)", attr.String())

	diags = &diagnostics.Diagnostics{}
	attr = grammar.ParseAttribute("compress", []string{"Args"}, span, diags)
	testutil.CheckNoDiagnostics(t, diags)
	compress, ok := attr.Kind.(*grammar.Compress)
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectTrue(t, compress.Args)
		testutil.ExpectFalse(t, compress.Return)
	}

	diags = &diagnostics.Diagnostics{}
	attr = grammar.ParseAttribute("go:type", []string{"Point"}, span, diags)
	testutil.CheckNoDiagnostics(t, diags)
	unparsed, ok := attr.Kind.(*grammar.Unparsed)
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectEq(t, "go:type", unparsed.Directive())
		testutil.ExpectSliceEq(t, []string{"Point"}, unparsed.Args)
	}
}

func TestParseAttributeErrors(t *testing.T) {
	span := syntax.NewSpan("demo.slice", 3, 20)
	diags := &diagnostics.Diagnostics{}
	grammar.ParseAttribute("deprecated", []string{"a", "b"}, span, diags)
	grammar.ParseAttribute("allow", nil, span, diags)
	grammar.ParseAttribute("allow", []string{"Nonsense"}, span, diags)
	grammar.ParseAttribute("slicedFormat", nil, span, diags)
	grammar.ParseAttribute("compress", []string{"Both"}, span, diags)
	grammar.ParseAttribute("oneway", []string{"x"}, span, diags)

	testutil.CheckDiagnostics(t, diags,
		diagnostics.TooManyArguments("deprecated", 1).SetSpan(span),
		diagnostics.MissingRequiredArgument("allow(<lint_name>)").SetSpan(span),
		diagnostics.ArgumentNotSupported("Nonsense", "allow").
			SetSpan(span).
			AddNote("'Nonsense' is not a known lint; valid lints are: DuplicateFile, IncorrectDocComment, MalformedDocComment, Deprecated", nil),
		diagnostics.MissingRequiredArgument("slicedFormat(Args|Return)").SetSpan(span),
		diagnostics.ArgumentNotSupported("Both", "compress").
			SetSpan(span).
			AddNote("'Args' and 'Return' are the only valid arguments", nil),
		diagnostics.TooManyArguments("oneway", 0).SetSpan(span),
	)
}

func TestAllow(t *testing.T) {
	allow := &grammar.Allow{Lints: []string{"Deprecated"}}
	testutil.ExpectTrue(t, allow.Allows(diagnostics.CodeDeprecated))
	testutil.ExpectFalse(t, allow.Allows(diagnostics.CodeIncorrectDocComment))

	all := &grammar.Allow{Lints: []string{"All"}}
	testutil.ExpectTrue(t, all.Allows(diagnostics.CodeIncorrectDocComment))
}

func TestLookupRelative(t *testing.T) {
	result := compiler.Compile([]*syntax.File{
		testutil.File("demo.slice", "", testutil.Module("Demo",
			testutil.CompactStruct("S", testutil.Field("x", testutil.Named("int32"))),
			&syntax.Decl{Module: testutil.Module("Inner",
				testutil.CompactStruct("S", testutil.Field("y", testutil.Named("int32"))),
				testutil.CompactStruct("T", testutil.Field("z", testutil.Named("int32"))),
			)},
		)),
	})
	testutil.CheckNoDiagnostics(t, result.Diagnostics)
	ast := result.Ast

	inner, ok := ast.LookupRelative("S", "Demo::Inner::T")
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectEq(t, "Demo::Inner::S", inner.ScopedIdentifier())
	}

	outer, ok := ast.LookupRelative("::Demo::S", "Demo::Inner::T")
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectEq(t, "Demo::S", outer.ScopedIdentifier())
	}

	// Fields are not types.
	_, ok = ast.LookupRelative("x", "Demo::S")
	testutil.ExpectFalse(t, ok)

	field, ok := grammar.FindEntity[*grammar.Field](ast, "::Demo::S::x")
	testutil.ExpectTrue(t, ok)
	if ok {
		testutil.ExpectEq(t, "int32", field.DataType.TypeString())
	}

	var names []string
	for s := range grammar.EntitiesOf[*grammar.Struct](ast) {
		names = append(names, s.ScopedIdentifier())
	}
	testutil.ExpectSliceEq(t, []string{"Demo::S", "Demo::Inner::S", "Demo::Inner::T"}, names)
}

func TestUsesClasses(t *testing.T) {
	class := &grammar.Class{}
	holder := &grammar.Struct{Fields: []*grammar.Field{
		{DataType: &grammar.TypeRef{Definition: class}},
	}}
	seq := &grammar.Sequence{ElementType: &grammar.TypeRef{Definition: holder}}

	testutil.ExpectTrue(t, grammar.UsesClasses(class))
	testutil.ExpectTrue(t, grammar.UsesClasses(holder))
	testutil.ExpectTrue(t, grammar.UsesClasses(seq))
	testutil.ExpectFalse(t, grammar.UsesClasses(primitive("string")))

	// Recursive structs terminate.
	node := &grammar.Struct{}
	node.Fields = []*grammar.Field{{DataType: &grammar.TypeRef{Definition: node, Optional: true}}}
	testutil.ExpectFalse(t, grammar.UsesClasses(node))
}
