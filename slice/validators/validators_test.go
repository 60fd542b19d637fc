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

package validators_test

import (
	"testing"

	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
	"github.com/externl/slicec/slice/validators"
)

func compile(t *testing.T, mode string, decls ...*syntax.Decl) compiler.CompileResult {
	t.Helper()
	return compiler.Compile([]*syntax.File{
		testutil.File("demo.slice", mode, testutil.Module("Demo", decls...)),
	})
}

func TestIsDocumentedExceptionCompatible(t *testing.T) {
	base := &grammar.Exception{}
	middle := &grammar.Exception{Base: base}
	derived := &grammar.Exception{Base: middle}
	unrelated := &grammar.Exception{}

	testutil.ExpectTrue(t, validators.IsDocumentedExceptionCompatible(base, base))
	testutil.ExpectTrue(t, validators.IsDocumentedExceptionCompatible(base, middle))
	testutil.ExpectTrue(t, validators.IsDocumentedExceptionCompatible(base, derived))
	testutil.ExpectTrue(t, validators.IsDocumentedExceptionCompatible(middle, derived))

	testutil.ExpectFalse(t, validators.IsDocumentedExceptionCompatible(derived, base))
	testutil.ExpectFalse(t, validators.IsDocumentedExceptionCompatible(base, unrelated))
	testutil.ExpectFalse(t, validators.IsDocumentedExceptionCompatible(unrelated, derived))
}

func TestIsDocumentedExceptionCompatibleCycle(t *testing.T) {
	a := &grammar.Exception{}
	b := &grammar.Exception{Base: a}
	a.Base = b
	unrelated := &grammar.Exception{}

	testutil.ExpectTrue(t, validators.IsDocumentedExceptionCompatible(b, a))
	testutil.ExpectFalse(t, validators.IsDocumentedExceptionCompatible(unrelated, a))
}

func TestValidateIsIdempotent(t *testing.T) {
	op := testutil.Operation("upload",
		testutil.Streamed(testutil.Param("a", testutil.Named("int32"))),
		testutil.Streamed(testutil.Param("b", testutil.Named("int32"))),
	)
	op = testutil.ReturnsTuple(op, testutil.Param("r", testutil.Named("bool")))
	result := compile(t, "",
		testutil.Interface("Uploader", op),
		testutil.Enum("Empty", "int32"),
		testutil.Struct("S",
			testutil.TaggedField("x", 1, testutil.Named("int32")),
			testutil.TaggedField("y", 1, testutil.Optional(testutil.Named("int32"))),
		),
	)

	messages := func() []string {
		diags := &diagnostics.Diagnostics{}
		validators.Validate(result.Ast, diags)
		var out []string
		for d := range diags.All() {
			out = append(out, d.Error())
		}
		return out
	}
	first := messages()
	if len(first) == 0 {
		t.Fatal("expected diagnostics")
	}
	testutil.ExpectSliceEq(t, first, messages())
}

func TestTags(t *testing.T) {
	result := compile(t, "",
		testutil.Struct("S",
			testutil.TaggedField("a", 1, testutil.Optional(testutil.Named("int32"))),
			testutil.TaggedField("b", 1, testutil.Optional(testutil.Named("string"))),
		),
		testutil.Struct("T",
			testutil.TaggedField("c", 2, testutil.Named("int32")),
		),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.CannotHaveDuplicateTag("b").
			AddNote("The tag '1' is already being used by member 'a'", nil),
		diagnostics.TaggedMemberMustBeOptional("c").
			AddNote("try 'tag(2) c: int32?'", nil),
	)
}

func TestStreamedParameterCannotBeTagged(t *testing.T) {
	op := testutil.Operation("upload",
		testutil.Streamed(testutil.TaggedParam("a", 1, testutil.Optional(testutil.Named("int32")))),
	)
	result := compile(t, "", testutil.Interface("Uploader", op))
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.StreamedMembersCannotBeTagged("a"),
	)
}

func TestEnumerators(t *testing.T) {
	color := testutil.Enum("Color", "uint8", "Red", "Green", "Big")
	color.Enum.Enumerators[1].Value = &syntax.Integer{Value: 0}
	color.Enum.Enumerators[2].Value = &syntax.Integer{Value: 300}

	result := compile(t, "",
		color,
		testutil.Enum("Empty", "int32"),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.DuplicateEnumeratorValue(0).
			AddNote("the value was previously used by 'Red' here:", nil),
		diagnostics.EnumeratorValueOutOfBounds("Big", 300, 0, 255),
		diagnostics.MustContainEnumerators("Empty"),
	)
}

func TestSlice1EnumeratorsAreNonNegative(t *testing.T) {
	enum := testutil.Enum("E", "", "A")
	enum.Enum.Enumerators[0].Value = &syntax.Integer{Value: -1}

	result := compile(t, "Slice1", enum)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.EnumeratorValueOutOfBounds("A", -1, 0, 2147483647),
	)
}

func TestEnumUnderlyingType(t *testing.T) {
	result := compile(t, "",
		testutil.Enum("E", "string", "A"),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.TypeMismatch("integral type", "primitive"),
	)
}

func TestDictionaryKeys(t *testing.T) {
	result := compile(t, "",
		testutil.Struct("NotCompact"),
		testutil.Struct("S",
			testutil.Field("a", testutil.Dictionary(testutil.Named("float32"), testutil.Named("int32"))),
			testutil.Field("b", testutil.Dictionary(testutil.Optional(testutil.Named("string")), testutil.Named("int32"))),
			testutil.Field("c", testutil.Dictionary(testutil.Named("NotCompact"), testutil.Named("int32"))),
			testutil.Field("d", testutil.Dictionary(testutil.Named("string"), testutil.Named("int32"))),
		),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.KeyTypeNotSupported("float32").
			AddNote("floating point types cannot be used as dictionary keys", nil),
		diagnostics.KeyTypeNotSupported("string?").
			AddNote("optional types cannot be used as dictionary keys", nil),
		diagnostics.KeyTypeNotSupported("NotCompact").
			AddNote("struct 'NotCompact' must be compact to be used as a dictionary key", nil),
	)
}

func TestDeprecatedUse(t *testing.T) {
	old := testutil.Struct("Old")
	old.Struct.Attributes = []*syntax.Attribute{testutil.Attr("deprecated", "use New")}

	result := compile(t, "",
		old,
		testutil.Struct("User", testutil.Field("o", testutil.Named("Old"))),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.Deprecated("Old", "use New"),
	)
}

func TestUnexpectedAttributes(t *testing.T) {
	op := testutil.Returns(testutil.Operation("get"), testutil.Named("string"))
	op.Attributes = []*syntax.Attribute{testutil.Attr("oneway")}
	empty := testutil.Operation("ping")
	empty.Attributes = []*syntax.Attribute{testutil.Attr("encodedResult")}

	file := testutil.File("demo.slice", "", testutil.Module("Demo",
		testutil.Interface("Greeter", op, empty),
	))
	file.Modules[0].Attributes = []*syntax.Attribute{testutil.Attr("deprecated")}

	result := compiler.Compile([]*syntax.File{file})
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.UnexpectedAttribute("deprecated").
			AddNote("modules cannot be deprecated", nil),
		diagnostics.UnexpectedAttribute("oneway").
			AddNote("operations that return values cannot be oneway", nil),
		diagnostics.UnexpectedAttribute("encodedResult").
			AddNote("encoded results can only be used with operations that return something", nil),
	)
}

func TestDocCommentTags(t *testing.T) {
	op := testutil.Returns(testutil.Operation("greet",
		testutil.Param("name", testutil.Named("string")),
	), testutil.Named("string"))
	op.Comment = &syntax.DocComment{
		Params: []*syntax.ParamTag{
			{Ident: syntax.Ident{Value: "name"}},
			{Ident: syntax.Ident{Value: "missing"}},
		},
		Returns: []*syntax.ReturnsTag{{Ident: &syntax.Ident{Value: "greeting"}}},
		Throws:  []*syntax.ThrowsTag{{Message: "never"}},
	}

	result := compile(t, "", testutil.Interface("Greeter", op))
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.IncorrectDocComment(
			"comment has a 'param' tag for 'missing', but operation 'greet' has no parameter with that name",
		),
		diagnostics.IncorrectDocComment(
			"comment has a 'returns' tag for 'greeting', but operation 'greet' doesn't return anything with that name",
		).
			AddNote("operation 'greet' returns a single unnamed type", nil).
			AddNote(`try removing the identifier from your comment: "@returns: ..."`, nil),
		diagnostics.IncorrectDocComment(
			"comment has a 'throws' tag, but operation 'greet' does not throw anything",
		),
	)
}

func TestNamedReturnsTagOnSingleElementTuple(t *testing.T) {
	op := testutil.ReturnsTuple(testutil.Operation("single"),
		testutil.Param("b", testutil.Named("bool")),
	)
	op.Comment = &syntax.DocComment{
		Returns: []*syntax.ReturnsTag{{Ident: &syntax.Ident{Value: "b"}}},
	}

	result := compile(t, "", testutil.Interface("Greeter", op))
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.ReturnTuplesMustContainAtLeastTwoElements(),
		diagnostics.IncorrectDocComment(
			"comment has a 'returns' tag for 'b', but operation 'single' doesn't return anything with that name",
		).
			AddNote("operation 'single' returns a single unnamed type", nil).
			AddNote(`try removing the identifier from your comment: "@returns: ..."`, nil),
	)
}

func TestExceptionSpecificationRequiresSlice1(t *testing.T) {
	op := testutil.Throws(testutil.Operation("op"), "E")
	result := compile(t, "",
		testutil.Exception("E", ""),
		testutil.Interface("Greeter", op),
	)
	testutil.CheckDiagnostics(t, result.Diagnostics,
		diagnostics.ExceptionSpecificationNotSupported().
			AddNote("file is using the Slice2 mode by default", nil).
			AddNote("to use a different mode, specify it at the top of the slice file\nex: 'mode = Slice1'", nil),
	)
}

func TestUnknownAttributeIsAccepted(t *testing.T) {
	s := testutil.Struct("S")
	s.Struct.Attributes = []*syntax.Attribute{testutil.Attr("go:type", "Point")}
	result := compile(t, "", s)
	testutil.CheckNoDiagnostics(t, result.Diagnostics)
}
