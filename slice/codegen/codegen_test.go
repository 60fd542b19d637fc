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

package codegen_test

import (
	"strings"
	"testing"

	"github.com/externl/slicec/slice/codegen"
	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

// generate compiles files, which must be free of errors, and renders the
// Go code of the first one.
func generate(t *testing.T, files []*syntax.File, opts ...codegen.GenerateOption) string {
	t.Helper()
	result := compiler.Compile(files)
	if result.HasErrors() {
		t.Fatalf("compilation failed: %v", result.Diagnostics.Errors())
	}
	codeMap := codegen.Generate(result.Ast, opts...)
	src, err := codegen.Render(result.Ast.Files()[0], codeMap)
	testutil.AssertNoError(t, err)
	return string(src)
}

func expectCode(t *testing.T, src string, snippets ...string) {
	t.Helper()
	for _, snippet := range snippets {
		if !strings.Contains(src, snippet) {
			t.Errorf("generated code does not contain %q:\n%s", snippet, src)
		}
	}
}

func expectNoCode(t *testing.T, src string, snippets ...string) {
	t.Helper()
	for _, snippet := range snippets {
		if strings.Contains(src, snippet) {
			t.Errorf("generated code unexpectedly contains %q:\n%s", snippet, src)
		}
	}
}

func TestCompactStruct(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("point.slice", "", testutil.Module("Test",
			testutil.CompactStruct("Point",
				testutil.Field("x", testutil.Named("int32")),
				testutil.Field("y", testutil.Named("int32")),
			),
		)),
	})

	testutil.ExpectNoDiff(t, `// Code generated by slicec from point.slice. DO NOT EDIT.

package test

import (
	"github.com/externl/slicec/slice"
)

type Point struct {
	X int32
	Y int32
}

func NewPoint(x int32, y int32) Point {
	return Point{X: x, Y: y}
}

func (v *Point) Encode(enc *slice.Encoder) {
	enc.EncodeInt32(v.X)
	enc.EncodeInt32(v.Y)
}

func (v *Point) Decode(dec *slice.Decoder) {
	v.X = dec.DecodeInt32()
	v.Y = dec.DecodeInt32()
}
`, src)
}

func TestStructOptionalAndTaggedFields(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("shape.slice", "", testutil.Module("Test",
			testutil.Struct("Shape",
				testutil.Field("name", testutil.Named("string")),
				testutil.Field("color", testutil.Optional(testutil.Named("string"))),
				testutil.TaggedField("weight", 2, testutil.Optional(testutil.Named("int32"))),
				testutil.Field("points", testutil.Sequence(testutil.Named("int16"))),
			),
		)),
	})

	expectCode(t, src,
		"bits := enc.EncodeBitSequence(1)",
		"bits.Next(v.Color != nil)",
		"enc.EncodeString(*v.Color)",
		"enc.EncodeTagged(2, slice.TagF4, func(enc *slice.Encoder) {",
		"enc.EncodeInt32(*v.Weight)",
		"slice.EncodeSequence(enc, v.Points, func(enc *slice.Encoder, e1 int16) {",
		"enc.EncodeTagEndMarker()",
		"bits := dec.DecodeBitSequence(1)",
		"if bits.Next() {",
		"v.Color = new(string)",
		"*v.Color = dec.DecodeString()",
		"dec.DecodeTagged(2, slice.TagF4, func(dec *slice.Decoder) {",
		"v.Points = slice.DecodeSequence(dec, func(dec *slice.Decoder, e1 *int16) {",
		"*e1 = dec.DecodeInt16()",
		"dec.SkipTaggedUntilEndMarker()",
	)
	// Non-compact structs only support Slice2.
	expectNoCode(t, src, "enc.Encoding()")
}

func TestDictionaryFields(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("dict.slice", "", testutil.Module("Test",
			testutil.Struct("Index",
				testutil.Field("counts", testutil.Dictionary(
					testutil.Named("string"),
					testutil.Optional(testutil.Named("int64")),
				)),
			),
		)),
	})

	expectCode(t, src,
		"Counts map[string]*int64",
		"slice.EncodeOptionalDictionary(enc, v.Counts, func(enc *slice.Encoder, k1 string) {",
		"}, func(e2 *int64) bool { return e2 != nil }, func(enc *slice.Encoder, e2 *int64) {",
		"enc.EncodeInt64(*e2)",
		"v.Counts = slice.DecodeOptionalDictionary(dec, func(dec *slice.Decoder) string {",
		"var k1 string",
		"k1 = dec.DecodeString()",
		"}, func(dec *slice.Decoder, e2 **int64) {",
		"*e2 = new(int64)",
		"**e2 = dec.DecodeInt64()",
	)
}

func TestClassHierarchy(t *testing.T) {
	t.Parallel()

	derived := testutil.Class("Derived", "Middle",
		testutil.Field("count", testutil.Named("int32")),
		testutil.TaggedField("label", 1, testutil.Optional(testutil.Named("string"))),
	)
	derived.Class.CompactID = &syntax.Integer{Value: 7}

	src := generate(t, []*syntax.File{
		testutil.File("classes.slice", "Slice1", testutil.Module("Test",
			testutil.Class("Base", "", testutil.Field("name", testutil.Named("string"))),
			testutil.Class("Middle", "Base"),
			derived,
			testutil.Class("Empty", ""),
		)),
	})

	expectCode(t, src,
		`const BaseTypeID = "::Test::Base"`,
		`const DerivedTypeID = "::Test::Derived"`,
		"const derivedCompactTypeID int32 = 7",
		"slice.AnyClass",
		"type Middle struct {\n\tBase\n}",

		"func NewDerived(name string, count int32, label *string) *Derived {",
		"v.Middle.Base.Name = name",
		"v.Count = count",
		"func NewDerivedWithDefaults(name string, count int32) *Derived {",
		"func NewMiddle(name string) *Middle {",
		"func NewEmpty() *Empty {\n\treturn &Empty{}\n}",

		"enc.StartSlice(DerivedTypeID, derivedCompactTypeID)",
		"enc.EncodeTagged(1, slice.TagOptimizedVSize, func(enc *slice.Encoder) {",
		"enc.EndSlice(false)\n\tv.Middle.EncodeSlices(enc)",
		"enc.StartSlice(BaseTypeID)",
		"enc.EndSlice(true)\n}",
		"dec.StartSlice()",
		"dec.EndSlice()\n\tv.Middle.DecodeSlices(dec)",

		"func newDerivedForDecode(dec *slice.Decoder) slice.Class {\n\treturn &Derived{}\n}",
		"slice.RegisterClass(DerivedTypeID, derivedCompactTypeID, newDerivedForDecode)",
		"slice.RegisterClass(BaseTypeID, -1, newBaseForDecode)",
	)
	expectNoCode(t, src,
		"NewMiddleWithDefaults",
		"NewEmptyWithDefaults",
		"NewBaseWithDefaults",
	)
}

func TestClassReferences(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("graph.slice", "Slice1", testutil.Module("Test",
			testutil.Class("Node", "",
				testutil.Field("next", testutil.Optional(testutil.Named("Node"))),
				testutil.Field("children", testutil.Sequence(testutil.Named("Node"))),
				testutil.Field("value", testutil.Named("AnyClass")),
			),
		)),
	})

	expectCode(t, src,
		"Next     *Node",
		"Children []*Node",
		"Value    slice.Class",
		"enc.EncodeClass(v.Next)",
		"slice.DecodeClassInto(dec, &v.Next)",
		"v.Children = slice.DecodeSequence(dec, func(dec *slice.Decoder, e1 **Node) {",
		"slice.DecodeClassInto(dec, e1)",
		"slice.DecodeClassInto(dec, &v.Value)",
	)
}

func TestDefaultValues(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("defaults.slice", "Slice1", testutil.Module("Test",
			testutil.Enum("Level", "", "Low", "High"),
			testutil.Class("Settings", "",
				testutil.Field("name", testutil.Named("string")),
				testutil.DefaultField("retries", testutil.Named("int32"), "3"),
				testutil.DefaultField("level", testutil.Named("Level"), "High"),
			),
		)),
	})

	expectCode(t, src,
		"func NewSettings(name string, retries int32, level Level) *Settings {",
		"func NewSettingsWithDefaults(name string) *Settings {",
		"v.Retries = 3",
		"v.Level = LevelHigh",
	)
}

func TestExceptions(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("errors.slice", "Slice1", testutil.Module("Test",
			testutil.Exception("BaseError", "", testutil.Field("reason", testutil.Named("string"))),
			testutil.Exception("DerivedError", "BaseError", testutil.Field("code", testutil.Named("int32"))),
		)),
	})

	expectCode(t, src,
		`const DerivedErrorTypeID = "::Test::DerivedError"`,
		"type DerivedError struct {\n\tBaseError\n\tCode int32\n}",
		"func (v *DerivedError) Error() string {",
		"func NewDerivedError(reason string, code int32) *DerivedError {",
		"v.BaseError.Reason = reason",
		"enc.StartSlice(DerivedErrorTypeID)",
		"v.BaseError.EncodeSlices(enc)",
		"slice.RegisterException(DerivedErrorTypeID, func() slice.UserException {",
	)
	// BaseError has no base, so it is also usable as a Slice2 data type.
	expectCode(t, src, "func (v *BaseError) Encode(enc *slice.Encoder) {")
	expectNoCode(t, src, "func (v *DerivedError) Encode(enc *slice.Encoder) {")
}

func TestSlice2Exception(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("errors.slice", "", testutil.Module("Test",
			testutil.Exception("Failure", "",
				testutil.Field("reason", testutil.Optional(testutil.Named("string"))),
			),
		)),
	})

	expectCode(t, src,
		"func (v *Failure) Encode(enc *slice.Encoder) {\n\tbits := enc.EncodeBitSequence(1)",
		"enc.EncodeTagEndMarker()",
		"dec.SkipTaggedUntilEndMarker()",
	)
}

func TestEnums(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("colors.slice", "", testutil.Module("Test",
			testutil.Enum("Color", "uint8", "Red", "Green"),
			testutil.Enum("Shade", "", "Light", "Dark"),
		)),
	})

	testutil.ExpectMatch(t, `ColorRed\s+Color = 0`, src)
	testutil.ExpectMatch(t, `ColorGreen\s+Color = 1`, src)
	expectCode(t, src,
		"type Color uint8",
		"func (v Color) String() string {",
		`return fmt.Sprintf("Color(%d)", uint8(v))`,
		"case ColorRed, ColorGreen:",
		"func EncodeColor(enc *slice.Encoder, v Color) {\n\tenc.EncodeUInt8(uint8(v))\n}",
		"v = Color(dec.DecodeUInt8())",
		`dec.Errorf("invalid value %d for enum '::Test::Color'", uint8(v))`,

		// An enum without an underlying type supports both encodings.
		"type Shade int32",
		"if enc.Encoding() == slice.Slice1 {\n\t\tenc.EncodeSize(int(v))\n\t\treturn\n\t}\n\tenc.EncodeVarInt32(int32(v))",
		"v = Shade(dec.DecodeSize())",
		"v = Shade(dec.DecodeVarInt32())",
	)
}

func TestCustomTypesAndAliases(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("misc.slice", "", testutil.Module("Test",
			testutil.CustomType("Url"),
			testutil.TypeAlias("Names", testutil.Sequence(testutil.Named("string"))),
			testutil.TypeAlias("MaybeUrl", testutil.Optional(testutil.Named("Url"))),
			testutil.Struct("Link",
				testutil.Field("target", testutil.Named("Url")),
				testutil.Field("aliases", testutil.Named("Names")),
				testutil.Field("mirror", testutil.Named("MaybeUrl")),
			),
		)),
	})

	expectCode(t, src,
		"type Url any",
		`var UrlCodec = &slice.CustomCodec[Url]{TypeID: "::Test::Url"}`,
		"type Names = []string",
		"type MaybeUrl = *Url",
		"Aliases []string",
		"Mirror  *Url",
		"UrlCodec.Encode(enc, v.Target)",
		"v.Target = UrlCodec.Decode(dec)",
		"bits.Next(v.Mirror != nil)",
	)
}

func TestNestedModules(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("nested.slice", "", testutil.Module("Demo",
			&syntax.Decl{Module: testutil.Module("Geometry",
				testutil.CompactStruct("Point", testutil.Field("x", testutil.Named("float64"))),
			)},
		)),
	})

	expectCode(t, src,
		"package demo",
		"type GeometryPoint struct {",
		"func NewGeometryPoint(x float64) GeometryPoint {",
	)
}

func TestInterfaces(t *testing.T) {
	t.Parallel()

	greet := testutil.Returns(
		testutil.Operation("greet", testutil.Param("name", testutil.Named("string"))),
		testutil.Named("string"),
	)
	greet.Attributes = []*syntax.Attribute{testutil.Attr("encodedResult")}
	upload := testutil.Operation("upload",
		testutil.Param("name", testutil.Named("string")),
		testutil.Streamed(testutil.Param("data", testutil.Named("uint8"))),
	)
	pair := testutil.ReturnsTuple(testutil.Operation("pair"),
		testutil.Param("a", testutil.Named("int32")),
		testutil.Param("b", testutil.Optional(testutil.Named("string"))),
	)

	src := generate(t, []*syntax.File{
		testutil.File("greeter.slice", "", testutil.Module("Test",
			testutil.Interface("Greeter", greet, upload, pair),
		)),
	})

	expectCode(t, src,
		"type Greeter interface {",
		"Greet(ctx context.Context, name string) (GreeterGreetEncodedReturnValue, error)",
		"Upload(ctx context.Context, name string, data iter.Seq[uint8]) error",
		"Pair(ctx context.Context) (int32, *string, error)",

		"type GreeterProxy struct {\n\tslice.Proxy\n}",
		"func NewGreeterProxy(path string) GreeterProxy {",

		"func EncodeGreeterGreetArgs(name string) ([]uint8, error) {\n\treturn slice.EncodePayload(slice.Slice2, func(enc *slice.Encoder) {",
		"func DecodeGreeterGreetArgs(payload []uint8) (name string, err error) {",
		"err = slice.DecodePayload(slice.Slice2, payload, func(dec *slice.Decoder) {",
		"func EncodeGreeterGreetReturn(returnValue string) ([]uint8, error) {\n\treturn slice.PayloadFromSingleReturnValue(slice.Slice2,",

		// The streamed parameter is not part of the payload.
		"func EncodeGreeterUploadArgs(name string) ([]uint8, error) {",
		"func DecodeGreeterPairReturn(payload []uint8) (a int32, b *string, err error) {",
		"return slice.PayloadFromReturnValueTuple(slice.Slice2, func(enc *slice.Encoder) {",
		"func DecodeGreeterPairArgs(payload []uint8) (err error) {",

		"type GreeterGreetEncodedReturnValue struct {\n\tPayload []uint8\n}",
		"func NewGreeterGreetEncodedReturnValue(returnValue string, encoding slice.Encoding) (GreeterGreetEncodedReturnValue, error) {",
		"payload, err := slice.PayloadFromSingleReturnValue(encoding, func(enc *slice.Encoder) {",
		"return GreeterGreetEncodedReturnValue{Payload: payload}, nil",
	)
	expectNoCode(t, src, "GreeterUploadReturn", "GreeterPairEncodedReturnValue")
}

func TestStreamedReturnMember(t *testing.T) {
	t.Parallel()

	download := testutil.ReturnsTuple(testutil.Operation("download"),
		testutil.Param("size", testutil.Named("int32")),
		testutil.Streamed(testutil.Param("data", testutil.Named("uint8"))),
	)
	download.Attributes = []*syntax.Attribute{testutil.Attr("encodedResult")}

	src := generate(t, []*syntax.File{
		testutil.File("files.slice", "", testutil.Module("Test",
			testutil.Interface("Files", download),
		)),
	})

	// Only size is in the payload, so it is framed as a single value.
	expectCode(t, src,
		"func EncodeFilesDownloadReturn(size int32) ([]uint8, error) {\n\treturn slice.PayloadFromSingleReturnValue(slice.Slice2,",
		"func DecodeFilesDownloadReturn(payload []uint8) (size int32, err error) {",
		"func NewFilesDownloadEncodedReturnValue(size int32, encoding slice.Encoding) (FilesDownloadEncodedReturnValue, error) {",
		"payload, err := slice.PayloadFromSingleReturnValue(encoding, func(enc *slice.Encoder) {",
	)
	expectNoCode(t, src, "PayloadFromReturnValueTuple")
}

func TestEncodedResultWithClasses(t *testing.T) {
	t.Parallel()

	get := testutil.Returns(testutil.Operation("get"), testutil.Named("Node"))
	get.Attributes = []*syntax.Attribute{
		testutil.Attr("encodedResult"),
		testutil.Attr("slicedFormat", "Return"),
	}

	src := generate(t, []*syntax.File{
		testutil.File("store.slice", "Slice1", testutil.Module("Test",
			testutil.Class("Node", ""),
			testutil.Interface("Store", get),
		)),
	})

	expectCode(t, src,
		"func NewStoreGetEncodedReturnValue(returnValue *Node) (StoreGetEncodedReturnValue, error) {",
		"payload, err := slice.PayloadFromSingleReturnValue(slice.Slice1, func(enc *slice.Encoder) {",
		"}, slice.WithClassFormat(slice.SlicedFormat))",
		"func DecodeStoreGetReturn(payload []uint8) (returnValue *Node, err error) {",
		"slice.DecodeClassInto(dec, &returnValue)",
	)
}

func TestPackagePrefix(t *testing.T) {
	t.Parallel()

	src := generate(t, []*syntax.File{
		testutil.File("b.slice", "", testutil.Module("B",
			testutil.Struct("T", testutil.Field("s", testutil.Named("A::S"))),
		)),
		testutil.File("a.slice", "", testutil.Module("A",
			testutil.CompactStruct("S", testutil.Field("x", testutil.Named("bool"))),
		)),
	}, codegen.WithPackagePrefix("example.com/gen"))

	expectCode(t, src,
		"package b",
		`"example.com/gen/a"`,
		"S a.S",
		"v.S.Encode(enc)",
	)
}

func TestCodeMap(t *testing.T) {
	t.Parallel()

	result := compiler.Compile([]*syntax.File{
		testutil.File("all.slice", "", testutil.Module("Test",
			testutil.Struct("S"),
			testutil.Enum("E", "", "A"),
			testutil.Interface("I"),
			testutil.CustomType("C"),
			testutil.TypeAlias("T", testutil.Named("int32")),
		)),
	})
	if result.HasErrors() {
		t.Fatalf("compilation failed: %v", result.Diagnostics.Errors())
	}
	codeMap := codegen.Generate(result.Ast)
	testutil.ExpectEq(t, 5, codeMap.Len())

	var kinds []string
	for e, block := range codeMap.Entities() {
		kinds = append(kinds, e.Kind())
		testutil.ExpectFalse(t, block.IsEmpty())
	}
	testutil.ExpectSliceEq(t, []string{"struct", "enum", "interface", "custom type", "type alias"}, kinds)

	s, _ := grammar.FindEntity[*grammar.Struct](result.Ast, "Test::S")
	block, ok := codeMap.Get(s)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectSliceEq(t, []string{"github.com/externl/slicec/slice"}, block.Imports())
}

func TestOutputFiles(t *testing.T) {
	t.Parallel()

	common := testutil.File("slice/Common.slice", "", testutil.Module("Common",
		testutil.CompactStruct("Id", testutil.Field("value", testutil.Named("int64"))),
	))
	common.IsSource = false
	result := compiler.Compile([]*syntax.File{
		common,
		testutil.File("slice/Greeter.slice", "", testutil.Module("Demo::Greeting",
			testutil.Struct("Hello", testutil.Field("id", testutil.Named("Common::Id"))),
		)),
		testutil.File("slice/empty.slice", ""),
	})
	if result.HasErrors() {
		t.Fatalf("compilation failed: %v", result.Diagnostics.Errors())
	}

	out, err := codegen.OutputFiles(result.Ast, codegen.Generate(result.Ast))
	testutil.AssertNoError(t, err)
	if len(out) != 1 {
		t.Fatalf("expected one output file, got %d", len(out))
	}
	testutil.ExpectSliceEq(t, []string{"demo", "greeter_slice.go"}, out[0].Path)
	expectCode(t, string(out[0].Content),
		"package demo\n",
		"type GreetingHello struct {",
	)
}

type unknownEntity struct {
	grammar.EntityInfo
}

func (*unknownEntity) Kind() string { return "unknown" }

func TestUnknownEntityPanics(t *testing.T) {
	t.Parallel()

	ast := grammar.NewAst()
	module := &grammar.Module{EntityInfo: grammar.EntityInfo{Ident: "Test"}}
	module.Contents = []grammar.Entity{&unknownEntity{grammar.EntityInfo{Ident: "X", Scope: "Test", Container: module}}}
	ast.AddFile(&grammar.File{Path: "x.slice", IsSource: true, Mode: grammar.Slice2, Modules: []*grammar.Module{module}})

	defer func() {
		testutil.ExpectTrue(t, recover() != nil)
	}()
	codegen.Generate(ast)
	t.Error("Generate did not panic")
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	fn := codegen.NewFunctionBuilder("Add").
		AddComment("Add returns the sum of a and b.").
		AddParameter("a", "int").
		AddParameter("b", "int").
		AddResult("int")
	fn.Body().Line("return a + b")
	testutil.ExpectEq(t, "// Add returns the sum of a and b.\nfunc Add(a int, b int) int {\n\treturn a + b\n}\n", fn.Build().String())

	method := codegen.NewFunctionBuilder("Pair").SetReceiver("p *Point").AddResult("int").AddResult("error")
	testutil.ExpectEq(t, "func (p *Point) Pair() (int, error) {}\n", method.Build().String())

	empty := codegen.NewContainerBuilder("struct", "Empty").Build()
	testutil.ExpectEq(t, "type Empty struct{}\n", empty.String())

	container := codegen.NewContainerBuilder("interface", "Reader").AddMember("Read(p []byte) (int, error)").Build()
	testutil.ExpectEq(t, "type Reader interface {\n\tRead(p []byte) (int, error)\n}\n", container.String())
}
