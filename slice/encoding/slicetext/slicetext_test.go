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

package slicetext_test

import (
	"errors"
	"testing"

	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/encoding/slicetext"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	greet := testutil.Returns(
		testutil.Operation("greet", testutil.Param("name", testutil.Named("string"))),
		testutil.Named("string"),
	)
	greet.Idempotent = true

	result := compiler.Compile([]*syntax.File{
		testutil.File("demo.slice", "", testutil.Module("Demo",
			testutil.CompactStruct("Point", testutil.Field("x", testutil.Named("int32"))),
			testutil.Enum("Color", "uint8", "Red", "Green"),
			testutil.Interface("Greeter", greet),
			testutil.TypeAlias("Names", testutil.Sequence(testutil.Named("string"))),
		)),
	})
	testutil.CheckNoDiagnostics(t, result.Diagnostics)

	testutil.ExpectNoDiff(t, `file "demo.slice" {
	mode = .Slice2
	source = .true
	module "Demo" {
		struct "Point" {
			encodings = [.Slice1, .Slice2]
			compact = .true
			field "x" {
				type = "int32"
			}
		}
		enum "Color" {
			encodings = [.Slice2]
			underlying = "uint8"
			enumerator "Red" {
				value = 0
			}
			enumerator "Green" {
				value = 1
			}
		}
		interface "Greeter" {
			encodings = [.Slice1, .Slice2]
			operation "greet" {
				idempotent = .true
				encoding = .Slice2
				parameter "name" {
					type = "string"
				}
				return "returnValue" {
					type = "string"
				}
			}
		}
		type_alias "Names" {
			encodings = [.Slice1, .Slice2]
			type = "sequence<string>"
		}
	}
}
`, slicetext.Encode(result.Ast))
}

func TestEncodeClassesAndAttributes(t *testing.T) {
	t.Parallel()

	base := testutil.Class("Base", "", testutil.TaggedField("label", 1, testutil.Optional(testutil.Named("string"))))
	base.Class.Attributes = []*syntax.Attribute{testutil.Attr("deprecated", "use \"Other\"")}
	base.Class.CompactID = &syntax.Integer{Value: 4}

	result := compiler.Compile([]*syntax.File{
		testutil.File("classes.slice", "Slice1", testutil.Module("Demo",
			base,
			testutil.Class("Derived", "Base"),
		)),
	})
	testutil.ExpectFalse(t, result.HasErrors())

	text := slicetext.Encode(result.Ast)
	testutil.ExpectMatch(t, `(?m)^\t\tclass "Base" \{\n\t\t\tencodings = \[\.Slice1\]\n\t\t\tattribute "deprecated" \["use \\"Other\\""\]\n\t\t\tcompact_id = 4\n`, text)
	testutil.ExpectMatch(t, `(?m)^\t\t\t\ttype = "string\?"\n\t\t\t\ttag = 1$`, text)
	testutil.ExpectMatch(t, `(?m)^\t\t\tbase = "::Demo::Base"$`, text)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestEncodeToReportsWriteErrors(t *testing.T) {
	t.Parallel()

	result := compiler.Compile([]*syntax.File{
		testutil.File("demo.slice", "", testutil.Module("Demo")),
	})
	err := slicetext.EncodeTo(result.Ast, failingWriter{})
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, "disk full", err.Error())
}
