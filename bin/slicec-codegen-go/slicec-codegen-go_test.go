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

package main

import (
	"strings"
	"testing"

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
	"github.com/externl/slicec/slice/syntax"
)

func request(t *testing.T, req *slicemsgpack.CodegenRequest) []byte {
	t.Helper()
	buf, err := slicemsgpack.Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func greeterFile(fieldType string) *syntax.File {
	return &syntax.File{
		Path:     "slice/Greeter.slice",
		IsSource: true,
		Modules: []*syntax.Module{{
			Ident: syntax.Ident{Value: "Greeting"},
			Decls: []*syntax.Decl{{
				Struct: &syntax.Struct{
					Ident: syntax.Ident{Value: "Hello"},
					Fields: []*syntax.Field{{
						Ident: syntax.Ident{Value: "name"},
						Type:  &syntax.TypeRef{Kind: syntax.TypeNamed, Name: fieldType},
					}},
				},
			}},
		}},
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	response, ok := generate(request(t, &slicemsgpack.CodegenRequest{
		Files: []*syntax.File{greeterFile("string")},
	}))
	if !ok {
		t.Fatalf("generate failed: %s", response.Error)
	}
	if len(response.OutputFiles) != 1 {
		t.Fatalf("expected one output file, got %d", len(response.OutputFiles))
	}
	out := response.OutputFiles[0]
	if got := strings.Join(out.Path, "/"); got != "greeting/greeter_slice.go" {
		t.Errorf("output path = %q", got)
	}
	if !strings.Contains(string(out.Content), "type Hello struct {") {
		t.Errorf("unexpected output:\n%s", out.Content)
	}
}

func TestGeneratePackagePrefixOption(t *testing.T) {
	t.Parallel()

	other := &syntax.File{
		Path: "slice/Other.slice",
		Modules: []*syntax.Module{{
			Ident: syntax.Ident{Value: "Other"},
			Decls: []*syntax.Decl{{
				Struct: &syntax.Struct{
					Ident:   syntax.Ident{Value: "Name"},
					Compact: true,
					Fields: []*syntax.Field{{
						Ident: syntax.Ident{Value: "value"},
						Type:  &syntax.TypeRef{Kind: syntax.TypeNamed, Name: "string"},
					}},
				},
			}},
		}},
	}
	response, ok := generate(request(t, &slicemsgpack.CodegenRequest{
		Files:         []*syntax.File{other, greeterFile("Other::Name")},
		PluginOptions: map[string]string{"package_prefix": "example.com/gen"},
	}))
	if !ok {
		t.Fatalf("generate failed: %s", response.Error)
	}
	if len(response.OutputFiles) != 1 {
		t.Fatalf("expected one output file, got %d", len(response.OutputFiles))
	}
	if src := string(response.OutputFiles[0].Content); !strings.Contains(src, `"example.com/gen/other"`) {
		t.Errorf("generated code does not import the prefixed package:\n%s", src)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	response, ok := generate([]byte{0xc1})
	if ok || !strings.HasPrefix(response.Error, "Decode[CodegenRequest]: ") {
		t.Errorf("undecodable request: ok=%v error=%q", ok, response.Error)
	}

	response, ok = generate(request(t, &slicemsgpack.CodegenRequest{
		Files: []*syntax.File{greeterFile("Missing")},
	}))
	if ok {
		t.Fatal("generate succeeded for a file that does not compile")
	}
	if !strings.Contains(response.Error, "no element with identifier 'Missing' exists") {
		t.Errorf("unexpected error %q", response.Error)
	}
}
