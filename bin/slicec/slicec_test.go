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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
	"github.com/externl/slicec/slice/syntax"
)

func named(name string) *syntax.TypeRef {
	return &syntax.TypeRef{Kind: syntax.TypeNamed, Name: name}
}

// writeSyntax writes a parsed Slice file declaring `struct Point`, whose
// field has the given type, as a `--syntax` input.
func writeSyntax(t *testing.T, fieldType string) string {
	t.Helper()
	files := []*syntax.File{{
		Path:     "demo.slice",
		IsSource: true,
		Modules: []*syntax.Module{{
			Ident: syntax.Ident{Value: "Demo"},
			Decls: []*syntax.Decl{{
				Struct: &syntax.Struct{
					Ident:   syntax.Ident{Value: "Point"},
					Compact: true,
					Fields: []*syntax.Field{
						{Ident: syntax.Ident{Value: "x"}, Type: named(fieldType)},
					},
				},
			}},
		}},
	}}
	buf, err := slicemsgpack.EncodeFiles(files)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "demo.msgpack")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietOutput() outputFlags {
	return outputFlags{diagFormat: "human", color: "never"}
}

func TestCompileText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "demo.txt")
	cmd := &cmdCompile{
		input:   inputFlags{syntaxPath: writeSyntax(t, "int32")},
		output:  quietOutput(),
		format:  "text",
		outPath: out,
	}
	if rc := cmd.run(context.Background(), nil); rc != 0 {
		t.Fatalf("compile returned %d", rc)
	}
	text, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`file "demo.slice" {`, `struct "Point" {`, `type = "int32"`} {
		if !strings.Contains(string(text), want) {
			t.Errorf("output does not contain %q:\n%s", want, text)
		}
	}
}

func TestCompileMsgpackRoundTrip(t *testing.T) {
	input := writeSyntax(t, "int32")
	out := filepath.Join(t.TempDir(), "out.msgpack")
	cmd := &cmdCompile{
		input:   inputFlags{syntaxPath: input},
		output:  quietOutput(),
		format:  "msgpack",
		outPath: out,
	}
	if rc := cmd.run(context.Background(), nil); rc != 0 {
		t.Fatalf("compile returned %d", rc)
	}
	want, _ := os.ReadFile(input)
	got, _ := os.ReadFile(out)
	if string(want) != string(got) {
		t.Errorf("msgpack output differs from its input")
	}
}

func TestCompileErrors(t *testing.T) {
	cmd := &cmdCompile{
		input:  inputFlags{syntaxPath: writeSyntax(t, "Missing")},
		output: quietOutput(),
	}
	if rc := cmd.run(context.Background(), nil); rc != 1 {
		t.Errorf("compile returned %d, want 1", rc)
	}
}

func TestCompileUsage(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cmdCompile
		argv []string
	}{
		{"no sources", &cmdCompile{output: quietOutput()}, nil},
		{"bad format", &cmdCompile{output: quietOutput(), format: "yaml"}, []string{"demo.slice"}},
		{"bad diagnostic format", &cmdCompile{output: outputFlags{diagFormat: "xml", color: "never"}}, []string{"demo.slice"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if rc := test.cmd.run(context.Background(), test.argv); rc != 1 {
				t.Errorf("compile returned %d, want 1", rc)
			}
		})
	}
}

func TestCompileRequiresFrontend(t *testing.T) {
	t.Setenv(frontendEnv, "")
	src := filepath.Join(t.TempDir(), "demo.slice")
	if err := os.WriteFile(src, []byte("module Demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := &cmdCompile{output: quietOutput()}
	if rc := cmd.run(context.Background(), []string{src}); rc != 1 {
		t.Errorf("compile returned %d, want 1", rc)
	}
}

func TestGenerate(t *testing.T) {
	t.Setenv(pluginPathEnv, "")
	outDir := t.TempDir()
	cmd := &cmdGenerate{
		input:   inputFlags{syntaxPath: writeSyntax(t, "int32")},
		output:  quietOutput(),
		codegen: codegenFlags{outDir: outDir, language: "go"},
	}
	if rc := cmd.run(context.Background(), nil); rc != 0 {
		t.Fatalf("generate returned %d", rc)
	}
	src, err := os.ReadFile(filepath.Join(outDir, "demo", "demo_slice.go"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"package demo\n", "type Point struct {"} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated code does not contain %q:\n%s", want, src)
		}
	}
}

func TestGenerateUnknownLanguage(t *testing.T) {
	t.Setenv(pluginPathEnv, "")
	cmd := &cmdGenerate{
		input:   inputFlags{syntaxPath: writeSyntax(t, "int32")},
		output:  quietOutput(),
		codegen: codegenFlags{outDir: t.TempDir(), language: "rust"},
	}
	if rc := cmd.run(context.Background(), nil); rc != 1 {
		t.Errorf("generate returned %d, want 1", rc)
	}
}

func TestGenerateMissingPlugin(t *testing.T) {
	cmd := &cmdGenerate{
		input:  inputFlags{syntaxPath: writeSyntax(t, "int32")},
		output: quietOutput(),
		codegen: codegenFlags{
			outDir:     t.TempDir(),
			pluginPath: t.TempDir(),
			language:   "go",
		},
	}
	if rc := cmd.run(context.Background(), nil); rc != 1 {
		t.Errorf("generate returned %d, want 1", rc)
	}
}

func TestBuildTargets(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "slicec.toml")
	err := os.WriteFile(manifest, []byte(`
[[target]]
name = "empty"
sources = ["slice"]
output_dir = "gen"

[[target]]
name = "unbuilt"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "slice"), 0o755); err != nil {
		t.Fatal(err)
	}

	build := func(targets ...string) int {
		cmd := &cmdBuild{
			output:   quietOutput(),
			codegen:  codegenFlags{language: "go"},
			manifest: manifest,
		}
		return cmd.run(context.Background(), targets)
	}
	t.Setenv(pluginPathEnv, "")
	if rc := build("missing"); rc != 1 {
		t.Errorf("build of an unknown target returned %d, want 1", rc)
	}
	if rc := build("unbuilt"); rc != 1 {
		t.Errorf("build of a target without output_dir returned %d, want 1", rc)
	}
	// A directory source is an error; the front end is never needed.
	if rc := build("empty"); rc != 1 {
		t.Errorf("build of a directory source returned %d, want 1", rc)
	}
}

func TestOutPath(t *testing.T) {
	t.Parallel()

	path, err := outPath("gen", []string{"demo", "demo_slice.go"})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("gen", "demo", "demo_slice.go"); path != want {
		t.Errorf("outPath = %q, want %q", path, want)
	}

	for _, parts := range [][]string{
		nil,
		{""},
		{"."},
		{"demo", ".."},
		{"/etc", "passwd"},
		{"demo/nested.go"},
	} {
		if _, err := outPath("gen", parts); err == nil {
			t.Errorf("outPath(%#v) succeeded", parts)
		}
	}
}

func TestWriteOutputFiles(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(t.TempDir(), "gen")
	err := writeOutputFiles(outDir, []slicemsgpack.OutputFile{
		{Path: []string{"a", "a_slice.go"}, Content: []byte("package a\n")},
		{Path: []string{"b.go"}, Content: []byte("package b\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "a", "a_slice.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "package a\n" {
		t.Errorf("a/a_slice.go = %q", got)
	}
	if _, err := os.Stat(filepath.Join(outDir, "b.go")); err != nil {
		t.Error(err)
	}

	err = writeOutputFiles(outDir, []slicemsgpack.OutputFile{{Path: []string{".."}}})
	if err == nil {
		t.Error("writeOutputFiles accepted an escaping path")
	}
}
