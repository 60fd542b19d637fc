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

// Package codegen generates Go bindings for a compiled Slice AST. The
// generated code depends on the runtime package
// [github.com/externl/slicec/slice].
package codegen

import (
	"fmt"
	"go/format"
	"iter"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/externl/slicec/slice/grammar"
)

const runtimeImport = "github.com/externl/slicec/slice"

// CodeMap holds the generated code of each entity, in declaration order.
type CodeMap struct {
	blocks map[grammar.Entity]*CodeBlock
	order  []grammar.Entity
}

func (m *CodeMap) insert(e grammar.Entity, b *CodeBlock) {
	if m.blocks == nil {
		m.blocks = make(map[grammar.Entity]*CodeBlock)
	}
	if _, ok := m.blocks[e]; !ok {
		m.order = append(m.order, e)
	}
	m.blocks[e] = b
}

func (m *CodeMap) Get(e grammar.Entity) (*CodeBlock, bool) {
	b, ok := m.blocks[e]
	return b, ok
}

func (m *CodeMap) Len() int {
	return len(m.order)
}

// Entities iterates over the entities that have generated code.
func (m *CodeMap) Entities() iter.Seq2[grammar.Entity, *CodeBlock] {
	return func(yield func(grammar.Entity, *CodeBlock) bool) {
		for _, e := range m.order {
			if !yield(e, m.blocks[e]) {
				return
			}
		}
	}
}

type GenerateOption interface {
	applyGenerateOption(g *generator)
}

type generateOption func(g *generator)

func (fn generateOption) applyGenerateOption(g *generator) {
	fn(g)
}

// WithPackagePrefix sets the import path prefix of generated packages. A
// type declared in top-level module `Other` is imported from
// `<prefix>/other`.
func WithPackagePrefix(prefix string) GenerateOption {
	return generateOption(func(g *generator) {
		g.prefix = prefix
	})
}

func WithLogger(log *zap.Logger) GenerateOption {
	return generateOption(func(g *generator) {
		g.log = log
	})
}

type generator struct {
	log     *zap.Logger
	prefix  string
	codeMap *CodeMap

	// State of the entity being generated.
	cur  *CodeBlock
	pkg  string
	temp int
}

// Generate emits a code block for every declaration in the source files of
// ast. It must only be called on an AST that compiled without errors.
func Generate(ast *grammar.Ast, opts ...GenerateOption) *CodeMap {
	g := &generator{
		log:     zap.NewNop(),
		codeMap: &CodeMap{},
	}
	for _, opt := range opts {
		opt.applyGenerateOption(g)
	}
	for _, file := range ast.Files() {
		if !file.IsSource {
			continue
		}
		for _, module := range file.Modules {
			g.visit(module)
		}
	}
	g.log.Debug("generated code", zap.Int("blocks", g.codeMap.Len()))
	return g.codeMap
}

func (g *generator) visit(e grammar.Entity) {
	switch e := e.(type) {
	case *grammar.Module:
		for _, child := range e.Contents {
			g.visit(child)
		}
	case *grammar.Struct:
		emit(g, e, g.visitStruct)
	case *grammar.Class:
		emit(g, e, g.visitClass)
	case *grammar.Exception:
		emit(g, e, g.visitException)
	case *grammar.Enum:
		emit(g, e, g.visitEnum)
	case *grammar.Interface:
		emit(g, e, g.visitInterface)
	case *grammar.CustomType:
		emit(g, e, g.visitCustomType)
	case *grammar.TypeAlias:
		emit(g, e, g.visitTypeAlias)
	default:
		panic(fmt.Sprintf("codegen: unhandled entity %s (%T)", e.ScopedIdentifier(), e))
	}
}

func emit[T grammar.Entity](g *generator, e T, visit func(T)) {
	g.cur = &CodeBlock{}
	g.pkg = packageName(outermostModule(e))
	g.temp = 0
	visit(e)
	g.codeMap.insert(e, g.cur)
	g.cur = nil
}

// rt returns a qualified name from the runtime package.
func (g *generator) rt(name string) string {
	g.cur.addImport(runtimeImport)
	return "slice." + name
}

func (g *generator) use(importPath string) {
	g.cur.addImport(importPath)
}

// qualify returns prefix+typeName(e)+suffix, qualified with its package
// when e is declared under a different top-level module.
func (g *generator) qualify(e grammar.Entity, prefix, suffix string) string {
	name := prefix + typeName(e) + suffix
	pkg := packageName(outermostModule(e))
	if pkg == g.pkg {
		return name
	}
	g.use(path.Join(g.prefix, pkg))
	return pkg + "." + name
}

func (g *generator) fresh(prefix string) string {
	g.temp += 1
	return fmt.Sprintf("%s%d", prefix, g.temp)
}

// FileName is the name of the Go file generated for a Slice file.
func FileName(file *grammar.File) string {
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	return lowerCase.String(base) + "_slice.go"
}

// PackageName is the Go package of the code generated for a Slice file.
func PackageName(file *grammar.File) (string, bool) {
	if len(file.Modules) == 0 {
		return "", false
	}
	return packageName(file.Modules[0]), true
}

// Render joins the blocks generated for the entities of file into a
// formatted Go source file.
func Render(file *grammar.File, codeMap *CodeMap) ([]byte, error) {
	pkg, ok := PackageName(file)
	if !ok {
		return nil, fmt.Errorf("rendering %s: file declares no modules", file.Path)
	}

	imports := map[string]struct{}{}
	var body strings.Builder
	for e, block := range codeMap.Entities() {
		if e.File() != file || block.IsEmpty() {
			continue
		}
		for _, importPath := range block.Imports() {
			imports[importPath] = struct{}{}
		}
		body.WriteString("\n")
		body.WriteString(block.String())
	}

	var src strings.Builder
	fmt.Fprintf(&src, "// Code generated by slicec from %s. DO NOT EDIT.\n\n", filepath.Base(file.Path))
	fmt.Fprintf(&src, "package %s\n", pkg)
	if len(imports) > 0 {
		sorted := make([]string, 0, len(imports))
		for importPath := range imports {
			sorted = append(sorted, importPath)
		}
		slices.Sort(sorted)
		src.WriteString("\nimport (\n")
		for _, importPath := range sorted {
			fmt.Fprintf(&src, "\t%q\n", importPath)
		}
		src.WriteString(")\n")
	}
	src.WriteString(body.String())

	out, err := format.Source([]byte(src.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting code generated for %s: %w", file.Path, err)
	}
	return out, nil
}
