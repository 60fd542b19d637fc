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

// Package slicetext writes a human-readable dump of a compiled entity
// graph, one block per file, module and declaration.
package slicetext

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/externl/slicec/slice/grammar"
)

func Encode(ast *grammar.Ast) string {
	var buf strings.Builder
	EncodeTo(ast, &buf)
	return buf.String()
}

func EncodeTo(ast *grammar.Ast, w io.Writer) error {
	e := encoder{w: w}
	for _, file := range ast.Files() {
		if e.err != nil {
			break
		}
		e.visitFile(file)
	}
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

// block writes `header {`, the lines written by body, then `}`.
func (e *encoder) block(header string, body func()) {
	e.line(header + " {")
	e.indent += 1
	body()
	e.indent -= 1
	e.line("}")
}

func (e *encoder) visitFile(f *grammar.File) {
	e.block("file "+quote(f.Path), func() {
		e.linef("mode = .%s", f.Mode)
		e.linef("source = %s", fmtBool(f.IsSource))
		for _, module := range f.Modules {
			e.visitEntity(module)
		}
	})
}

func (e *encoder) visitEntity(entity grammar.Entity) {
	header := fmt.Sprintf("%s %s", strings.ReplaceAll(entity.Kind(), " ", "_"), quote(entity.Identifier()))
	e.block(header, func() {
		e.visitCommon(entity)
		switch entity := entity.(type) {
		case *grammar.Module:
			for _, child := range entity.Contents {
				e.visitEntity(child)
			}
		case *grammar.Struct:
			if entity.Compact {
				e.line("compact = .true")
			}
			e.visitFields(entity.Fields)
		case *grammar.Class:
			if entity.CompactID != nil {
				e.linef("compact_id = %d", entity.CompactID.Value)
			}
			if entity.Base != nil {
				e.linef("base = %s", quote(scoped(entity.Base)))
			}
			e.visitFields(entity.Fields)
		case *grammar.Exception:
			if entity.Base != nil {
				e.linef("base = %s", quote(scoped(entity.Base)))
			}
			e.visitFields(entity.Fields)
		case *grammar.Interface:
			for _, base := range entity.Bases {
				e.linef("base = %s", quote(scoped(base)))
			}
			for _, op := range entity.Operations {
				e.visitEntity(op)
			}
		case *grammar.Operation:
			e.visitOperation(entity)
		case *grammar.Enum:
			if entity.Underlying != nil {
				e.linef("underlying = %s", quote(entity.Underlying.TypeString()))
			}
			if entity.Unchecked {
				e.line("unchecked = .true")
			}
			for _, enumerator := range entity.Enumerators {
				e.block("enumerator "+quote(enumerator.Ident), func() {
					e.visitCommon(enumerator)
					e.linef("value = %s", strconv.FormatInt(enumerator.Value, 10))
				})
			}
		case *grammar.CustomType:
		case *grammar.TypeAlias:
			e.linef("type = %s", quote(entity.Underlying.TypeString()))
		default:
			panic(fmt.Sprintf("slicetext: unhandled entity %s (%T)", entity.ScopedIdentifier(), entity))
		}
	})
}

// visitCommon writes the properties shared by every entity.
func (e *encoder) visitCommon(entity grammar.Entity) {
	if t, ok := entity.(grammar.DeclaredType); ok && t.EncodingsResolved() {
		modes := t.SupportedEncodings().Modes()
		names := make([]string, len(modes))
		for ii, mode := range modes {
			names[ii] = "." + mode.String()
		}
		e.linef("encodings = [%s]", strings.Join(names, ", "))
	}
	if c := entity.Comment(); c != nil && strings.TrimSpace(c.Overview) != "" {
		e.linef("doc = %s", quote(strings.TrimSpace(c.Overview)))
	}
	for _, attr := range entity.Attributes() {
		args := make([]string, len(attr.Args))
		for ii, arg := range attr.Args {
			args[ii] = quote(arg)
		}
		e.linef("attribute %s [%s]", quote(attr.Directive), strings.Join(args, ", "))
	}
}

func (e *encoder) visitFields(fields []*grammar.Field) {
	for _, f := range fields {
		e.block("field "+quote(f.Ident), func() {
			e.visitCommon(f)
			e.linef("type = %s", quote(f.DataType.TypeString()))
			if f.Tag != nil {
				e.linef("tag = %d", f.Tag.Value)
			}
			if f.Default != nil {
				e.linef("default = %s", quote(f.Default.Text))
			}
		})
	}
}

func (e *encoder) visitOperation(op *grammar.Operation) {
	if op.Idempotent {
		e.line("idempotent = .true")
	}
	e.linef("encoding = .%s", op.Encoding())
	visitParameter := func(keyword string, p *grammar.Parameter) {
		e.block(keyword+" "+quote(p.Ident), func() {
			e.visitCommon(p)
			e.linef("type = %s", quote(p.DataType.TypeString()))
			if p.Tag != nil {
				e.linef("tag = %d", p.Tag.Value)
			}
			if p.IsStreamed {
				e.line("streamed = .true")
			}
		})
	}
	for _, p := range op.Parameters {
		visitParameter("parameter", p)
	}
	for _, p := range op.ReturnMembers {
		visitParameter("return", p)
	}
	for _, thrown := range op.Thrown() {
		e.linef("throws = %s", quote(scoped(thrown)))
	}
}

func scoped(e grammar.Entity) string {
	return "::" + e.ScopedIdentifier()
}

func fmtBool(value bool) string {
	if value {
		return ".true"
	}
	return ".false"
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
