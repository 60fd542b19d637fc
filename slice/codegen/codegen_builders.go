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
	"strings"
)

// CodeBlock is a fragment of Go source, built one line at a time.
type CodeBlock struct {
	buf     strings.Builder
	indent  int
	imports map[string]struct{}
}

func (b *CodeBlock) Line(s string) {
	if s == "" {
		b.buf.WriteString("\n")
		return
	}
	b.buf.WriteString(strings.Repeat("\t", b.indent))
	b.buf.WriteString(s)
	b.buf.WriteString("\n")
}

func (b *CodeBlock) Linef(format string, a ...any) {
	b.Line(fmt.Sprintf(format, a...))
}

// open writes a line ending in an opening brace and indents what follows.
func (b *CodeBlock) open(format string, a ...any) {
	b.Linef(format, a...)
	b.indent += 1
}

// middle writes a line that ends one block and begins another, such as
// `} else {`.
func (b *CodeBlock) middle(format string, a ...any) {
	b.indent -= 1
	b.Linef(format, a...)
	b.indent += 1
}

// close dedents and writes the closing line.
func (b *CodeBlock) close(s string) {
	b.indent -= 1
	b.Line(s)
}

func (b *CodeBlock) comment(lines []string) {
	for _, text := range lines {
		if text == "" {
			b.Line("//")
			continue
		}
		b.Line("// " + text)
	}
}

// appendBlock copies the lines of other at the current indentation, along with
// its imports.
func (b *CodeBlock) appendBlock(other *CodeBlock) {
	for _, l := range strings.SplitAfter(other.buf.String(), "\n") {
		if l == "" {
			continue
		}
		if l == "\n" {
			b.buf.WriteString(l)
			continue
		}
		b.buf.WriteString(strings.Repeat("\t", b.indent))
		b.buf.WriteString(l)
	}
	for path := range other.imports {
		b.addImport(path)
	}
}

func (b *CodeBlock) addImport(path string) {
	if b.imports == nil {
		b.imports = make(map[string]struct{})
	}
	b.imports[path] = struct{}{}
}

// Imports returns the import paths used by the block, sorted.
func (b *CodeBlock) Imports() []string {
	out := make([]string, 0, len(b.imports))
	for path := range b.imports {
		out = append(out, path)
	}
	slices.Sort(out)
	return out
}

func (b *CodeBlock) IsEmpty() bool {
	return strings.TrimSpace(b.buf.String()) == ""
}

func (b *CodeBlock) String() string {
	return b.buf.String()
}

// ContainerBuilder builds a type declaration whose body is a list of lines,
// such as a struct or an interface.
type ContainerBuilder struct {
	keyword string
	name    string
	comment []string
	members []string
}

func NewContainerBuilder(keyword, name string) *ContainerBuilder {
	return &ContainerBuilder{keyword: keyword, name: name}
}

func (c *ContainerBuilder) AddComment(lines ...string) *ContainerBuilder {
	c.comment = append(c.comment, lines...)
	return c
}

func (c *ContainerBuilder) AddMember(format string, a ...any) *ContainerBuilder {
	c.members = append(c.members, fmt.Sprintf(format, a...))
	return c
}

func (c *ContainerBuilder) Build() *CodeBlock {
	b := &CodeBlock{}
	b.comment(c.comment)
	if len(c.members) == 0 {
		b.Linef("type %s %s{}", c.name, c.keyword)
		return b
	}
	b.open("type %s %s {", c.name, c.keyword)
	for _, member := range c.members {
		b.Line(member)
	}
	b.close("}")
	return b
}

// FunctionBuilder builds a function or method declaration.
type FunctionBuilder struct {
	name     string
	receiver string
	comment  []string
	params   []string
	results  []string
	body     *CodeBlock
}

func NewFunctionBuilder(name string) *FunctionBuilder {
	return &FunctionBuilder{name: name, body: &CodeBlock{}}
}

func (f *FunctionBuilder) SetReceiver(receiver string) *FunctionBuilder {
	f.receiver = receiver
	return f
}

func (f *FunctionBuilder) AddComment(lines ...string) *FunctionBuilder {
	f.comment = append(f.comment, lines...)
	return f
}

func (f *FunctionBuilder) AddParameter(name, typ string) *FunctionBuilder {
	f.params = append(f.params, name+" "+typ)
	return f
}

func (f *FunctionBuilder) AddResult(typ string) *FunctionBuilder {
	f.results = append(f.results, typ)
	return f
}

// Body is the block that the function's statements are written to.
func (f *FunctionBuilder) Body() *CodeBlock {
	return f.body
}

func (f *FunctionBuilder) signature() string {
	var buf strings.Builder
	buf.WriteString("func ")
	if f.receiver != "" {
		fmt.Fprintf(&buf, "(%s) ", f.receiver)
	}
	fmt.Fprintf(&buf, "%s(%s)", f.name, strings.Join(f.params, ", "))
	switch len(f.results) {
	case 0:
	case 1:
		if strings.Contains(f.results[0], " ") {
			// A named result must be parenthesized.
			fmt.Fprintf(&buf, " (%s)", f.results[0])
		} else {
			buf.WriteString(" " + f.results[0])
		}
	default:
		fmt.Fprintf(&buf, " (%s)", strings.Join(f.results, ", "))
	}
	return buf.String()
}

func (f *FunctionBuilder) Build() *CodeBlock {
	b := &CodeBlock{}
	b.comment(f.comment)
	if f.body.IsEmpty() {
		b.Line(f.signature() + " {}")
	} else {
		b.open("%s {", f.signature())
		b.appendBlock(f.body)
		b.close("}")
	}
	for path := range f.body.imports {
		b.addImport(path)
	}
	return b
}
