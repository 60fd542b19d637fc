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

package grammar

import (
	"github.com/externl/slicec/slice/syntax"
)

type Element interface {
	// Kind is a human-readable name such as "struct" or "custom type".
	Kind() string
}

type Entity interface {
	Element
	Identifier() string
	ScopedIdentifier() string
	Span() syntax.Span
	Attributes() []*Attribute
	Comment() *DocComment
	Parent() Entity
	File() *File
}

type Type interface {
	Element
	TypeString() string
	FixedWireSize() (uint32, bool)
	IsClassType() bool
	TagFormat() (TagFormat, bool)
	SupportedEncodings() SupportedEncodings
}

// DeclaredType is a named type whose supported encodings are resolved once
// by the compiler.
type DeclaredType interface {
	Entity
	Type
	ResolveSupportedEncodings(SupportedEncodings)
	EncodingsResolved() bool
}

// EntityInfo carries the fields shared by every named entity.
type EntityInfo struct {
	Ident      string
	Scope      string
	Location   syntax.Span
	Attrs      []*Attribute
	DocComment *DocComment
	Container  Entity
	SourceFile *File
}

func (e *EntityInfo) Identifier() string {
	return e.Ident
}

func (e *EntityInfo) ScopedIdentifier() string {
	if e.Scope == "" {
		return e.Ident
	}
	return e.Scope + "::" + e.Ident
}

func (e *EntityInfo) Span() syntax.Span {
	return e.Location
}

func (e *EntityInfo) Attributes() []*Attribute {
	return e.Attrs
}

func (e *EntityInfo) Comment() *DocComment {
	return e.DocComment
}

func (e *EntityInfo) Parent() Entity {
	return e.Container
}

func (e *EntityInfo) File() *File {
	return e.SourceFile
}

type File struct {
	Path     string
	IsSource bool
	Mode     Mode
	// ModeSpan is nil when the file does not declare a mode.
	ModeSpan   *syntax.Span
	Attributes []*Attribute
	Modules    []*Module
}

func (f *File) HasExplicitMode() bool {
	return f.ModeSpan != nil
}

type Module struct {
	EntityInfo
	Contents []Entity
}

func (*Module) Kind() string { return "module" }

// Integer is a literal integer carried with its span, such as a tag or a
// compact type id.
type Integer struct {
	Value int64
	Span  syntax.Span
}

// Literal is a default value as written in the source.
type Literal struct {
	Text string
	Span syntax.Span
}

// IsDeprecated reports whether an entity or any of its parents carries the
// deprecated attribute.
func IsDeprecated(e Entity) (*Deprecated, bool) {
	for e != nil {
		if d, ok := FindAttribute[*Deprecated](e.Attributes()); ok {
			return d, true
		}
		e = e.Parent()
	}
	return nil, false
}
