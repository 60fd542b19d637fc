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

package syntax

type Ident struct {
	Value string `msgpack:"value"`
	Span  Span   `msgpack:"span"`
}

type Attribute struct {
	Directive string   `msgpack:"directive"`
	Args      []string `msgpack:"args,omitempty"`
	Span      Span     `msgpack:"span"`
}

// Module may use a scoped identifier (`module Foo::Bar`) as shorthand for
// nested modules.
type Module struct {
	Ident      Ident        `msgpack:"ident"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
	Decls      []*Decl      `msgpack:"decls,omitempty"`
}

// Decl holds exactly one non-nil declaration.
type Decl struct {
	Module     *Module     `msgpack:"module,omitempty"`
	Struct     *Struct     `msgpack:"struct,omitempty"`
	Class      *Class      `msgpack:"class,omitempty"`
	Exception  *Exception  `msgpack:"exception,omitempty"`
	Interface  *Interface  `msgpack:"interface,omitempty"`
	Enum       *Enum       `msgpack:"enum,omitempty"`
	CustomType *CustomType `msgpack:"custom_type,omitempty"`
	TypeAlias  *TypeAlias  `msgpack:"type_alias,omitempty"`
}

// Node returns the declaration held by d, or nil if d is empty.
func (d *Decl) Node() any {
	switch {
	case d.Module != nil:
		return d.Module
	case d.Struct != nil:
		return d.Struct
	case d.Class != nil:
		return d.Class
	case d.Exception != nil:
		return d.Exception
	case d.Interface != nil:
		return d.Interface
	case d.Enum != nil:
		return d.Enum
	case d.CustomType != nil:
		return d.CustomType
	case d.TypeAlias != nil:
		return d.TypeAlias
	}
	return nil
}

type Struct struct {
	Ident      Ident        `msgpack:"ident"`
	Compact    bool         `msgpack:"compact,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
	Fields     []*Field     `msgpack:"fields,omitempty"`
}

type Class struct {
	Ident      Ident        `msgpack:"ident"`
	CompactID  *Integer     `msgpack:"compact_id,omitempty"`
	Base       *TypeRef     `msgpack:"base,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
	Fields     []*Field     `msgpack:"fields,omitempty"`
}

type Exception struct {
	Ident      Ident        `msgpack:"ident"`
	Base       *TypeRef     `msgpack:"base,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
	Fields     []*Field     `msgpack:"fields,omitempty"`
}

type Field struct {
	Ident      Ident        `msgpack:"ident"`
	Type       *TypeRef     `msgpack:"type"`
	Tag        *Integer     `msgpack:"tag,omitempty"`
	Default    *Literal     `msgpack:"default,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

type Interface struct {
	Ident      Ident        `msgpack:"ident"`
	Bases      []*TypeRef   `msgpack:"bases,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
	Operations []*Operation `msgpack:"operations,omitempty"`
}

type Operation struct {
	Ident      Ident        `msgpack:"ident"`
	Idempotent bool         `msgpack:"idempotent,omitempty"`
	Parameters []*Parameter `msgpack:"parameters,omitempty"`
	Return     *Return      `msgpack:"return,omitempty"`
	Throws     *Throws      `msgpack:"throws,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

// Return is an operation's return type. When Tuple is false, Members holds
// a single anonymous member.
type Return struct {
	Tuple   bool         `msgpack:"tuple,omitempty"`
	Members []*Parameter `msgpack:"members,omitempty"`
	Span    Span         `msgpack:"span"`
}

type Throws struct {
	Types []*TypeRef `msgpack:"types,omitempty"`
	Span  Span       `msgpack:"span"`
}

type Parameter struct {
	Ident      Ident        `msgpack:"ident"`
	Type       *TypeRef     `msgpack:"type"`
	Tag        *Integer     `msgpack:"tag,omitempty"`
	Streamed   bool         `msgpack:"streamed,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

type Enum struct {
	Ident       Ident         `msgpack:"ident"`
	Underlying  *TypeRef      `msgpack:"underlying,omitempty"`
	Unchecked   bool          `msgpack:"unchecked,omitempty"`
	Attributes  []*Attribute  `msgpack:"attributes,omitempty"`
	Comment     *DocComment   `msgpack:"comment,omitempty"`
	Span        Span          `msgpack:"span"`
	Enumerators []*Enumerator `msgpack:"enumerators,omitempty"`
}

type Enumerator struct {
	Ident      Ident        `msgpack:"ident"`
	Value      *Integer     `msgpack:"value,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

type CustomType struct {
	Ident      Ident        `msgpack:"ident"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

type TypeAlias struct {
	Ident      Ident        `msgpack:"ident"`
	Underlying *TypeRef     `msgpack:"underlying"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Comment    *DocComment  `msgpack:"comment,omitempty"`
	Span       Span         `msgpack:"span"`
}

type TypeRefKind uint8

const (
	TypeNamed TypeRefKind = iota
	TypeSequence
	TypeDictionary
)

// TypeRef is a use of a type. Named references carry the name as written,
// which may be a builtin (`int32`), relative (`S`) or scoped (`::Test::S`).
type TypeRef struct {
	Kind       TypeRefKind  `msgpack:"kind"`
	Name       string       `msgpack:"name,omitempty"`
	Element    *TypeRef     `msgpack:"element,omitempty"`
	Key        *TypeRef     `msgpack:"key,omitempty"`
	Value      *TypeRef     `msgpack:"value,omitempty"`
	Optional   bool         `msgpack:"optional,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Span       Span         `msgpack:"span"`
}

type Integer struct {
	Value int64 `msgpack:"value"`
	Span  Span  `msgpack:"span"`
}

// Literal is a default value as written in the source (`5`, `"hi"`, `Red`).
type Literal struct {
	Text string `msgpack:"text"`
	Span Span   `msgpack:"span"`
}

type DocComment struct {
	Overview string        `msgpack:"overview,omitempty"`
	Params   []*ParamTag   `msgpack:"params,omitempty"`
	Returns  []*ReturnsTag `msgpack:"returns,omitempty"`
	Throws   []*ThrowsTag  `msgpack:"throws,omitempty"`
	See      []*SeeTag     `msgpack:"see,omitempty"`
	Span     Span          `msgpack:"span"`
}

type ParamTag struct {
	Ident   Ident  `msgpack:"ident"`
	Message string `msgpack:"message,omitempty"`
	Span    Span   `msgpack:"span"`
}

// ReturnsTag is `@returns[ name]: message`. Ident is nil when no name is given.
type ReturnsTag struct {
	Ident   *Ident `msgpack:"ident,omitempty"`
	Message string `msgpack:"message,omitempty"`
	Span    Span   `msgpack:"span"`
}

type ThrowsTag struct {
	Exception *Ident `msgpack:"exception,omitempty"`
	Message   string `msgpack:"message,omitempty"`
	Span      Span   `msgpack:"span"`
}

type SeeTag struct {
	Link Ident `msgpack:"link"`
	Span Span  `msgpack:"span"`
}
