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


package testutil

import (
	"github.com/externl/slicec/slice/syntax"
)

// Builders for syntax trees. Nodes are created with zero spans; tests that
// check spans set them on the returned nodes.

func File(path, mode string, modules ...*syntax.Module) *syntax.File {
	f := &syntax.File{Path: path, IsSource: true, Modules: modules}
	if mode != "" {
		f.Mode = &syntax.Mode{Value: mode}
	}
	return f
}

func Ident(name string) syntax.Ident {
	return syntax.Ident{Value: name}
}

func Attr(directive string, args ...string) *syntax.Attribute {
	return &syntax.Attribute{Directive: directive, Args: args}
}

func Module(name string, decls ...*syntax.Decl) *syntax.Module {
	return &syntax.Module{Ident: Ident(name), Decls: decls}
}

func Named(name string) *syntax.TypeRef {
	return &syntax.TypeRef{Kind: syntax.TypeNamed, Name: name}
}

func Optional(ref *syntax.TypeRef) *syntax.TypeRef {
	ref.Optional = true
	return ref
}

func Sequence(element *syntax.TypeRef) *syntax.TypeRef {
	return &syntax.TypeRef{Kind: syntax.TypeSequence, Element: element}
}

func Dictionary(key, value *syntax.TypeRef) *syntax.TypeRef {
	return &syntax.TypeRef{Kind: syntax.TypeDictionary, Key: key, Value: value}
}

func Field(name string, ref *syntax.TypeRef) *syntax.Field {
	return &syntax.Field{Ident: Ident(name), Type: ref}
}

func TaggedField(name string, tag int64, ref *syntax.TypeRef) *syntax.Field {
	f := Field(name, ref)
	f.Tag = &syntax.Integer{Value: tag}
	return f
}

func DefaultField(name string, ref *syntax.TypeRef, literal string) *syntax.Field {
	f := Field(name, ref)
	f.Default = &syntax.Literal{Text: literal}
	return f
}

func Param(name string, ref *syntax.TypeRef) *syntax.Parameter {
	return &syntax.Parameter{Ident: Ident(name), Type: ref}
}

func TaggedParam(name string, tag int64, ref *syntax.TypeRef) *syntax.Parameter {
	p := Param(name, ref)
	p.Tag = &syntax.Integer{Value: tag}
	return p
}

func Streamed(p *syntax.Parameter) *syntax.Parameter {
	p.Streamed = true
	return p
}

func Struct(name string, fields ...*syntax.Field) *syntax.Decl {
	return &syntax.Decl{Struct: &syntax.Struct{Ident: Ident(name), Fields: fields}}
}

func CompactStruct(name string, fields ...*syntax.Field) *syntax.Decl {
	d := Struct(name, fields...)
	d.Struct.Compact = true
	return d
}

// Class declares a class. An empty base means the class has none.
func Class(name, base string, fields ...*syntax.Field) *syntax.Decl {
	c := &syntax.Class{Ident: Ident(name), Fields: fields}
	if base != "" {
		c.Base = Named(base)
	}
	return &syntax.Decl{Class: c}
}

func Exception(name, base string, fields ...*syntax.Field) *syntax.Decl {
	e := &syntax.Exception{Ident: Ident(name), Fields: fields}
	if base != "" {
		e.Base = Named(base)
	}
	return &syntax.Decl{Exception: e}
}

func Interface(name string, ops ...*syntax.Operation) *syntax.Decl {
	return &syntax.Decl{Interface: &syntax.Interface{Ident: Ident(name), Operations: ops}}
}

func Operation(name string, params ...*syntax.Parameter) *syntax.Operation {
	return &syntax.Operation{Ident: Ident(name), Parameters: params}
}

// Returns sets a single anonymous return type.
func Returns(op *syntax.Operation, ref *syntax.TypeRef) *syntax.Operation {
	op.Return = &syntax.Return{
		Members: []*syntax.Parameter{{Type: ref}},
	}
	return op
}

func ReturnsTuple(op *syntax.Operation, members ...*syntax.Parameter) *syntax.Operation {
	op.Return = &syntax.Return{Tuple: true, Members: members}
	return op
}

func Throws(op *syntax.Operation, exceptions ...string) *syntax.Operation {
	op.Throws = &syntax.Throws{}
	for _, name := range exceptions {
		op.Throws.Types = append(op.Throws.Types, Named(name))
	}
	return op
}

func Enum(name, underlying string, enumerators ...string) *syntax.Decl {
	e := &syntax.Enum{Ident: Ident(name)}
	if underlying != "" {
		e.Underlying = Named(underlying)
	}
	for _, enumerator := range enumerators {
		e.Enumerators = append(e.Enumerators, &syntax.Enumerator{Ident: Ident(enumerator)})
	}
	return &syntax.Decl{Enum: e}
}

func CustomType(name string) *syntax.Decl {
	return &syntax.Decl{CustomType: &syntax.CustomType{Ident: Ident(name)}}
}

func TypeAlias(name string, underlying *syntax.TypeRef) *syntax.Decl {
	return &syntax.Decl{TypeAlias: &syntax.TypeAlias{Ident: Ident(name), Underlying: underlying}}
}

func Span(file string, start, end uint32) *syntax.Span {
	span := syntax.NewSpan(file, start, end)
	return &span
}
