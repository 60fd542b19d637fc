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

package compiler

import (
	"fmt"
	"strings"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/syntax"
)

const singleReturnIdentifier = "returnValue"

func (c *compiler) link(files []*syntax.File) {
	for _, f := range files {
		c.linkFile(f)
	}
	for _, resolve := range c.resolvers {
		resolve()
	}
	c.resolvers = nil
	c.checkTypeAliases()
	for _, check := range c.kindChecks {
		check()
	}
	c.kindChecks = nil
}

func (c *compiler) linkFile(parsed *syntax.File) {
	file := &grammar.File{
		Path:     parsed.Path,
		IsSource: parsed.IsSource,
		Mode:     grammar.DefaultMode,
	}
	if parsed.Mode != nil {
		span := parsed.Mode.Span
		file.ModeSpan = &span
		if mode, ok := grammar.ParseMode(parsed.Mode.Value); ok {
			file.Mode = mode
		} else {
			c.push(diagnostics.InvalidEncodingMode(parsed.Mode.Value).SetSpan(span))
		}
	}
	for _, problem := range parsed.Problems {
		switch problem.Kind {
		case syntax.ProblemMalformedDocComment:
			c.push(diagnostics.MalformedDocComment(problem.Message).SetSpan(problem.Span))
		default:
			c.push(diagnostics.Syntax(problem.Message).SetSpan(problem.Span))
		}
	}
	file.Attributes = c.attributes(parsed.Attributes)
	c.ast.AddFile(file)

	for _, module := range parsed.Modules {
		file.Modules = append(file.Modules, c.linkModule(file, module, nil))
	}
}

// linkModule expands `module A::B` into nested modules and returns the
// outermost one.
func (c *compiler) linkModule(file *grammar.File, parsed *syntax.Module, parent *grammar.Module) *grammar.Module {
	var outermost, current *grammar.Module
	segments := strings.Split(parsed.Ident.Value, "::")
	for i, segment := range segments {
		container := parent
		if current != nil {
			container = current
		}
		module := &grammar.Module{
			EntityInfo: c.info(file, container, segment, parsed.Span, nil),
		}
		if i == len(segments)-1 {
			module.Attrs = c.attributes(parsed.Attributes)
			module.DocComment = c.comment(module.Scope, parsed.Comment)
		}
		c.register(module)
		if current != nil {
			current.Contents = append(current.Contents, module)
		}
		if outermost == nil {
			outermost = module
		}
		current = module
	}
	for _, decl := range parsed.Decls {
		if e := c.linkDecl(file, current, decl); e != nil {
			current.Contents = append(current.Contents, e)
		}
	}
	return outermost
}

func (c *compiler) linkDecl(file *grammar.File, module *grammar.Module, decl *syntax.Decl) grammar.Entity {
	switch node := decl.Node().(type) {
	case *syntax.Module:
		return c.linkModule(file, node, module)
	case *syntax.Struct:
		s := &grammar.Struct{
			EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
			Compact:    node.Compact,
		}
		s.DocComment = c.comment(s.Scope, node.Comment)
		c.register(s)
		s.Fields = c.fields(file, s, node.Fields)
		return s
	case *syntax.Class:
		cls := &grammar.Class{
			EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
		}
		cls.DocComment = c.comment(cls.Scope, node.Comment)
		if node.CompactID != nil {
			cls.CompactID = &grammar.Integer{Value: node.CompactID.Value, Span: node.CompactID.Span}
		}
		c.register(cls)
		if node.Base != nil {
			cls.BaseRef = c.typeRef(cls.Scope, node.Base)
			c.kindChecks = append(c.kindChecks, func() {
				switch def := cls.BaseRef.Concrete().(type) {
				case *grammar.Class:
					cls.Base = def
				case *grammar.Unresolved, nil:
				default:
					c.push(diagnostics.TypeMismatch("class", def.Kind()).
						SetSpan(cls.BaseRef.Location).
						SetScope(cls.ScopedIdentifier()))
				}
			})
		}
		cls.Fields = c.fields(file, cls, node.Fields)
		return cls
	case *syntax.Exception:
		ex := &grammar.Exception{
			EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
		}
		ex.DocComment = c.comment(ex.Scope, node.Comment)
		c.register(ex)
		if node.Base != nil {
			ex.BaseRef = c.typeRef(ex.Scope, node.Base)
			c.kindChecks = append(c.kindChecks, func() {
				switch def := ex.BaseRef.Concrete().(type) {
				case *grammar.Exception:
					ex.Base = def
				case *grammar.Unresolved, nil:
				default:
					c.push(diagnostics.TypeMismatch("exception", def.Kind()).
						SetSpan(ex.BaseRef.Location).
						SetScope(ex.ScopedIdentifier()))
				}
			})
		}
		ex.Fields = c.fields(file, ex, node.Fields)
		return ex
	case *syntax.Interface:
		return c.linkInterface(file, module, node)
	case *syntax.Enum:
		return c.linkEnum(file, module, node)
	case *syntax.CustomType:
		ct := &grammar.CustomType{
			EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
		}
		ct.DocComment = c.comment(ct.Scope, node.Comment)
		c.register(ct)
		return ct
	case *syntax.TypeAlias:
		alias := &grammar.TypeAlias{
			EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
		}
		alias.DocComment = c.comment(alias.Scope, node.Comment)
		c.register(alias)
		alias.Underlying = c.typeRef(alias.Scope, node.Underlying)
		return alias
	}
	return nil
}

func (c *compiler) linkInterface(file *grammar.File, module *grammar.Module, node *syntax.Interface) *grammar.Interface {
	iface := &grammar.Interface{
		EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
	}
	iface.DocComment = c.comment(iface.Scope, node.Comment)
	c.register(iface)
	for _, base := range node.Bases {
		ref := c.typeRef(iface.Scope, base)
		iface.BaseRefs = append(iface.BaseRefs, ref)
		c.kindChecks = append(c.kindChecks, func() {
			switch def := ref.Concrete().(type) {
			case *grammar.Interface:
				iface.Bases = append(iface.Bases, def)
			case *grammar.Unresolved, nil:
			default:
				c.push(diagnostics.TypeMismatch("interface", def.Kind()).
					SetSpan(ref.Location).
					SetScope(iface.ScopedIdentifier()))
			}
		})
	}
	for _, parsed := range node.Operations {
		iface.Operations = append(iface.Operations, c.linkOperation(file, iface, parsed))
	}
	return iface
}

func (c *compiler) linkOperation(file *grammar.File, iface *grammar.Interface, node *syntax.Operation) *grammar.Operation {
	op := &grammar.Operation{
		EntityInfo: c.info(file, iface, node.Ident.Value, node.Span, node.Attributes),
		Idempotent: node.Idempotent,
	}
	op.DocComment = c.comment(op.Scope, node.Comment)
	c.register(op)

	for _, p := range node.Parameters {
		op.Parameters = append(op.Parameters, c.parameter(file, op, p, false))
	}
	if node.Return != nil {
		op.ReturnTuple = node.Return.Tuple
		op.ReturnSpan = node.Return.Span
		for _, m := range node.Return.Members {
			op.ReturnMembers = append(op.ReturnMembers, c.parameter(file, op, m, true))
		}
	}
	if node.Throws != nil {
		op.ThrowsSpan = node.Throws.Span
		for _, thrown := range node.Throws.Types {
			ref := c.typeRef(op.Scope, thrown)
			op.ExceptionSpecification = append(op.ExceptionSpecification, ref)
			c.kindChecks = append(c.kindChecks, func() {
				switch def := ref.Concrete().(type) {
				case *grammar.Exception, *grammar.Unresolved, nil:
				default:
					c.push(diagnostics.TypeMismatch("exception", def.Kind()).
						SetSpan(ref.Location).
						SetScope(op.ScopedIdentifier()))
				}
			})
		}
	}
	return op
}

func (c *compiler) parameter(file *grammar.File, op *grammar.Operation, node *syntax.Parameter, returned bool) *grammar.Parameter {
	ident := node.Ident.Value
	if returned && ident == "" {
		ident = singleReturnIdentifier
	}
	p := &grammar.Parameter{
		EntityInfo: c.info(file, op, ident, node.Span, node.Attributes),
		IsStreamed: node.Streamed,
		IsReturned: returned,
	}
	p.DocComment = c.comment(op.Scope, node.Comment)
	p.DataType = c.typeRef(op.Scope, node.Type)
	if node.Tag != nil {
		p.Tag = &grammar.Integer{Value: node.Tag.Value, Span: node.Tag.Span}
	}
	c.ast.Add(p)
	return p
}

func (c *compiler) fields(file *grammar.File, container grammar.Entity, nodes []*syntax.Field) []*grammar.Field {
	var out []*grammar.Field
	for _, node := range nodes {
		f := &grammar.Field{
			EntityInfo: c.info(file, container, node.Ident.Value, node.Span, node.Attributes),
		}
		f.DocComment = c.comment(f.Scope, node.Comment)
		f.DataType = c.typeRef(f.Scope, node.Type)
		if node.Tag != nil {
			f.Tag = &grammar.Integer{Value: node.Tag.Value, Span: node.Tag.Span}
		}
		if node.Default != nil {
			f.Default = &grammar.Literal{Text: node.Default.Text, Span: node.Default.Span}
		}
		c.ast.Add(f)
		out = append(out, f)
	}
	return out
}

func (c *compiler) linkEnum(file *grammar.File, module *grammar.Module, node *syntax.Enum) *grammar.Enum {
	enum := &grammar.Enum{
		EntityInfo: c.info(file, module, node.Ident.Value, node.Span, node.Attributes),
		Unchecked:  node.Unchecked,
	}
	enum.DocComment = c.comment(enum.Scope, node.Comment)
	c.register(enum)
	if node.Underlying != nil {
		enum.Underlying = c.typeRef(enum.Scope, node.Underlying)
	}

	var next int64
	for _, parsed := range node.Enumerators {
		enumerator := &grammar.Enumerator{
			EntityInfo: c.info(file, enum, parsed.Ident.Value, parsed.Span, parsed.Attributes),
			Value:      next,
		}
		enumerator.DocComment = c.comment(enum.Scope, parsed.Comment)
		if parsed.Value != nil {
			span := parsed.Value.Span
			enumerator.Value = parsed.Value.Value
			enumerator.ValueSpan = &span
		}
		next = enumerator.Value + 1
		c.ast.Add(enumerator)
		enum.Enumerators = append(enum.Enumerators, enumerator)
	}
	return enum
}

func (c *compiler) info(
	file *grammar.File,
	container grammar.Entity,
	ident string,
	span syntax.Span,
	attrs []*syntax.Attribute,
) grammar.EntityInfo {
	info := grammar.EntityInfo{
		Ident:      ident,
		Location:   span,
		Attrs:      c.attributes(attrs),
		SourceFile: file,
	}
	if !isNil(container) {
		info.Container = container
		info.Scope = container.ScopedIdentifier()
	}
	return info
}

func isNil(e grammar.Entity) bool {
	if e == nil {
		return true
	}
	m, ok := e.(*grammar.Module)
	return ok && m == nil
}

func (c *compiler) register(e grammar.Entity) {
	prev, ok := c.ast.Add(e)
	if ok {
		return
	}
	prevSpan := prev.Span()
	c.push(diagnostics.Redefinition(e.Identifier()).
		SetSpan(e.Span()).
		SetScope(e.ScopedIdentifier()).
		AddNote(fmt.Sprintf("'%s' was previously defined here", prev.Identifier()), &prevSpan))
}

func (c *compiler) attributes(parsed []*syntax.Attribute) []*grammar.Attribute {
	var out []*grammar.Attribute
	for _, attr := range parsed {
		out = append(out, grammar.ParseAttribute(attr.Directive, attr.Args, attr.Span, c.diags))
	}
	return out
}

// typeRef creates an unresolved reference and queues its resolution.
func (c *compiler) typeRef(scope string, parsed *syntax.TypeRef) *grammar.TypeRef {
	ref := c.newTypeRef(parsed)
	c.resolvers = append(c.resolvers, func() {
		ref.Definition = c.resolveType(scope, parsed)
	})
	return ref
}

func (c *compiler) newTypeRef(parsed *syntax.TypeRef) *grammar.TypeRef {
	if parsed == nil {
		return &grammar.TypeRef{Definition: &grammar.Unresolved{}}
	}
	return &grammar.TypeRef{
		Optional: parsed.Optional,
		Attrs:    c.attributes(parsed.Attributes),
		Location: parsed.Span,
	}
}

func (c *compiler) resolvedTypeRef(scope string, parsed *syntax.TypeRef) *grammar.TypeRef {
	ref := c.newTypeRef(parsed)
	if parsed != nil {
		ref.Definition = c.resolveType(scope, parsed)
	}
	return ref
}

func (c *compiler) resolveType(scope string, parsed *syntax.TypeRef) grammar.Type {
	if parsed == nil {
		return &grammar.Unresolved{}
	}
	switch parsed.Kind {
	case syntax.TypeSequence:
		return &grammar.Sequence{
			ElementType: c.resolvedTypeRef(scope, parsed.Element),
		}
	case syntax.TypeDictionary:
		return &grammar.Dictionary{
			KeyType:   c.resolvedTypeRef(scope, parsed.Key),
			ValueType: c.resolvedTypeRef(scope, parsed.Value),
		}
	}
	if p, ok := grammar.PrimitiveByName(parsed.Name); ok {
		return p
	}
	if e, ok := c.ast.LookupRelative(parsed.Name, scope); ok {
		return e.(grammar.Type)
	}
	c.push(diagnostics.DoesNotExist(parsed.Name).SetSpan(parsed.Span).SetScope(scope))
	return &grammar.Unresolved{Name: parsed.Name}
}

func (c *compiler) comment(scope string, parsed *syntax.DocComment) *grammar.DocComment {
	if parsed == nil {
		return nil
	}
	out := &grammar.DocComment{
		Overview: parsed.Overview,
		Span:     parsed.Span,
	}
	for _, tag := range parsed.Params {
		out.Params = append(out.Params, &grammar.ParamTag{
			Identifier: grammar.Identifier{Value: tag.Ident.Value, Span: tag.Ident.Span},
			Message:    tag.Message,
			Span:       tag.Span,
		})
	}
	for _, tag := range parsed.Returns {
		returns := &grammar.ReturnsTag{Message: tag.Message, Span: tag.Span}
		if tag.Ident != nil {
			returns.Identifier = &grammar.Identifier{Value: tag.Ident.Value, Span: tag.Ident.Span}
		}
		out.Returns = append(out.Returns, returns)
	}
	for _, tag := range parsed.Throws {
		throws := &grammar.ThrowsTag{Message: tag.Message, Span: tag.Span}
		if tag.Exception != nil {
			name := tag.Exception.Value
			throws.Identifier = &grammar.Identifier{Value: name, Span: tag.Exception.Span}
			c.resolvers = append(c.resolvers, func() {
				if e, ok := c.ast.LookupRelative(name, scope); ok {
					throws.Thrown, _ = e.(*grammar.Exception)
				}
			})
		}
		out.Throws = append(out.Throws, throws)
	}
	for _, tag := range parsed.See {
		see := &grammar.SeeTag{
			Link: grammar.Identifier{Value: tag.Link.Value, Span: tag.Link.Span},
			Span: tag.Span,
		}
		c.resolvers = append(c.resolvers, func() {
			if e, ok := c.ast.LookupRelative(see.Link.Value, scope); ok {
				see.Target = e
			}
		})
		out.See = append(out.See, see)
	}
	return out
}

func (c *compiler) checkTypeAliases() {
	for alias := range grammar.EntitiesOf[*grammar.TypeAlias](c.ast) {
		seen := map[*grammar.TypeAlias]bool{alias: true}
		current := alias
		for {
			next, ok := current.Underlying.Definition.(*grammar.TypeAlias)
			if !ok {
				break
			}
			if next == alias {
				c.push(diagnostics.SelfReferentialTypeAlias(alias.Ident).
					SetSpan(alias.Location).
					SetScope(alias.ScopedIdentifier()))
				alias.Underlying.Definition = &grammar.Unresolved{Name: alias.Ident}
				break
			}
			if seen[next] {
				break
			}
			seen[next] = true
			current = next
		}
	}
}
