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

type Struct struct {
	EntityInfo
	encodingsCell
	Compact bool
	Fields  []*Field
}

func (*Struct) Kind() string { return "struct" }

func (s *Struct) TypeString() string { return s.Ident }

// FixedWireSize is defined when every field has a fixed size and is neither
// optional nor tagged.
func (s *Struct) FixedWireSize() (uint32, bool) {
	return structFixedSize(s, map[*Struct]bool{})
}

func structFixedSize(s *Struct, visiting map[*Struct]bool) (uint32, bool) {
	if visiting[s] {
		return 0, false
	}
	visiting[s] = true
	defer delete(visiting, s)

	var total uint32
	for _, f := range s.Fields {
		if f.Tag != nil || f.DataType.Optional {
			return 0, false
		}
		var size uint32
		var ok bool
		if inner, isStruct := f.DataType.Concrete().(*Struct); isStruct {
			size, ok = structFixedSize(inner, visiting)
		} else {
			size, ok = f.DataType.FixedWireSize()
		}
		if !ok {
			return 0, false
		}
		total += size
	}
	return total, true
}

func (*Struct) IsClassType() bool { return false }

func (s *Struct) TagFormat() (TagFormat, bool) {
	if s.slice2Only() {
		return 0, false
	}
	if _, ok := s.FixedWireSize(); ok {
		return TagFormatVSize, true
	}
	return TagFormatFSize, true
}

func (s *Struct) SupportedEncodings() SupportedEncodings { return s.get(s.ScopedIdentifier()) }

func (s *Struct) ResolveSupportedEncodings(e SupportedEncodings) { s.set(s.ScopedIdentifier(), e) }

func (s *Struct) EncodingsResolved() bool { return s.isResolved() }

type Class struct {
	EntityInfo
	encodingsCell
	CompactID *Integer
	Base      *Class
	BaseRef   *TypeRef
	Fields    []*Field
}

func (*Class) Kind() string { return "class" }

func (c *Class) TypeString() string { return c.Ident }

func (*Class) FixedWireSize() (uint32, bool) { return 0, false }

func (*Class) IsClassType() bool { return true }

func (*Class) TagFormat() (TagFormat, bool) { return TagFormatClass, true }

func (c *Class) SupportedEncodings() SupportedEncodings { return c.get(c.ScopedIdentifier()) }

func (c *Class) ResolveSupportedEncodings(e SupportedEncodings) { c.set(c.ScopedIdentifier(), e) }

func (c *Class) EncodingsResolved() bool { return c.isResolved() }

// Lineage returns c followed by its bases, most derived first.
func (c *Class) Lineage() []*Class {
	var out []*Class
	seen := map[*Class]bool{}
	for ; c != nil && !seen[c]; c = c.Base {
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// AllFields returns the fields of c and every base, base fields first.
func (c *Class) AllFields() []*Field {
	lineage := c.Lineage()
	var out []*Field
	for i := len(lineage) - 1; i >= 0; i-- {
		out = append(out, lineage[i].Fields...)
	}
	return out
}

type Exception struct {
	EntityInfo
	encodingsCell
	Base    *Exception
	BaseRef *TypeRef
	Fields  []*Field
}

func (*Exception) Kind() string { return "exception" }

func (e *Exception) TypeString() string { return e.Ident }

func (*Exception) FixedWireSize() (uint32, bool) { return 0, false }

func (*Exception) IsClassType() bool { return false }

func (e *Exception) TagFormat() (TagFormat, bool) {
	if e.slice2Only() {
		return 0, false
	}
	return TagFormatFSize, true
}

func (e *Exception) SupportedEncodings() SupportedEncodings { return e.get(e.ScopedIdentifier()) }

func (e *Exception) ResolveSupportedEncodings(s SupportedEncodings) { e.set(e.ScopedIdentifier(), s) }

func (e *Exception) EncodingsResolved() bool { return e.isResolved() }

// Lineage returns e followed by its bases, most derived first.
func (e *Exception) Lineage() []*Exception {
	var out []*Exception
	seen := map[*Exception]bool{}
	for ; e != nil && !seen[e]; e = e.Base {
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (e *Exception) AllFields() []*Field {
	lineage := e.Lineage()
	var out []*Field
	for i := len(lineage) - 1; i >= 0; i-- {
		out = append(out, lineage[i].Fields...)
	}
	return out
}

// InheritsFrom reports whether other is e or one of its bases.
func (e *Exception) InheritsFrom(other *Exception) bool {
	for _, ancestor := range e.Lineage() {
		if ancestor == other {
			return true
		}
	}
	return false
}

type Field struct {
	EntityInfo
	DataType *TypeRef
	Tag      *Integer
	Default  *Literal
}

func (*Field) Kind() string { return "field" }

// IsDefaultInitialized reports whether a field has a value without being
// assigned one explicitly.
func (f *Field) IsDefaultInitialized() bool {
	return f.Default != nil || f.DataType.Optional
}

type Interface struct {
	EntityInfo
	encodingsCell
	Bases      []*Interface
	BaseRefs   []*TypeRef
	Operations []*Operation
}

func (*Interface) Kind() string { return "interface" }

func (i *Interface) TypeString() string { return i.Ident }

func (*Interface) FixedWireSize() (uint32, bool) { return 0, false }

func (*Interface) IsClassType() bool { return false }

func (i *Interface) TagFormat() (TagFormat, bool) {
	if i.slice2Only() {
		return 0, false
	}
	return TagFormatFSize, true
}

func (i *Interface) SupportedEncodings() SupportedEncodings { return i.get(i.ScopedIdentifier()) }

func (i *Interface) ResolveSupportedEncodings(e SupportedEncodings) {
	i.set(i.ScopedIdentifier(), e)
}

func (i *Interface) EncodingsResolved() bool { return i.isResolved() }

// AllBases returns every transitive base interface, nearest first.
func (i *Interface) AllBases() []*Interface {
	var out []*Interface
	seen := map[*Interface]bool{i: true}
	queue := append([]*Interface(nil), i.Bases...)
	for len(queue) > 0 {
		base := queue[0]
		queue = queue[1:]
		if seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, base)
		queue = append(queue, base.Bases...)
	}
	return out
}

type Operation struct {
	EntityInfo
	Idempotent    bool
	Parameters    []*Parameter
	ReturnMembers []*Parameter
	ReturnTuple   bool
	ReturnSpan    syntax.Span
	// ExceptionSpecification resolves to exceptions once linked.
	ExceptionSpecification []*TypeRef
	ThrowsSpan             syntax.Span
}

func (*Operation) Kind() string { return "operation" }

func (op *Operation) Encoding() Mode {
	return op.SourceFile.Mode
}

// Thrown returns the resolved exceptions of the exception specification.
func (op *Operation) Thrown() []*Exception {
	var out []*Exception
	for _, ref := range op.ExceptionSpecification {
		if e, ok := ref.Definition.(*Exception); ok {
			out = append(out, e)
		}
	}
	return out
}

func (op *Operation) ReturnsClasses() bool {
	for _, m := range op.ReturnMembers {
		if UsesClasses(m.DataType) {
			return true
		}
	}
	return false
}

func (op *Operation) HasEncodedResult() bool {
	_, ok := FindAttribute[*EncodedResult](op.Attrs)
	return ok && len(op.ReturnMembers) > 0
}

func (op *Operation) IsOneway() bool {
	_, ok := FindAttribute[*Oneway](op.Attrs)
	return ok
}

// ReturnClassFormat is the Slice1 class format used to encode return values.
func (op *Operation) ReturnClassFormat() ClassFormat {
	if sliced, ok := FindAttribute[*SlicedFormat](op.Attrs); ok && sliced.Return {
		return ClassFormatSliced
	}
	return ClassFormatCompact
}

func (op *Operation) ArgsClassFormat() ClassFormat {
	if sliced, ok := FindAttribute[*SlicedFormat](op.Attrs); ok && sliced.Args {
		return ClassFormatSliced
	}
	return ClassFormatCompact
}

type ClassFormat uint8

const (
	ClassFormatCompact ClassFormat = iota
	ClassFormatSliced
)

type Parameter struct {
	EntityInfo
	DataType   *TypeRef
	Tag        *Integer
	IsStreamed bool
	IsReturned bool
}

func (p *Parameter) Kind() string {
	if p.IsReturned {
		return "return element"
	}
	return "parameter"
}

type Enum struct {
	EntityInfo
	encodingsCell
	Underlying  *TypeRef
	Unchecked   bool
	Enumerators []*Enumerator
}

func (*Enum) Kind() string { return "enum" }

func (e *Enum) TypeString() string { return e.Ident }

func (e *Enum) FixedWireSize() (uint32, bool) {
	if e.Underlying == nil {
		return 0, false
	}
	return e.Underlying.FixedWireSize()
}

func (*Enum) IsClassType() bool { return false }

func (e *Enum) TagFormat() (TagFormat, bool) {
	if e.slice2Only() {
		return 0, false
	}
	if e.Underlying == nil {
		return TagFormatSize, true
	}
	return e.Underlying.TagFormat()
}

func (e *Enum) SupportedEncodings() SupportedEncodings { return e.get(e.ScopedIdentifier()) }

func (e *Enum) ResolveSupportedEncodings(s SupportedEncodings) { e.set(e.ScopedIdentifier(), s) }

func (e *Enum) EncodingsResolved() bool { return e.isResolved() }

func (e *Enum) Enumerator(identifier string) (*Enumerator, bool) {
	for _, enumerator := range e.Enumerators {
		if enumerator.Ident == identifier {
			return enumerator, true
		}
	}
	return nil, false
}

type Enumerator struct {
	EntityInfo
	Value     int64
	ValueSpan *syntax.Span
}

func (*Enumerator) Kind() string { return "enumerator" }

type CustomType struct {
	EntityInfo
	encodingsCell
}

func (*CustomType) Kind() string { return "custom type" }

func (c *CustomType) TypeString() string { return c.Ident }

func (*CustomType) FixedWireSize() (uint32, bool) { return 0, false }

func (*CustomType) IsClassType() bool { return false }

func (*CustomType) TagFormat() (TagFormat, bool) { return 0, false }

func (c *CustomType) SupportedEncodings() SupportedEncodings { return c.get(c.ScopedIdentifier()) }

func (c *CustomType) ResolveSupportedEncodings(e SupportedEncodings) {
	c.set(c.ScopedIdentifier(), e)
}

func (c *CustomType) EncodingsResolved() bool { return c.isResolved() }

type TypeAlias struct {
	EntityInfo
	encodingsCell
	Underlying *TypeRef
}

func (*TypeAlias) Kind() string { return "type alias" }

func (a *TypeAlias) TypeString() string { return a.Ident }

func (a *TypeAlias) FixedWireSize() (uint32, bool) { return a.Underlying.FixedWireSize() }

func (a *TypeAlias) IsClassType() bool { return a.Underlying.IsClassType() }

func (a *TypeAlias) TagFormat() (TagFormat, bool) { return a.Underlying.TagFormat() }

func (a *TypeAlias) SupportedEncodings() SupportedEncodings { return a.get(a.ScopedIdentifier()) }

func (a *TypeAlias) ResolveSupportedEncodings(e SupportedEncodings) {
	a.set(a.ScopedIdentifier(), e)
}

func (a *TypeAlias) EncodingsResolved() bool { return a.isResolved() }
