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

// Package diagnostics collects the errors and lints raised while compiling
// Slice files.
package diagnostics

import (
	"fmt"
	"iter"
	"slices"

	"github.com/externl/slicec/slice/syntax"
)

type Kind uint8

const (
	KindError Kind = iota + 1
	KindLint
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindLint:
		return "lint"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type Note struct {
	Message string
	Span    *syntax.Span
}

type Diagnostic struct {
	code    Code
	message string
	span    *syntax.Span
	scope   string
	notes   []Note
	pushed  bool
}

var _ error = (*Diagnostic)(nil)

func newDiagnostic(code Code, format string, a ...any) *Diagnostic {
	return &Diagnostic{
		code:    code,
		message: fmt.Sprintf(format, a...),
	}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.code.ID(), d.message)
}

func (d *Diagnostic) Code() Code {
	return d.code
}

func (d *Diagnostic) Kind() Kind {
	return d.code.Kind()
}

func (d *Diagnostic) Message() string {
	return d.message
}

func (d *Diagnostic) Span() (syntax.Span, bool) {
	if d.span == nil {
		return syntax.Span{}, false
	}
	return *d.span, true
}

// Scope is the scoped identifier of the entity the diagnostic was raised
// against, or "" for file-level diagnostics.
func (d *Diagnostic) Scope() string {
	return d.scope
}

func (d *Diagnostic) Notes() []Note {
	return slices.Clone(d.notes)
}

func (d *Diagnostic) mutable() {
	if d.pushed {
		panic(fmt.Sprintf("diagnostic %s modified after being reported", d.code.ID()))
	}
}

func (d *Diagnostic) SetSpan(span syntax.Span) *Diagnostic {
	d.mutable()
	d.span = &span
	return d
}

func (d *Diagnostic) SetScope(scope string) *Diagnostic {
	d.mutable()
	d.scope = scope
	return d
}

// AddNote appends a note, which may point at a span of its own.
func (d *Diagnostic) AddNote(message string, span *syntax.Span) *Diagnostic {
	d.mutable()
	var noteSpan *syntax.Span
	if span != nil {
		copied := *span
		noteSpan = &copied
	}
	d.notes = append(d.notes, Note{Message: message, Span: noteSpan})
	return d
}

func (d *Diagnostic) PushInto(diags *Diagnostics) {
	diags.Push(d)
}

// Diagnostics is an append-only accumulator. It is owned by a single
// compilation and is not safe for concurrent use.
type Diagnostics struct {
	items []*Diagnostic
}

func (ds *Diagnostics) Push(d *Diagnostic) {
	d.pushed = true
	ds.items = append(ds.items, d)
}

func (ds *Diagnostics) Extend(items []*Diagnostic) {
	for _, d := range items {
		ds.Push(d)
	}
}

func (ds *Diagnostics) Len() int {
	return len(ds.items)
}

// Items returns every diagnostic in the order it was reported.
func (ds *Diagnostics) Items() []*Diagnostic {
	return slices.Clone(ds.items)
}

func (ds *Diagnostics) All() iter.Seq[*Diagnostic] {
	return slices.Values(ds.items)
}

func (ds *Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(ds.items, func(d *Diagnostic) bool {
		return d.Kind() == KindError
	})
}

func (ds *Diagnostics) Errors() []*Diagnostic {
	return ds.ofKind(KindError)
}

func (ds *Diagnostics) Lints() []*Diagnostic {
	return ds.ofKind(KindLint)
}

func (ds *Diagnostics) ofKind(kind Kind) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range ds.items {
		if d.Kind() == kind {
			out = append(out, d)
		}
	}
	return out
}

// Retain drops every diagnostic for which keep returns false.
func (ds *Diagnostics) Retain(keep func(*Diagnostic) bool) {
	ds.items = slices.DeleteFunc(ds.items, func(d *Diagnostic) bool {
		return !keep(d)
	})
}
