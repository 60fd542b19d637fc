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
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/externl/slicec/slice/grammar"
)

var (
	titleCase = cases.Title(language.Und, cases.NoLower)
	lowerCase = cases.Lower(language.Und)
)

// exportedName converts a Slice identifier to an exported Go name.
// Underscores separate words: `max_size` becomes `MaxSize`.
func exportedName(ident string) string {
	var buf strings.Builder
	for _, word := range strings.Split(ident, "_") {
		buf.WriteString(titleCase.String(word))
	}
	if buf.Len() == 0 {
		return "X"
	}
	return buf.String()
}

// unexportedName converts a Slice identifier to a Go name usable for a
// local variable or parameter.
func unexportedName(ident string) string {
	name := lowerFirst(exportedName(ident))
	if token.IsKeyword(name) || reservedLocals[name] {
		name += "_"
	}
	return name
}

// Names used by generated function bodies.
var reservedLocals = map[string]bool{
	"ctx":      true,
	"enc":      true,
	"dec":      true,
	"v":        true,
	"bits":     true,
	"err":      true,
	"payload":  true,
	"encoding": true,
	"slice":    true,
}

// Method names of generated types, which fields must not shadow.
var reservedFields = map[string]bool{
	"Encode":        true,
	"Decode":        true,
	"EncodeSlices":  true,
	"DecodeSlices":  true,
	"UnknownSlices": true,
	"Error":         true,
	"AnyClass":      true,
	"Proxy":         true,
}

func fieldName(ident string) string {
	name := exportedName(ident)
	if reservedFields[name] {
		name += "_"
	}
	return name
}

// packageName is the Go package of a top-level module: its identifier,
// lowercased, with non-alphanumeric characters removed.
func packageName(module *grammar.Module) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, lowerCase.String(module.Identifier()))
	if name == "" || token.IsKeyword(name) {
		name = "slice" + name
	}
	return name
}

// outermostModule returns the top-level module that contains e.
func outermostModule(e grammar.Entity) *grammar.Module {
	var outermost *grammar.Module
	for p := e.Parent(); p != nil; p = p.Parent() {
		if m, ok := p.(*grammar.Module); ok {
			outermost = m
		}
	}
	if m, ok := e.(*grammar.Module); ok && outermost == nil {
		return m
	}
	return outermost
}

// typeName is the Go name of a declaration within its package. Entities in
// nested modules are prefixed with the names of the modules below the
// top-level one, so `::Demo::Geometry::Point` becomes `GeometryPoint` in
// package `demo`.
func typeName(e grammar.Entity) string {
	var parts []string
	for p := e.Parent(); p != nil; p = p.Parent() {
		if m, ok := p.(*grammar.Module); ok && m.Parent() != nil {
			parts = append(parts, exportedName(m.Identifier()))
		}
	}
	var buf strings.Builder
	for ii := len(parts) - 1; ii >= 0; ii-- {
		buf.WriteString(parts[ii])
	}
	buf.WriteString(exportedName(e.Identifier()))
	return buf.String()
}

// typeID is the Slice type id of a declaration, as used on the wire.
func typeID(e grammar.Entity) string {
	return "::" + e.ScopedIdentifier()
}

// lowerFirst returns name with its first rune lowercased.
func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return lowerCase.String(string(r)) + name[size:]
}
