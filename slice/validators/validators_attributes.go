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

package validators

import (
	"fmt"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
)

func validateFileAttributes(f *grammar.File, diags *diagnostics.Diagnostics) {
	for _, attr := range f.Attributes {
		checkKind(attr)
		switch attr.Kind.(type) {
		case *grammar.Allow, *grammar.Unparsed:
		default:
			unexpected(attr, "", "file-level attributes can only be 'allow' or language specific", diags)
		}
	}
}

func validateAttributes(e grammar.Entity, diags *diagnostics.Diagnostics) {
	for _, attr := range e.Attributes() {
		checkKind(attr)
		switch kind := attr.Kind.(type) {
		case *grammar.Deprecated:
			switch e.(type) {
			case *grammar.Module:
				unexpected(attr, e.ScopedIdentifier(), "modules cannot be deprecated", diags)
			case *grammar.Parameter:
				unexpected(attr, e.ScopedIdentifier(), "parameters cannot be individually deprecated", diags)
			}
		case *grammar.Oneway:
			op, ok := e.(*grammar.Operation)
			if !ok {
				unexpected(attr, e.ScopedIdentifier(), "the oneway attribute can only be applied to operations", diags)
			} else if len(op.ReturnMembers) > 0 {
				unexpected(attr, e.ScopedIdentifier(), "operations that return values cannot be oneway", diags)
			}
		case *grammar.Compress, *grammar.SlicedFormat:
			if _, ok := e.(*grammar.Operation); !ok {
				unexpected(attr, e.ScopedIdentifier(), fmt.Sprintf(
					"the %s attribute can only be applied to interfaces and operations", kind.Directive(),
				), diags)
			}
		case *grammar.EncodedResult:
			op, ok := e.(*grammar.Operation)
			if !ok {
				unexpected(attr, e.ScopedIdentifier(), "the encodedResult attribute can only be applied to operations", diags)
			} else if len(op.ReturnMembers) == 0 {
				unexpected(attr, e.ScopedIdentifier(), "encoded results can only be used with operations that return something", diags)
			}
		case *grammar.Allow, *grammar.Unparsed:
		}
	}
}

func validateTypeRefAttributes(user grammar.Entity, ref *grammar.TypeRef, diags *diagnostics.Diagnostics) {
	for _, attr := range ref.Attrs {
		checkKind(attr)
		if _, ok := attr.Kind.(*grammar.Unparsed); !ok {
			unexpected(attr, user.ScopedIdentifier(), "type references can only carry language specific attributes", diags)
		}
	}
}

// checkKind panics if an attribute was parsed into the wrong kind.
func checkKind(attr *grammar.Attribute) {
	if attr.Kind == nil || attr.Kind.Directive() != attr.Directive {
		panic(fmt.Sprintf("attribute '%s' was parsed as %T", attr.Directive, attr.Kind))
	}
}

func unexpected(attr *grammar.Attribute, scope, note string, diags *diagnostics.Diagnostics) {
	d := diagnostics.UnexpectedAttribute(attr.Directive).SetSpan(attr.Location)
	if scope != "" {
		d.SetScope(scope)
	}
	d.AddNote(note, nil).PushInto(diags)
}
