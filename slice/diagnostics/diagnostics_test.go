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

package diagnostics_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

func TestCodes(t *testing.T) {
	tests := []struct {
		code diagnostics.Code
		id   string
		name string
		kind diagnostics.Kind
	}{
		{diagnostics.CodeIO, "E2000", "IO", diagnostics.KindError},
		{diagnostics.CodeRedefinition, "E2002", "Redefinition", diagnostics.KindError},
		{diagnostics.CodeStreamedMembersCannotBeTagged, "E2024", "StreamedMembersCannotBeTagged", diagnostics.KindError},
		{diagnostics.CodeDuplicateFile, "L4000", "DuplicateFile", diagnostics.KindLint},
		{diagnostics.CodeDeprecated, "L4003", "Deprecated", diagnostics.KindLint},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testutil.ExpectEq(t, test.id, test.code.ID())
			testutil.ExpectEq(t, test.name, test.code.String())
			testutil.ExpectEq(t, test.kind, test.code.Kind())
		})
	}
	testutil.ExpectEq(t, "Code(9999)", diagnostics.Code(9999).String())
	testutil.ExpectEq(t, "lint", diagnostics.KindLint.String())
}

func TestLintByName(t *testing.T) {
	code, ok := diagnostics.LintByName("IncorrectDocComment")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, diagnostics.CodeIncorrectDocComment, code)

	// Errors cannot be allowed.
	_, ok = diagnostics.LintByName("Redefinition")
	testutil.ExpectFalse(t, ok)
}

func TestDiagnosticMessages(t *testing.T) {
	err := errors.New("permission denied")
	testutil.ExpectEq(t,
		"E2000: unable to read 'a.slice': permission denied",
		diagnostics.IO("read", "a.slice", err).Error(),
	)
	testutil.ExpectEq(t,
		"type mismatch: expected an exception but found a struct",
		diagnostics.TypeMismatch("exception", "struct").Message(),
	)
	testutil.ExpectEq(t,
		"'Old' is deprecated",
		diagnostics.Deprecated("Old", "").Message(),
	)
	testutil.ExpectEq(t,
		"'Old' is deprecated: use New",
		diagnostics.Deprecated("Old", "use New").Message(),
	)
}

func TestDiagnosticBuilder(t *testing.T) {
	span := syntax.NewSpan("demo.slice", 3, 9)
	noteSpan := syntax.NewSpan("demo.slice", 20, 25)
	d := diagnostics.Redefinition("S").
		SetSpan(span).
		SetScope("Demo::S").
		AddNote("'S' was previously defined here", &noteSpan)

	got, ok := d.Span()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, span, got)
	testutil.ExpectEq(t, "Demo::S", d.Scope())

	// Notes keep their own copy of the span.
	noteSpan.Start = 0
	notes := d.Notes()
	testutil.ExpectEq(t, 1, len(notes))
	testutil.ExpectEq(t, uint32(20), notes[0].Span.Start)

	_, ok = diagnostics.Syntax("unexpected '}'").Span()
	testutil.ExpectFalse(t, ok)
}

func TestPushedDiagnosticsAreFrozen(t *testing.T) {
	diags := &diagnostics.Diagnostics{}
	d := diagnostics.MultipleStreamedMembers()
	d.PushInto(diags)

	defer func() {
		got := recover()
		testutil.ExpectEq[any](t, "diagnostic E2005 modified after being reported", got)
	}()
	d.SetScope("Demo::op")
}

func TestDiagnostics(t *testing.T) {
	diags := &diagnostics.Diagnostics{}
	testutil.ExpectFalse(t, diags.HasErrors())

	diagnostics.DuplicateFile("a.slice").PushInto(diags)
	testutil.ExpectFalse(t, diags.HasErrors())

	diags.Extend([]*diagnostics.Diagnostic{
		diagnostics.DoesNotExist("Missing"),
		diagnostics.IncorrectDocComment("bad tag"),
	})
	testutil.ExpectTrue(t, diags.HasErrors())
	testutil.ExpectEq(t, 3, diags.Len())
	testutil.ExpectEq(t, 1, len(diags.Errors()))
	testutil.ExpectEq(t, 2, len(diags.Lints()))

	var ids []string
	for d := range diags.All() {
		ids = append(ids, d.Code().ID())
	}
	testutil.ExpectSliceEq(t, []string{"L4000", "E2010", "L4001"}, ids)

	diags.Retain(func(d *diagnostics.Diagnostic) bool {
		return d.Kind() == diagnostics.KindError
	})
	testutil.ExpectEq(t, 1, diags.Len())
	testutil.ExpectEq(t, "E2010: no element with identifier 'Missing' exists", fmt.Sprint(diags.Items()[0]))
}
