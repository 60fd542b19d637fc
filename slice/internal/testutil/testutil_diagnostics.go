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
	"fmt"
	"strings"
	"testing"

	"github.com/externl/slicec/slice/diagnostics"
)

// CheckDiagnostics compares diagnostics against expectations built with the
// diagnostics package constructors. Codes, messages and notes are compared
// in order. Spans are only compared where the expectation sets one.
func CheckDiagnostics(t *testing.T, got *diagnostics.Diagnostics, want ...*diagnostics.Diagnostic) {
	t.Helper()
	items := got.Items()
	if len(items) != len(want) {
		t.Errorf("Expected %d diagnostics, got %d:\n%s", len(want), len(items), formatDiagnostics(items))
		return
	}
	for ii, w := range want {
		checkDiagnostic(t, ii, w, items[ii])
	}
}

// CheckNoDiagnostics fails the test if any diagnostic was reported.
func CheckNoDiagnostics(t *testing.T, got *diagnostics.Diagnostics) {
	t.Helper()
	if got.Len() != 0 {
		t.Errorf("Expected no diagnostics, got:\n%s", formatDiagnostics(got.Items()))
	}
}

func checkDiagnostic(t *testing.T, index int, want, got *diagnostics.Diagnostic) {
	t.Helper()
	if want.Code() != got.Code() {
		t.Errorf("diagnostic %d: expected code %s (%s), got %s (%s): %s",
			index, want.Code().ID(), want.Code(), got.Code().ID(), got.Code(), got.Message())
		return
	}
	if want.Message() != got.Message() {
		t.Errorf("diagnostic %d: expected message %q, got %q", index, want.Message(), got.Message())
	}
	if wantSpan, ok := want.Span(); ok {
		gotSpan, _ := got.Span()
		if wantSpan != gotSpan {
			t.Errorf("diagnostic %d: expected span %v, got %v", index, wantSpan, gotSpan)
		}
	}

	wantNotes, gotNotes := want.Notes(), got.Notes()
	if len(wantNotes) != len(gotNotes) {
		t.Errorf("diagnostic %d: expected %d notes, got %d: %q",
			index, len(wantNotes), len(gotNotes), noteMessages(gotNotes))
		return
	}
	for jj, note := range wantNotes {
		if note.Message != gotNotes[jj].Message {
			t.Errorf("diagnostic %d, note %d: expected %q, got %q", index, jj, note.Message, gotNotes[jj].Message)
		}
		if note.Span != nil {
			if gotNotes[jj].Span == nil {
				t.Errorf("diagnostic %d, note %d: expected span %v, got none", index, jj, *note.Span)
			} else if *note.Span != *gotNotes[jj].Span {
				t.Errorf("diagnostic %d, note %d: expected span %v, got %v", index, jj, *note.Span, *gotNotes[jj].Span)
			}
		}
	}
}

func noteMessages(notes []diagnostics.Note) []string {
	out := make([]string, 0, len(notes))
	for _, note := range notes {
		out = append(out, note.Message)
	}
	return out
}

func formatDiagnostics(items []*diagnostics.Diagnostic) string {
	var buf strings.Builder
	for _, d := range items {
		fmt.Fprintf(&buf, "    %s\n", d.Error())
		for _, note := range d.Notes() {
			fmt.Fprintf(&buf, "        note: %s\n", note.Message)
		}
	}
	return buf.String()
}
