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

package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/syntax"
)

type JSONOpts struct {
	// IncludePositions adds line and column numbers to locations whose
	// file is in the [FileSet].
	IncludePositions bool
	IncludeNotes     bool
	// Max truncates the output; zero means no limit.
	Max int
}

type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine int    `json:"start_line,omitempty"`
	StartCol  int    `json:"start_col,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	EndCol    int    `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Message  string        `json:"message"`
	Scope    string        `json:"scope,omitempty"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(span syntax.Span, fs *FileSet, includePositions bool) *LocationJSON {
	loc := &LocationJSON{
		File:      span.File,
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		if start, end, ok := fs.Resolve(span); ok {
			loc.StartLine = start.Line
			loc.StartCol = start.Column
			loc.EndLine = end.Line
			loc.EndCol = end.Column
		}
	}
	return loc
}

func BuildDiagnosticsOutput(diags []*diagnostics.Diagnostic, fs *FileSet, opts JSONOpts) DiagnosticsOutput {
	if opts.Max > 0 && opts.Max < len(diags) {
		diags = diags[:opts.Max]
	}
	out := make([]DiagnosticJSON, 0, len(diags))
	for _, d := range diags {
		diagJSON := DiagnosticJSON{
			Severity: d.Kind().String(),
			Code:     d.Code().ID(),
			Name:     d.Code().String(),
			Message:  d.Message(),
			Scope:    d.Scope(),
		}
		if span, ok := d.Span(); ok {
			diagJSON.Location = makeLocation(span, fs, opts.IncludePositions)
		}
		if opts.IncludeNotes {
			for _, note := range d.Notes() {
				noteJSON := NoteJSON{Message: note.Message}
				if note.Span != nil {
					noteJSON.Location = makeLocation(*note.Span, fs, opts.IncludePositions)
				}
				diagJSON.Notes = append(diagJSON.Notes, noteJSON)
			}
		}
		out = append(out, diagJSON)
	}
	return DiagnosticsOutput{
		Diagnostics: out,
		Count:       len(out),
	}
}

func JSON(w io.Writer, diags []*diagnostics.Diagnostic, fs *FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(diags, fs, opts))
}
