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

package diagfmt_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/diagnostics/diagfmt"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

const demoSource = "module Demo\n\nstruct Point {}\n    struct Point {}\n"

func demoFileSet() *diagfmt.FileSet {
	return diagfmt.NewFileSet(&syntax.SourceFile{
		Path:     "demo.slice",
		Text:     demoSource,
		IsSource: true,
	})
}

func redefinition() *diagnostics.Diagnostic {
	previous := syntax.NewSpan("demo.slice", 20, 25)
	return diagnostics.Redefinition("Point").
		SetSpan(syntax.NewSpan("demo.slice", 40, 45)).
		SetScope("Demo::Point").
		AddNote("'Point' was previously defined here", &previous)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	fs := demoFileSet()

	start, end, ok := fs.Resolve(syntax.NewSpan("demo.slice", 40, 45))
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, diagfmt.Position{Line: 4, Column: 12}, start)
	testutil.ExpectEq(t, diagfmt.Position{Line: 4, Column: 17}, end)

	// The newline belongs to the line it ends.
	start, _, _ = fs.Resolve(syntax.NewSpan("demo.slice", 11, 11))
	testutil.ExpectEq(t, diagfmt.Position{Line: 1, Column: 12}, start)

	// Offsets past the end clamp to it.
	start, _, _ = fs.Resolve(syntax.NewSpan("demo.slice", 500, 500))
	testutil.ExpectEq(t, diagfmt.Position{Line: 5, Column: 1}, start)

	_, _, ok = fs.Resolve(syntax.NewSpan("other.slice", 0, 1))
	testutil.ExpectFalse(t, ok)
}

func TestLine(t *testing.T) {
	t.Parallel()
	fs := demoFileSet()
	fs.Add("crlf.slice", "module A\r\nmodule B")

	line, ok := fs.Line("demo.slice", 3)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "struct Point {}", line)

	line, ok = fs.Line("demo.slice", 2)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "", line)

	line, _ = fs.Line("crlf.slice", 1)
	testutil.ExpectEq(t, "module A", line)
	line, _ = fs.Line("crlf.slice", 2)
	testutil.ExpectEq(t, "module B", line)

	_, ok = fs.Line("demo.slice", 0)
	testutil.ExpectFalse(t, ok)
	_, ok = fs.Line("demo.slice", 6)
	testutil.ExpectFalse(t, ok)
}

func TestPretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := diagfmt.Pretty(&buf, []*diagnostics.Diagnostic{
		redefinition(),
		diagnostics.DuplicateFile("demo.slice"),
	}, demoFileSet(), diagfmt.PrettyOpts{ShowNotes: true})
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, `error [E2002]: redefinition of 'Point'
 --> demo.slice:4:12
  |
4 |     struct Point {}
  |            ^^^^^
  = note: 'Point' was previously defined here
 --> demo.slice:3:8
  |
3 | struct Point {}
  |        ^^^^^
lint [L4000]: slice file was provided more than once: 'demo.slice'
`, buf.String())
}

func TestPrettyWithoutNotes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := diagfmt.Pretty(&buf, []*diagnostics.Diagnostic{redefinition()}, demoFileSet(), diagfmt.PrettyOpts{})
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, `error [E2002]: redefinition of 'Point'
 --> demo.slice:4:12
  |
4 |     struct Point {}
  |            ^^^^^
`, buf.String())
}

func TestPrettyAlignment(t *testing.T) {
	t.Parallel()
	fs := diagfmt.NewFileSet()
	fs.Add("wide.slice", "\"日本\" bad\n")
	fs.Add("tabs.slice", "\tbad\n")

	var buf bytes.Buffer
	err := diagfmt.Pretty(&buf, []*diagnostics.Diagnostic{
		diagnostics.Syntax("unexpected token").SetSpan(syntax.NewSpan("wide.slice", 9, 12)),
		diagnostics.Syntax("unexpected token").SetSpan(syntax.NewSpan("tabs.slice", 1, 4)),
		diagnostics.Syntax("unexpected end of file").SetSpan(syntax.NewSpan("tabs.slice", 4, 4)),
	}, fs, diagfmt.PrettyOpts{})
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, "error [E2001]: unexpected token\n"+
		" --> wide.slice:1:10\n"+
		"  |\n"+
		"1 | \"日本\" bad\n"+
		"  |        ^^^\n"+
		"error [E2001]: unexpected token\n"+
		" --> tabs.slice:1:2\n"+
		"  |\n"+
		"1 | \tbad\n"+
		"  | \t^^^\n"+
		"error [E2001]: unexpected end of file\n"+
		" --> tabs.slice:1:5\n"+
		"  |\n"+
		"1 | \tbad\n"+
		"  | \t   ^\n", buf.String())
}

func TestPrettyUnknownFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := diagnostics.IO("read", "missing.slice", errors.New("no such file or directory")).
		SetSpan(syntax.NewSpan("missing.slice", 0, 0))
	testutil.AssertNoError(t, diagfmt.Pretty(&buf, []*diagnostics.Diagnostic{d}, nil, diagfmt.PrettyOpts{}))
	testutil.ExpectNoDiff(t, `error [E2000]: unable to read 'missing.slice': no such file or directory
--> missing.slice
`, buf.String())
}

func TestPrettyColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := diagfmt.Pretty(&buf, []*diagnostics.Diagnostic{redefinition()}, demoFileSet(), diagfmt.PrettyOpts{Color: true})
	testutil.AssertNoError(t, err)
	testutil.ExpectMatch(t, `^\x1b\[31;1merror \[E2002\]:\x1b\[`, buf.String())
}

func TestSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		diags []*diagnostics.Diagnostic
		want  string
	}{
		{"empty", nil, ""},
		{
			"errors",
			[]*diagnostics.Diagnostic{redefinition(), redefinition(), diagnostics.DuplicateFile("a.slice")},
			"error: compilation failed with 2 errors and 1 lint\n",
		},
		{
			"lints",
			[]*diagnostics.Diagnostic{diagnostics.DuplicateFile("a.slice")},
			"warning: compilation succeeded with 0 errors and 1 lint\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			testutil.AssertNoError(t, diagfmt.Summary(&buf, test.diags, diagfmt.PrettyOpts{}))
			testutil.ExpectEq(t, test.want, buf.String())
		})
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, []*diagnostics.Diagnostic{
		redefinition(),
		diagnostics.DuplicateFile("demo.slice"),
	}, demoFileSet(), diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, `{
  "diagnostics": [
    {
      "severity": "error",
      "code": "E2002",
      "name": "Redefinition",
      "message": "redefinition of 'Point'",
      "scope": "Demo::Point",
      "location": {
        "file": "demo.slice",
        "start_byte": 40,
        "end_byte": 45,
        "start_line": 4,
        "start_col": 12,
        "end_line": 4,
        "end_col": 17
      },
      "notes": [
        {
          "message": "'Point' was previously defined here",
          "location": {
            "file": "demo.slice",
            "start_byte": 20,
            "end_byte": 25,
            "start_line": 3,
            "start_col": 8,
            "end_line": 3,
            "end_col": 13
          }
        }
      ]
    },
    {
      "severity": "lint",
      "code": "L4000",
      "name": "DuplicateFile",
      "message": "slice file was provided more than once: 'demo.slice'"
    }
  ],
  "count": 2
}
`, buf.String())
}

func TestBuildDiagnosticsOutputMax(t *testing.T) {
	t.Parallel()

	out := diagfmt.BuildDiagnosticsOutput([]*diagnostics.Diagnostic{
		redefinition(),
		diagnostics.DuplicateFile("demo.slice"),
	}, nil, diagfmt.JSONOpts{Max: 1, IncludePositions: true})
	testutil.ExpectEq(t, 1, out.Count)
	testutil.ExpectEq(t, "E2002", out.Diagnostics[0].Code)
	testutil.ExpectEq(t, 0, len(out.Diagnostics[0].Notes))
	testutil.ExpectEq(t, 0, out.Diagnostics[0].Location.StartLine)
}
