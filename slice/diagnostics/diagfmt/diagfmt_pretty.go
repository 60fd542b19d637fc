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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/syntax"
)

type PrettyOpts struct {
	Color     bool
	ShowNotes bool
}

// Pretty writes each diagnostic as a header, the location of its span with
// the spanned source underlined, and its notes:
//
//	error [E2002]: redefinition of 'Point'
//	 --> demo.slice:3:12
//	  |
//	3 |     struct Point {}
//	  |            ^^^^^
//	  = note: 'Point' was previously defined here
func Pretty(w io.Writer, diags []*diagnostics.Diagnostic, fs *FileSet, opts PrettyOpts) error {
	p := newPrinter(w, fs, opts)
	for _, d := range diags {
		p.diagnostic(d)
		if p.err != nil {
			return p.err
		}
	}
	return nil
}

// Summary writes a one-line count of errors and lints, or nothing if diags
// is empty.
func Summary(w io.Writer, diags []*diagnostics.Diagnostic, opts PrettyOpts) error {
	var errors, lints int
	for _, d := range diags {
		if d.Kind() == diagnostics.KindError {
			errors += 1
		} else {
			lints += 1
		}
	}
	if errors+lints == 0 {
		return nil
	}
	p := newPrinter(w, nil, opts)
	status := p.lintColor.Sprint("warning")
	verdict := "compilation succeeded"
	if errors > 0 {
		status = p.errorColor.Sprint("error")
		verdict = "compilation failed"
	}
	p.linef("%s: %s with %s and %s", status, verdict, plural(errors, "error"), plural(lints, "lint"))
	return p.err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

type printer struct {
	w    io.Writer
	fs   *FileSet
	opts PrettyOpts
	err  error

	errorColor *color.Color
	lintColor  *color.Color
	accent     *color.Color
	bold       *color.Color
}

func newPrinter(w io.Writer, fs *FileSet, opts PrettyOpts) *printer {
	p := &printer{
		w:          w,
		fs:         fs,
		opts:       opts,
		errorColor: color.New(color.FgRed, color.Bold),
		lintColor:  color.New(color.FgYellow, color.Bold),
		accent:     color.New(color.FgBlue, color.Bold),
		bold:       color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.errorColor, p.lintColor, p.accent, p.bold} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) linef(format string, a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", a...)
}

func (p *printer) diagnostic(d *diagnostics.Diagnostic) {
	label := p.lintColor
	if d.Kind() == diagnostics.KindError {
		label = p.errorColor
	}
	p.linef("%s %s",
		label.Sprintf("%s [%s]:", d.Kind(), d.Code().ID()),
		p.bold.Sprint(d.Message()),
	)
	gutter := 0
	if span, ok := d.Span(); ok {
		gutter = p.snippet(span, 0)
	}
	if !p.opts.ShowNotes {
		return
	}
	for _, note := range d.Notes() {
		p.linef("%s %s %s", strings.Repeat(" ", gutter), p.accent.Sprint("="), p.bold.Sprint("note: ")+note.Message)
		if note.Span != nil {
			p.snippet(*note.Span, gutter)
		}
	}
}

// snippet writes the location of span and, when its source text is known,
// the first spanned line with carets under the spanned columns. It returns
// the width of the line number gutter.
func (p *printer) snippet(span syntax.Span, minGutter int) int {
	if span.File == "" {
		return minGutter
	}
	start, end, ok := p.fs.Resolve(span)
	if !ok {
		p.linef("%s %s", p.accent.Sprint("-->"), span.File)
		return minGutter
	}
	lineNo := strconv.Itoa(start.Line)
	gutter := max(minGutter, len(lineNo))
	pad := strings.Repeat(" ", gutter)
	p.linef("%s%s %s:%d:%d", pad, p.accent.Sprint("-->"), span.File, start.Line, start.Column)

	line, ok := p.fs.Line(span.File, start.Line)
	if !ok {
		return gutter
	}
	from := min(start.Column-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(end.Column-1, from), len(line))
	}
	carets := max(1, runewidth.StringWidth(line[from:to]))

	p.linef("%s %s", pad, p.accent.Sprint("|"))
	p.linef("%s %s %s", p.accent.Sprint(fmt.Sprintf("%*s", gutter, lineNo)), p.accent.Sprint("|"), line)
	p.linef("%s %s %s%s", pad, p.accent.Sprint("|"), indentLike(line[:from]), p.errorColor.Sprint(strings.Repeat("^", carets)))
	return gutter
}

// indentLike returns whitespace as wide as prefix, keeping its tabs so that
// the carets line up with the source line above them.
func indentLike(prefix string) string {
	var buf strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			buf.WriteByte('\t')
			continue
		}
		buf.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return buf.String()
}
