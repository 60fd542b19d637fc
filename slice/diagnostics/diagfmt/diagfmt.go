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

// Package diagfmt renders diagnostics for people and for tools.
package diagfmt

import (
	"slices"

	"fortio.org/safecast"

	"github.com/externl/slicec/slice/syntax"
)

// Position is a 1-based line and byte column.
type Position struct {
	Line   int
	Column int
}

// FileSet maps the byte offsets of spans back to lines of source text.
type FileSet struct {
	files map[string]*sourceText
}

type sourceText struct {
	text string
	// newlines holds the offset of every '\n' in text.
	newlines []int
}

func NewFileSet(files ...*syntax.SourceFile) *FileSet {
	fs := &FileSet{files: make(map[string]*sourceText, len(files))}
	for _, f := range files {
		fs.Add(f.Path, f.Text)
	}
	return fs
}

func (fs *FileSet) Add(path, text string) {
	src := &sourceText{text: text}
	for ii := 0; ii < len(text); ii++ {
		if text[ii] == '\n' {
			src.newlines = append(src.newlines, ii)
		}
	}
	fs.files[path] = src
}

// Resolve returns the positions of the start and end of span. It returns
// false if the span's file is unknown.
func (fs *FileSet) Resolve(span syntax.Span) (start, end Position, ok bool) {
	src := fs.lookup(span.File)
	if src == nil {
		return Position{}, Position{}, false
	}
	return src.position(span.Start), src.position(span.End), true
}

// Line returns line n (1-based) of the file at path, without its newline.
func (fs *FileSet) Line(path string, n int) (string, bool) {
	src := fs.lookup(path)
	if src == nil || n < 1 || n > len(src.newlines)+1 {
		return "", false
	}
	start := 0
	if n > 1 {
		start = src.newlines[n-2] + 1
	}
	end := len(src.text)
	if n <= len(src.newlines) {
		end = src.newlines[n-1]
	}
	line := src.text[start:end]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, true
}

func (fs *FileSet) lookup(path string) *sourceText {
	if fs == nil {
		return nil
	}
	return fs.files[path]
}

func (src *sourceText) position(offset uint32) Position {
	off, err := safecast.Conv[int](offset)
	if err != nil || off > len(src.text) {
		off = len(src.text)
	}
	// Index of the first newline at or after off is the 0-based line.
	line, _ := slices.BinarySearch(src.newlines, off)
	lineStart := 0
	if line > 0 {
		lineStart = src.newlines[line-1] + 1
	}
	return Position{Line: line + 1, Column: off - lineStart + 1}
}
