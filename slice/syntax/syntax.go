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

// Package syntax holds the front end's view of a Slice file: declarations,
// members, type references, attributes and pre-parsed doc comments, each with
// a positioned [Span].
//
// Values are plain data so they can be built in-process or exchanged with an
// external front end (see the slicemsgpack package).
package syntax

import (
	"fmt"
)

type Span struct {
	File  string `msgpack:"file"`
	Start uint32 `msgpack:"start"`
	End   uint32 `msgpack:"end"`
}

func NewSpan(file string, start, end uint32) Span {
	if end < start {
		end = start
	}
	return Span{File: file, Start: start, End: end}
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) IsZero() bool {
	return s == Span{}
}

// Cover returns the smallest span containing both s and other. Spans in
// different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.IsZero() {
		return other
	}
	if other.IsZero() || other.File != s.File {
		return s
	}
	return Span{
		File:  s.File,
		Start: min(s.Start, other.Start),
		End:   max(s.End, other.End),
	}
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

// SourceFile is a Slice file found on disk, before parsing.
type SourceFile struct {
	Path     string `msgpack:"path"`
	Text     string `msgpack:"text"`
	IsSource bool   `msgpack:"is_source"`
}

// File is one parsed Slice file.
type File struct {
	Path       string       `msgpack:"path"`
	IsSource   bool         `msgpack:"is_source"`
	Mode       *Mode        `msgpack:"mode,omitempty"`
	Attributes []*Attribute `msgpack:"attributes,omitempty"`
	Modules    []*Module    `msgpack:"modules,omitempty"`
	Problems   []*Problem   `msgpack:"problems,omitempty"`
}

// Mode is an explicit `mode = Slice1` declaration.
type Mode struct {
	Value string `msgpack:"value"`
	Span  Span   `msgpack:"span"`
}

type ProblemKind uint8

const (
	ProblemSyntax ProblemKind = iota + 1
	ProblemMalformedDocComment
)

// Problem is a diagnostic raised by the front end itself.
type Problem struct {
	Kind    ProblemKind `msgpack:"kind"`
	Message string      `msgpack:"message"`
	Span    Span        `msgpack:"span"`
}
