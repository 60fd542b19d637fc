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

// Package grammar is the linked entity model of a set of Slice files.
//
// Entities are created by the compiler package and are read-only once
// linking completes. The only late-bound state is each type's memoized
// set of supported encodings, which is written exactly once.
package grammar

import (
	"fmt"
	"strings"
)

// Mode is a file's compilation mode, which selects the wire encoding.
type Mode uint8

const (
	Slice1 Mode = iota + 1
	Slice2
)

const DefaultMode = Slice2

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "Slice1":
		return Slice1, true
	case "Slice2":
		return Slice2, true
	}
	return 0, false
}

func (m Mode) String() string {
	switch m {
	case Slice1:
		return "Slice1"
	case Slice2:
		return "Slice2"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// SupportedEncodings is a set of modes.
type SupportedEncodings uint8

func EncodingsOf(modes ...Mode) SupportedEncodings {
	var s SupportedEncodings
	for _, m := range modes {
		s |= 1 << m
	}
	return s
}

func AllEncodings() SupportedEncodings {
	return EncodingsOf(Slice1, Slice2)
}

func (s SupportedEncodings) Supports(m Mode) bool {
	return s&(1<<m) != 0
}

func (s SupportedEncodings) Intersect(other SupportedEncodings) SupportedEncodings {
	return s & other
}

func (s SupportedEncodings) Without(m Mode) SupportedEncodings {
	return s &^ (1 << m)
}

func (s SupportedEncodings) IsEmpty() bool {
	return s.Intersect(AllEncodings()) == 0
}

func (s SupportedEncodings) Modes() []Mode {
	var out []Mode
	for _, m := range []Mode{Slice1, Slice2} {
		if s.Supports(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s SupportedEncodings) String() string {
	var names []string
	for _, m := range s.Modes() {
		names = append(names, m.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// TagFormat is the Slice1 wire format of a tagged value.
type TagFormat uint8

const (
	TagFormatF1 TagFormat = iota
	TagFormatF2
	TagFormatF4
	TagFormatF8
	TagFormatSize
	TagFormatVSize
	TagFormatFSize
	TagFormatClass
	TagFormatOptimizedVSize
)

var tagFormatNames = [...]string{
	"F1", "F2", "F4", "F8", "Size", "VSize", "FSize", "Class", "OptimizedVSize",
}

func (f TagFormat) String() string {
	if int(f) < len(tagFormatNames) {
		return tagFormatNames[f]
	}
	return fmt.Sprintf("TagFormat(%d)", uint8(f))
}

// encodingsCell memoizes a declared type's supported encodings.
type encodingsCell struct {
	resolved bool
	value    SupportedEncodings
}

func (c *encodingsCell) get(identifier string) SupportedEncodings {
	if !c.resolved {
		panic(fmt.Sprintf("supported encodings of '%s' read before they were resolved", identifier))
	}
	return c.value
}

func (c *encodingsCell) set(identifier string, value SupportedEncodings) {
	if c.resolved {
		panic(fmt.Sprintf("supported encodings of '%s' resolved twice", identifier))
	}
	c.resolved = true
	c.value = value
}

func (c *encodingsCell) isResolved() bool {
	return c.resolved
}

// slice2Only reports whether the type is known not to support Slice1, in
// which case it has no tag format.
func (c *encodingsCell) slice2Only() bool {
	return c.resolved && !c.value.Supports(Slice1)
}
