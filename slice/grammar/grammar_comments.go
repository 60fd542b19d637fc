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

package grammar

import (
	"github.com/externl/slicec/slice/syntax"
)

type DocComment struct {
	Overview string
	Params   []*ParamTag
	Returns  []*ReturnsTag
	Throws   []*ThrowsTag
	See      []*SeeTag
	Span     syntax.Span
}

type Identifier struct {
	Value string
	Span  syntax.Span
}

type ParamTag struct {
	Identifier Identifier
	Message    string
	Span       syntax.Span
}

// ReturnsTag documents a return value. Identifier is nil for
// `@returns: message`.
type ReturnsTag struct {
	Identifier *Identifier
	Message    string
	Span       syntax.Span
}

// ThrowsTag documents an exception. Thrown is nil when the tag names no
// exception or names something that is not one.
type ThrowsTag struct {
	Identifier *Identifier
	Thrown     *Exception
	Message    string
	Span       syntax.Span
}

func (t *ThrowsTag) ThrownType() (*Exception, bool) {
	return t.Thrown, t.Thrown != nil
}

type SeeTag struct {
	Link   Identifier
	Target Entity
	Span   syntax.Span
}
