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

package compiler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
)

// suppressAllowedLints removes lints allowed by the compile options, by an
// `allow` attribute on the offending entity or one of its parents, or by a
// file-level `allow` attribute.
func (c *compiler) suppressAllowedLints() {
	global := &grammar.Allow{Lints: c.opts.allowedLints}
	files := make(map[string]*grammar.File)
	for _, f := range c.ast.Files() {
		files[f.Path] = f
	}

	before := c.diags.Len()
	c.diags.Retain(func(d *diagnostics.Diagnostic) bool {
		if d.Kind() != diagnostics.KindLint {
			return true
		}
		if global.Allows(d.Code()) {
			return false
		}
		if e, ok := c.entityForScope(d.Scope()); ok {
			if f := e.File(); f != nil && allowedBy(f.Attributes, d.Code()) {
				return false
			}
			for ; e != nil; e = e.Parent() {
				if allowedBy(e.Attributes(), d.Code()) {
					return false
				}
			}
			return true
		}
		if span, ok := d.Span(); ok {
			if f, ok := files[span.File]; ok && allowedBy(f.Attributes, d.Code()) {
				return false
			}
		}
		return true
	})
	if suppressed := before - c.diags.Len(); suppressed > 0 {
		c.log.Debug("suppressed allowed lints", zap.Int("count", suppressed))
	}
}

// entityForScope finds the innermost entity named by a scope, trimming
// trailing segments until one is found.
func (c *compiler) entityForScope(scope string) (grammar.Entity, bool) {
	for scope != "" {
		if e, ok := c.ast.Lookup(scope); ok {
			return e, true
		}
		i := strings.LastIndex(scope, "::")
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	return nil, false
}

func allowedBy(attrs []*grammar.Attribute, code diagnostics.Code) bool {
	for _, attr := range attrs {
		if allow, ok := attr.Kind.(*grammar.Allow); ok && allow.Allows(code) {
			return true
		}
	}
	return false
}
