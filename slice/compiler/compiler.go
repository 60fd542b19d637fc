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

// Package compiler links parsed Slice files into a [grammar.Ast], resolves
// which encodings every type supports, and runs the validators.
package compiler

import (
	"go.uber.org/zap"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/grammar"
	"github.com/externl/slicec/slice/syntax"
	"github.com/externl/slicec/slice/validators"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	logger       *zap.Logger
	allowedLints []string
	diags        *diagnostics.Diagnostics
	jobs         int
}

func WithLogger(logger *zap.Logger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.logger = logger
	})
}

// WithAllowedLints suppresses the named lints in every file. "All"
// suppresses every lint.
func WithAllowedLints(lints ...string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.allowedLints = append(opts.allowedLints, lints...)
	})
}

// WithDiagnostics makes the compilation append to an existing accumulator,
// such as one already holding file discovery diagnostics.
func WithDiagnostics(diags *diagnostics.Diagnostics) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.diags = diags
	})
}

// WithJobs limits how many units [CompileAll] compiles at once.
func WithJobs(jobs int) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.jobs = jobs
	})
}

type CompileResult struct {
	Ast         *grammar.Ast
	Diagnostics *diagnostics.Diagnostics
}

func (r *CompileResult) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

func Compile(files []*syntax.File, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(files)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	if compileOptions.logger == nil {
		compileOptions.logger = zap.NewNop()
	}
	return compileOptions
}

func (opts *CompileOptions) Compile(files []*syntax.File) CompileResult {
	diags := opts.diags
	if diags == nil {
		diags = &diagnostics.Diagnostics{}
	}
	c := &compiler{
		opts:  opts,
		log:   opts.logger,
		ast:   grammar.NewAst(),
		diags: diags,
	}

	c.link(files)
	c.log.Debug("linked entity graph",
		zap.Int("files", len(files)),
		zap.Int("entities", c.ast.Len()),
	)

	c.resolveEncodings()
	validators.Validate(c.ast, c.diags)
	c.suppressAllowedLints()

	c.log.Debug("compilation finished",
		zap.Int("errors", len(c.diags.Errors())),
		zap.Int("lints", len(c.diags.Lints())),
	)
	return CompileResult{
		Ast:         c.ast,
		Diagnostics: c.diags,
	}
}

type compiler struct {
	opts  *CompileOptions
	log   *zap.Logger
	ast   *grammar.Ast
	diags *diagnostics.Diagnostics

	// resolvers run once every declaration has been registered. kindChecks
	// run after them, when aliases can be followed to their definitions.
	resolvers  []func()
	kindChecks []func()
}

func (c *compiler) push(d *diagnostics.Diagnostic) {
	d.PushInto(c.diags)
}
