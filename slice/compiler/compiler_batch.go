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
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/syntax"
)

// Unit is one independent compilation, such as a `[[target]]` in slicec.toml.
type Unit struct {
	Name  string
	Files []*syntax.File
	// Diagnostics, if set, seeds the unit's accumulator.
	Diagnostics *diagnostics.Diagnostics
	Options     []CompileOption
}

// CompileAll compiles units concurrently. Each unit gets its own graph and
// accumulator; results are returned in the order of units.
func CompileAll(ctx context.Context, units []Unit, opts ...CompileOption) ([]CompileResult, error) {
	shared := NewCompileOptions(opts...)
	results := make([]CompileResult, len(units))

	g, ctx := errgroup.WithContext(ctx)
	if shared.jobs > 0 {
		g.SetLimit(shared.jobs)
	}
	for i, unit := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("compile %s: %w", unit.Name, err)
			}
			unitOpts := append([]CompileOption{}, opts...)
			unitOpts = append(unitOpts, unit.Options...)
			unitOpts = append(unitOpts,
				WithLogger(shared.logger.With(zap.String("unit", unit.Name))),
				WithDiagnostics(unit.Diagnostics),
			)
			results[i] = Compile(unit.Files, unitOpts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
