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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type cmdGenerate struct {
	input   inputFlags
	output  outputFlags
	codegen codegenFlags
}

func (*cmdGenerate) help() *commandHelp {
	return &commandHelp{
		usage:   "generate [options] SOURCE...",
		summary: "Compile Slice files and generate code for them",
	}
}

func (cmd *cmdGenerate) flags(flags *pflag.FlagSet) {
	cmd.input.register(flags)
	cmd.output.register(flags)
	cmd.codegen.register(flags)
	flags.StringVarP(&cmd.codegen.outDir, "output", "o", "", "Directory to write generated files to")
}

func (cmd *cmdGenerate) run(ctx context.Context, argv []string) int {
	if len(argv) == 0 && cmd.input.syntaxPath == "" {
		fmt.Fprintln(os.Stderr, "No Slice files given (usage: slicec generate [options] SOURCE...)")
		return 1
	}
	if cmd.codegen.outDir == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}
	if err := cmd.output.check(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := cmd.output.logger()
	defer log.Sync()

	opts := cmd.input.options(argv).Override(cmd.codegen.options())
	u, err := loadUnit(ctx, log, "generate", opts, cmd.input.syntaxPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result := u.compile(log)
	cmd.output.report(os.Stderr, result.Diagnostics, u.sources)
	if result.HasErrors() {
		return 1
	}

	outputFiles, err := cmd.codegen.generate(ctx, log, u, result)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := writeOutputFiles(u.opts.OutputDir, outputFiles); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Info("wrote generated files",
		zap.String("output_dir", u.opts.OutputDir),
		zap.Int("files", len(outputFiles)),
	)
	return 0
}
