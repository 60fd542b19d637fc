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

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
	"github.com/externl/slicec/slice/encoding/slicetext"
)

type cmdCompile struct {
	input   inputFlags
	output  outputFlags
	outPath string
	format  string
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [options] SOURCE...",
		summary: "Check Slice files, optionally writing the compiled definitions",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	cmd.input.register(flags)
	cmd.output.register(flags)
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Where to write the --format output (default stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "Write the compiled definitions as 'text' or 'msgpack'")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	if len(argv) == 0 && cmd.input.syntaxPath == "" {
		fmt.Fprintln(os.Stderr, "No Slice files given (usage: slicec compile [options] SOURCE...)")
		return 1
	}
	switch cmd.format {
	case "", "text", "msgpack":
	default:
		fmt.Fprintf(os.Stderr, "Unsupported output format %q\n", cmd.format)
		return 1
	}
	if err := cmd.output.check(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := cmd.output.logger()
	defer log.Sync()

	u, err := loadUnit(ctx, log, "compile", cmd.input.options(argv), cmd.input.syntaxPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result := u.compile(log)
	cmd.output.report(os.Stderr, result.Diagnostics, u.sources)
	if result.HasErrors() {
		return 1
	}

	var output []byte
	switch cmd.format {
	case "":
		return 0
	case "text":
		output = []byte(slicetext.Encode(result.Ast))
	case "msgpack":
		output, err = slicemsgpack.EncodeFiles(u.files)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if err := writeOutput(cmd.outPath, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
