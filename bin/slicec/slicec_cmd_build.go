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

	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/config"
)

type cmdBuild struct {
	output   outputFlags
	codegen  codegenFlags
	manifest string
	frontend string
	jobs     int
}

func (*cmdBuild) help() *commandHelp {
	return &commandHelp{
		usage:   "build [options] [TARGET...]",
		summary: "Generate code for the targets of " + config.FileName,
	}
}

func (cmd *cmdBuild) flags(flags *pflag.FlagSet) {
	cmd.output.register(flags)
	cmd.codegen.register(flags)
	flags.StringVar(&cmd.manifest, "manifest", "", "Path to "+config.FileName+" (default: search the current directory and its parents)")
	flags.StringVar(&cmd.frontend, "frontend", "", "WebAssembly front end that parses Slice files (default $"+frontendEnv+")")
	flags.IntVarP(&cmd.jobs, "jobs", "j", 0, "Number of targets to compile at once (default from "+config.FileName+", or unlimited)")
}

func (cmd *cmdBuild) run(ctx context.Context, argv []string) int {
	if err := cmd.output.check(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	manifest, err := cmd.loadManifest()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	targets, err := cmd.selectTargets(manifest, argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := cmd.output.logger()
	defer log.Sync()

	overrides := cmd.codegen.options()
	overrides.Frontend = cmd.frontend

	// The front end runs once per target, before any of them compile.
	units := make([]*unit, len(targets))
	compileUnits := make([]compiler.Unit, len(targets))
	for ii, target := range targets {
		opts := target.SliceOptions.Override(overrides)
		if opts.OutputDir == "" {
			fmt.Fprintf(os.Stderr, "Target %q has no output_dir\n", target.Name)
			return 1
		}
		u, err := loadUnit(ctx, log, target.Name, opts, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Target %q: %v\n", target.Name, err)
			return 1
		}
		units[ii] = u
		compileUnits[ii] = compiler.Unit{
			Name:        u.name,
			Files:       u.files,
			Diagnostics: u.diags,
			Options:     []compiler.CompileOption{compiler.WithAllowedLints(opts.Allow...)},
		}
	}

	jobs := manifest.Jobs
	if cmd.jobs > 0 {
		jobs = cmd.jobs
	}
	results, err := compiler.CompileAll(ctx, compileUnits,
		compiler.WithLogger(log),
		compiler.WithJobs(jobs),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rc := 0
	for ii, result := range results {
		u := units[ii]
		cmd.output.report(os.Stderr, result.Diagnostics, u.sources)
		if result.HasErrors() {
			rc = 1
			continue
		}
		outputFiles, err := cmd.codegen.generate(ctx, log, u, result)
		if err == nil {
			err = writeOutputFiles(u.opts.OutputDir, outputFiles)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Target %q: %v\n", u.name, err)
			rc = 1
			continue
		}
		log.Info("built target",
			zap.String("target", u.name),
			zap.String("output_dir", u.opts.OutputDir),
			zap.Int("files", len(outputFiles)),
		)
	}
	return rc
}

func (cmd *cmdBuild) loadManifest() (*config.Manifest, error) {
	path := cmd.manifest
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, ok, err := config.Find(cwd)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("No %s found in %s or its parents (set --manifest=)", config.FileName, cwd)
		}
		path = found
	}
	return config.Load(path)
}

func (cmd *cmdBuild) selectTargets(manifest *config.Manifest, names []string) ([]config.Target, error) {
	if len(names) == 0 {
		return manifest.Targets(), nil
	}
	targets := make([]config.Target, 0, len(names))
	for _, name := range names {
		target, ok := manifest.Target(name)
		if !ok {
			return nil, fmt.Errorf("%s: no target named %q", manifest.Path, name)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
