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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/externl/slicec/slice/codegen"
	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/config"
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/diagnostics/diagfmt"
	"github.com/externl/slicec/slice/encoding/slicemsgpack"
	"github.com/externl/slicec/slice/files"
	"github.com/externl/slicec/slice/plugin"
	"github.com/externl/slicec/slice/syntax"
)

const (
	frontendEnv   = "SLICEC_FRONTEND"
	pluginPathEnv = "SLICEC_PLUGIN_PATH"
)

// Output {{{

type outputFlags struct {
	diagFormat string
	color      string
	verbose    bool
}

func (f *outputFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.diagFormat, "diagnostic-format", "human", "How to print diagnostics: 'human' or 'json'")
	flags.StringVar(&f.color, "color", "auto", "Color diagnostics: 'auto', 'always' or 'never'")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Log compiler progress to stderr")
}

func (f *outputFlags) check() error {
	switch f.diagFormat {
	case "human", "json":
	default:
		return fmt.Errorf("Unsupported diagnostic format %q", f.diagFormat)
	}
	switch f.color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("Unsupported color mode %q", f.color)
	}
	return nil
}

func (f *outputFlags) logger() *zap.Logger {
	var log *zap.Logger
	var err error
	if f.verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return zap.NewNop()
	}
	return log
}

func (f *outputFlags) report(w io.Writer, diags *diagnostics.Diagnostics, sources []*syntax.SourceFile) {
	items := diags.Items()
	fs := diagfmt.NewFileSet(sources...)
	var err error
	if f.diagFormat == "json" {
		err = diagfmt.JSON(w, items, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
		})
	} else {
		opts := diagfmt.PrettyOpts{
			Color:     f.color == "always" || (f.color == "auto" && !color.NoColor),
			ShowNotes: true,
		}
		err = diagfmt.Pretty(w, items, fs, opts)
		if err == nil {
			err = diagfmt.Summary(w, items, opts)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// writeOutput writes content to path, or to stdout if path is empty.
func writeOutput(path string, content []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(path, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(content)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func writeOutputFiles(outDir string, outputFiles []slicemsgpack.OutputFile) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, outputFile := range outputFiles {
		path, err := outPath(outDir, outputFile.Path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, outputFile.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func outPath(outDir string, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains a path separator", parts, part)
		}
	}
	return filepath.Join(append([]string{outDir}, parts...)...), nil
}

// }}}

// Input {{{

type inputFlags struct {
	references []string
	allow      []string
	frontend   string
	syntaxPath string
}

func (f *inputFlags) register(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&f.references, "reference", "R", nil, "Slice file or directory whose definitions the sources may use")
	flags.StringArrayVarP(&f.allow, "allow", "A", nil, "Suppress a lint by name, or 'All'")
	flags.StringVar(&f.frontend, "frontend", "", "WebAssembly front end that parses Slice files (default $"+frontendEnv+")")
	flags.StringVar(&f.syntaxPath, "syntax", "", "Read parsed files written by 'compile --format=msgpack' instead of running the front end")
}

func (f *inputFlags) options(sources []string) config.SliceOptions {
	return config.SliceOptions{
		Sources:    sources,
		References: f.references,
		Allow:      f.allow,
		Frontend:   f.frontend,
	}
}

// unit is the parsed input of one compilation.
type unit struct {
	name    string
	opts    config.SliceOptions
	sources []*syntax.SourceFile
	files   []*syntax.File
	diags   *diagnostics.Diagnostics
}

func loadUnit(ctx context.Context, log *zap.Logger, name string, opts config.SliceOptions, syntaxPath string) (*unit, error) {
	u := &unit{
		name:  name,
		opts:  opts,
		diags: &diagnostics.Diagnostics{},
	}
	if syntaxPath != "" {
		buf, err := os.ReadFile(syntaxPath)
		if err != nil {
			return nil, err
		}
		if u.files, err = slicemsgpack.DecodeFiles(buf); err != nil {
			return nil, fmt.Errorf("%s: %w", syntaxPath, err)
		}
		u.sources = readSources(u.files)
		return u, nil
	}

	u.sources = files.Resolve(&opts, u.diags)
	log.Debug("resolved slice files",
		zap.String("unit", name),
		zap.Int("files", len(u.sources)),
	)
	if len(u.sources) == 0 {
		return u, nil
	}
	parsed, err := runFrontend(ctx, log, opts.Frontend, u.sources)
	if err != nil {
		return nil, err
	}
	u.files = parsed
	return u, nil
}

func (u *unit) compile(log *zap.Logger) compiler.CompileResult {
	return compiler.Compile(u.files,
		compiler.WithLogger(log.With(zap.String("unit", u.name))),
		compiler.WithAllowedLints(u.opts.Allow...),
		compiler.WithDiagnostics(u.diags),
	)
}

// readSources loads the text of parsed files for diagnostic snippets.
// Files that can no longer be read are left out.
func readSources(parsed []*syntax.File) []*syntax.SourceFile {
	var out []*syntax.SourceFile
	for _, f := range parsed {
		text, err := os.ReadFile(f.Path)
		if err != nil {
			continue
		}
		out = append(out, &syntax.SourceFile{Path: f.Path, Text: string(text), IsSource: f.IsSource})
	}
	return out
}

func runFrontend(ctx context.Context, log *zap.Logger, path string, sources []*syntax.SourceFile) ([]*syntax.File, error) {
	if path == "" {
		path = os.Getenv(frontendEnv)
	}
	if path == "" {
		return nil, fmt.Errorf("No front end set, use --frontend= or $%s", frontendEnv)
	}
	frontend, err := plugin.Load(ctx, path, plugin.FrontendPrefix,
		plugin.WithLogger(log),
		plugin.WithStderr(os.Stderr),
	)
	if err != nil {
		return nil, err
	}
	defer frontend.Close(ctx)

	request, err := slicemsgpack.Encode(&slicemsgpack.FrontendRequest{Files: sources})
	if err != nil {
		return nil, err
	}
	buf, callErr := frontend.Call(ctx, "parse", request)
	var exitErr *plugin.ExitError
	if callErr != nil && !errors.As(callErr, &exitErr) {
		return nil, callErr
	}
	var response slicemsgpack.FrontendResponse
	if err := slicemsgpack.Decode(buf, &response); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if callErr != nil {
		return nil, fmt.Errorf("%s: %w: %s", path, callErr, response.Error)
	}
	return response.Files, nil
}

// }}}

// Code generation {{{

type codegenFlags struct {
	outDir        string
	packagePrefix string
	plugin        string
	pluginPath    string
	language      string
}

func (f *codegenFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.packagePrefix, "package-prefix", "", "Import path under which the generated packages live")
	flags.StringVar(&f.plugin, "plugin", "", "WebAssembly code generator to run instead of the built-in Go generator")
	flags.StringVar(&f.pluginPath, "plugin-path", "", "Directories to search for slicec-codegen-LANGUAGE.wasm (default $"+pluginPathEnv+")")
	flags.StringVar(&f.language, "language", "go", "Language to generate code for")
}

func (f *codegenFlags) options() config.SliceOptions {
	return config.SliceOptions{
		OutputDir:     f.outDir,
		PackagePrefix: f.packagePrefix,
		Plugin:        f.plugin,
	}
}

// locate returns the code generator plugin for language, or "" to generate
// Go in-process.
func (f *codegenFlags) locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	searchPath := f.pluginPath
	if searchPath == "" {
		searchPath = os.Getenv(pluginPathEnv)
	}
	if searchPath == "" {
		if f.language != "go" {
			return "", fmt.Errorf("No %s code generator, use --plugin= or --plugin-path=", f.language)
		}
		return "", nil
	}
	return plugin.Locate(searchPath, plugin.CodegenBasename(f.language))
}

func (f *codegenFlags) generate(
	ctx context.Context,
	log *zap.Logger,
	u *unit,
	result compiler.CompileResult,
) ([]slicemsgpack.OutputFile, error) {
	pluginPath, err := f.locate(u.opts.Plugin)
	if err != nil {
		return nil, err
	}
	if pluginPath == "" {
		codeMap := codegen.Generate(result.Ast,
			codegen.WithPackagePrefix(u.opts.PackagePrefix),
			codegen.WithLogger(log),
		)
		return codegen.OutputFiles(result.Ast, codeMap)
	}

	generator, err := plugin.Load(ctx, pluginPath, plugin.CodegenPrefix,
		plugin.WithLogger(log),
		plugin.WithStderr(os.Stderr),
	)
	if err != nil {
		return nil, err
	}
	defer generator.Close(ctx)

	request, err := slicemsgpack.Encode(&slicemsgpack.CodegenRequest{
		Files:         u.files,
		PackagePrefix: u.opts.PackagePrefix,
		AllowedLints:  u.opts.Allow,
	})
	if err != nil {
		return nil, err
	}
	buf, callErr := generator.Call(ctx, "generate/"+f.language, request)
	var exitErr *plugin.ExitError
	if callErr != nil && !errors.As(callErr, &exitErr) {
		return nil, callErr
	}
	var response slicemsgpack.CodegenResponse
	if err := slicemsgpack.Decode(buf, &response); err != nil {
		return nil, fmt.Errorf("%s: %w", pluginPath, err)
	}
	if callErr != nil {
		// TODO: Replace any control characters in the plugin's message with U+FFFD.
		return nil, fmt.Errorf("%s: %w: %s", pluginPath, callErr, strings.TrimSpace(response.Error))
	}
	if len(response.OutputFiles) == 0 {
		return nil, fmt.Errorf("Plugin %s did not generate any output files", pluginPath)
	}
	return response.OutputFiles, nil
}

// }}}
