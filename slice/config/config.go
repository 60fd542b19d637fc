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

// Package config loads slicec.toml, the description of the compilation
// units of a project.
//
// A manifest holds shared defaults and any number of targets:
//
//	jobs = 4
//
//	[defaults]
//	references = ["slice/common"]
//	allow = ["Deprecated"]
//
//	[[target]]
//	name = "greeter"
//	sources = ["slice/greeter.slice"]
//	output_dir = "gen"
//
// Relative paths are resolved against the directory holding the manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

const FileName = "slicec.toml"

// SliceOptions are the inputs of one compilation unit.
type SliceOptions struct {
	Sources    []string `toml:"sources"`
	References []string `toml:"references"`
	OutputDir  string   `toml:"output_dir"`

	// Allow lists lints to suppress in every file of the unit.
	Allow []string `toml:"allow"`

	// PackagePrefix is the import path under which generated packages live.
	PackagePrefix string `toml:"package_prefix"`

	// Frontend and Plugin are WebAssembly modules that parse Slice files and
	// generate code. Empty values select the defaults of the CLI.
	Frontend string `toml:"frontend"`
	Plugin   string `toml:"plugin"`
}

// Override returns o with every value set in other replacing its own.
// Allowed lints are combined.
func (o SliceOptions) Override(other SliceOptions) SliceOptions {
	if len(other.Sources) > 0 {
		o.Sources = other.Sources
	}
	if len(other.References) > 0 {
		o.References = other.References
	}
	if other.OutputDir != "" {
		o.OutputDir = other.OutputDir
	}
	if len(other.Allow) > 0 {
		o.Allow = append(slices.Clone(o.Allow), other.Allow...)
	}
	if other.PackagePrefix != "" {
		o.PackagePrefix = other.PackagePrefix
	}
	if other.Frontend != "" {
		o.Frontend = other.Frontend
	}
	if other.Plugin != "" {
		o.Plugin = other.Plugin
	}
	return o
}

type Target struct {
	Name string `toml:"name"`
	SliceOptions
}

type Manifest struct {
	// Path of the manifest file, and the directory containing it.
	Path string
	Root string

	Jobs     int
	Defaults SliceOptions
	targets  []Target
}

type manifestFile struct {
	Jobs     int          `toml:"jobs"`
	Defaults SliceOptions `toml:"defaults"`
	Targets  []Target     `toml:"target"`
}

// Find searches startDir and its parents for slicec.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func Load(path string) (*Manifest, error) {
	var file manifestFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for ii, key := range undecoded {
			keys[ii] = key.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if file.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must not be negative", path)
	}

	seen := map[string]bool{}
	for ii, target := range file.Targets {
		name := strings.TrimSpace(target.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: [[target]] #%d is missing a name", path, ii+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%s: duplicate target %q", path, name)
		}
		seen[name] = true
		file.Targets[ii].Name = name
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Manifest{
		Path:     abs,
		Root:     filepath.Dir(abs),
		Jobs:     file.Jobs,
		Defaults: file.Defaults,
		targets:  file.Targets,
	}, nil
}

// Targets returns every target with the defaults applied and its paths
// resolved. A manifest without targets describes a single unit named after
// its directory.
func (m *Manifest) Targets() []Target {
	targets := m.targets
	if len(targets) == 0 {
		targets = []Target{{Name: filepath.Base(m.Root)}}
	}
	out := make([]Target, len(targets))
	for ii, target := range targets {
		out[ii] = Target{
			Name:         target.Name,
			SliceOptions: m.resolve(m.Defaults.Override(target.SliceOptions)),
		}
	}
	return out
}

// Target looks up a target by name.
func (m *Manifest) Target(name string) (Target, bool) {
	for _, target := range m.Targets() {
		if target.Name == name {
			return target, true
		}
	}
	return Target{}, false
}

func (m *Manifest) resolve(opts SliceOptions) SliceOptions {
	opts.Sources = m.resolvePaths(opts.Sources)
	opts.References = m.resolvePaths(opts.References)
	if opts.OutputDir != "" {
		opts.OutputDir = m.resolvePath(opts.OutputDir)
	}
	if opts.Frontend != "" {
		opts.Frontend = m.resolvePath(opts.Frontend)
	}
	if opts.Plugin != "" {
		opts.Plugin = m.resolvePath(opts.Plugin)
	}
	return opts
}

func (m *Manifest) resolvePaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for ii, path := range paths {
		out[ii] = m.resolvePath(path)
	}
	return out
}

func (m *Manifest) resolvePath(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.Root, path)
}
