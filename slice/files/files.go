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

// Package files discovers the Slice files of a compilation unit and reads
// them from disk.
package files

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/externl/slicec/slice/config"
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/syntax"
)

const Extension = ".slice"

var (
	errNotSliceFile = errors.New("Slice files must end with a '.slice' extension")
	errIsDirectory  = errors.New("expected a Slice file but found a directory")
)

// discovered is a Slice file path as the user spelled it, keyed by its
// canonical form.
type discovered struct {
	path      string
	canonical string
	isSource  bool
}

// Resolve finds the source and reference files named by opts, then reads
// them. References may be files or directories, which are searched
// recursively; sources must be files.
//
// A file given more than once is read once. A file that is both a source
// and a reference is treated as a source. Problems are pushed into diags as
// IO errors and DuplicateFile lints, and do not stop discovery of the
// remaining paths.
func Resolve(opts *config.SliceOptions, diags *diagnostics.Diagnostics) []*syntax.SourceFile {
	var order []*discovered
	byCanonical := map[string]*discovered{}

	// References come first so that sources replace them, not the
	// other way around.
	for _, file := range find(opts.References, true, diags) {
		if _, ok := byCanonical[file.canonical]; ok {
			diagnostics.DuplicateFile(file.path).PushInto(diags)
			continue
		}
		byCanonical[file.canonical] = file
		order = append(order, file)
	}
	for _, file := range find(opts.Sources, false, diags) {
		prev, ok := byCanonical[file.canonical]
		if !ok {
			file.isSource = true
			byCanonical[file.canonical] = file
			order = append(order, file)
			continue
		}
		if prev.isSource {
			diagnostics.DuplicateFile(file.path).PushInto(diags)
			continue
		}
		prev.path = file.path
		prev.isSource = true
	}

	out := make([]*syntax.SourceFile, 0, len(order))
	for _, file := range order {
		text, err := os.ReadFile(file.path)
		if err != nil {
			diagnostics.IO("read", file.path, err).PushInto(diags)
			continue
		}
		out = append(out, &syntax.SourceFile{
			Path:     file.path,
			Text:     string(text),
			IsSource: file.isSource,
		})
	}
	return out
}

func find(paths []string, allowDirectories bool, diags *diagnostics.Diagnostics) []*discovered {
	var out []*discovered
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			diagnostics.IO("read", path, unwrapPathError(err)).PushInto(diags)
			continue
		}
		if !info.IsDir() {
			if !IsSliceFile(path) {
				diagnostics.IO("read", path, errNotSliceFile).PushInto(diags)
				continue
			}
			if file, ok := canonicalize(path, diags); ok {
				out = append(out, file)
			}
			continue
		}
		if !allowDirectories {
			diagnostics.IO("read", path, errIsDirectory).PushInto(diags)
			continue
		}
		out = append(out, walk(path, diags)...)
	}
	return out
}

// walk lists the Slice files beneath dir in lexical order.
func walk(dir string, diags *diagnostics.Diagnostics) []*discovered {
	var out []*discovered
	filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			diagnostics.IO("read", path, unwrapPathError(err)).PushInto(diags)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !IsSliceFile(path) {
			return nil
		}
		if file, ok := canonicalize(path, diags); ok {
			out = append(out, file)
		}
		return nil
	})
	return out
}

func canonicalize(path string, diags *diagnostics.Diagnostics) (*discovered, bool) {
	abs, err := filepath.Abs(path)
	if err == nil {
		abs, err = filepath.EvalSymlinks(abs)
	}
	if err != nil {
		diagnostics.IO("read", path, unwrapPathError(err)).PushInto(diags)
		return nil, false
	}
	return &discovered{path: path, canonical: abs}, true
}

func IsSliceFile(path string) bool {
	return filepath.Ext(path) == Extension
}

// unwrapPathError drops the operation and path of an *fs.PathError, which
// the IO diagnostic already names.
func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
