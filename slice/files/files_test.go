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

package files_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/externl/slicec/slice/config"
	"github.com/externl/slicec/slice/diagnostics"
	"github.com/externl/slicec/slice/files"
	"github.com/externl/slicec/slice/internal/testutil"
	"github.com/externl/slicec/slice/syntax"
)

// tree creates files under a temporary directory and returns its path.
func tree(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, path := range paths {
		full := filepath.Join(root, filepath.FromSlash(path))
		testutil.AssertNoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		testutil.AssertNoError(t, os.WriteFile(full, []byte("module "+path), 0o644))
	}
	return root
}

func paths(files []*syntax.SourceFile) []string {
	out := make([]string, len(files))
	for ii, f := range files {
		out[ii] = f.Path
	}
	return out
}

func TestResolveReadsFiles(t *testing.T) {
	t.Parallel()

	root := tree(t, "a.slice", "refs/b.slice", "refs/nested/c.slice", "refs/notes.txt")
	a := filepath.Join(root, "a.slice")
	diags := &diagnostics.Diagnostics{}
	got := files.Resolve(&config.SliceOptions{
		Sources:    []string{a},
		References: []string{filepath.Join(root, "refs")},
	}, diags)

	testutil.CheckNoDiagnostics(t, diags)
	testutil.ExpectSliceEq(t, []string{
		filepath.Join(root, "refs", "b.slice"),
		filepath.Join(root, "refs", "nested", "c.slice"),
		a,
	}, paths(got))
	testutil.ExpectFalse(t, got[0].IsSource)
	testutil.ExpectFalse(t, got[1].IsSource)
	testutil.ExpectTrue(t, got[2].IsSource)
	testutil.ExpectEq(t, "module a.slice", got[2].Text)
}

func TestFileAsSourceAndReference(t *testing.T) {
	t.Parallel()

	root := tree(t, "files/test.slice")
	file := filepath.Join(root, "files", "..", "files", "test.slice")
	diags := &diagnostics.Diagnostics{}
	got := files.Resolve(&config.SliceOptions{
		Sources:    []string{file},
		References: []string{file},
	}, diags)

	testutil.CheckNoDiagnostics(t, diags)
	testutil.ExpectEq(t, 1, len(got))
	testutil.ExpectTrue(t, got[0].IsSource)
}

func TestSourceInsideReferenceDirectory(t *testing.T) {
	t.Parallel()

	root := tree(t, "lib/a.slice", "lib/b.slice")
	b := filepath.Join(root, "lib", "b.slice")
	diags := &diagnostics.Diagnostics{}
	got := files.Resolve(&config.SliceOptions{
		Sources:    []string{b},
		References: []string{filepath.Join(root, "lib")},
	}, diags)

	testutil.CheckNoDiagnostics(t, diags)
	testutil.ExpectSliceEq(t, []string{filepath.Join(root, "lib", "a.slice"), b}, paths(got))
	testutil.ExpectFalse(t, got[0].IsSource)
	testutil.ExpectTrue(t, got[1].IsSource)
}

func TestDuplicateFiles(t *testing.T) {
	t.Parallel()

	root := tree(t, "files/test.slice")
	one := filepath.Join(root, "files", "test.slice")
	two := filepath.Join(root, "files", "..", "files", "test.slice")

	t.Run("sources", func(t *testing.T) {
		diags := &diagnostics.Diagnostics{}
		got := files.Resolve(&config.SliceOptions{Sources: []string{one, two}}, diags)
		testutil.ExpectEq(t, 1, len(got))
		testutil.CheckDiagnostics(t, diags, diagnostics.DuplicateFile(two))
	})
	t.Run("references", func(t *testing.T) {
		diags := &diagnostics.Diagnostics{}
		got := files.Resolve(&config.SliceOptions{References: []string{one, two}}, diags)
		testutil.ExpectEq(t, 1, len(got))
		testutil.CheckDiagnostics(t, diags, diagnostics.DuplicateFile(two))
	})
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	root := tree(t, "good.slice", "notes.txt", "dir/x.slice")
	missing := filepath.Join(root, "missing.slice")
	notes := filepath.Join(root, "notes.txt")
	dir := filepath.Join(root, "dir")
	good := filepath.Join(root, "good.slice")

	_, statErr := os.Stat(missing)
	diags := &diagnostics.Diagnostics{}
	got := files.Resolve(&config.SliceOptions{
		Sources: []string{missing, notes, dir, good},
	}, diags)

	testutil.ExpectSliceEq(t, []string{good}, paths(got))
	testutil.CheckDiagnostics(t, diags,
		diagnostics.IO("read", missing, errors.Unwrap(statErr)),
		diagnostics.IO("read", notes, errors.New("Slice files must end with a '.slice' extension")),
		diagnostics.IO("read", dir, errors.New("expected a Slice file but found a directory")),
	)
	for _, d := range diags.Items() {
		testutil.ExpectEq(t, diagnostics.KindError, d.Kind())
	}
}

func TestIsSliceFile(t *testing.T) {
	t.Parallel()

	testutil.ExpectTrue(t, files.IsSliceFile("a/b.slice"))
	testutil.ExpectFalse(t, files.IsSliceFile("a/b.slice.txt"))
	testutil.ExpectFalse(t, files.IsSliceFile("slice"))
}
