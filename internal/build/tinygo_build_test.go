package main

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestTinygoArgs(t *testing.T) {
	got := tinygoArgs("/out/plugin.wasm", "wasip1", []string{"-opt=2", "./bin/slicec-codegen-go"})
	want := []string{
		"build",
		"-o=/out/plugin.wasm",
		"-target=wasip1",
		"-buildmode=c-shared",
		"-no-debug",
		"-opt=2",
		"./bin/slicec-codegen-go",
	}
	if !slices.Equal(want, got) {
		t.Errorf("tinygoArgs = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	pwd := filepath.FromSlash("/work")
	tests := []struct {
		tool string
		want string
	}{
		{"tinygo", "tinygo"},
		{filepath.FromSlash("/usr/bin/tinygo"), filepath.FromSlash("/usr/bin/tinygo")},
		{filepath.FromSlash("tools/tinygo"), filepath.FromSlash("/work/tools/tinygo")},
	}
	for _, test := range tests {
		if got := resolve(pwd, test.tool); got != test.want {
			t.Errorf("resolve(%q) = %q, want %q", test.tool, got, test.want)
		}
	}
}
