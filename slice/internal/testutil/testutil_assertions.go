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

package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// report fails the test with a "want" / "got" message. Assert* helpers stop
// the test; Expect* helpers let it continue.
func report(t *testing.T, fatal bool, want string, got any) {
	t.Helper()
	msg := fmt.Sprintf("want %s, got: %v", want, got)
	if fatal {
		t.Fatal(msg)
	}
	t.Error(msg)
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		report(t, true, "an error", err)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		report(t, true, "no error", err)
	}
}

func ExpectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		report(t, false, "no error", err)
	}
}

func ExpectErrorIs(t *testing.T, want, got error) {
	t.Helper()
	if !errors.Is(got, want) {
		report(t, false, fmt.Sprintf("an error wrapping %q", want), got)
	}
}

// ExpectErrorAs returns the first error in err's chain of type E.
func ExpectErrorAs[E error](t *testing.T, err error) (E, bool) {
	t.Helper()
	var target E
	ok := errors.As(err, &target)
	if !ok {
		report(t, false, fmt.Sprintf("an error of type %T", target), err)
	}
	return target, ok
}

func ExpectTrue(t *testing.T, cond bool) {
	t.Helper()
	if !cond {
		report(t, false, "true", cond)
	}
}

func ExpectFalse(t *testing.T, cond bool) {
	t.Helper()
	if cond {
		report(t, false, "false", cond)
	}
}

func ExpectEq[T comparable](t *testing.T, want, got T) {
	t.Helper()
	if want != got {
		report(t, false, fmt.Sprintf("%v", want), got)
	}
}

// ExpectBytesEq compares encoded values and names the first differing
// offset, which is where a wire mismatch is usually easiest to read.
func ExpectBytesEq(t *testing.T, want, got []byte) {
	t.Helper()
	if bytes.Equal(want, got) {
		return
	}
	at := mismatch(len(want), len(got), func(i int) bool { return want[i] == got[i] })
	t.Errorf("bytes differ at offset %d\nwant: % x\ngot:  % x", at, want, got)
}

func ExpectSliceEq[E comparable, S ~[]E](t *testing.T, want, got S) {
	t.Helper()
	at := mismatch(len(want), len(got), func(i int) bool { return want[i] == got[i] })
	if at < 0 {
		return
	}
	t.Errorf("slices differ at index %d\nwant: %#v\ngot:  %#v", at, want, got)
}

// mismatch returns the first index at which two sequences differ, or -1 if
// they are equal.
func mismatch(wantLen, gotLen int, same func(int) bool) int {
	for i := range min(wantLen, gotLen) {
		if !same(i) {
			return i
		}
	}
	if wantLen != gotLen {
		return min(wantLen, gotLen)
	}
	return -1
}

func ExpectMatch[P *regexp.Regexp | string](t *testing.T, want P, got string) {
	t.Helper()
	var pattern *regexp.Regexp
	switch want := any(want).(type) {
	case *regexp.Regexp:
		pattern = want
	case string:
		pattern = regexp.MustCompile(want)
	}
	if !pattern.MatchString(got) {
		report(t, false, fmt.Sprintf("a match for %q", pattern), fmt.Sprintf("%q", got))
	}
}

// ExpectNoDiff reports a unified diff between want and got, which is easier
// to read than ExpectEq for generated source.
func ExpectNoDiff(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	t.Error(diff)
}
