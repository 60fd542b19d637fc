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

package diagnostics

func DuplicateFile(path string) *Diagnostic {
	return newDiagnostic(
		CodeDuplicateFile,
		"slice file was provided more than once: '%s'",
		path,
	)
}

func IncorrectDocComment(message string) *Diagnostic {
	return newDiagnostic(CodeIncorrectDocComment, "%s", message)
}

func MalformedDocComment(message string) *Diagnostic {
	return newDiagnostic(CodeMalformedDocComment, "%s", message)
}

func Deprecated(identifier, reason string) *Diagnostic {
	if reason != "" {
		return newDiagnostic(CodeDeprecated, "'%s' is deprecated: %s", identifier, reason)
	}
	return newDiagnostic(CodeDeprecated, "'%s' is deprecated", identifier)
}
