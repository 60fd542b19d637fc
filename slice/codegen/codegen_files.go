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

package codegen

import (
	"github.com/externl/slicec/slice/encoding/slicemsgpack"
	"github.com/externl/slicec/slice/grammar"
)

// OutputFiles renders the code of every source file of ast that declares a
// module. Each file is placed in a directory named after its package.
func OutputFiles(ast *grammar.Ast, codeMap *CodeMap) ([]slicemsgpack.OutputFile, error) {
	var out []slicemsgpack.OutputFile
	for _, file := range ast.Files() {
		if !file.IsSource {
			continue
		}
		pkg, ok := PackageName(file)
		if !ok {
			continue
		}
		content, err := Render(file, codeMap)
		if err != nil {
			return nil, err
		}
		out = append(out, slicemsgpack.OutputFile{
			Path:    []string{pkg, FileName(file)},
			Content: content,
		})
	}
	return out, nil
}
