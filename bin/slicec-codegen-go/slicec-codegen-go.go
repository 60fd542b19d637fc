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

// Command slicec-codegen-go is the Go code generator as a standalone
// plugin. Built natively it reads a msgpack CodegenRequest from stdin and
// writes the CodegenResponse to stdout; built with TinyGo it exports the
// slicec_codegen_* WebAssembly entry points.
package main

import (
	"fmt"
	"strings"

	"github.com/externl/slicec/slice/codegen"
	"github.com/externl/slicec/slice/compiler"
	"github.com/externl/slicec/slice/encoding/slicemsgpack"
)

// Plugin options understood in CodegenRequest.PluginOptions.
const (
	optionPackagePrefix = "package_prefix"
)

// generate answers an encoded CodegenRequest. It returns false if no code
// could be generated, in which case the response carries the reason.
func generate(request []byte) (*slicemsgpack.CodegenResponse, bool) {
	var req slicemsgpack.CodegenRequest
	if err := slicemsgpack.Decode(request, &req); err != nil {
		return &slicemsgpack.CodegenResponse{
			Error: fmt.Sprintf("Decode[CodegenRequest]: %v", err),
		}, false
	}

	result := compiler.Compile(req.Files, compiler.WithAllowedLints(req.AllowedLints...))
	if result.HasErrors() {
		var msg strings.Builder
		msg.WriteString("Slice files failed to compile:")
		for _, d := range result.Diagnostics.Errors() {
			msg.WriteString("\n  ")
			msg.WriteString(d.Error())
		}
		return &slicemsgpack.CodegenResponse{Error: msg.String()}, false
	}

	prefix := req.PackagePrefix
	if value, ok := req.PluginOptions[optionPackagePrefix]; ok && prefix == "" {
		prefix = value
	}
	codeMap := codegen.Generate(result.Ast, codegen.WithPackagePrefix(prefix))
	outputFiles, err := codegen.OutputFiles(result.Ast, codeMap)
	if err != nil {
		return &slicemsgpack.CodegenResponse{Error: err.Error()}, false
	}
	return &slicemsgpack.CodegenResponse{OutputFiles: outputFiles}, true
}
