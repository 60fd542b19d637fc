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

//go:build !tinygo

package main

import (
	"io"
	"log"
	"os"

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
)

func main() {
	if len(os.Args) > 1 {
		log.Fatalf("usage: %s < REQUEST > RESPONSE", os.Args[0])
	}
	request, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("reading request: %v", err)
	}

	response, ok := generate(request)
	encoded, err := slicemsgpack.Encode(response)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := os.Stdout.Write(encoded); err != nil {
		log.Fatal(err)
	}
	if !ok {
		log.Printf("[ERROR] %s", response.Error)
		os.Exit(1)
	}
}
