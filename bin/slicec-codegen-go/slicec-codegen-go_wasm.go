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

//go:build tinygo

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
)

// Buffers handed to the host stay reachable until it deallocates them.
var buffers = make(map[*uint8][]uint8)

func main() {}

//go:export slicec_codegen_allocate
func slicecCodegenAllocate(len uint32) *uint8 {
	if len > math.MaxInt32 {
		return nil
	}
	buf := make([]uint8, int(len))
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	return ptr
}

//go:export slicec_codegen_deallocate
func slicecCodegenDeallocate(ptr *uint8) {
	delete(buffers, ptr)
}

//go:export slicec_codegen_generate/go
func slicecCodegenGenerateGo(requestPtr *uint8, responsePtrPtr **uint8) uint8 {
	requestLen := binary.LittleEndian.Uint32(unsafe.Slice(requestPtr, 4))
	payload, err := slicemsgpack.Unframe(unsafe.Slice(requestPtr, requestLen))
	if err != nil {
		return respond(responsePtrPtr, &slicemsgpack.CodegenResponse{
			Error: fmt.Sprintf("reading request: %v", err),
		}, false)
	}
	response, ok := generate(payload)
	return respond(responsePtrPtr, response, ok)
}

func respond(responsePtrPtr **uint8, response *slicemsgpack.CodegenResponse, ok bool) uint8 {
	encoded, err := slicemsgpack.Encode(response)
	if err != nil {
		encoded, _ = slicemsgpack.Encode(&slicemsgpack.CodegenResponse{
			Error: fmt.Sprintf("Encode[CodegenResponse]: %v", err),
		})
		ok = false
	}
	frame, err := slicemsgpack.Frame(encoded)
	if err != nil {
		return 2
	}
	responsePtr := unsafe.SliceData(frame)
	buffers[responsePtr] = frame
	*responsePtrPtr = responsePtr
	if !ok {
		return 1
	}
	return 0
}
