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

package slice

// CustomCodec encodes the values of a custom type. Generated code declares
// one codec per custom type and leaves the functions for the application to
// set before any value of the type is encoded or decoded.
type CustomCodec[T any] struct {
	TypeID     string
	EncodeFunc func(enc *Encoder, v T)
	DecodeFunc func(dec *Decoder) T
}

func (c *CustomCodec[T]) Encode(enc *Encoder, v T) {
	if enc.err != nil {
		return
	}
	if c.EncodeFunc == nil {
		enc.setErr(encodeErrorf("no encoder was set for custom type '%s'", c.TypeID))
		return
	}
	c.EncodeFunc(enc, v)
}

func (c *CustomCodec[T]) Decode(dec *Decoder) T {
	var zero T
	if dec.err != nil {
		return zero
	}
	if c.DecodeFunc == nil {
		dec.errorf("no decoder was set for custom type '%s'", c.TypeID)
		return zero
	}
	return c.DecodeFunc(dec)
}
