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

import (
	"fmt"
)

// Slice1 payloads are wrapped in an encapsulation: an int32 size that
// includes the 6-byte header, followed by the encoding version.
const (
	encapsulationHeaderSize = 6
	encodingMajor           = 1
	encodingMinor           = 1
)

// PayloadFromSingleReturnValue encodes the payload of a response carrying
// exactly one return value.
func PayloadFromSingleReturnValue(
	encoding Encoding,
	encodeValue func(*Encoder),
	opts ...EncoderOption,
) ([]uint8, error) {
	return encodePayload(encoding, encodeValue, opts)
}

// PayloadFromReturnValueTuple encodes the payload of a response carrying a
// tuple of return values. encodeValues writes every member in order,
// including the bit sequence of any optional members.
func PayloadFromReturnValueTuple(
	encoding Encoding,
	encodeValues func(*Encoder),
	opts ...EncoderOption,
) ([]uint8, error) {
	return encodePayload(encoding, encodeValues, opts)
}

// EncodePayload encodes any list of members, such as operation arguments,
// into a framed payload.
func EncodePayload(
	encoding Encoding,
	encodeMembers func(*Encoder),
	opts ...EncoderOption,
) ([]uint8, error) {
	return encodePayload(encoding, encodeMembers, opts)
}

func encodePayload(encoding Encoding, fn func(*Encoder), opts []EncoderOption) ([]uint8, error) {
	enc := NewEncoder(encoding, opts...)
	sizePos := enc.reserve(4)
	if encoding == Slice1 {
		enc.EncodeUInt8(encodingMajor)
		enc.EncodeUInt8(encodingMinor)
	}
	start := enc.Len()
	fn(enc)
	if encoding == Slice1 {
		enc.patchInt32(sizePos, enc.Len()-sizePos)
	} else {
		enc.EncodeTagEndMarker()
		enc.patchVarUInt62(sizePos, enc.Len()-start)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("encoding %v payload: %w", encoding, err)
	}
	return enc.Bytes(), nil
}

// DecodePayload decodes a payload produced by [EncodePayload] or one of the
// return value helpers. Tagged members that decodeMembers does not read are
// skipped.
func DecodePayload(
	encoding Encoding,
	payload []uint8,
	decodeMembers func(*Decoder),
	opts ...DecoderOption,
) error {
	outer := NewDecoder(encoding, payload)
	var size int
	if encoding == Slice1 {
		size = int(outer.DecodeInt32()) - encapsulationHeaderSize
		major, minor := outer.DecodeUInt8(), outer.DecodeUInt8()
		if outer.err == nil && (major != encodingMajor || minor != encodingMinor) {
			return fmt.Errorf("decoding Slice1 payload: unsupported encoding version %d.%d", major, minor)
		}
	} else {
		size = outer.DecodeSize()
	}
	body := outer.take(size)
	if err := outer.Err(); err != nil {
		return fmt.Errorf("decoding %v payload header: %w", encoding, err)
	}
	if outer.Remaining() != 0 {
		return fmt.Errorf("decoding %v payload: %d trailing bytes", encoding, outer.Remaining())
	}

	dec := NewDecoder(encoding, body, opts...)
	decodeMembers(dec)
	dec.SkipTaggedUntilEndMarker()
	if err := dec.Err(); err != nil {
		return fmt.Errorf("decoding %v payload: %w", encoding, err)
	}
	if dec.Remaining() != 0 {
		return fmt.Errorf("decoding %v payload: %d unread bytes", encoding, dec.Remaining())
	}
	return nil
}
