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


// Package slice is the wire runtime imported by generated Go bindings. It
// implements the Slice1 and Slice2 encodings, including the slicing protocol
// used to encode class instances.
package slice

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Encoding selects the wire format of an [Encoder] or [Decoder].
type Encoding uint8

const (
	Slice1 Encoding = 1
	Slice2 Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case Slice1:
		return "Slice1"
	case Slice2:
		return "Slice2"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// ClassFormat controls how Slice1 class instances are laid out.
type ClassFormat uint8

const (
	// CompactFormat writes the most-derived type id only. A receiver that
	// does not know that type cannot decode the instance.
	CompactFormat ClassFormat = iota

	// SlicedFormat writes the type id and size of every slice, allowing a
	// receiver to skip (and preserve) slices it does not know.
	SlicedFormat
)

func (f ClassFormat) String() string {
	if f == SlicedFormat {
		return "Sliced"
	}
	return "Compact"
}

// TagFormat describes how a Slice1 tagged value is laid out so that a
// receiver can skip it without knowing its type.
type TagFormat uint8

const (
	TagF1 TagFormat = iota
	TagF2
	TagF4
	TagF8
	TagSize
	TagVSize
	TagFSize
	TagClass

	// TagOptimizedVSize is written as [TagVSize], but the value's own size
	// prefix doubles as the tag's size.
	TagOptimizedVSize
)

var tagFormatNames = [...]string{
	TagF1:             "F1",
	TagF2:             "F2",
	TagF4:             "F4",
	TagF8:             "F8",
	TagSize:           "Size",
	TagVSize:          "VSize",
	TagFSize:          "FSize",
	TagClass:          "Class",
	TagOptimizedVSize: "OptimizedVSize",
}

func (f TagFormat) String() string {
	if int(f) < len(tagFormatNames) {
		return tagFormatNames[f]
	}
	return fmt.Sprintf("TagFormat(%d)", uint8(f))
}

func (f TagFormat) wire() uint8 {
	if f == TagOptimizedVSize {
		return uint8(TagVSize)
	}
	return uint8(f)
}

const (
	// MaxVarUInt62 is the largest value a varuint62 can hold.
	MaxVarUInt62 uint64 = 1<<62 - 1

	MinVarInt62 int64 = -(1 << 61)
	MaxVarInt62 int64 = 1<<61 - 1

	slice1TagEndMarker uint8 = 0xFF
	slice2TagEndMarker int32 = -1
)

var (
	ErrUnexpectedEOF      = errors.New("slice: unexpected end of buffer")
	ErrUnsupportedForType = errors.New("slice: not supported by this encoding")
)

// DecodeError reports malformed input at a byte offset.
type DecodeError struct {
	Offset  int
	Message string
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("slice: decode error at offset %d: %s", err.Offset, err.Message)
}

// EncodeError reports a value that cannot be represented on the wire.
type EncodeError struct {
	Message string
}

func (err *EncodeError) Error() string {
	return "slice: encode error: " + err.Message
}

func encodeErrorf(format string, args ...any) *EncodeError {
	return &EncodeError{Message: fmt.Sprintf(format, args...)}
}

func leUint16(buf []uint8) uint16 {
	return binary.LittleEndian.Uint16(buf)
}

func leUint32(buf []uint8) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

func leUint64(buf []uint8) uint64 {
	return binary.LittleEndian.Uint64(buf)
}
