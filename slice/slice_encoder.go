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
	"bytes"
	"encoding/binary"
	"math"
	"slices"

	"fortio.org/safecast"
)

type EncoderOption interface {
	applyEncoderOption(enc *Encoder)
}

type encoderOption func(enc *Encoder)

func (fn encoderOption) applyEncoderOption(enc *Encoder) {
	fn(enc)
}

// WithClassFormat sets the layout of Slice1 class instances. The default is
// [CompactFormat].
func WithClassFormat(format ClassFormat) EncoderOption {
	return encoderOption(func(enc *Encoder) {
		enc.format = format
	})
}

// Encoder appends Slice-encoded values to an in-memory buffer.
//
// Errors are sticky: after the first failure every later call is a no-op,
// and the failure is reported by [Encoder.Err].
type Encoder struct {
	encoding Encoding
	format   ClassFormat
	buf      []uint8
	err      error

	classes  *classEncoder
	instance *encodeInstance
	slice    *encodeSlice
}

func NewEncoder(encoding Encoding, opts ...EncoderOption) *Encoder {
	enc := &Encoder{encoding: encoding}
	for _, opt := range opts {
		opt.applyEncoderOption(enc)
	}
	return enc
}

func (e *Encoder) Encoding() Encoding {
	return e.encoding
}

func (e *Encoder) ClassFormat() ClassFormat {
	return e.format
}

func (e *Encoder) Bytes() []uint8 {
	return e.buf
}

func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) setErr(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) requires(encoding Encoding, what string) bool {
	if e.err != nil {
		return false
	}
	if e.encoding != encoding {
		e.setErr(encodeErrorf("%s requires the %v encoding", what, encoding))
		return false
	}
	return true
}

func (e *Encoder) reserve(n int) int {
	pos := len(e.buf)
	e.buf = append(e.buf, make([]uint8, n)...)
	return pos
}

func (e *Encoder) scratch() *Encoder {
	return &Encoder{encoding: e.encoding, format: e.format}
}

// Primitives {{{

func (e *Encoder) EncodeBool(v bool) {
	if v {
		e.EncodeUInt8(1)
	} else {
		e.EncodeUInt8(0)
	}
}

func (e *Encoder) EncodeUInt8(v uint8) {
	if e.err == nil {
		e.buf = append(e.buf, v)
	}
}

func (e *Encoder) EncodeInt8(v int8) {
	e.EncodeUInt8(uint8(v))
}

func (e *Encoder) EncodeUInt16(v uint16) {
	if e.err == nil {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
	}
}

func (e *Encoder) EncodeInt16(v int16) {
	e.EncodeUInt16(uint16(v))
}

func (e *Encoder) EncodeUInt32(v uint32) {
	if e.err == nil {
		e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	}
}

func (e *Encoder) EncodeInt32(v int32) {
	e.EncodeUInt32(uint32(v))
}

func (e *Encoder) EncodeUInt64(v uint64) {
	if e.err == nil {
		e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	}
}

func (e *Encoder) EncodeInt64(v int64) {
	e.EncodeUInt64(uint64(v))
}

func (e *Encoder) EncodeFloat32(v float32) {
	e.EncodeUInt32(math.Float32bits(v))
}

func (e *Encoder) EncodeFloat64(v float64) {
	e.EncodeUInt64(math.Float64bits(v))
}

// EncodeVarUInt62 writes v using 1, 2, 4 or 8 bytes. The two low bits of the
// first byte hold the base-2 logarithm of the length.
func (e *Encoder) EncodeVarUInt62(v uint64) {
	if !e.requires(Slice2, "varuint62") {
		return
	}
	switch {
	case v < 1<<6:
		e.buf = append(e.buf, uint8(v<<2))
	case v < 1<<14:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v<<2|1))
	case v < 1<<30:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v<<2|2))
	case v <= MaxVarUInt62:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, v<<2|3)
	default:
		e.setErr(encodeErrorf("value %d is out of range for varuint62", v))
	}
}

func (e *Encoder) EncodeVarInt62(v int64) {
	if !e.requires(Slice2, "varint62") {
		return
	}
	switch {
	case v >= -(1<<5) && v < 1<<5:
		e.buf = append(e.buf, uint8(v<<2))
	case v >= -(1<<13) && v < 1<<13:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v<<2|1))
	case v >= -(1<<29) && v < 1<<29:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v<<2|2))
	case v >= MinVarInt62 && v <= MaxVarInt62:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v<<2|3))
	default:
		e.setErr(encodeErrorf("value %d is out of range for varint62", v))
	}
}

func (e *Encoder) EncodeVarInt32(v int32) {
	e.EncodeVarInt62(int64(v))
}

func (e *Encoder) EncodeVarUInt32(v uint32) {
	e.EncodeVarUInt62(uint64(v))
}

// EncodeSize writes a non-negative count. Slice1 uses a single byte for
// sizes below 255 and a 255 marker followed by an int32 otherwise. Slice2
// uses a varuint62.
func (e *Encoder) EncodeSize(n int) {
	if e.err != nil {
		return
	}
	if n < 0 {
		e.setErr(encodeErrorf("negative size %d", n))
		return
	}
	if e.encoding == Slice2 {
		e.EncodeVarUInt62(uint64(n))
		return
	}
	if n < 255 {
		e.buf = append(e.buf, uint8(n))
		return
	}
	n32, err := safecast.Conv[int32](n)
	if err != nil {
		e.setErr(encodeErrorf("size %d does not fit in the Slice1 encoding", n))
		return
	}
	e.buf = append(e.buf, 255)
	e.EncodeInt32(n32)
}

func (e *Encoder) EncodeString(v string) {
	e.EncodeSize(len(v))
	if e.err == nil {
		e.buf = append(e.buf, v...)
	}
}

// }}}

// Bit sequences {{{

// BitSequenceWriter sets the presence bits of a Slice2 bit sequence. The
// bits are written into space reserved by [Encoder.EncodeBitSequence], so
// the values they describe can be encoded as each bit is set.
type BitSequenceWriter struct {
	enc   *Encoder
	pos   int
	count int
	index int
}

func (e *Encoder) EncodeBitSequence(count int) *BitSequenceWriter {
	w := &BitSequenceWriter{enc: e, count: count}
	if !e.requires(Slice2, "bit sequences") {
		return w
	}
	w.pos = e.reserve((count + 7) / 8)
	return w
}

func (w *BitSequenceWriter) Next(set bool) {
	if w.enc.err != nil {
		return
	}
	if w.index >= w.count {
		w.enc.setErr(encodeErrorf("bit sequence of length %d is already full", w.count))
		return
	}
	if set {
		w.enc.buf[w.pos+w.index/8] |= 1 << (w.index % 8)
	}
	w.index++
}

// }}}

// Sequences & dictionaries {{{

func EncodeSequence[T any](enc *Encoder, values []T, encodeElem func(*Encoder, T)) {
	enc.EncodeSize(len(values))
	for _, v := range values {
		if enc.err != nil {
			return
		}
		encodeElem(enc, v)
	}
}

// EncodeOptionalSequence encodes a Slice2 sequence whose elements may be
// absent. A bit sequence precedes the elements, and absent elements are not
// written.
func EncodeOptionalSequence[T any](
	enc *Encoder,
	values []T,
	isSet func(T) bool,
	encodeElem func(*Encoder, T),
) {
	enc.EncodeSize(len(values))
	bits := enc.EncodeBitSequence(len(values))
	for _, v := range values {
		if enc.err != nil {
			return
		}
		present := isSet(v)
		bits.Next(present)
		if present {
			encodeElem(enc, v)
		}
	}
}

type dictionaryEntry[V any] struct {
	key   []uint8
	value V
}

// sortedEntries orders a map by the encoded bytes of its keys, so that
// equal maps always produce identical output.
func sortedEntries[K comparable, V any](
	enc *Encoder,
	m map[K]V,
	encodeKey func(*Encoder, K),
) []dictionaryEntry[V] {
	entries := make([]dictionaryEntry[V], 0, len(m))
	for k, v := range m {
		keyEnc := enc.scratch()
		encodeKey(keyEnc, k)
		if keyEnc.err != nil {
			enc.setErr(keyEnc.err)
			return nil
		}
		entries = append(entries, dictionaryEntry[V]{keyEnc.buf, v})
	}
	slices.SortFunc(entries, func(a, b dictionaryEntry[V]) int {
		return bytes.Compare(a.key, b.key)
	})
	return entries
}

func EncodeDictionary[K comparable, V any](
	enc *Encoder,
	m map[K]V,
	encodeKey func(*Encoder, K),
	encodeValue func(*Encoder, V),
) {
	enc.EncodeSize(len(m))
	for _, entry := range sortedEntries(enc, m, encodeKey) {
		if enc.err != nil {
			return
		}
		enc.buf = append(enc.buf, entry.key...)
		encodeValue(enc, entry.value)
	}
}

func EncodeOptionalDictionary[K comparable, V any](
	enc *Encoder,
	m map[K]V,
	encodeKey func(*Encoder, K),
	isSet func(V) bool,
	encodeValue func(*Encoder, V),
) {
	enc.EncodeSize(len(m))
	bits := enc.EncodeBitSequence(len(m))
	for _, entry := range sortedEntries(enc, m, encodeKey) {
		if enc.err != nil {
			return
		}
		present := isSet(entry.value)
		bits.Next(present)
		enc.buf = append(enc.buf, entry.key...)
		if present {
			encodeValue(enc, entry.value)
		}
	}
}

// }}}

// Tagged members {{{

// EncodeTagged writes a tagged member. The format is only used by Slice1,
// where it tells a receiver that does not know the tag how to skip it.
func (e *Encoder) EncodeTagged(tag int32, format TagFormat, encodeValue func(*Encoder)) {
	if e.err != nil {
		return
	}
	if tag < 0 {
		e.setErr(encodeErrorf("invalid tag %d", tag))
		return
	}
	if e.slice != nil {
		e.slice.hasTagged = true
	}

	if e.encoding == Slice2 {
		e.EncodeVarInt32(tag)
		sizePos := e.reserve(4)
		start := len(e.buf)
		encodeValue(e)
		e.patchVarUInt62(sizePos, len(e.buf)-start)
		return
	}

	if tag < 30 {
		e.buf = append(e.buf, uint8(tag)<<3|format.wire())
	} else {
		e.buf = append(e.buf, 30<<3|format.wire())
		e.EncodeSize(int(tag))
	}

	switch format {
	case TagVSize:
		sub := e.scratch()
		encodeValue(sub)
		if sub.err != nil {
			e.setErr(sub.err)
			return
		}
		e.EncodeSize(len(sub.buf))
		e.buf = append(e.buf, sub.buf...)
	case TagFSize:
		sizePos := e.reserve(4)
		start := len(e.buf)
		encodeValue(e)
		e.patchInt32(sizePos, len(e.buf)-start)
	default:
		encodeValue(e)
	}
}

// EncodeTagEndMarker terminates a list of tagged members.
func (e *Encoder) EncodeTagEndMarker() {
	if e.encoding == Slice1 {
		e.EncodeUInt8(slice1TagEndMarker)
	} else {
		e.EncodeVarInt32(slice2TagEndMarker)
	}
}

func (e *Encoder) patchInt32(pos int, n int) {
	if e.err != nil {
		return
	}
	n32, err := safecast.Conv[int32](n)
	if err != nil {
		e.setErr(encodeErrorf("size %d does not fit in an int32", n))
		return
	}
	binary.LittleEndian.PutUint32(e.buf[pos:pos+4], uint32(n32))
}

// patchVarUInt62 fills a 4-byte placeholder with a varuint62.
func (e *Encoder) patchVarUInt62(pos int, n int) {
	if e.err != nil {
		return
	}
	if n < 0 || n >= 1<<30 {
		e.setErr(encodeErrorf("size %d does not fit in a 4-byte varuint62", n))
		return
	}
	binary.LittleEndian.PutUint32(e.buf[pos:pos+4], uint32(n)<<2|2)
}

// }}}

// Proxies {{{

// Proxy is the encoded form of a reference to a remote service.
type Proxy struct {
	Path string
}

func (e *Encoder) EncodeProxy(p Proxy) {
	if e.err == nil && p.Path == "" {
		e.setErr(encodeErrorf("proxy path must not be empty"))
		return
	}
	e.EncodeString(p.Path)
}

// EncodeNullableProxy writes an optional Slice1 proxy. A nil proxy is
// written as an empty path.
func (e *Encoder) EncodeNullableProxy(p *Proxy) {
	if !e.requires(Slice1, "nullable proxies") {
		return
	}
	if p == nil {
		e.EncodeString("")
		return
	}
	e.EncodeProxy(*p)
}

// }}}
