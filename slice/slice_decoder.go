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
	"math"
	"unicode/utf8"

	"fortio.org/safecast"
)

type DecoderOption interface {
	applyDecoderOption(dec *Decoder)
}

type decoderOption func(dec *Decoder)

func (fn decoderOption) applyDecoderOption(dec *Decoder) {
	fn(dec)
}

// WithRegistry sets the registry used to instantiate classes and
// exceptions. The default is [DefaultRegistry].
func WithRegistry(registry *Registry) DecoderOption {
	return decoderOption(func(dec *Decoder) {
		dec.registry = registry
	})
}

// WithMaxDepth limits how deeply class instances may be nested.
func WithMaxDepth(depth int) DecoderOption {
	return decoderOption(func(dec *Decoder) {
		dec.maxDepth = depth
	})
}

const defaultMaxDepth = 100

// Decoder reads Slice-encoded values from a buffer.
//
// Like [Encoder], errors are sticky. A failed read returns the zero value and
// every later read is a no-op.
type Decoder struct {
	encoding Encoding
	buf      []uint8
	pos      int
	err      error

	registry *Registry
	maxDepth int
	depth    int

	classes  *classDecoder
	instance *decodeInstance
	slice    *decodeSlice
}

func NewDecoder(encoding Encoding, buf []uint8, opts ...DecoderOption) *Decoder {
	dec := &Decoder{
		encoding: encoding,
		buf:      buf,
		registry: DefaultRegistry,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt.applyDecoderOption(dec)
	}
	return dec
}

func (d *Decoder) Encoding() Encoding {
	return d.encoding
}

func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of bytes not yet consumed.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) setErr(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Errorf records a decoding error at the current offset. Generated code
// uses it to reject values that decode but are not valid for their type.
func (d *Decoder) Errorf(format string, args ...any) {
	if d.err == nil {
		d.errorf(format, args...)
	}
}

func (d *Decoder) errorf(format string, args ...any) {
	d.setErr(&DecodeError{
		Offset:  d.pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *Decoder) requires(encoding Encoding, what string) bool {
	if d.err != nil {
		return false
	}
	if d.encoding != encoding {
		d.errorf("%s requires the %v encoding", what, encoding)
		return false
	}
	return true
}

func (d *Decoder) take(n int) []uint8 {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.buf)-d.pos {
		d.setErr(fmt.Errorf("%w (need %d bytes at offset %d, have %d)",
			ErrUnexpectedEOF, n, d.pos, len(d.buf)-d.pos))
		return nil
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out
}

func (d *Decoder) skip(n int) {
	d.take(n)
}

// Primitives {{{

func (d *Decoder) DecodeBool() bool {
	switch v := d.DecodeUInt8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.pos--
		d.errorf("invalid bool value %d", v)
		return false
	}
}

func (d *Decoder) DecodeUInt8() uint8 {
	if buf := d.take(1); buf != nil {
		return buf[0]
	}
	return 0
}

func (d *Decoder) DecodeInt8() int8 {
	return int8(d.DecodeUInt8())
}

func (d *Decoder) DecodeUInt16() uint16 {
	if buf := d.take(2); buf != nil {
		return leUint16(buf)
	}
	return 0
}

func (d *Decoder) DecodeInt16() int16 {
	return int16(d.DecodeUInt16())
}

func (d *Decoder) DecodeUInt32() uint32 {
	if buf := d.take(4); buf != nil {
		return leUint32(buf)
	}
	return 0
}

func (d *Decoder) DecodeInt32() int32 {
	return int32(d.DecodeUInt32())
}

func (d *Decoder) DecodeUInt64() uint64 {
	if buf := d.take(8); buf != nil {
		return leUint64(buf)
	}
	return 0
}

func (d *Decoder) DecodeInt64() int64 {
	return int64(d.DecodeUInt64())
}

func (d *Decoder) DecodeFloat32() float32 {
	return math.Float32frombits(d.DecodeUInt32())
}

func (d *Decoder) DecodeFloat64() float64 {
	return math.Float64frombits(d.DecodeUInt64())
}

// varUint reads the raw little-endian bytes of a variable-length integer,
// returning them with the length prefix still in place.
func (d *Decoder) varUint() (uint64, int) {
	if d.err != nil {
		return 0, 0
	}
	if d.pos >= len(d.buf) {
		d.take(1)
		return 0, 0
	}
	n := 1 << (d.buf[d.pos] & 0x03)
	buf := d.take(n)
	if buf == nil {
		return 0, 0
	}
	var raw uint64
	for ii := n - 1; ii >= 0; ii-- {
		raw = raw<<8 | uint64(buf[ii])
	}
	return raw, n
}

func (d *Decoder) DecodeVarUInt62() uint64 {
	if !d.requires(Slice2, "varuint62") {
		return 0
	}
	raw, _ := d.varUint()
	return raw >> 2
}

func (d *Decoder) DecodeVarInt62() int64 {
	if !d.requires(Slice2, "varint62") {
		return 0
	}
	raw, n := d.varUint()
	if n == 0 {
		return 0
	}
	shift := 64 - 8*n
	return int64(raw<<shift) >> (shift + 2)
}

func (d *Decoder) DecodeVarInt32() int32 {
	v := d.DecodeVarInt62()
	if v < math.MinInt32 || v > math.MaxInt32 {
		d.errorf("varint32 value %d is out of range", v)
		return 0
	}
	return int32(v)
}

func (d *Decoder) DecodeVarUInt32() uint32 {
	v := d.DecodeVarUInt62()
	if v > math.MaxUint32 {
		d.errorf("varuint32 value %d is out of range", v)
		return 0
	}
	return uint32(v)
}

func (d *Decoder) DecodeSize() int {
	if d.err != nil {
		return 0
	}
	if d.encoding == Slice2 {
		n, err := safecast.Conv[int32](d.DecodeVarUInt62())
		if err != nil {
			d.errorf("size is too large")
			return 0
		}
		return int(n)
	}
	b := d.DecodeUInt8()
	if b < 255 {
		return int(b)
	}
	n := d.DecodeInt32()
	if n < 0 {
		d.errorf("negative size %d", n)
		return 0
	}
	return int(n)
}

// count reads a collection size and checks it against the remaining input,
// given that each element occupies at least minSize bits.
func (d *Decoder) count(minBits int) int {
	n := d.DecodeSize()
	if d.err == nil && n > (len(d.buf)-d.pos)*8/minBits {
		d.errorf("collection size %d exceeds the remaining input", n)
		return 0
	}
	return n
}

func (d *Decoder) DecodeString() string {
	n := d.DecodeSize()
	buf := d.take(n)
	if buf == nil {
		return ""
	}
	if !utf8.Valid(buf) {
		d.pos -= n
		d.errorf("string is not valid UTF-8")
		return ""
	}
	return string(buf)
}

// }}}

// Bit sequences {{{

type BitSequenceReader struct {
	dec   *Decoder
	bits  []uint8
	count int
	index int
}

func (d *Decoder) DecodeBitSequence(count int) *BitSequenceReader {
	r := &BitSequenceReader{dec: d, count: count}
	if !d.requires(Slice2, "bit sequences") {
		return r
	}
	r.bits = d.take((count + 7) / 8)
	return r
}

func (r *BitSequenceReader) Next() bool {
	if r.dec.err != nil {
		return false
	}
	if r.index >= r.count {
		r.dec.errorf("bit sequence of length %d is exhausted", r.count)
		return false
	}
	set := r.bits[r.index/8]&(1<<(r.index%8)) != 0
	r.index++
	return set
}

// }}}

// Sequences & dictionaries {{{

// DecodeSequence decodes each element in place. Element pointers stay valid
// until decoding finishes, so class references inside elements can be
// patched after the fact.
func DecodeSequence[T any](dec *Decoder, decodeElem func(*Decoder, *T)) []T {
	n := dec.count(8)
	if dec.err != nil {
		return nil
	}
	out := make([]T, n)
	for ii := range out {
		decodeElem(dec, &out[ii])
		if dec.err != nil {
			return nil
		}
	}
	return out
}

// DecodeOptionalSequence decodes a Slice2 sequence preceded by a bit
// sequence. Absent elements are left as the zero value.
func DecodeOptionalSequence[T any](dec *Decoder, decodeElem func(*Decoder, *T)) []T {
	n := dec.count(1)
	bits := dec.DecodeBitSequence(n)
	if dec.err != nil {
		return nil
	}
	out := make([]T, n)
	for ii := range out {
		if bits.Next() {
			decodeElem(dec, &out[ii])
		}
		if dec.err != nil {
			return nil
		}
	}
	return out
}

func DecodeDictionary[K comparable, V any](
	dec *Decoder,
	decodeKey func(*Decoder) K,
	decodeValue func(*Decoder, *V),
) map[K]V {
	return decodeDictionary(dec, nil, decodeKey, decodeValue)
}

func DecodeOptionalDictionary[K comparable, V any](
	dec *Decoder,
	decodeKey func(*Decoder) K,
	decodeValue func(*Decoder, *V),
) map[K]V {
	return decodeDictionary(dec, func(n int) *BitSequenceReader {
		return dec.DecodeBitSequence(n)
	}, decodeKey, decodeValue)
}

func decodeDictionary[K comparable, V any](
	dec *Decoder,
	bitSequence func(int) *BitSequenceReader,
	decodeKey func(*Decoder) K,
	decodeValue func(*Decoder, *V),
) map[K]V {
	minBits := 8
	if bitSequence != nil {
		minBits = 1
	}
	n := dec.count(minBits)
	var bits *BitSequenceReader
	if bitSequence != nil {
		bits = bitSequence(n)
	}
	if dec.err != nil {
		return nil
	}

	keys := make([]K, n)
	values := make([]V, n)
	for ii := range keys {
		keys[ii] = decodeKey(dec)
		if bits == nil || bits.Next() {
			decodeValue(dec, &values[ii])
		}
		if dec.err != nil {
			return nil
		}
	}

	out := make(map[K]V, n)
	for _, k := range keys {
		if _, dup := out[k]; dup {
			dec.errorf("duplicate dictionary key %v", k)
			return nil
		}
		var zero V
		out[k] = zero
	}
	// Class references in the values may not be resolved until the
	// enclosing slice ends.
	dec.afterPatches(func() {
		for ii, k := range keys {
			out[k] = values[ii]
		}
	})
	return out
}

// }}}

// Tagged members {{{

// DecodeTagged reports whether the tagged member is present, decoding it
// with decodeValue if so. Tagged members must be decoded in increasing tag
// order; members with smaller unknown tags are skipped.
func (d *Decoder) DecodeTagged(tag int32, format TagFormat, decodeValue func(*Decoder)) bool {
	if d.err != nil {
		return false
	}
	if d.encoding == Slice2 {
		return d.decodeTagged2(tag, decodeValue)
	}
	return d.decodeTagged1(tag, format, decodeValue)
}

func (d *Decoder) decodeTagged1(tag int32, format TagFormat, decodeValue func(*Decoder)) bool {
	if d.slice != nil && d.slice.flags&flagHasTaggedMembers == 0 {
		return false
	}
	for d.err == nil {
		if d.atTaggedEnd() || d.buf[d.pos] == slice1TagEndMarker {
			return false
		}
		start := d.pos
		readTag, wire := d.tagHeader1()
		if readTag > tag {
			d.pos = start
			return false
		}
		if readTag < tag {
			d.skipTaggedValue1(wire)
			continue
		}
		if wire != TagFormat(format.wire()) {
			d.errorf("tagged member %d has format %v, expected %v", tag, wire, format)
			return false
		}
		switch format {
		case TagVSize:
			size := d.DecodeSize()
			end := d.pos + size
			decodeValue(d)
			d.checkEnd(end, tag)
		case TagFSize:
			size := int(d.DecodeInt32())
			end := d.pos + size
			decodeValue(d)
			d.checkEnd(end, tag)
		default:
			decodeValue(d)
		}
		return d.err == nil
	}
	return false
}

func (d *Decoder) decodeTagged2(tag int32, decodeValue func(*Decoder)) bool {
	for d.err == nil {
		if d.pos >= len(d.buf) {
			return false
		}
		start := d.pos
		readTag := d.DecodeVarInt32()
		if readTag == slice2TagEndMarker || readTag > tag {
			d.pos = start
			return false
		}
		size := d.DecodeSize()
		if readTag < tag {
			d.skip(size)
			continue
		}
		end := d.pos + size
		decodeValue(d)
		d.checkEnd(end, tag)
		return d.err == nil
	}
	return false
}

func (d *Decoder) checkEnd(end int, tag int32) {
	if d.err == nil && d.pos != end {
		d.errorf("tagged member %d: size does not match its encoded value", tag)
	}
}

func (d *Decoder) atTaggedEnd() bool {
	if d.slice != nil && d.slice.end >= 0 {
		return d.pos >= d.slice.end
	}
	return d.pos >= len(d.buf)
}

func (d *Decoder) tagHeader1() (int32, TagFormat) {
	b := d.DecodeUInt8()
	tag := int32(b >> 3)
	if tag == 30 {
		tag = int32(d.DecodeSize())
	}
	return tag, TagFormat(b & 0x07)
}

func (d *Decoder) skipTaggedValue1(wire TagFormat) {
	switch wire {
	case TagF1:
		d.skip(1)
	case TagF2:
		d.skip(2)
	case TagF4:
		d.skip(4)
	case TagF8:
		d.skip(8)
	case TagSize:
		d.DecodeSize()
	case TagVSize:
		d.skip(d.DecodeSize())
	case TagFSize:
		d.skip(int(d.DecodeInt32()))
	case TagClass:
		d.decodeClass(func(Class) {})
	default:
		d.errorf("unknown tag format %d", uint8(wire))
	}
}

// SkipTaggedUntilEndMarker discards any remaining tagged members, including
// the end marker. Outside a Slice1 slice, the end of the buffer also ends the
// list.
func (d *Decoder) SkipTaggedUntilEndMarker() {
	for d.err == nil {
		if d.encoding == Slice2 {
			tag := d.DecodeVarInt32()
			if tag == slice2TagEndMarker {
				return
			}
			d.skip(d.DecodeSize())
			continue
		}
		if d.atTaggedEnd() {
			if d.slice != nil {
				d.errorf("missing tag end marker")
			}
			return
		}
		if d.buf[d.pos] == slice1TagEndMarker {
			d.pos++
			return
		}
		_, wire := d.tagHeader1()
		d.skipTaggedValue1(wire)
	}
}

// }}}

// Proxies {{{

func (d *Decoder) DecodeProxy() Proxy {
	path := d.DecodeString()
	if d.err == nil && path == "" {
		d.errorf("proxy path must not be empty")
	}
	return Proxy{Path: path}
}

func (d *Decoder) DecodeNullableProxy() *Proxy {
	if !d.requires(Slice1, "nullable proxies") {
		return nil
	}
	path := d.DecodeString()
	if path == "" || d.err != nil {
		return nil
	}
	return &Proxy{Path: path}
}

// }}}
