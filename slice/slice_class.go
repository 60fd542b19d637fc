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
	"reflect"
	"slices"
	"sync"

	"fortio.org/safecast"
)

// Slice header flags.
const (
	typeIDMask              uint8 = 0x03
	typeIDNone              uint8 = 0x00
	typeIDString            uint8 = 0x01
	typeIDIndex             uint8 = 0x02
	typeIDCompact           uint8 = 0x03
	flagHasTaggedMembers    uint8 = 0x04
	flagHasIndirectionTable uint8 = 0x08
	flagHasSliceSize        uint8 = 0x10
	flagIsLastSlice         uint8 = 0x20
)

// Class is implemented by generated Slice1 class types. Each class encodes
// its own slice and then delegates to its base, most-derived first.
//
// Generated classes satisfy the unexported methods by embedding their base
// class, and root classes embed [AnyClass].
type Class interface {
	EncodeSlices(enc *Encoder)
	DecodeSlices(dec *Decoder)

	// UnknownSlices returns the slices that were skipped when this instance
	// was decoded, in wire order.
	UnknownSlices() []SliceInfo

	setUnknownSlices(slices []SliceInfo)
}

// AnyClass is the root of every class hierarchy.
type AnyClass struct {
	unknownSlices []SliceInfo
}

func (c *AnyClass) UnknownSlices() []SliceInfo {
	return c.unknownSlices
}

func (c *AnyClass) setUnknownSlices(slices []SliceInfo) {
	c.unknownSlices = slices
}

// SliceInfo holds the undecoded contents of a slice whose type was not
// registered with the decoder. It is re-emitted verbatim when the instance
// is encoded again.
type SliceInfo struct {
	TypeID string

	// CompactID is -1 when the slice was identified by its type id.
	CompactID int32

	// Bytes holds the slice body, including any tagged members and their
	// end marker.
	Bytes []uint8

	// Instances holds the classes referenced by the slice's indirection
	// table.
	Instances []Class

	HasTaggedMembers bool
	IsLastSlice      bool
}

// UnknownSlicedClass is produced when none of an instance's slices have a
// registered type. It preserves every slice so the instance can be forwarded
// unchanged.
type UnknownSlicedClass struct {
	AnyClass
}

// TypeID returns the type id of the most-derived slice.
func (c *UnknownSlicedClass) TypeID() string {
	if len(c.unknownSlices) == 0 {
		return ""
	}
	return c.unknownSlices[0].TypeID
}

func (c *UnknownSlicedClass) EncodeSlices(enc *Encoder) {
	enc.encodeUnknownInstance(c.unknownSlices)
}

func (c *UnknownSlicedClass) DecodeSlices(dec *Decoder) {
	dec.errorf("cannot decode an unknown class")
}

func isNilClass(v Class) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// UserException is implemented by generated Slice1 exceptions, which are
// always encoded in the sliced format.
type UserException interface {
	error
	EncodeSlices(enc *Encoder)
	DecodeSlices(dec *Decoder)
}

// UnknownUserException is returned by [Decoder.DecodeException] when no
// slice of the exception has a registered type.
type UnknownUserException struct {
	TypeID string
}

func (err *UnknownUserException) Error() string {
	return "slice: unknown user exception '" + err.TypeID + "'"
}

// Registry {{{

// ClassFactory creates an instance of a registered class for dec to decode
// into. dec is positioned at the start of the instance's first slice.
type ClassFactory func(dec *Decoder) Class

type ExceptionFactory func() UserException

// Registry maps type ids and compact ids to the factories used when
// decoding. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	classes    map[string]ClassFactory
	compact    map[int32]ClassFactory
	exceptions map[string]ExceptionFactory
}

func NewRegistry() *Registry {
	return &Registry{
		classes:    make(map[string]ClassFactory),
		compact:    make(map[int32]ClassFactory),
		exceptions: make(map[string]ExceptionFactory),
	}
}

// DefaultRegistry is populated by the init functions of generated code.
var DefaultRegistry = NewRegistry()

// RegisterClass adds a class to the registry. A compact id below zero means
// the class has none.
func (r *Registry) RegisterClass(typeID string, compactID int32, factory ClassFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[typeID] = factory
	if compactID >= 0 {
		r.compact[compactID] = factory
	}
}

func (r *Registry) RegisterException(typeID string, factory ExceptionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions[typeID] = factory
}

func (r *Registry) lookupClass(typeID string, compactID int32) ClassFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if compactID >= 0 {
		return r.compact[compactID]
	}
	return r.classes[typeID]
}

func (r *Registry) lookupException(typeID string) ExceptionFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exceptions[typeID]
}

func RegisterClass(typeID string, compactID int32, factory ClassFactory) {
	DefaultRegistry.RegisterClass(typeID, compactID, factory)
}

func RegisterException(typeID string, factory ExceptionFactory) {
	DefaultRegistry.RegisterException(typeID, factory)
}

// }}}

// Encoding {{{

type classEncoder struct {
	instances map[Class]int
	typeIDs   map[string]int
}

type encodeInstance struct {
	format    ClassFormat
	exception bool
	started   bool
	preserved []SliceInfo
}

type encodeSlice struct {
	flagsPos    int
	sizePos     int
	flags       uint8
	hasTagged   bool
	indirection []Class
}

func (e *Encoder) classState() *classEncoder {
	if e.classes == nil {
		e.classes = &classEncoder{
			instances: make(map[Class]int),
			typeIDs:   make(map[string]int),
		}
	}
	return e.classes
}

// EncodeClass writes a reference to a class instance. A nil class is
// written as a null reference.
func (e *Encoder) EncodeClass(v Class) {
	if !e.requires(Slice1, "classes") {
		return
	}
	if isNilClass(v) {
		e.EncodeSize(0)
		return
	}
	if s := e.slice; s != nil && s.sizePos >= 0 {
		idx := slices.Index(s.indirection, v)
		if idx < 0 {
			s.indirection = append(s.indirection, v)
			idx = len(s.indirection) - 1
		}
		e.EncodeSize(idx + 1)
		return
	}
	e.encodeInstance(v)
}

// encodeInstance writes an instance marker: a back reference to an instance
// that was already written, or 1 followed by the instance's slices.
func (e *Encoder) encodeInstance(v Class) {
	classes := e.classState()
	if idx, ok := classes.instances[v]; ok {
		e.EncodeSize(idx)
		return
	}
	classes.instances[v] = len(classes.instances) + 2
	e.EncodeSize(1)

	inst := &encodeInstance{format: e.format, preserved: v.UnknownSlices()}
	if len(inst.preserved) > 0 {
		inst.format = SlicedFormat
	}
	e.withInstance(inst, func() {
		v.EncodeSlices(e)
	})
	if e.err == nil && !inst.started {
		e.setErr(encodeErrorf("class %T did not encode any slices", v))
	}
}

func (e *Encoder) withInstance(inst *encodeInstance, fn func()) {
	savedInstance, savedSlice := e.instance, e.slice
	e.instance, e.slice = inst, nil
	fn()
	if e.err == nil && e.slice != nil {
		e.setErr(encodeErrorf("slice was started but never ended"))
	}
	e.instance, e.slice = savedInstance, savedSlice
}

func (e *Encoder) encodeUnknownInstance(preserved []SliceInfo) {
	inst := e.instance
	if inst == nil || inst.started {
		e.setErr(encodeErrorf("unknown slices must be encoded as a whole instance"))
		return
	}
	inst.started = true
	inst.preserved = nil
	for ii, info := range preserved {
		e.encodePreservedSlice(info, ii == len(preserved)-1)
	}
}

// StartSlice begins the next slice of the instance being encoded. The first
// call also re-emits any slices preserved from decoding, since those belong
// to more-derived types.
func (e *Encoder) StartSlice(typeID string, compactID ...int32) {
	if e.err != nil {
		return
	}
	inst := e.instance
	if inst == nil {
		e.setErr(encodeErrorf("StartSlice called outside of a class or exception"))
		return
	}
	if e.slice != nil {
		e.setErr(encodeErrorf("StartSlice called before the previous slice ended"))
		return
	}
	first := !inst.started
	if first {
		inst.started = true
		for _, info := range inst.preserved {
			e.encodePreservedSlice(info, false)
		}
	}

	s := &encodeSlice{flagsPos: e.reserve(1), sizePos: -1}
	if inst.format == SlicedFormat || first {
		cid := int32(-1)
		if len(compactID) > 0 && !inst.exception {
			cid = compactID[0]
		}
		s.flags |= e.encodeTypeID(typeID, cid, inst.exception)
	}
	if inst.format == SlicedFormat {
		s.flags |= flagHasSliceSize
		s.sizePos = e.reserve(4)
	}
	e.slice = s
}

func (e *Encoder) encodeTypeID(typeID string, compactID int32, exception bool) uint8 {
	switch {
	case exception:
		e.EncodeString(typeID)
		return typeIDString
	case compactID >= 0:
		e.EncodeSize(int(compactID))
		return typeIDCompact
	}
	classes := e.classState()
	if idx, ok := classes.typeIDs[typeID]; ok {
		e.EncodeSize(idx)
		return typeIDIndex
	}
	classes.typeIDs[typeID] = len(classes.typeIDs) + 1
	e.EncodeString(typeID)
	return typeIDString
}

// EndSlice finishes the current slice. isLast is true for the slice of the
// root type.
func (e *Encoder) EndSlice(isLast bool) {
	if e.err != nil {
		return
	}
	s := e.slice
	if s == nil {
		e.setErr(encodeErrorf("EndSlice called without a matching StartSlice"))
		return
	}
	if s.hasTagged {
		e.buf = append(e.buf, slice1TagEndMarker)
		s.flags |= flagHasTaggedMembers
	}
	if s.sizePos >= 0 {
		e.patchInt32(s.sizePos, len(e.buf)-s.sizePos)
	}
	e.slice = nil
	if len(s.indirection) > 0 {
		s.flags |= flagHasIndirectionTable
		e.encodeIndirectionTable(s.indirection)
	}
	if isLast {
		s.flags |= flagIsLastSlice
	}
	e.buf[s.flagsPos] = s.flags
}

func (e *Encoder) encodeIndirectionTable(instances []Class) {
	e.EncodeSize(len(instances))
	for _, v := range instances {
		if isNilClass(v) {
			e.setErr(encodeErrorf("indirection table contains a nil instance"))
			return
		}
		e.encodeInstance(v)
	}
}

func (e *Encoder) encodePreservedSlice(info SliceInfo, isLast bool) {
	if e.err != nil {
		return
	}
	flagsPos := e.reserve(1)
	flags := e.encodeTypeID(info.TypeID, info.CompactID, false) | flagHasSliceSize
	sizePos := e.reserve(4)
	e.buf = append(e.buf, info.Bytes...)
	e.patchInt32(sizePos, len(e.buf)-sizePos)
	if info.HasTaggedMembers {
		flags |= flagHasTaggedMembers
	}
	if len(info.Instances) > 0 {
		flags |= flagHasIndirectionTable
		e.encodeIndirectionTable(info.Instances)
	}
	if isLast {
		flags |= flagIsLastSlice
	}
	if e.err == nil {
		e.buf[flagsPos] = flags
	}
}

// EncodeException writes a Slice1 user exception in the sliced format.
func (e *Encoder) EncodeException(ex UserException) {
	if !e.requires(Slice1, "sliced exceptions") {
		return
	}
	inst := &encodeInstance{format: SlicedFormat, exception: true}
	e.withInstance(inst, func() {
		ex.EncodeSlices(e)
	})
}

// }}}

// Decoding {{{

type classDecoder struct {
	// instances[i] holds the instance with marker i+2. It is nil while the
	// instance's unknown slices are still being read.
	instances []Class
	waiters   map[int][]func(Class)
	typeIDs   []string
}

type decodeInstance struct {
	exception bool
	pending   *decodeSlice
}

type patch struct {
	index int
	set   func(Class)
}

type decodeSlice struct {
	flags      uint8
	typeID     string
	compactID  int32
	bodyStart  int
	end        int
	patches    []patch
	finalizers []func()
}

func (d *Decoder) classState() *classDecoder {
	if d.classes == nil {
		d.classes = &classDecoder{waiters: make(map[int][]func(Class))}
	}
	return d.classes
}

// DecodeClassInto decodes a class reference into target. Inside a sliced
// slice the reference is resolved when the slice ends, so target must stay
// valid until then.
func DecodeClassInto[T Class](dec *Decoder, target *T) {
	dec.decodeClass(func(c Class) {
		if c == nil {
			var zero T
			*target = zero
			return
		}
		v, ok := c.(T)
		if !ok {
			dec.errorf("expected class %T, found %T", *target, c)
			return
		}
		*target = v
	})
}

// DecodeClass decodes a class reference outside of any slice, where it is
// always resolved immediately.
func (d *Decoder) DecodeClass() Class {
	var out Class
	if d.slice != nil {
		d.errorf("DecodeClass cannot be used inside a slice")
		return nil
	}
	d.decodeClass(func(c Class) { out = c })
	return out
}

func (d *Decoder) decodeClass(set func(Class)) {
	if !d.requires(Slice1, "classes") {
		return
	}
	if s := d.slice; s != nil && s.end >= 0 {
		idx := d.DecodeSize()
		if idx == 0 {
			set(nil)
			return
		}
		s.patches = append(s.patches, patch{idx, set})
		return
	}
	marker := d.decodeInstanceMarker()
	if marker == 0 {
		set(nil)
		return
	}
	d.whenAvailable(marker, set)
}

func (d *Decoder) afterPatches(fn func()) {
	if d.slice != nil && d.slice.end >= 0 {
		d.slice.finalizers = append(d.slice.finalizers, fn)
		return
	}
	fn()
}

func (d *Decoder) whenAvailable(marker int, set func(Class)) {
	classes := d.classState()
	if v := classes.instances[marker-2]; v != nil {
		set(v)
		return
	}
	classes.waiters[marker] = append(classes.waiters[marker], set)
}

func (d *Decoder) setInstance(marker int, v Class) {
	classes := d.classState()
	classes.instances[marker-2] = v
	for _, set := range classes.waiters[marker] {
		set(v)
	}
	delete(classes.waiters, marker)
}

// decodeInstanceMarker reads an instance marker, decoding the instance
// inline if it is new. It returns the marker of the referenced instance, or
// 0 for a null reference.
func (d *Decoder) decodeInstanceMarker() int {
	marker := d.DecodeSize()
	switch {
	case d.err != nil || marker == 0:
		return 0
	case marker == 1:
		return d.decodeNewInstance()
	case marker-2 >= len(d.classState().instances):
		d.errorf("reference to unknown class instance %d", marker)
		return 0
	}
	return marker
}

func (d *Decoder) decodeNewInstance() int {
	if d.depth >= d.maxDepth {
		d.errorf("class graph exceeds the maximum depth of %d", d.maxDepth)
		return 0
	}
	d.depth++
	defer func() { d.depth-- }()

	classes := d.classState()
	classes.instances = append(classes.instances, nil)
	marker := len(classes.instances) + 1

	inst := &decodeInstance{}
	savedInstance, savedSlice := d.instance, d.slice
	defer func() { d.instance, d.slice = savedInstance, savedSlice }()
	d.instance, d.slice = inst, nil

	var (
		v       Class
		skipped []SliceInfo
	)
	for v == nil && d.err == nil {
		s := d.readSliceHeader(inst)
		if d.err != nil {
			break
		}
		if factory := d.registry.lookupClass(s.typeID, s.compactID); factory != nil {
			inst.pending = s
			v = factory(d)
			break
		}
		info, ok := d.skipSlice(s)
		if !ok {
			break
		}
		skipped = append(skipped, info)
		if info.IsLastSlice {
			v = &UnknownSlicedClass{}
		}
	}
	if d.err != nil {
		return 0
	}

	if len(skipped) > 0 {
		v.setUnknownSlices(skipped)
	}
	d.setInstance(marker, v)
	if inst.pending != nil {
		v.DecodeSlices(d)
		if d.err == nil && inst.pending != nil {
			d.errorf("class %T did not decode its slices", v)
		}
	}
	if d.err != nil {
		return 0
	}
	return marker
}

func (d *Decoder) readSliceHeader(inst *decodeInstance) *decodeSlice {
	s := &decodeSlice{flags: d.DecodeUInt8(), compactID: -1, end: -1}
	switch s.flags & typeIDMask {
	case typeIDString:
		s.typeID = d.DecodeString()
		if !inst.exception {
			classes := d.classState()
			classes.typeIDs = append(classes.typeIDs, s.typeID)
		}
	case typeIDIndex:
		idx := d.DecodeSize()
		classes := d.classState()
		if idx < 1 || idx > len(classes.typeIDs) {
			d.errorf("unknown type id index %d", idx)
			return s
		}
		s.typeID = classes.typeIDs[idx-1]
	case typeIDCompact:
		compactID, err := safecast.Conv[int32](d.DecodeSize())
		if err != nil {
			d.errorf("compact type id is too large")
			return s
		}
		s.compactID = compactID
	}
	if s.flags&flagHasSliceSize != 0 {
		size := int(d.DecodeInt32())
		if d.err == nil && (size < 4 || size-4 > len(d.buf)-d.pos) {
			d.errorf("invalid slice size %d", size)
			return s
		}
		s.end = d.pos + size - 4
	}
	s.bodyStart = d.pos
	return s
}

// skipSlice consumes a slice of an unknown type and returns its contents.
func (d *Decoder) skipSlice(s *decodeSlice) (SliceInfo, bool) {
	if s.end < 0 {
		name := s.typeID
		if name == "" {
			name = "with no type id"
		}
		d.errorf("cannot skip slice of unknown type %q encoded in the compact format", name)
		return SliceInfo{}, false
	}
	info := SliceInfo{
		TypeID:           s.typeID,
		CompactID:        s.compactID,
		Bytes:            slices.Clone(d.buf[s.bodyStart:s.end]),
		HasTaggedMembers: s.flags&flagHasTaggedMembers != 0,
		IsLastSlice:      s.flags&flagIsLastSlice != 0,
	}
	d.pos = s.end
	if s.flags&flagHasIndirectionTable != 0 {
		n := d.count(8)
		instances := make([]Class, n)
		for ii := range instances {
			marker := d.decodeInstanceMarker()
			if marker == 0 {
				d.errorf("indirection table contains a null reference")
				return SliceInfo{}, false
			}
			d.whenAvailable(marker, func(c Class) { instances[ii] = c })
		}
		info.Instances = instances
	}
	return info, d.err == nil
}

// StartSlice begins decoding the next slice of the current instance.
func (d *Decoder) StartSlice() {
	if d.err != nil {
		return
	}
	inst := d.instance
	if inst == nil {
		d.errorf("StartSlice called outside of a class or exception")
		return
	}
	if inst.pending != nil {
		d.slice, inst.pending = inst.pending, nil
		return
	}
	d.slice = d.readSliceHeader(inst)
}

// EndSlice skips unread tagged members, then resolves the class references
// made through the slice's indirection table.
func (d *Decoder) EndSlice() {
	if d.err != nil {
		return
	}
	s := d.slice
	if s == nil {
		d.errorf("EndSlice called without a matching StartSlice")
		return
	}
	if s.flags&flagHasTaggedMembers != 0 {
		d.SkipTaggedUntilEndMarker()
	}
	if s.end >= 0 {
		if d.pos > s.end {
			d.errorf("slice %q overran its size", s.typeID)
			return
		}
		d.pos = s.end
	}
	d.slice = nil

	if s.flags&flagHasIndirectionTable != 0 {
		n := d.count(8)
		markers := make([]int, n)
		for ii := range markers {
			markers[ii] = d.decodeInstanceMarker()
			if d.err == nil && markers[ii] == 0 {
				d.errorf("indirection table contains a null reference")
			}
		}
		if d.err != nil {
			return
		}
		for _, p := range s.patches {
			if p.index > len(markers) {
				d.errorf("indirection index %d is out of range", p.index)
				return
			}
			d.whenAvailable(markers[p.index-1], p.set)
		}
	} else if len(s.patches) > 0 {
		d.errorf("slice %q references classes but has no indirection table", s.typeID)
		return
	}
	for _, fn := range s.finalizers {
		fn()
	}
}

// DecodeException decodes a Slice1 user exception, skipping the slices of
// exception types that are not registered. The result is an
// [*UnknownUserException] if no slice is known, or the decoding error if the
// input is malformed.
func (d *Decoder) DecodeException() error {
	if !d.requires(Slice1, "sliced exceptions") {
		return d.err
	}
	inst := &decodeInstance{exception: true}
	savedInstance, savedSlice := d.instance, d.slice
	defer func() { d.instance, d.slice = savedInstance, savedSlice }()
	d.instance, d.slice = inst, nil

	mostDerived := ""
	for d.err == nil {
		s := d.readSliceHeader(inst)
		if d.err != nil {
			break
		}
		if mostDerived == "" {
			mostDerived = s.typeID
		}
		if factory := d.registry.lookupException(s.typeID); factory != nil {
			inst.pending = s
			ex := factory()
			ex.DecodeSlices(d)
			if d.err != nil {
				break
			}
			return ex
		}
		info, ok := d.skipSlice(s)
		if !ok {
			break
		}
		if info.IsLastSlice {
			return &UnknownUserException{TypeID: mostDerived}
		}
	}
	return d.err
}

// }}}
