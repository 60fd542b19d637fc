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

// Package slicemsgpack is the msgpack exchange format between slicec and
// its WebAssembly plugins: front ends that parse Slice files, and code
// generators.
//
// Every message carries [Version]. Messages passed through plugin memory
// are framed by a little-endian uint32 that counts the whole frame,
// including itself.
package slicemsgpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/externl/slicec/slice/syntax"
)

// Version of the message schema. It changes whenever a message changes
// incompatibly.
const Version uint16 = 1

var ErrVersionMismatch = errors.New("slicemsgpack: message version mismatch")

// Files is a set of parsed Slice files, as written by `slicec compile
// --format=msgpack` and read by `--syntax`.
type Files struct {
	Version uint16         `msgpack:"version"`
	Files   []*syntax.File `msgpack:"files"`
}

// FrontendRequest asks a front end to parse source text.
type FrontendRequest struct {
	Version uint16               `msgpack:"version"`
	Files   []*syntax.SourceFile `msgpack:"files"`
}

type FrontendResponse struct {
	Version uint16         `msgpack:"version"`
	Files   []*syntax.File `msgpack:"files,omitempty"`
	Error   string         `msgpack:"error,omitempty"`
}

// CodegenRequest asks a code generator for the code of the source files
// among Files. The files must compile without errors.
type CodegenRequest struct {
	Version       uint16            `msgpack:"version"`
	Files         []*syntax.File    `msgpack:"files"`
	PackagePrefix string            `msgpack:"package_prefix,omitempty"`
	AllowedLints  []string          `msgpack:"allowed_lints,omitempty"`
	PluginOptions map[string]string `msgpack:"plugin_options,omitempty"`
}

type CodegenResponse struct {
	Version     uint16       `msgpack:"version"`
	OutputFiles []OutputFile `msgpack:"output_files,omitempty"`
	Error       string       `msgpack:"error,omitempty"`
}

// OutputFile is a generated file. Path is relative to the output
// directory, one element per path component.
type OutputFile struct {
	Path    []string `msgpack:"path"`
	Content []byte   `msgpack:"content"`
}

type message interface {
	*Files | *FrontendRequest | *FrontendResponse | *CodegenRequest | *CodegenResponse
}

// Encode stamps msg with the current version and marshals it.
func Encode[M message](msg M) ([]byte, error) {
	setVersion(msg)
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("slicemsgpack: encode %T: %w", msg, err)
	}
	return buf.Bytes(), nil
}

// Decode unmarshals data into msg. Messages of another version are
// rejected with [ErrVersionMismatch].
func Decode[M message](data []byte, msg M) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("slicemsgpack: decode %T: %w", msg, err)
	}
	if got := versionOf(msg); got != Version {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, got, Version)
	}
	return nil
}

func setVersion(msg any) {
	switch msg := msg.(type) {
	case *Files:
		msg.Version = Version
	case *FrontendRequest:
		msg.Version = Version
	case *FrontendResponse:
		msg.Version = Version
	case *CodegenRequest:
		msg.Version = Version
	case *CodegenResponse:
		msg.Version = Version
	}
}

func versionOf(msg any) uint16 {
	switch msg := msg.(type) {
	case *Files:
		return msg.Version
	case *FrontendRequest:
		return msg.Version
	case *FrontendResponse:
		return msg.Version
	case *CodegenRequest:
		return msg.Version
	case *CodegenResponse:
		return msg.Version
	}
	return 0
}

func EncodeFiles(files []*syntax.File) ([]byte, error) {
	return Encode(&Files{Files: files})
}

func DecodeFiles(data []byte) ([]*syntax.File, error) {
	var msg Files
	if err := Decode(data, &msg); err != nil {
		return nil, err
	}
	return msg.Files, nil
}

// Frames {{{

const frameHeaderLen = 4

// Frame prefixes payload with the length of the frame.
func Frame(payload []byte) ([]byte, error) {
	total, err := safecast.Conv[uint32](len(payload) + frameHeaderLen)
	if err != nil {
		return nil, fmt.Errorf("slicemsgpack: payload of %d bytes is too large to frame", len(payload))
	}
	out := make([]byte, frameHeaderLen, int(total))
	binary.LittleEndian.PutUint32(out, total)
	return append(out, payload...), nil
}

// FrameLen reads the length of the frame starting at buf.
func FrameLen(buf []byte) (uint32, error) {
	if len(buf) < frameHeaderLen {
		return 0, fmt.Errorf("slicemsgpack: frame header truncated: %d bytes", len(buf))
	}
	total := binary.LittleEndian.Uint32(buf)
	if total < frameHeaderLen {
		return 0, fmt.Errorf("slicemsgpack: invalid frame length %d", total)
	}
	return total, nil
}

// Unframe returns the payload of the frame at the start of buf.
func Unframe(buf []byte) ([]byte, error) {
	total, err := FrameLen(buf)
	if err != nil {
		return nil, err
	}
	if uint64(total) > uint64(len(buf)) {
		return nil, fmt.Errorf("slicemsgpack: frame of %d bytes truncated to %d", total, len(buf))
	}
	return buf[frameHeaderLen:total], nil
}

// }}}
