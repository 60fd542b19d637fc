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

// Package plugin hosts WebAssembly plugins: the front end that parses Slice
// files and the code generators.
//
// A plugin exports `<prefix>_allocate(len) ptr` and one function per entry
// point, called as `fn(requestPtr, responsePtrPtr) rc`. Requests and
// responses are length-prefixed frames (see [slicemsgpack.Frame]); the
// plugin stores the address of its response frame at responsePtrPtr. An
// optional `<prefix>_deallocate(ptr)` export releases buffers afterwards.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/externl/slicec/slice/encoding/slicemsgpack"
)

const (
	FrontendPrefix = "slicec_frontend"
	CodegenPrefix  = "slicec_codegen"

	// DefaultMemoryLimitPages caps plugin memory at 1 GiB.
	DefaultMemoryLimitPages = 16384
)

var (
	ErrMissingExport = errors.New("plugin is missing a required export")
	ErrNotFound      = errors.New("plugin not found")
)

// ExitError is returned when a plugin function completes with a nonzero
// return code.
type ExitError struct {
	Function string
	Code     uint8
}

func (err *ExitError) Error() string {
	return fmt.Sprintf("plugin function %q failed with code %d", err.Function, err.Code)
}

type LoadOption interface {
	apply(*loadOptions)
}

type loadOption func(*loadOptions)

func (f loadOption) apply(opts *loadOptions) { f(opts) }

type loadOptions struct {
	logger     *zap.Logger
	stderr     io.Writer
	limitPages uint32
}

func WithLogger(logger *zap.Logger) LoadOption {
	return loadOption(func(opts *loadOptions) {
		opts.logger = logger
	})
}

// WithStderr forwards whatever the plugin writes to its standard error.
func WithStderr(w io.Writer) LoadOption {
	return loadOption(func(opts *loadOptions) {
		opts.stderr = w
	})
}

func WithMemoryLimitPages(pages uint32) LoadOption {
	return loadOption(func(opts *loadOptions) {
		opts.limitPages = pages
	})
}

type Plugin struct {
	name    string
	prefix  string
	log     *zap.Logger
	runtime wazero.Runtime
	module  api.Module
	memory  api.Memory

	allocate   api.Function
	deallocate api.Function
}

func Load(ctx context.Context, path, prefix string, opts ...LoadOption) (*Plugin, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := load(ctx, path, bin, prefix, opts)
	if err != nil {
		return nil, fmt.Errorf("load plugin %s: %w", path, err)
	}
	return p, nil
}

func LoadBytes(ctx context.Context, bin []byte, prefix string, opts ...LoadOption) (*Plugin, error) {
	p, err := load(ctx, prefix, bin, prefix, opts)
	if err != nil {
		return nil, fmt.Errorf("load plugin: %w", err)
	}
	return p, nil
}

func load(ctx context.Context, name string, bin []byte, prefix string, opts []LoadOption) (*Plugin, error) {
	loadOpts := &loadOptions{limitPages: DefaultMemoryLimitPages}
	for _, opt := range opts {
		opt.apply(loadOpts)
	}
	if loadOpts.logger == nil {
		loadOpts.logger = zap.NewNop()
	}

	runtimeConfig := wazero.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(loadOpts.limitPages)
	runtimeConfig = runtimeConfig.WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	p, err := instantiate(ctx, runtime, name, bin, prefix, loadOpts)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	return p, nil
}

func instantiate(
	ctx context.Context,
	runtime wazero.Runtime,
	name string,
	bin []byte,
	prefix string,
	opts *loadOptions,
) (*Plugin, error) {
	// TinyGo plugins built for WASI import it even when they never touch
	// the filesystem.
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, err
	}

	compiled, err := runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, err
	}

	moduleConfig := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize", "_start")
	if opts.stderr != nil {
		moduleConfig = moduleConfig.WithStderr(opts.stderr)
	}
	module, err := runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		name:    name,
		prefix:  prefix,
		log:     opts.logger.With(zap.String("plugin", name)),
		runtime: runtime,
		module:  module,
		memory:  module.Memory(),
	}
	if p.memory == nil {
		return nil, fmt.Errorf("%w: memory", ErrMissingExport)
	}
	if p.allocate, err = p.export("allocate"); err != nil {
		return nil, err
	}
	p.deallocate = module.ExportedFunction(prefix + "_deallocate")
	return p, nil
}

func (p *Plugin) export(function string) (api.Function, error) {
	name := p.prefix + "_" + function
	fn := p.module.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, name)
	}
	return fn, nil
}

func (p *Plugin) Close(ctx context.Context) error {
	return p.runtime.Close(ctx)
}

// Call runs `<prefix>_<function>` with request as the frame payload and
// returns the payload of the plugin's response. If the plugin reports
// failure, the response is returned along with an [*ExitError].
func (p *Plugin) Call(ctx context.Context, function string, request []byte) ([]byte, error) {
	fn, err := p.export(function)
	if err != nil {
		return nil, err
	}
	frame, err := slicemsgpack.Frame(request)
	if err != nil {
		return nil, err
	}
	frameLen, err := safecast.Conv[uint32](len(frame))
	if err != nil {
		return nil, err
	}

	requestPtr, err := p.alloc(ctx, frameLen)
	if err != nil {
		return nil, err
	}
	defer p.free(ctx, requestPtr)
	if !p.memory.Write(requestPtr, frame) {
		return nil, fmt.Errorf("request of %d bytes does not fit at %#x", frameLen, requestPtr)
	}

	responsePtrPtr, err := p.alloc(ctx, 4)
	if err != nil {
		return nil, err
	}
	defer p.free(ctx, responsePtrPtr)

	p.log.Debug("calling plugin",
		zap.String("function", function),
		zap.Int("request_bytes", len(request)),
	)
	results, err := fn.Call(ctx, api.EncodeU32(requestPtr), api.EncodeU32(responsePtrPtr))
	if err != nil {
		return nil, fmt.Errorf("call %s_%s: %w", p.prefix, function, err)
	}
	rc := uint8(results[0])

	response, err := p.readResponse(responsePtrPtr)
	if err != nil {
		return nil, err
	}
	p.log.Debug("plugin returned",
		zap.String("function", function),
		zap.Uint8("rc", rc),
		zap.Int("response_bytes", len(response)),
	)
	if rc != 0 {
		return response, &ExitError{Function: function, Code: rc}
	}
	return response, nil
}

func (p *Plugin) readResponse(responsePtrPtr uint32) ([]byte, error) {
	responsePtr, ok := p.memory.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, errors.New("failed to read response pointer")
	}
	responseLen, ok := p.memory.ReadUint32Le(responsePtr)
	if !ok {
		return nil, errors.New("failed to read response message length")
	}
	buf, ok := p.memory.Read(responsePtr, responseLen)
	if !ok {
		return nil, errors.New("failed to read response message")
	}
	payload, err := slicemsgpack.Unframe(buf)
	if err != nil {
		return nil, err
	}
	// The view aliases plugin memory, which the next call may reuse.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (p *Plugin) alloc(ctx context.Context, size uint32) (uint32, error) {
	results, err := p.allocate.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, fmt.Errorf("%s_allocate(%d): %w", p.prefix, size, err)
	}
	return api.DecodeU32(results[0]), nil
}

func (p *Plugin) free(ctx context.Context, ptr uint32) {
	if p.deallocate == nil {
		return
	}
	if _, err := p.deallocate.Call(ctx, api.EncodeU32(ptr)); err != nil {
		p.log.Warn("deallocate failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

// Locate finds basename in the first directory of searchPath, a list
// separated by [filepath.ListSeparator], that contains it.
func Locate(searchPath, basename string) (string, error) {
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, basename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %q", ErrNotFound, basename, searchPath)
}

// CodegenBasename is the file name of the code generator for language.
func CodegenBasename(language string) string {
	return fmt.Sprintf("slicec-codegen-%s.wasm", language)
}
