package canon

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	wasmrpc "github.com/wippyai/wasm-rpc"
)

// WrapMemory adapts a wazero memory to wasmrpc.Memory. The result also
// implements wasmrpc.MemorySizer.
func WrapMemory(mem api.Memory) wasmrpc.Memory {
	if mem == nil {
		return nil
	}
	return &MemoryWrapper{Mem: mem}
}

// WrapAllocator adapts a guest cabi_realloc export to wasmrpc.Allocator.
func WrapAllocator(ctx context.Context, fn api.Function) wasmrpc.Allocator {
	if fn == nil {
		return nil
	}
	return &AllocatorWrapper{Ctx: ctx, Fn: fn}
}

// MemoryWrapper adapts wazero api.Memory to the wasmrpc.Memory interface.
type MemoryWrapper struct {
	Mem api.Memory
}

// Read returns a view of guest memory; callers that keep the bytes must copy.
func (m *MemoryWrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *MemoryWrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *MemoryWrapper) Size() uint32 {
	return m.Mem.Size()
}

// AllocatorWrapper calls cabi_realloc(old_ptr, old_size, align, new_size).
type AllocatorWrapper struct {
	Ctx context.Context
	Fn  api.Function
}

func (a *AllocatorWrapper) Alloc(size, align uint32) (uint32, error) {
	results, err := a.Fn.Call(a.Ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return api.DecodeU32(results[0]), nil
}

// Free shrinks the block to zero bytes, which cabi_realloc treats as a release.
func (a *AllocatorWrapper) Free(ptr, size, align uint32) {
	_, _ = a.Fn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align), 0)
}
