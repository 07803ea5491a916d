package canon

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	wasmrpc "github.com/wippyai/wasm-rpc"
	"github.com/wippyai/wasm-rpc/canon/internal/abi"
)

const (
	pageSize = 65536
	// heapBase keeps address 0 unused so a zero pointer always means "none".
	heapBase = 16
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

// Sandbox is a self-contained wazero runtime holding one guest memory and a
// bump allocator exported as cabi_realloc. It stands in for a component
// instance when lowering and lifting outside a real call.
//
// A Sandbox is not safe for concurrent use.
type Sandbox struct {
	rt    wazero.Runtime
	guest api.Module
	host  api.Module
	mem   wasmrpc.Memory
	alloc wasmrpc.Allocator
	next  uint32
}

// NewSandbox starts the runtime and instantiates the guest memory and the
// allocator host module.
func NewSandbox(ctx context.Context) (*Sandbox, error) {
	s := &Sandbox{
		rt:   wazero.NewRuntime(ctx),
		next: heapBase,
	}

	guest, err := s.rt.InstantiateWithConfig(ctx, memoryWASM, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		_ = s.rt.Close(ctx)
		return nil, fmt.Errorf("instantiate guest memory: %w", err)
	}
	s.guest = guest

	i32 := api.ValueTypeI32
	host, err := s.rt.NewHostModuleBuilder("sandbox").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(s.realloc), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}).
		Export("cabi_realloc").
		Instantiate(ctx)
	if err != nil {
		_ = s.rt.Close(ctx)
		return nil, fmt.Errorf("instantiate allocator: %w", err)
	}
	s.host = host

	s.mem = WrapMemory(guest.ExportedMemory("memory"))
	s.alloc = WrapAllocator(ctx, host.ExportedFunction("cabi_realloc"))
	return s, nil
}

// Memory returns the guest linear memory.
func (s *Sandbox) Memory() wasmrpc.Memory { return s.mem }

// Allocator returns the cabi_realloc export wrapped as an allocator.
func (s *Sandbox) Allocator() wasmrpc.Allocator { return s.alloc }

// Used reports the bytes handed out so far. Freed blocks are not reclaimed.
func (s *Sandbox) Used() uint32 { return s.next - heapBase }

// Reset forgets every allocation. Memory contents are left as they are.
func (s *Sandbox) Reset() { s.next = heapBase }

func (s *Sandbox) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}

// realloc implements cabi_realloc(old_ptr, old_size, align, new_size) as a
// bump allocator. A zero new_size releases nothing and returns 0.
func (s *Sandbox) realloc(_ context.Context, _ api.Module, stack []uint64) {
	oldPtr := api.DecodeU32(stack[0])
	oldSize := api.DecodeU32(stack[1])
	align := api.DecodeU32(stack[2])
	newSize := api.DecodeU32(stack[3])

	if newSize == 0 {
		stack[0] = 0
		return
	}
	if align == 0 {
		align = 1
	}

	ptr := abi.AlignTo(s.next, align)
	end, ok := abi.SafeAddU32(ptr, newSize)
	if !ok {
		panic(fmt.Sprintf("cabi_realloc: %d bytes at %#x overflows address space", newSize, ptr))
	}

	mem := s.guest.ExportedMemory("memory")
	if end > mem.Size() {
		pages := (end - mem.Size() + pageSize - 1) / pageSize
		if _, ok := mem.Grow(pages); !ok {
			panic(fmt.Sprintf("cabi_realloc: cannot grow memory by %d pages", pages))
		}
	}

	if oldPtr != 0 && oldSize > 0 {
		n := min(oldSize, newSize)
		old, ok := mem.Read(oldPtr, n)
		if !ok || !mem.Write(ptr, old) {
			panic(fmt.Sprintf("cabi_realloc: cannot move block at %#x", oldPtr))
		}
	}

	s.next = end
	stack[0] = api.EncodeU32(ptr)
}
