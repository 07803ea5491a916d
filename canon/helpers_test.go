package canon

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/wippyai/wasm-rpc/canon/internal/abi"
	"github.com/wippyai/wasm-rpc/errors"
)

// mockMemory is a flat byte slice with bounds-checked access.
type mockMemory struct {
	data []byte
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) Read(offset uint32, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return m.data[offset:end], nil
}

func (m *mockMemory) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.data)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *mockMemory) putU32(offset, v uint32) {
	binary.LittleEndian.PutUint32(m.data[offset:], v)
}

// sizedMemory adds wasmrpc.MemorySizer.
type sizedMemory struct {
	*mockMemory
}

func (m sizedMemory) Size() uint32 { return uint32(len(m.data)) }

// mockAllocator implements Allocator for testing
type mockAllocator struct {
	offset uint32
	live   map[uint32]uint32
	calls  int
	// failAfter makes the n-th call onward fail when positive.
	failAfter int
	// misalign adds this many bytes to every returned pointer.
	misalign uint32
}

func newMockAllocator() *mockAllocator {
	return &mockAllocator{offset: 1024, live: make(map[uint32]uint32)} // start at 1024 to test non-zero offsets
}

func (a *mockAllocator) Alloc(size, align uint32) (uint32, error) {
	a.calls++
	if a.failAfter > 0 && a.calls >= a.failAfter {
		return 0, stderrors.New("out of memory")
	}
	ptr := abi.AlignTo(a.offset, align) + a.misalign
	a.offset = ptr + size
	a.live[ptr] = size
	return ptr, nil
}

func (a *mockAllocator) Free(ptr, size, align uint32) {
	delete(a.live, ptr)
}

func asError(t *testing.T, err error) *errors.Error {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	return e
}

func expectKind(t *testing.T, err error, phase errors.Phase, kind errors.Kind) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s/%s error, got nil", phase, kind)
	}
	e := asError(t, err)
	if e.Phase != phase || e.Kind != kind {
		t.Fatalf("got %s/%s (%v), want %s/%s", e.Phase, e.Kind, err, phase, kind)
	}
	return e
}
