package wasmrpc

// Version is the wire version of the wit-value interface this module speaks.
const Version = "golem:rpc/types@0.1.0"

// Memory represents WASM linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// MemorySizer provides the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory in WASM linear memory
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
