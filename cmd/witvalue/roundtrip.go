package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/wasm-rpc/canon"
	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

func runRoundTrip(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("roundtrip")
	src := addSource(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := src.load(os.Stdin)
	if err != nil {
		return err
	}

	sb, err := canon.NewSandbox(ctx)
	if err != nil {
		return fmt.Errorf("create sandbox: %w", err)
	}
	defer sb.Close(ctx)

	res, err := sandboxRoundTrip(ctx, sb, v)
	if err != nil {
		return err
	}

	p := stdoutIsTerminal()
	fmt.Fprintf(out, "nodes:       %d\n", res.nodes)
	fmt.Fprintf(out, "allocations: %d\n", res.allocations)
	fmt.Fprintf(out, "bytes:       %d\n", res.bytes)
	fmt.Fprintf(out, "node array:  ptr=%#x len=%d\n", res.ptr, res.nodes)
	if !value.Equal(v, res.got) {
		fmt.Fprintln(out, p.paint(errorStyle, "mismatch"))
		fmt.Fprint(out, diffValues(v, res.got))
		return fmt.Errorf("round trip changed the value")
	}
	fmt.Fprintln(out, p.paint(resultStyle, "ok"))
	return nil
}

type roundTripResult struct {
	got         value.Value
	nodes       int
	allocations int
	bytes       uint32
	ptr         uint32
}

// sandboxRoundTrip flattens v, lowers it into the sandbox's memory, lifts it
// back and rebuilds the tree. The lowered blocks are freed and the sandbox
// heap reset before returning.
func sandboxRoundTrip(ctx context.Context, sb *canon.Sandbox, v value.Value) (roundTripResult, error) {
	defer sb.Reset()

	w, err := witvalue.Encode(v, witvalue.DefaultLimits)
	if err != nil {
		return roundTripResult{}, fmt.Errorf("encode: %w", err)
	}
	low, err := canon.Lower(ctx, w, sb.Memory(), sb.Allocator())
	if err != nil {
		return roundTripResult{}, fmt.Errorf("lower: %w", err)
	}
	defer low.Free(sb.Allocator())

	lifted, err := canon.Lift(ctx, sb.Memory(), low.Ptr, low.Len, witvalue.DefaultLimits)
	if err != nil {
		return roundTripResult{}, fmt.Errorf("lift: %w", err)
	}
	got, err := witvalue.Decode(lifted, witvalue.DefaultLimits)
	if err != nil {
		return roundTripResult{}, fmt.Errorf("decode: %w", err)
	}

	return roundTripResult{
		got:         got,
		nodes:       w.Len(),
		allocations: len(low.Allocations),
		bytes:       low.Bytes(),
		ptr:         low.Ptr,
	}, nil
}
