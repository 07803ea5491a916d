package witvalue

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasm-rpc/errors"
)

func asError(t *testing.T, err error) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	return e
}

func expectKind(t *testing.T, err error, phase errors.Phase, kind errors.Kind) *errors.Error {
	t.Helper()
	e := asError(t, err)
	if e.Phase != phase || e.Kind != kind {
		t.Fatalf("expected [%s] %s, got %v", phase, kind, err)
	}
	return e
}

func expectContract(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected contract panic")
		}
		e, ok := r.(*errors.Error)
		if !ok {
			t.Fatalf("expected *errors.Error panic, got %T: %v", r, r)
		}
		if e.Phase != errors.PhaseBuild || e.Kind != errors.KindContract {
			t.Fatalf("expected build contract error, got %v", e)
		}
	}()
	fn()
}

// checkForward asserts the root and forward-reference invariants.
func checkForward(t *testing.T, w WitValue) {
	t.Helper()
	if len(w.Nodes) == 0 {
		t.Fatal("empty node sequence")
	}
	for i, n := range w.Nodes {
		for _, c := range Children(n) {
			if int(c) <= i || int(c) >= len(w.Nodes) {
				t.Fatalf("node %d (%s) references %d (length %d)", i, n.Kind(), c, len(w.Nodes))
			}
		}
	}
}
