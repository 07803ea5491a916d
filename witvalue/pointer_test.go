package witvalue

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-rpc/value"
)

func TestPointer_Navigate(t *testing.T) {
	v := value.Record{
		value.U32(7),
		value.String("hi"),
		value.Some(value.Bool(true)),
		value.List{value.S8(-1), value.S8(2)},
		value.VariantOf(3, value.Char('é')),
		value.Err(value.Enum(4)),
		value.Flags{true, false},
		value.None(),
	}
	root := RootOf(FromValue(v))

	if k, ok := root.Kind(); !ok || k != value.KindRecord {
		t.Fatalf("root kind = %v, %v", k, ok)
	}
	if root.Len() != len(v) {
		t.Fatalf("Len = %d, want %d", root.Len(), len(v))
	}

	if got, ok := root.Field(0).U32(); !ok || got != 7 {
		t.Errorf("field 0 = %d, %v", got, ok)
	}
	if got, ok := root.Field(1).StringValue(); !ok || got != "hi" {
		t.Errorf("field 1 = %q, %v", got, ok)
	}

	inner, present := root.Field(2).Option()
	if !present {
		t.Fatal("field 2 should be present")
	}
	if got, ok := inner.Bool(); !ok || !got {
		t.Errorf("field 2 payload = %v, %v", got, ok)
	}

	list := root.Field(3)
	if list.Len() != 2 {
		t.Fatalf("list Len = %d", list.Len())
	}
	if got, ok := list.Item(1).S8(); !ok || got != 2 {
		t.Errorf("list[1] = %d, %v", got, ok)
	}

	c, payload, ok := root.Field(4).Variant()
	if !ok || c != 3 {
		t.Fatalf("variant = %d, %v", c, ok)
	}
	if got, ok := payload.Char(); !ok || got != 'é' {
		t.Errorf("variant payload = %q, %v", got, ok)
	}

	res, isErr, ok := root.Field(5).Result()
	if !ok || !isErr {
		t.Fatalf("result isErr=%v ok=%v", isErr, ok)
	}
	if got, ok := res.Enum(); !ok || got != 4 {
		t.Errorf("result payload = %d, %v", got, ok)
	}

	bits, ok := root.Field(6).Flags()
	if !ok {
		t.Fatal("field 6 is not flags")
	}
	if diff := cmp.Diff([]bool{true, false}, bits); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
	if root.Field(6).Len() != 2 {
		t.Errorf("flags Len = %d", root.Field(6).Len())
	}

	if _, present := root.Field(7).Option(); present {
		t.Error("field 7 should be absent")
	}
}

func TestPointer_Value(t *testing.T) {
	sub := value.List{value.U16(1), value.Some(value.F64(2.5))}
	w := FromValue(value.Tuple{value.Bool(false), sub})

	got, err := RootOf(w).Item(1).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !value.Equal(sub, got) {
		t.Errorf("got %s, want %s", value.Format(got), value.Format(sub))
	}

	if _, err := (Pointer{}).Value(); err == nil {
		t.Error("invalid pointer decoded without error")
	}
}

func TestPointer_Invalid(t *testing.T) {
	w := FromValue(value.Record{value.U8(1)})
	root := RootOf(w)

	tests := []struct {
		name string
		p    Pointer
	}{
		{"field out of range", root.Field(1)},
		{"negative item", root.Item(-1)},
		{"item of scalar", root.Field(0).Item(0)},
		{"field of list", RootOf(FromValue(value.List{value.U8(1)})).Field(0)},
		{"root of empty", RootOf(WitValue{})},
		{"chained from invalid", root.Field(9).Field(0).Item(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p.Valid() {
				t.Fatal("pointer should be invalid")
			}
			if tt.p.Index() != -1 {
				t.Errorf("Index = %d, want -1", tt.p.Index())
			}
			if tt.p.Node() != nil {
				t.Error("Node should be nil")
			}
			if _, ok := tt.p.Kind(); ok {
				t.Error("Kind reported ok")
			}
			if tt.p.Len() != 0 {
				t.Error("Len should be 0")
			}
			if _, ok := tt.p.U8(); ok {
				t.Error("U8 reported ok")
			}
			if _, ok := tt.p.Option(); ok {
				t.Error("Option reported present")
			}
			if _, _, ok := tt.p.Result(); ok {
				t.Error("Result reported ok")
			}
		})
	}
}

func TestPointer_WrongKind(t *testing.T) {
	p := RootOf(FromValue(value.U8(5)))
	if _, ok := p.U16(); ok {
		t.Error("U16 on u8 node reported ok")
	}
	if _, ok := p.StringValue(); ok {
		t.Error("StringValue on u8 node reported ok")
	}
	if _, _, ok := p.Variant(); ok {
		t.Error("Variant on u8 node reported ok")
	}
	if _, ok := p.Flags(); ok {
		t.Error("Flags on u8 node reported ok")
	}
	if got, ok := p.U8(); !ok || got != 5 {
		t.Errorf("U8 = %d, %v", got, ok)
	}
}

func TestPointer_MalformedInput(t *testing.T) {
	w := WitValue{Nodes: []WitNode{
		TupleNode{Items: []NodeIndex{1, 0, 7}},
		OptionNode{Value: ChildAt(1)},
		VariantNode{Case: 1, Payload: ChildAt(-3)},
	}}
	root := RootOf(w)

	if !root.Item(0).Valid() {
		t.Fatal("item 0 should be valid")
	}
	if root.Item(1).Valid() {
		t.Error("backward item should be invalid")
	}
	if root.Item(2).Valid() {
		t.Error("out of range item should be invalid")
	}
	if p, present := root.Item(0).Option(); !present || p.Valid() {
		t.Error("self-referencing option should be present with an invalid payload")
	}
}

func TestPointer_PointerNodes(t *testing.T) {
	root := RootOf(WitValue{Nodes: []WitNode{(*RecordNode)(nil)}})
	if root.Valid() {
		t.Fatal("nil record pointer gave a valid root")
	}
	if _, ok := root.Kind(); ok {
		t.Error("Kind reported ok for a nil record pointer")
	}
	if root.Len() != 0 || root.Field(0).Valid() {
		t.Error("navigation through a nil record pointer succeeded")
	}
	if _, err := root.Value(); err == nil {
		t.Error("Value of a nil record pointer succeeded")
	}

	w := WitValue{Nodes: []WitNode{
		TupleNode{Items: []NodeIndex{1, 2}},
		PrimU8(4),
		&ListNode{},
	}}
	tuple := RootOf(w)
	if got, ok := tuple.Item(0).U8(); !ok || got != 4 {
		t.Errorf("item 0 = %d, %v", got, ok)
	}
	if tuple.Item(1).Valid() {
		t.Error("pointer item should be invalid")
	}
	if _, ok := tuple.Item(1).Kind(); ok {
		t.Error("Kind reported ok for a pointer item")
	}
}

func TestPointer_UnitCases(t *testing.T) {
	c, payload, ok := RootOf(FromValue(value.UnitVariant(6))).Variant()
	if !ok || c != 6 || payload.Valid() {
		t.Errorf("unit variant = %d, valid=%v, ok=%v", c, payload.Valid(), ok)
	}

	payload, isErr, ok := RootOf(FromValue(value.OkUnit())).Result()
	if !ok || isErr || payload.Valid() {
		t.Errorf("ok unit = valid=%v isErr=%v ok=%v", payload.Valid(), isErr, ok)
	}
}
