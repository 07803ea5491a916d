package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"gocloud.dev/blob"

	"github.com/wippyai/wasm-rpc/canon"
	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

const recordDoc = "record: [{u32: 7}, {string: hi}, {some: {bool: true}}]\n"

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "value.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		node witvalue.WitNode
		want string
	}{
		{witvalue.RecordNode{Fields: []witvalue.NodeIndex{1, 2, 3}}, "[@1 @2 @3]"},
		{witvalue.ListNode{}, "[]"},
		{witvalue.VariantNode{Case: 2, Payload: witvalue.ChildAt(5)}, "case 2 @5"},
		{witvalue.VariantNode{Case: 4}, "case 4 -"},
		{witvalue.EnumNode{Case: 3}, "case 3"},
		{witvalue.FlagsNode{Bits: []bool{true, false, true}}, "101"},
		{witvalue.OptionNode{}, "none"},
		{witvalue.OptionNode{Value: witvalue.ChildAt(1)}, "some @1"},
		{witvalue.ResultNode{Err: true, Value: witvalue.ChildAt(2)}, "err @2"},
		{witvalue.ResultNode{}, "ok -"},
		{witvalue.PrimChar('é'), "'é'"},
		{witvalue.PrimString("a\nb"), `"a\nb"`},
		{witvalue.PrimF32(1.5), "1.5"},
		{witvalue.PrimS16(-300), "-300"},
		{witvalue.PrimBool(true), "true"},
	}
	for _, tt := range tests {
		if got := describe(tt.node); got != tt.want {
			t.Errorf("describe(%#v) = %q, want %q", tt.node, got, tt.want)
		}
	}
}

func TestRunShow(t *testing.T) {
	var out bytes.Buffer
	if err := runShow([]string{"-file", writeDoc(t, recordDoc)}, &out); err != nil {
		t.Fatalf("show: %v", err)
	}

	for _, want := range []string{
		"nodes (5)",
		"0  record    [@1 @2 @3]",
		`2  string    "hi"`,
		"3  option    some @4",
		"u32: 7",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunShow_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := runShow(nil, &out); err == nil {
		t.Error("show without a source succeeded")
	}
	if err := runShow([]string{"-file", writeDoc(t, "u8: 300")}, &out); err == nil {
		t.Error("show with an invalid value succeeded")
	}
	if err := runShow([]string{"-file", filepath.Join(t.TempDir(), "missing.yaml")}, &out); err == nil {
		t.Error("show with a missing file succeeded")
	}
}

func TestSourceStdin(t *testing.T) {
	src := &source{file: "-", seed: -1}
	v, err := src.load(strings.NewReader(recordDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if value.Count(v) != 5 {
		t.Errorf("count = %d, want 5", value.Count(v))
	}
}

func TestRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, args := range [][]string{
		{"-file", writeDoc(t, recordDoc)},
		{"-seed", "42"},
	} {
		var out bytes.Buffer
		if err := runRoundTrip(ctx, args, &out); err != nil {
			t.Fatalf("roundtrip %v: %v\n%s", args, err, out.String())
		}
		if !strings.HasSuffix(out.String(), "ok\n") {
			t.Errorf("roundtrip %v output:\n%s", args, out.String())
		}
	}
}

func TestSandboxRoundTrip_ResetsHeap(t *testing.T) {
	ctx := context.Background()
	sb, err := canon.NewSandbox(ctx)
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sb.Close(ctx)

	v := value.Tuple{value.String("abc"), value.List{value.U8(1), value.U8(2)}}
	res, err := sandboxRoundTrip(ctx, sb, v)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !value.Equal(v, res.got) {
		t.Errorf("got %s", value.Format(res.got))
	}
	if res.nodes != 5 || res.allocations != 4 {
		t.Errorf("nodes=%d allocations=%d, want 5 and 4", res.nodes, res.allocations)
	}
	if sb.Used() != 0 {
		t.Errorf("heap not reset: %d bytes used", sb.Used())
	}
}

func TestFuzz(t *testing.T) {
	ctx := context.Background()
	stats, err := fuzz(ctx, fuzzOptions{
		count:    200,
		seed:     1,
		depth:    4,
		workers:  4,
		sandbox:  true,
		crashers: "mem://",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("fuzz: %v", err)
	}
	if stats.runs != 200 {
		t.Errorf("runs = %d, want 200", stats.runs)
	}
	for _, f := range stats.failures {
		t.Errorf("seed %d failed:\n%s", f.seed, report(f))
	}
}

func TestFuzz_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := fuzz(ctx, fuzzOptions{count: 100, workers: 2}, zap.NewNop())
	if err == nil {
		t.Fatal("expected context error")
	}
	if stats.runs != 0 {
		t.Errorf("runs = %d after cancel", stats.runs)
	}
}

func TestRunFuzz_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := runFuzz(ctx, []string{"-n", "50", "-workers", "2"}, &out); err != nil {
		t.Fatalf("interrupted fuzz returned %v", err)
	}
	for _, want := range []string{"runs: 0  failures: 0", "interrupted"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "ok\n") {
		t.Errorf("interrupted run reported ok:\n%s", out.String())
	}
}

func TestFuzz_BadBucket(t *testing.T) {
	_, err := fuzz(context.Background(), fuzzOptions{count: 1, crashers: "nosuch://bucket"}, zap.NewNop())
	if err == nil {
		t.Fatal("unknown bucket scheme accepted")
	}
}

func TestSaveCrasher(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("OpenBucket: %v", err)
	}
	defer bucket.Close()

	f := failure{
		seed:  9,
		input: value.Record{value.U32(7)},
		got:   value.Record{value.U32(8)},
	}
	if err := saveCrasher(ctx, bucket, f); err != nil {
		t.Fatalf("saveCrasher: %v", err)
	}

	input, err := bucket.ReadAll(ctx, "seed-9.yaml")
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if !strings.Contains(string(input), "u32: 7") {
		t.Errorf("input = %q", input)
	}
	diff, err := bucket.ReadAll(ctx, "seed-9.txt")
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(diff), "- ") || !strings.Contains(string(diff), "+ ") {
		t.Errorf("report is not a diff:\n%s", diff)
	}
}

func TestDiffValues(t *testing.T) {
	got := diffValues(
		value.Record{value.U32(7), value.String("same")},
		value.Record{value.U32(8), value.String("same")},
	)

	var removed, added, kept bool
	for _, line := range strings.Split(got, "\n") {
		switch {
		case strings.HasPrefix(line, "- ") && strings.Contains(line, "u32: 7"):
			removed = true
		case strings.HasPrefix(line, "+ ") && strings.Contains(line, "u32: 8"):
			added = true
		case strings.HasPrefix(line, "  ") && strings.Contains(line, "string: same"):
			kept = true
		}
	}
	if !removed || !added || !kept {
		t.Errorf("removed=%v added=%v kept=%v in diff:\n%s", removed, added, kept, got)
	}

	if d := diffValues(value.U8(1), nil); !strings.Contains(d, "+ <nil>") {
		t.Errorf("nil diff:\n%s", d)
	}
}

func TestReport_Error(t *testing.T) {
	f := failure{input: value.U8(1), err: context.DeadlineExceeded}
	if got := report(f); got != "error: context deadline exceeded\n" {
		t.Errorf("report = %q", got)
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowse(t *testing.T) {
	w := witvalue.FromValue(value.Record{value.U32(7), value.Some(value.String("hi"))})
	m := newBrowseModel("test", w)

	press := func(keys ...string) {
		for _, k := range keys {
			m.Update(keyPress(k))
		}
	}

	if n := len(entries(m.current().ptr)); n != 2 {
		t.Fatalf("root entries = %d, want 2", n)
	}

	press("down", "down", "enter")
	if got := m.current().ptr.Index(); got != 2 {
		t.Fatalf("opened node %d, want 2", got)
	}

	press("enter")
	if s, ok := m.current().ptr.StringValue(); !ok || s != "hi" {
		t.Fatalf("expected string node, at %d", m.current().ptr.Index())
	}
	view := m.View()
	for _, want := range []string{"root / field 1 / some", "no children", `"hi"`} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	press("enter", "esc", "esc", "esc", "esc")
	if len(m.stack) != 1 || m.current().selected != 1 {
		t.Errorf("stack=%d selected=%d after backing out", len(m.stack), m.current().selected)
	}

	press("up", "up")
	if m.current().selected != 0 {
		t.Errorf("selected = %d", m.current().selected)
	}

	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestEntries(t *testing.T) {
	w := witvalue.FromValue(value.Tuple{
		value.VariantOf(3, value.U8(1)),
		value.UnitVariant(1),
		value.Err(value.Bool(false)),
		value.OkUnit(),
		value.None(),
	})
	root := witvalue.RootOf(w)

	tests := []struct {
		item  int
		label string
	}{
		{0, "case 3"},
		{1, ""},
		{2, "err"},
		{3, ""},
		{4, ""},
	}
	for _, tt := range tests {
		es := entries(root.Item(tt.item))
		switch {
		case tt.label == "" && len(es) != 0:
			t.Errorf("item %d: entries = %v, want none", tt.item, es)
		case tt.label != "" && (len(es) != 1 || es[0].label != tt.label):
			t.Errorf("item %d: entries = %v, want %q", tt.item, es, tt.label)
		}
	}
	if es := entries(witvalue.Pointer{}); es != nil {
		t.Errorf("invalid pointer entries = %v", es)
	}
}
