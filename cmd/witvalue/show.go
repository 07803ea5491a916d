package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/wasm-rpc/internal/notation"
	"github.com/wippyai/wasm-rpc/witvalue"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// painter applies styles only when writing to a terminal.
type painter bool

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p {
		return text
	}
	return s.Render(text)
}

func stdoutIsTerminal() painter {
	return painter(term.IsTerminal(int(os.Stdout.Fd())))
}

func runShow(args []string, out io.Writer) error {
	fs := newFlagSet("show")
	src := addSource(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := src.load(os.Stdin)
	if err != nil {
		return err
	}
	w, err := witvalue.Encode(v, witvalue.DefaultLimits)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	doc, err := notation.Format(v)
	if err != nil {
		return err
	}

	p := stdoutIsTerminal()
	fmt.Fprintln(out, p.paint(titleStyle, "value"))
	fmt.Fprintln(out, strings.TrimRight(string(doc), "\n"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, p.paint(titleStyle, fmt.Sprintf("nodes (%d)", w.Len())))
	writeNodes(out, w, p)
	return nil
}

// writeNodes prints one line per node: position, kind and contents.
func writeNodes(out io.Writer, w witvalue.WitValue, p painter) {
	width := len(strconv.Itoa(w.Len() - 1))
	for i, n := range w.Nodes {
		idx := fmt.Sprintf("%*d", width, i)
		kind := fmt.Sprintf("%-8s", n.Kind())
		fmt.Fprintf(out, "%s  %s  %s\n", p.paint(indexStyle, idx), p.paint(kindStyle, kind), describe(n))
	}
}

// describe renders the contents of a single node with child references
// written as @index.
func describe(n witvalue.WitNode) string {
	switch n := n.(type) {
	case witvalue.RecordNode:
		return refs(n.Fields)
	case witvalue.TupleNode:
		return refs(n.Items)
	case witvalue.ListNode:
		return refs(n.Items)
	case witvalue.VariantNode:
		return fmt.Sprintf("case %d %s", n.Case, ref(n.Payload))
	case witvalue.EnumNode:
		return fmt.Sprintf("case %d", n.Case)
	case witvalue.FlagsNode:
		var b strings.Builder
		for _, bit := range n.Bits {
			if bit {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		return b.String()
	case witvalue.OptionNode:
		if _, ok := n.Value.Get(); !ok {
			return "none"
		}
		return "some " + ref(n.Value)
	case witvalue.ResultNode:
		arm := "ok"
		if n.Err {
			arm = "err"
		}
		return arm + " " + ref(n.Value)
	case witvalue.PrimChar:
		return strconv.QuoteRune(rune(n))
	case witvalue.PrimString:
		return strconv.Quote(string(n))
	case witvalue.PrimF32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case witvalue.PrimF64:
		return strconv.FormatFloat(float64(n), 'g', -1, 64)
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%v", n)
}

func ref(c witvalue.Child) string {
	idx, ok := c.Get()
	if !ok {
		return "-"
	}
	return "@" + strconv.Itoa(int(idx))
}

func refs(items []witvalue.NodeIndex) string {
	parts := make([]string, len(items))
	for i, idx := range items {
		parts[i] = "@" + strconv.Itoa(int(idx))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
