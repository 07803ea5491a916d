package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

const previewWidth = 60

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var browseKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "right", "l"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace", "left", "h"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// entry is a navigable child of the node being viewed.
type entry struct {
	label string
	ptr   witvalue.Pointer
}

type frame struct {
	label    string
	ptr      witvalue.Pointer
	selected int
}

type browseModel struct {
	help  help.Model
	title string
	keys  keyMap
	stack []frame
}

func newBrowseModel(title string, w witvalue.WitValue) *browseModel {
	return &browseModel{
		help:  help.New(),
		title: title,
		keys:  browseKeys,
		stack: []frame{{label: "root", ptr: witvalue.RootOf(w)}},
	}
}

func runBrowse(args []string) error {
	fs := newFlagSet("browse")
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

	title := src.file
	if title == "" {
		title = fmt.Sprintf("seed %d", src.seed)
	}
	_, err = tea.NewProgram(newBrowseModel(title, w), tea.WithAltScreen()).Run()
	return err
}

func (m *browseModel) current() *frame {
	return &m.stack[len(m.stack)-1]
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		f := m.current()
		children := entries(f.ptr)

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if f.selected > 0 {
				f.selected--
			}

		case key.Matches(msg, m.keys.Down):
			if f.selected < len(children)-1 {
				f.selected++
			}

		case key.Matches(msg, m.keys.Open):
			if f.selected < len(children) && children[f.selected].ptr.Valid() {
				e := children[f.selected]
				m.stack = append(m.stack, frame{label: e.label, ptr: e.ptr})
			}

		case key.Matches(msg, m.keys.Back):
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}

	return m, nil
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WIT Value Browser"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")

	labels := make([]string, len(m.stack))
	for i, f := range m.stack {
		labels[i] = f.label
	}
	b.WriteString(helpStyle.Render(strings.Join(labels, " / ")))
	b.WriteString("\n")

	f := m.current()
	fmt.Fprintf(&b, "%s %s  %s\n\n",
		indexStyle.Render(fmt.Sprintf("@%d", f.ptr.Index())),
		kindStyle.Render(kindOf(f.ptr)),
		describe(f.ptr.Node()))

	children := entries(f.ptr)
	if len(children) == 0 {
		b.WriteString(helpStyle.Render("no children"))
		b.WriteString("\n")
	}
	for i, e := range children {
		line := fmt.Sprintf("%-10s @%-4d %-8s %s", e.label, e.ptr.Index(), kindOf(e.ptr), preview(e.ptr))
		if i == f.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// entries lists the children reachable from p in field order.
func entries(p witvalue.Pointer) []entry {
	k, ok := p.Kind()
	if !ok {
		return nil
	}

	var out []entry
	switch k {
	case value.KindRecord:
		for i := range p.Len() {
			out = append(out, entry{label: fmt.Sprintf("field %d", i), ptr: p.Field(i)})
		}
	case value.KindTuple, value.KindList:
		for i := range p.Len() {
			out = append(out, entry{label: fmt.Sprintf("[%d]", i), ptr: p.Item(i)})
		}
	case value.KindVariant:
		if c, payload, _ := p.Variant(); payload.Valid() {
			out = append(out, entry{label: fmt.Sprintf("case %d", c), ptr: payload})
		}
	case value.KindOption:
		if payload, present := p.Option(); present {
			out = append(out, entry{label: "some", ptr: payload})
		}
	case value.KindResult:
		if payload, isErr, _ := p.Result(); payload.Valid() {
			label := "ok"
			if isErr {
				label = "err"
			}
			out = append(out, entry{label: label, ptr: payload})
		}
	}
	return out
}

func kindOf(p witvalue.Pointer) string {
	k, ok := p.Kind()
	if !ok {
		return "invalid"
	}
	return k.String()
}

func preview(p witvalue.Pointer) string {
	v, err := p.Value()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	s := []rune(value.Format(v))
	if len(s) > previewWidth {
		return string(s[:previewWidth-3]) + "..."
	}
	return string(s)
}
