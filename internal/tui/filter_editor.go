package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/modal"
	"github.com/jask/adminpanel/internal/query"
)

type filterData struct {
	column  query.ColumnDef
	label   string
	current string // wire form, empty when unfiltered
}

// filterEditor edits one column filter. It closes with the new wire value as
// a string, where "" clears the filter.
type filterEditor struct {
	data   filterData
	done   modal.Done
	inputs []textinput.Model
	focus  int
	// options for select, multiSelect and boolean columns
	options []query.Option
	picked  map[string]bool
	cursor  int
}

var booleanOptions = []query.Option{{Value: "true", Label: "yes"}, {Value: "false", Label: "no"}}

func newFilterEditor(data any, done modal.Done) modal.Content {
	d := data.(filterData)
	e := &filterEditor{data: d, done: done, picked: map[string]bool{}}
	switch d.column.Filter {
	case query.FilterText, query.FilterDate:
		in := newInput(d.label)
		if d.column.Filter == query.FilterDate {
			in.Placeholder = "YYYY-MM-DD"
		}
		in.SetValue(d.current)
		e.inputs = []textinput.Model{in}
	case query.FilterDateRange:
		from, to := newInput("from"), newInput("to")
		from.Placeholder, to.Placeholder = "from YYYY-MM-DD", "to YYYY-MM-DD"
		a, b, found := strings.Cut(d.current, ",")
		if !found {
			b = a
		}
		from.SetValue(a)
		to.SetValue(b)
		e.inputs = []textinput.Model{from, to}
	case query.FilterBoolean:
		e.options = booleanOptions
	default:
		e.options = d.column.Options
	}
	for _, v := range strings.Split(d.current, ",") {
		if v = strings.TrimSpace(v); v != "" {
			e.picked[v] = true
		}
	}
	if !e.multi() {
		for i, o := range e.options {
			if o.Value == d.current {
				e.cursor = i + 1
			}
		}
	}
	if len(e.inputs) > 0 {
		e.inputs[0].Focus()
	}
	return e
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = placeholder
	in.CharLimit = 80
	return in
}

func (e *filterEditor) Init() tea.Cmd {
	if len(e.inputs) > 0 {
		return textinput.Blink
	}
	return nil
}

func (e *filterEditor) multi() bool { return e.data.column.Filter == query.FilterMultiSelect }

func (e *filterEditor) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return e.updateInputs(msg)
	}
	switch km.String() {
	case "ctrl+x":
		return e.done("")
	case "enter":
		return e.done(e.value())
	}
	if len(e.inputs) > 0 {
		switch km.String() {
		case "tab", "down":
			e.move(1)
			return nil
		case "shift+tab", "up":
			e.move(-1)
			return nil
		}
		return e.updateInputs(msg)
	}
	switch km.String() {
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.options) {
			e.cursor++
		}
	case " ":
		switch {
		case !e.multi():
		case e.cursor == 0:
			e.picked = map[string]bool{}
		default:
			v := e.options[e.cursor-1].Value
			e.picked[v] = !e.picked[v]
		}
	}
	return nil
}

func (e *filterEditor) move(step int) {
	e.inputs[e.focus].Blur()
	e.focus = (e.focus + step + len(e.inputs)) % len(e.inputs)
	e.inputs[e.focus].Focus()
}

func (e *filterEditor) updateInputs(msg tea.Msg) tea.Cmd {
	if len(e.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return cmd
}

// value is the wire form of what is on screen. The first option row is
// "any", which clears.
func (e *filterEditor) value() string {
	switch {
	case len(e.inputs) == 2:
		from := strings.TrimSpace(e.inputs[0].Value())
		to := strings.TrimSpace(e.inputs[1].Value())
		if from == "" && to == "" {
			return ""
		}
		return from + "," + to
	case len(e.inputs) == 1:
		return strings.TrimSpace(e.inputs[0].Value())
	case e.multi():
		var out []string
		for _, o := range e.options {
			if e.picked[o.Value] {
				out = append(out, o.Value)
			}
		}
		return strings.Join(out, ",")
	case e.cursor == 0:
		return ""
	}
	return e.options[e.cursor-1].Value
}

func (e *filterEditor) View(width int) string {
	var b strings.Builder
	if len(e.inputs) > 0 {
		for i := range e.inputs {
			e.inputs[i].Width = max(10, width-4)
			b.WriteString(e.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString(mutedStyle.Render("enter apply · ctrl+x clear · esc cancel"))
		return b.String()
	}
	rows := append([]query.Option{{Label: "(any)"}}, e.options...)
	for i, o := range rows {
		label := o.Label
		if label == "" {
			label = o.Value
		}
		if e.multi() && i > 0 {
			box := "[ ] "
			if e.picked[o.Value] {
				box = "[x] "
			}
			label = box + label
		}
		if i == e.cursor {
			b.WriteString(accentStyle.Render("› " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	hint := "enter choose · esc cancel"
	if e.multi() {
		hint = "space toggle · enter apply · esc cancel"
	}
	b.WriteString(mutedStyle.Render(hint))
	return b.String()
}
