package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/adminpanel/internal/modal"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldNumber
	fieldBool
	fieldChoice
)

type formField struct {
	key      string
	label    string
	kind     fieldKind
	value    string
	choices  []string
	required bool
}

// form edits a record. It closes with map[string]any of typed values when
// every field validates.
type form struct {
	fields []formField
	inputs []textinput.Model
	focus  int
	err    string
	done   modal.Done
}

func newForm(data any, done modal.Done) modal.Content {
	fields := data.([]formField)
	f := &form{fields: fields, done: done, inputs: make([]textinput.Model, len(fields))}
	for i, fd := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.SetValue(fd.value)
		switch fd.kind {
		case fieldBool:
			in.Placeholder = "yes / no"
		case fieldChoice:
			in.Placeholder = strings.Join(fd.choices, " / ")
		}
		f.inputs[i] = in
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func (f *form) Init() tea.Cmd { return textinput.Blink }

func (f *form) Update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			f.move(1)
			return nil
		case "shift+tab", "up":
			f.move(-1)
			return nil
		case "ctrl+s":
			return f.submit()
		case "enter":
			if f.focus == len(f.inputs)-1 {
				return f.submit()
			}
			f.move(1)
			return nil
		case "left", "right":
			if fd := f.fields[f.focus]; fd.kind == fieldChoice || fd.kind == fieldBool {
				f.cycle(km.String() == "right")
				return nil
			}
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) move(step int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + step + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// cycle steps a choice or yes/no field through its values.
func (f *form) cycle(forward bool) {
	fd := f.fields[f.focus]
	choices := fd.choices
	if fd.kind == fieldBool {
		choices = []string{"yes", "no"}
	}
	i := slices.Index(choices, strings.TrimSpace(f.inputs[f.focus].Value()))
	if forward {
		i = (i + 1) % len(choices)
	} else {
		i = (i - 1 + len(choices)) % len(choices)
	}
	f.inputs[f.focus].SetValue(choices[i])
	f.inputs[f.focus].CursorEnd()
}

func (f *form) submit() tea.Cmd {
	values, err := f.values()
	if err != nil {
		f.err = err.Error()
		return nil
	}
	f.err = ""
	return f.done(values)
}

func (f *form) values() (map[string]any, error) {
	out := make(map[string]any, len(f.fields))
	for i, fd := range f.fields {
		raw := strings.TrimSpace(f.inputs[i].Value())
		if raw == "" {
			if fd.required {
				return nil, fmt.Errorf("%s is required", fd.label)
			}
			continue
		}
		switch fd.kind {
		case fieldNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", fd.label)
			}
			out[fd.key] = n
		case fieldBool:
			switch strings.ToLower(raw) {
			case "yes", "y", "true":
				out[fd.key] = true
			case "no", "n", "false":
				out[fd.key] = false
			default:
				return nil, fmt.Errorf("%s must be yes or no", fd.label)
			}
		case fieldChoice:
			if !slices.Contains(fd.choices, raw) {
				return nil, fmt.Errorf("%s must be one of %s", fd.label, strings.Join(fd.choices, ", "))
			}
			out[fd.key] = raw
		default:
			out[fd.key] = raw
		}
	}
	return out, nil
}

func (f *form) View(width int) string {
	lines := make([]string, 0, len(f.fields)+2)
	for i, fd := range f.fields {
		label := fd.label
		if fd.required {
			label += "*"
		}
		f.inputs[i].Width = max(10, width-18)
		style := labelStyle
		if i == f.focus {
			style = style.Foreground(colorAccent)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), f.inputs[i].View()))
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	lines = append(lines, "", mutedStyle.Render("tab next · ←/→ cycle choices · enter on last field or ctrl+s save · esc cancel"))
	return strings.Join(lines, "\n")
}
