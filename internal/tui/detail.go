package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/adminpanel/internal/modal"
)

// detail shows a record as label/value lines. Long values wrap and the
// content scrolls.
type detail struct {
	fields []field
	offset int
	height int
}

const detailHeight = 18

func openDetail(ctx context.Context, title string, fields []field) tea.Cmd {
	factory := func(data any, _ modal.Done) modal.Content {
		return &detail{fields: data.([]field), height: detailHeight}
	}
	return modal.FromContext(ctx).Open(factory, fields, modal.Options{Title: title, Size: modal.Large, ShowCloseButton: true}, nil)
}

func (d *detail) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch km.String() {
	case "up", "k":
		if d.offset > 0 {
			d.offset--
		}
	case "down", "j":
		d.offset++
	}
	return nil
}

func (d *detail) lines(width int) []string {
	valueWidth := max(10, width-15)
	var out []string
	for _, f := range d.fields {
		wrapped := strings.Split(ansi.Wordwrap(f.value, valueWidth, ""), "\n")
		for i, w := range wrapped {
			label := ""
			if i == 0 {
				label = f.label
			}
			out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), w))
		}
	}
	return out
}

func (d *detail) View(width int) string {
	all := d.lines(width)
	d.offset = max(0, min(d.offset, len(all)-d.height))
	end := min(len(all), d.offset+d.height)
	view := strings.Join(all[d.offset:end], "\n")
	if len(all) > d.height {
		view += "\n" + mutedStyle.Render("↑/↓ scroll")
	}
	return view
}
