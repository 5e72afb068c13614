package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/modal"
)

type columnState struct {
	id     string
	label  string
	hidden bool
	pinned bool
}

// columnChooser toggles visibility and pinning. It closes with the edited
// []columnState on enter.
type columnChooser struct {
	cols   []columnState
	cursor int
	done   modal.Done
}

func newColumnChooser(data any, done modal.Done) modal.Content {
	cols := append([]columnState(nil), data.([]columnState)...)
	return &columnChooser{cols: cols, done: done}
}

func (c *columnChooser) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(c.cols) == 0 {
		return nil
	}
	switch km.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.cols)-1 {
			c.cursor++
		}
	case " ":
		c.cols[c.cursor].hidden = !c.cols[c.cursor].hidden
	case "p":
		c.cols[c.cursor].pinned = !c.cols[c.cursor].pinned
	case "enter":
		return c.done(c.cols)
	}
	return nil
}

func (c *columnChooser) View(int) string {
	var b strings.Builder
	for i, col := range c.cols {
		box := "[x]"
		if col.hidden {
			box = "[ ]"
		}
		line := box + " " + col.label
		if col.pinned {
			line += " 📌"
		}
		if i == c.cursor {
			b.WriteString(accentStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("space show/hide · p pin · enter apply · esc cancel"))
	return b.String()
}
