package modal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#89b4fa")).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true)
	closeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

// width is the text width inside the frame for a screen of the given width.
func (s Size) width(screen int) int {
	w := 56
	switch s {
	case Small:
		w = 40
	case Large:
		w = 84
	case Full:
		w = screen
	}
	if limit := screen - 6; w > limit {
		w = limit
	}
	if w < 10 {
		w = 10
	}
	return w
}

// View composites the open modal over base, centred in a width x height
// canvas. With no modal open it returns base unchanged.
func (o *Orchestrator) View(base string, width, height int) string {
	if !o.open || o.content == nil {
		return base
	}
	if width <= 0 {
		width = o.width
	}
	if height <= 0 {
		height = o.height
	}
	if width <= 0 || height <= 0 {
		return base
	}
	inner := o.opts.Size.width(width)
	var head string
	if o.opts.Title != "" || o.opts.ShowCloseButton {
		title := titleStyle.Render(ansi.Truncate(o.opts.Title, inner-6, "…"))
		if o.opts.ShowCloseButton {
			x := closeStyle.Render("esc ✕")
			gap := inner - ansi.StringWidth(title) - ansi.StringWidth(x)
			if gap < 1 {
				gap = 1
			}
			title += strings.Repeat(" ", gap) + x
		}
		head = title + "\n\n"
	}
	// Width counts padding, so the text wraps at inner.
	card := frameStyle.Width(inner + 4).Render(head + o.content.View(inner))
	return overlayCentered(base, card, width, height)
}

func overlayCentered(base, card string, width, height int) string {
	canvas := splitLines(base, height)
	lines := strings.Split(card, "\n")
	cardWidth := 0
	for _, l := range lines {
		if w := ansi.StringWidth(l); w > cardWidth {
			cardWidth = w
		}
	}
	x := max((width-cardWidth)/2, 0)
	y := max((height-len(lines))/2, 0)
	for i, line := range lines {
		row := y + i
		if row >= height {
			break
		}
		target := padRight(canvas[row], width)
		left := padRight(ansi.Truncate(target, x, ""), x)
		mid := padRight(line, cardWidth)
		right := dropColumns(target, x+cardWidth)
		canvas[row] = ansi.Truncate(left+mid+right, width, "")
	}
	return strings.Join(canvas, "\n")
}

func splitLines(s string, height int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return strings.TrimPrefix(s, ansi.Truncate(s, cols, ""))
}

func padRight(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
