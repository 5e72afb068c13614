package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/adminpanel/internal/query"
)

func (s *entityScreen[T]) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	bar := s.searchBar(width)
	status := s.statusLine(width)
	body := s.renderTable(width, max(3, height-2))
	return clipHeight(lipgloss.JoinVertical(lipgloss.Left, bar, body, status), height)
}

func (s *entityScreen[T]) searchBar(width int) string {
	if s.searching {
		return s.search.View()
	}
	text := s.ctl.SearchInput()
	if text == "" {
		return mutedStyle.Render(ansi.Truncate("/ search "+strings.ToLower(s.def.title), width, "…"))
	}
	return ansi.Truncate("/ "+text, width, "…")
}

func (s *entityScreen[T]) renderTable(width, height int) string {
	cols := s.ctl.VisibleColumns()
	if len(cols) == 0 {
		return mutedStyle.Render("All columns are hidden. Press c to choose columns.")
	}
	focus, _ := s.focused()
	sorts := map[string]query.Direction{}
	for _, srt := range s.ctl.Sort() {
		sorts[srt.Column] = srt.Direction
	}

	headers := make([]string, 0, len(cols)+1)
	headers = append(headers, " ")
	for _, c := range cols {
		h := c.Label
		switch sorts[c.ID] {
		case query.Asc:
			h += " ▲"
		case query.Desc:
			h += " ▼"
		}
		if _, ok := s.ctl.Filter(c.ID); ok {
			h += " ⚑"
		}
		headers = append(headers, h)
	}

	rows := s.ctl.Rows()
	// Header, its rule and the two outer borders.
	visible := max(1, height-4)
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := min(len(rows), start+visible)

	data := make([][]string, 0, end-start)
	for _, r := range rows[start:end] {
		line := make([]string, 0, len(cols)+1)
		mark := " "
		if s.ctl.IsSelected(r) {
			mark = "●"
		}
		line = append(line, mark)
		for _, c := range cols {
			v := c.Value(r)
			if c.Width > 0 {
				v = ansi.Truncate(v, c.Width, "…")
			}
			line = append(line, strings.ReplaceAll(v, "\n", " "))
		}
		data = append(data, line)
	}
	if len(data) == 0 {
		msg := "No results"
		if s.ctl.Loading() {
			msg = "Loading…"
		}
		line := make([]string, len(cols)+1)
		line[1] = msg
		data = append(data, line)
	}

	cursorRow := s.cursor - start
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Width(width).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow && col > 0 && cols[col-1].ID == focus.ID:
				return focusedHeader
			case row == ltable.HeaderRow:
				return headerCell
			case row == cursorRow && len(rows) > 0:
				return cursorStyle.Padding(0, 1)
			case col == 0:
				return selectedStyle.Padding(0, 1)
			}
			return cell
		})
	return t.Render()
}

func (s *entityScreen[T]) statusLine(width int) string {
	page := s.ctl.Page()
	parts := []string{fmt.Sprintf("page %d/%d", page.Index+1, max(1, s.ctl.PageCount()))}
	if meta := s.ctl.Meta(); meta != nil {
		parts = append(parts, fmt.Sprintf("%d items", meta.TotalItems))
	}
	parts = append(parts, fmt.Sprintf("%d/page", page.Size))
	if srt := s.ctl.Sort(); len(srt) > 0 {
		parts = append(parts, "sort "+query.EncodeSort(srt))
	}
	p := s.ctl.Params()
	var filters []string
	for _, c := range s.ctl.Columns() {
		if v, ok := p[c.ID]; ok {
			filters = append(filters, c.ID+"="+v)
		}
	}
	if len(filters) > 0 {
		parts = append(parts, "filters "+strings.Join(filters, " "))
	}
	if n := len(s.ctl.Selected()); n > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	line := strings.Join(parts, " · ")
	if s.ctl.Loading() {
		line = s.spin.View() + " " + line
	}
	if err := s.ctl.Err(); err != nil {
		line += "  " + errorStyle.Render("last load failed: "+err.Error())
	}
	return ansi.Truncate(line, width, "…")
}

func clipHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
