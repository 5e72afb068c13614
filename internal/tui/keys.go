package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Help      key.Binding
	Up        key.Binding
	Down      key.Binding
	Search    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Grow      key.Binding
	Shrink    key.Binding
	Sort      key.Binding
	ColLeft   key.Binding
	ColRight  key.Binding
	Filter    key.Binding
	Clear     key.Binding
	Columns   key.Binding
	Refetch   key.Binding
	Detail    key.Binding
	Select    key.Binding
	SelectAll key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextPage:  key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev page")),
		Grow:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more rows")),
		Shrink:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer rows")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		ColLeft:   key.NewBinding(key.WithKeys("<", "h"), key.WithHelp("<", "col left")),
		ColRight:  key.NewBinding(key.WithKeys(">", "l"), key.WithHelp(">", "col right")),
		Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		Columns:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "columns")),
		Refetch:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Detail:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select page")),
	}
}

// ShortHelp and FullHelp make keyMap a help.KeyMap for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.Sort, k.PrevPage, k.NextPage, k.Detail, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Detail, k.Select, k.SelectAll},
		{k.Search, k.Filter, k.Clear, k.Sort, k.ColLeft, k.ColRight},
		{k.PrevPage, k.NextPage, k.Grow, k.Shrink, k.Columns, k.Refetch},
		{k.NextTab, k.PrevTab, k.Help, k.Quit},
	}
}
