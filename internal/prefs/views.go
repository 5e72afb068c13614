package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const viewsFile = "views.json"

// Dir overrides the directory prefs live in. Empty means
// <user config dir>/adminpanel.
var Dir string

// View is a saved view link for one screen: the screen name plus the query
// string a table was mirrored into, e.g. "status=paid&page=2".
type View struct {
	Screen string `json:"screen"`
	Query  string `json:"query"`
}

// Link renders the view as "screen?query".
func (v View) Link() string {
	if v.Query == "" {
		return v.Screen
	}
	return v.Screen + "?" + v.Query
}

// ParseLink splits "screen?query" into a View.
func ParseLink(link string) View {
	screen, q, _ := strings.Cut(strings.TrimSpace(link), "?")
	return View{Screen: strings.TrimSpace(strings.ToLower(screen)), Query: q}
}

func viewsPath() (string, error) {
	dir := Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "adminpanel")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, viewsFile), nil
}

// SaveView records the last view of a screen, replacing any earlier one.
func SaveView(v View) error {
	views, err := LoadViews()
	if err != nil {
		return err
	}
	views[v.Screen] = v
	return saveViews(views)
}

func saveViews(views map[string]View) error {
	path, err := viewsPath()
	if err != nil {
		return err
	}
	list := make([]View, 0, len(views))
	for _, v := range views {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Screen < list[j].Screen })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadViews returns the saved views keyed by screen. A missing file is empty.
func LoadViews() (map[string]View, error) {
	path, err := viewsPath()
	if err != nil {
		return nil, err
	}
	out := map[string]View{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	var list []View
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for _, v := range list {
		out[v.Screen] = v
	}
	return out, nil
}
