package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Open      key.Binding
	Artwork   key.Binding
	Favorite  key.Binding
	FavOnly   key.Binding
	Search    key.Binding
	Filter    key.Binding
	Sort      key.Binding
	Direction key.Binding
	Reset     key.Binding
	Retry     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous Pokemon")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next Pokemon")),
	NextPage:  key.NewBinding(key.WithKeys("n", "right", "l"), key.WithHelp("n/→", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("p", "left", "h"), key.WithHelp("p/←", "previous page")),
	Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show details")),
	Artwork:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open artwork in browser")),
	Favorite:  key.NewBinding(key.WithKeys(" ", "*"), key.WithHelp("space", "toggle favorite")),
	FavOnly:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "show favorites only")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search by name or number")),
	Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "edit filters")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort field")),
	Direction: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "flip sort direction")),
	Reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters and sort")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// helpGroups orders the bindings for the help screen.
func (k keyMap) helpGroups() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{k.Up, k.Down, k.NextPage, k.PrevPage}},
		{"Explore", []key.Binding{k.Search, k.Filter, k.Sort, k.Direction, k.Reset}},
		{"Pokemon", []key.Binding{k.Open, k.Artwork, k.Favorite, k.FavOnly}},
		{"General", []key.Binding{k.Retry, k.Help, k.Quit}},
	}
}
