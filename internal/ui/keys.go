package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Down     key.Binding
	Up       key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Accept   key.Binding
	Favorite key.Binding
	Share    key.Binding
	Announce key.Binding
	Delete   key.Binding
	Shares   key.Binding
	Detail   key.Binding
	Home     key.Binding
	Mentions key.Binding
	Company  key.Binding
	Command  key.Binding
	Reload   key.Binding
	Help     key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
	Up:       key.NewBinding(key.WithKeys("k", "up")),
	Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Accept:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "show new")),
	Favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
	Share:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
	Announce: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "announce")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Shares:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "who shared")),
	Detail:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
	Home:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
	Mentions: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "mentions")),
	Company:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "company")),
	Command:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "go to feed")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Escape:   key.NewBinding(key.WithKeys("esc")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Accept, k.Favorite, k.Detail, k.Command, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Top, k.Bottom, k.Accept, k.Reload},
		{k.Favorite, k.Share, k.Announce, k.Delete, k.Shares, k.Detail},
		{k.Home, k.Mentions, k.Company, k.Command, k.Help, k.Quit},
	}
}
