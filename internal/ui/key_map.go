package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	nextPage  key.Binding
	prevPage  key.Binding
	toggle    key.Binding
	remove    key.Binding
	sel       key.Binding
	selPage   key.Binding
	bulkSeen  key.Binding
	bulkUnsee key.Binding
	bulkDrop  key.Binding
	search    key.Binding
	hideSeen  key.Binding
	sort      key.Binding
	pageSize  key.Binding
	clear     key.Binding
	genre     key.Binding
	kind      key.Binding
	decade    key.Binding
	rating    key.Binding
	release   key.Binding
	recent    key.Binding
	ask       key.Binding
	enrich    key.Binding
	reload    key.Binding
	submit    key.Binding
	back      key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		nextPage:  key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page")),
		prevPage:  key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page")),
		toggle:    key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "toggle seen")),
		remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		sel:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		selPage:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "select page")),
		bulkSeen:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "mark selected seen")),
		bulkUnsee: key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "mark selected unseen")),
		bulkDrop:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove selected")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		hideSeen:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "hide seen")),
		sort:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		pageSize:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
		clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		genre:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		kind:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "type")),
		decade:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "decade")),
		rating:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "min rating")),
		release:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "released")),
		recent:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "recently added")),
		ask:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ask")),
		enrich:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enrich")),
		reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.sel, k.search, k.sort, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.nextPage, k.prevPage},
		{k.toggle, k.remove, k.sel, k.selPage},
		{k.bulkSeen, k.bulkUnsee, k.bulkDrop},
		{k.search, k.hideSeen, k.sort, k.pageSize, k.clear},
		{k.genre, k.kind, k.decade, k.rating, k.release, k.recent},
		{k.ask, k.enrich, k.reload, k.quit},
	}
}
