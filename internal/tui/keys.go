package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	UploadTab key.Binding
	History   key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	Open      key.Binding
	Back      key.Binding
	Refresh   key.Binding
	SortID    key.Binding
	SortName  key.Binding
	SortTime  key.Binding
	SortState key.Binding
	NextNode  key.Binding
	PrevNode  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		UploadTab: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "upload")),
		History:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "history")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/clear")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "prev page")),
		NextPage:  key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next page")),
		FirstPage: key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		LastPage:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		SortID:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "sort column")),
		SortName:  key.NewBinding(key.WithKeys("2")),
		SortTime:  key.NewBinding(key.WithKeys("3")),
		SortState: key.NewBinding(key.WithKeys("4")),
		NextNode:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next host")),
		PrevNode:  key.NewBinding(key.WithKeys("shift+tab")),
	}
}

func (k keyMap) uploadHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.NextNode, k.History, k.Quit}
}

func (k keyMap) historyHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.SortID, k.Open, k.Refresh, k.UploadTab, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Back, k.NextNode, k.Refresh, k.UploadTab, k.Quit}
}
