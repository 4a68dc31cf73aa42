package docpicker

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for each popup action. Any key not bound
// here is fed to the input line.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	activate key.Binding
	commit   key.Binding
	confirm  key.Binding
	cancel   key.Binding
}

var keys = keyMap{
	up:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑/ctrl+p", "previous suggestion")),
	down:     key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓/ctrl+n", "next suggestion")),
	activate: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "open directory / choose file")),
	commit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use typed path")),
	confirm:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "OK")),
	cancel:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "close")),
}

// help lists the bindings in the order they appear under the popup.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.activate, k.commit, k.confirm, k.cancel}
}
