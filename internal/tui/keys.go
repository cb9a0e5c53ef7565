package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings shown in the footer. Only Quit, Help, Add and
// Reload are handled by the app itself; the rest are forwarded to the interaction
// machine, which owns their behavior.
type keyMap struct {
	Play   key.Binding
	Nudge  key.Binding
	Split  key.Binding
	Join   key.Binding
	Dup    key.Binding
	Remove key.Binding
	Mute   key.Binding
	Lock   key.Binding
	Undo   key.Binding
	Redo   key.Binding
	Zoom   key.Binding
	Fit    key.Binding
	Ends   key.Binding
	Snap   key.Binding
	Add    key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Play:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Nudge:  key.NewBinding(key.WithKeys("left", "right", "shift+left", "shift+right"), key.WithHelp("←/→", "nudge")),
		Split:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split")),
		Join:   key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "join")),
		Dup:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duplicate")),
		Remove: key.NewBinding(key.WithKeys("x", "delete", "backspace"), key.WithHelp("x", "remove")),
		Mute:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute track")),
		Lock:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock track")),
		Undo:   key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Redo:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "redo")),
		Zoom:   key.NewBinding(key.WithKeys("+", "=", "-"), key.WithHelp("+/-", "zoom")),
		Fit:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		Ends:   key.NewBinding(key.WithKeys("home", "end"), key.WithHelp("home/end", "jump")),
		Snap:   key.NewBinding(key.WithKeys("alt"), key.WithHelp("alt+drag", "no snap")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add resource")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Split, k.Remove, k.Undo, k.Zoom, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Ends, k.Zoom, k.Fit},
		{k.Nudge, k.Split, k.Join, k.Dup, k.Remove},
		{k.Add, k.Mute, k.Lock, k.Undo, k.Redo},
		{k.Snap, k.Reload, k.Help, k.Quit},
	}
}
