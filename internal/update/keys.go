package update

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the player bindings.
type KeyMap struct {
	Toggle     key.Binding
	Prev       key.Binding
	Next       key.Binding
	Reset      key.Binding
	Slower     key.Binding
	Faster     key.Binding
	Diff       key.Binding
	Latent     key.Binding
	Graph      key.Binding
	Panels     key.Binding
	DiffDown   key.Binding
	DiffUp     key.Binding
	LatentDown key.Binding
	LatentUp   key.Binding
	Compare    key.Binding
	Secondary  key.Binding
	Theme      key.Binding
	Mode       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var Keys = KeyMap{
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
	Prev:       key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev step")),
	Next:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next step")),
	Reset:      key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("home", "reset")),
	Slower:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "slower")),
	Faster:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "faster")),
	Diff:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "pixel diff")),
	Latent:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "latent proxy")),
	Graph:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "graph")),
	Panels:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panels")),
	DiffDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-/=", "diff gamma")),
	DiffUp:     key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("=", "diff gamma +")),
	LatentDown: key.NewBinding(key.WithKeys(","), key.WithHelp(",/.", "latent gamma")),
	LatentUp:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "latent gamma +")),
	Compare:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compare")),
	Secondary:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next comparison")),
	Theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Prev, k.Next, k.Diff, k.Latent, k.Compare, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Prev, k.Next, k.Reset, k.Slower, k.Faster},
		{k.Diff, k.Latent, k.Graph, k.Panels},
		{k.DiffDown, k.DiffUp, k.LatentDown, k.LatentUp},
		{k.Compare, k.Secondary, k.Theme, k.Mode, k.Help, k.Quit},
	}
}
