package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/headlines/internal/config"
)

// keyMap holds every binding the shell reacts to. Actions that would clash
// with typing take the configured modifier.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Enter     key.Binding
	NextRoute key.Binding
	PrevRoute key.Binding
	JumpRoute key.Binding
	Open      key.Binding
	OpenImage key.Binding
	Bookmark  key.Binding
	Saved     key.Binding
	Search    key.Binding
	Retry     key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func modified(modifier, k string) string {
	modifier = strings.TrimSuffix(strings.TrimSpace(modifier), "+")
	if modifier == "" {
		return k
	}
	return modifier + "+" + k
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	b := cfg.Bindings
	saved := modified(cfg.Modifier, b.Saved)
	search := modified(cfg.Modifier, b.Search)
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "read"),
		),
		NextRoute: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "next category"),
		),
		PrevRoute: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab", "prev category"),
		),
		JumpRoute: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "category"),
		),
		Open: key.NewBinding(
			key.WithKeys(b.Open),
			key.WithHelp(b.Open, "open link"),
		),
		OpenImage: key.NewBinding(
			key.WithKeys(b.OpenImage),
			key.WithHelp(b.OpenImage, "open image"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys(b.Bookmark),
			key.WithHelp(b.Bookmark, "bookmark"),
		),
		Saved: key.NewBinding(
			key.WithKeys(saved),
			key.WithHelp(saved, "saved"),
		),
		Search: key.NewBinding(
			key.WithKeys(search),
			key.WithHelp(search, "search"),
		),
		Retry: key.NewBinding(
			key.WithKeys(b.Retry),
			key.WithHelp(b.Retry, "retry"),
		),
		Back: key.NewBinding(
			key.WithKeys(b.Back),
			key.WithHelp(b.Back, "back"),
		),
		Help: key.NewBinding(
			key.WithKeys(b.Help),
			key.WithHelp(b.Help, "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys(b.Quit, "ctrl+c"),
			key.WithHelp(b.Quit, "quit"),
		),
	}
}

// ShortHelp satisfies help.KeyMap for the feed view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextRoute, k.Enter, k.Open, k.Bookmark, k.Saved, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.NextRoute, k.PrevRoute, k.JumpRoute, k.Retry},
		{k.Enter, k.Open, k.OpenImage, k.Bookmark},
		{k.Saved, k.Search, k.Back, k.Help, k.Quit},
	}
}
