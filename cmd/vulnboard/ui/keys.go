package ui

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys apply on every screen.
type GlobalKeys struct {
	Quit key.Binding
	Help key.Binding
}

func newGlobalKeys() GlobalKeys {
	return GlobalKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// DashboardKeys are the bindings of the priority action dashboard.
type DashboardKeys struct {
	GlobalKeys
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	Confirm     key.Binding
	TakeAction  key.Binding
	Escape      key.Binding
	ToggleAI    key.Binding
	CloseAlert  key.Binding
	Dismiss     key.Binding
	ScrollPanel key.Binding
}

// NewDashboardKeys returns the default dashboard bindings.
func NewDashboardKeys() DashboardKeys {
	return DashboardKeys{
		GlobalKeys: newGlobalKeys(),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		TakeAction: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "take action"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		ToggleAI: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "assistant"),
		),
		CloseAlert: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss alert"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "dismiss notice"),
		),
		ScrollPanel: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
			key.WithHelp("pgup/pgdn", "scroll details"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k DashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.TakeAction, k.ToggleAI, k.Escape, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k DashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.TakeAction},
		{k.Confirm, k.Escape, k.ScrollPanel},
		{k.ToggleAI, k.CloseAlert, k.Dismiss},
		{k.Help, k.Quit},
	}
}

// WizardKeys are the bindings of the assessment wizard.
type WizardKeys struct {
	GlobalKeys
	Next    key.Binding
	Back    key.Binding
	Escape  key.Binding
	Restart key.Binding
	Dismiss key.Binding
	Scroll  key.Binding
}

// NewWizardKeys returns the default wizard bindings.
func NewWizardKeys() WizardKeys {
	return WizardKeys{
		GlobalKeys: newGlobalKeys(),
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "backspace"),
			key.WithHelp("b", "back"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new assessment"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "dismiss notice"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k WizardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Escape, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k WizardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Escape},
		{k.Restart, k.Dismiss, k.Scroll},
		{k.Help, k.Quit},
	}
}
