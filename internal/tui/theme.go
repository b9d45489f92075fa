package tui

import (
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/brisk/internal/types"
)

type palette struct {
	accent lipgloss.Color
	text   lipgloss.Color
	muted  lipgloss.Color
	bar    lipgloss.Color
	danger lipgloss.Color
}

var palettes = map[string]palette{
	"white-gold": {accent: "178", text: "255", muted: "245", bar: "236", danger: "203"},
	"tech-dark":  {accent: "45", text: "252", muted: "240", bar: "234", danger: "197"},
	"ocean":      {accent: "39", text: "195", muted: "67", bar: "17", danger: "210"},
	"forest":     {accent: "71", text: "194", muted: "65", bar: "22", danger: "209"},
}

type styles struct {
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	address     lipgloss.Style
	status      lipgloss.Style
	muted       lipgloss.Style
	accent      lipgloss.Style
	errorToast  lipgloss.Style
	infoToast   lipgloss.Style
	box         lipgloss.Style
	selected    lipgloss.Style
	normal      lipgloss.Style
	title       lipgloss.Style
}

func newStyles(theme string) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[types.DefaultTheme]
	}
	return styles{
		activeTab:   lipgloss.NewStyle().Bold(true).Foreground(p.accent).Underline(true).Padding(0, 1),
		inactiveTab: lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1),
		address: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		status:     lipgloss.NewStyle().Foreground(p.text).Background(p.bar).Padding(0, 1),
		muted:      lipgloss.NewStyle().Foreground(p.muted),
		accent:     lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		errorToast: lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		infoToast:  lipgloss.NewStyle().Foreground(p.accent),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(1, 2),
		selected: lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1),
		normal:   lipgloss.NewStyle().Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).Padding(0, 1),
	}
}

// nextTheme returns the theme after current, wrapping around.
func nextTheme(current string) string {
	i := slices.Index(types.Themes, current)
	return types.Themes[(i+1)%len(types.Themes)]
}
