package tui

import (
	"strings"
)

// panelKind names the list shown in the overlay panel.
type panelKind int

const (
	panelNone panelKind = iota
	panelBookmarks
	panelHistory
	panelSessions
	panelFeatures
)

var panelTitles = map[panelKind]string{
	panelBookmarks: "Bookmarks",
	panelHistory:   "History",
	panelSessions:  "Sessions",
	panelFeatures:  "Features",
}

var panelHints = map[panelKind]string{
	panelBookmarks: "enter open · d delete · esc close",
	panelHistory:   "enter open · c clear all · esc close",
	panelSessions:  "enter restore · v diff · d delete · esc close",
	panelFeatures:  "enter toggle · esc close",
}

type pickerItem struct {
	label  string
	detail string
}

// Picker is a scrollable list shown centred over the browser.
type Picker struct {
	Kind    panelKind
	Items   []pickerItem
	Cursor  int
	Offset  int
	Loading bool
	Note    string
	Height  int
}

func NewPicker(kind panelKind) Picker {
	return Picker{Kind: kind, Loading: true, Height: 12}
}

func (p *Picker) SetItems(items []pickerItem) {
	p.Items = items
	p.Loading = false
	if p.Cursor >= len(items) {
		p.Cursor = max(0, len(items)-1)
	}
	p.clampOffset()
}

func (p *Picker) MoveUp() {
	if p.Cursor > 0 {
		p.Cursor--
	}
	p.clampOffset()
}

func (p *Picker) MoveDown() {
	if p.Cursor < len(p.Items)-1 {
		p.Cursor++
	}
	p.clampOffset()
}

func (p *Picker) clampOffset() {
	if p.Height <= 0 {
		return
	}
	if p.Cursor < p.Offset {
		p.Offset = p.Cursor
	}
	if p.Cursor >= p.Offset+p.Height {
		p.Offset = p.Cursor - p.Height + 1
	}
}

// Selected returns the index of the highlighted item, or -1.
func (p Picker) Selected() int {
	if p.Cursor >= 0 && p.Cursor < len(p.Items) {
		return p.Cursor
	}
	return -1
}

func (p Picker) View(st styles, width int) string {
	var b strings.Builder
	b.WriteString(st.title.Render(panelTitles[p.Kind]) + "\n\n")

	labelWidth := max(20, width-16)
	switch {
	case p.Loading:
		b.WriteString(st.muted.Render("  loading…") + "\n")
	case len(p.Items) == 0:
		b.WriteString(st.muted.Render("  nothing here yet") + "\n")
	default:
		end := min(len(p.Items), p.Offset+p.Height)
		for i := p.Offset; i < end; i++ {
			it := p.Items[i]
			label := truncate(it.label, labelWidth)
			if i == p.Cursor {
				b.WriteString(st.selected.Render(label) + "\n")
				if it.detail != "" {
					b.WriteString(st.muted.Render("    "+truncate(it.detail, labelWidth)) + "\n")
				}
			} else {
				b.WriteString(st.normal.Render("  "+label) + "\n")
			}
		}
	}
	if p.Note != "" {
		b.WriteString("\n" + st.muted.Render(p.Note) + "\n")
	}
	b.WriteString("\n" + st.normal.Render("↑↓ navigate · "+panelHints[p.Kind]))
	return st.box.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
