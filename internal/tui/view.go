package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/brisk/internal/config"
	"github.com/lotas/brisk/internal/resolve"
)

const tabLabelWidth = 18

func (m Model) renderTabStrip() string {
	active := m.store.ActiveID()
	var parts []string
	for i, t := range m.store.Tabs() {
		label := truncate(t.Title, tabLabelWidth)
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, label)
		}
		if t.Loading {
			label = m.spinner.View() + " " + label
		}
		if t.ID == active {
			parts = append(parts, m.st.activeTab.Render(label))
		} else {
			parts = append(parts, m.st.inactiveTab.Render(label))
		}
	}
	sep := m.st.muted.Render("│")
	// Drop tabs from the left until the active one fits.
	start, ai := 0, m.store.Index(active)
	for m.width > 0 && start < ai && lipgloss.Width(strings.Join(parts[start:], sep)) > m.width {
		start++
	}
	return strings.Join(parts[start:], sep)
}

func (m Model) renderAddressBar() string {
	tab := m.store.Active()
	back, fwd := m.st.muted.Render("◀"), m.st.muted.Render("▶")
	if tab.CanGoBack {
		back = m.st.accent.Render("◀")
	}
	if tab.CanGoForward {
		fwd = m.st.accent.Render("▶")
	}
	star := "☆"
	if m.bookmarked(tab.URL) {
		star = m.st.accent.Render("★")
	}

	var field string
	if m.editing {
		field = m.address.View()
	} else {
		field = tab.URL
	}
	inner := fmt.Sprintf("%s %s  %s  %s", back, fwd, field, star)
	width := max(20, m.width-2)
	return m.st.address.Width(width).Render(inner)
}

func (m Model) renderPage() string {
	tab := m.store.Active()
	host := resolve.Title(tab.URL)
	state := m.st.muted.Render("loaded")
	if tab.Loading {
		state = m.spinner.View() + " loading…"
	}
	body := m.st.title.Render(tab.Title) + "\n\n" +
		m.st.normal.Render(tab.URL) + "\n" +
		m.st.muted.Render("  "+host+" · ") + state
	return m.st.box.Render(body)
}

func (m Model) renderStatus() string {
	user := "guest"
	if m.user != "" {
		user = m.user
	}
	segs := []string{user, m.theme}
	if m.features.Contains(config.FeaturePomodoro) {
		segs = append(segs, m.pomodoro.View())
	}
	if m.features.Contains(config.FeatureMetrics) {
		segs = append(segs, m.metrics.View(m.store.Len()))
	}
	left := m.st.status.Render(strings.Join(segs, " · "))

	var right string
	if m.toast != nil {
		if m.toast.isError {
			right = m.st.errorToast.Render(m.toast.text)
		} else {
			right = m.st.infoToast.Render(m.toast.text)
		}
	}
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) helpLine() string {
	switch {
	case m.showModal:
		return ""
	case m.editing:
		return "enter go · esc cancel · /yt video search · /wiki article"
	case m.showPanel:
		return ""
	}
	return "o open · e edit · t new · x close · tab switch · H/L back/fwd · r reload · g home · " +
		"b bookmark · B bookmarks · h history · s save · S sessions · c copy · T theme · F features · u login · q quit"
}

func (m Model) View() string {
	strip := m.renderTabStrip()
	addr := m.renderAddressBar()
	status := m.renderStatus()
	help := m.st.muted.Render(truncate(m.helpLine(), max(10, m.width)))

	bodyHeight := max(1, m.height-lipgloss.Height(strip)-lipgloss.Height(addr)-2)
	var content string
	switch {
	case m.showModal:
		content = m.modal.View(m.st)
	case m.showPanel:
		content = m.panel.View(m.st, min(m.width, 100))
	default:
		content = m.renderPage()
	}
	body := lipgloss.Place(max(1, m.width), bodyHeight, lipgloss.Center, lipgloss.Center, content)

	return lipgloss.JoinVertical(lipgloss.Left, strip, addr, body, status, help)
}
