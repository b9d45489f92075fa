package session

import (
	"fmt"
	"strings"

	"github.com/lotas/brisk/internal/types"
)

// DiffResult compares a saved session against the open tabs by URL.
type DiffResult struct {
	SessionName string
	Added       []types.SessionTab // open now, not in the session
	Removed     []types.SessionTab // in the session, not open now
}

// Empty reports whether the session matches the open tabs.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares saved against live. Order follows the input order.
func Diff(saved types.Session, live []types.Tab) DiffResult {
	savedURLs := make(map[string]bool, len(saved.Tabs))
	for _, t := range saved.Tabs {
		savedURLs[t.URL] = true
	}
	liveURLs := make(map[string]bool, len(live))
	for _, t := range live {
		liveURLs[t.URL] = true
	}

	result := DiffResult{SessionName: saved.Name}
	seen := make(map[string]bool)
	for _, t := range live {
		if !savedURLs[t.URL] && !seen[t.URL] {
			seen[t.URL] = true
			result.Added = append(result.Added, types.SessionTab{URL: t.URL, Title: t.Title})
		}
	}
	for _, t := range saved.Tabs {
		if !liveURLs[t.URL] && !seen[t.URL] {
			seen[t.URL] = true
			result.Removed = append(result.Removed, t)
		}
	}
	return result
}

// Summary is a short "+N -M" form of the diff.
func (d DiffResult) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("+%d -%d", len(d.Added), len(d.Removed))
}

// Format renders the diff for the terminal.
func (d DiffResult) Format() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Diff against session %q\n", d.SessionName)
	fmt.Fprintf(&sb, "Added: %d  Removed: %d\n", len(d.Added), len(d.Removed))

	if len(d.Added) > 0 {
		sb.WriteString("\n+ Added:\n")
		for _, e := range d.Added {
			fmt.Fprintf(&sb, "  + %s\n", e.URL)
		}
	}
	if len(d.Removed) > 0 {
		sb.WriteString("\n- Removed:\n")
		for _, e := range d.Removed {
			fmt.Fprintf(&sb, "  - %s\n", e.URL)
		}
	}
	if d.Empty() {
		sb.WriteString("\nNo changes.\n")
	}
	return sb.String()
}
