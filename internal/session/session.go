// Package session captures the tab strip as a named session and restores it.
package session

import (
	"fmt"
	"strings"

	"github.com/lotas/brisk/internal/tabs"
	"github.com/lotas/brisk/internal/types"
)

// Capture snapshots the store's (url, title) pairs in display order.
// Loading state and tab ids are not kept.
func Capture(store *tabs.Store, name string) (types.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Session{}, fmt.Errorf("session name is empty: %w", types.ErrValidation)
	}
	live := store.Tabs()
	out := types.Session{Name: name, Tabs: make([]types.SessionTab, 0, len(live))}
	for _, t := range live {
		out.Tabs = append(out.Tabs, types.SessionTab{URL: t.URL, Title: t.Title})
	}
	return out, nil
}

// Restore replaces every open tab with fresh tabs built from s. The first
// restored tab becomes active; an empty session leaves one default tab.
func Restore(store *tabs.Store, s types.Session) []types.Tab {
	return store.Replace(s.Tabs)
}
