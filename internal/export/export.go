// Package export renders a user's bookmarks, history and sessions as
// markdown or JSON.
package export

import (
	"fmt"
	"net/url"
	"time"

	"github.com/lotas/brisk/internal/types"
)

// Data is everything exported for one user.
type Data struct {
	User      string
	Bookmarks []types.Bookmark
	History   []types.HistoryEntry
	Sessions  []types.Session
}

// Format selects the output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown", "md" and "json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q: %w", s, types.ErrValidation)
}

// Render encodes d in format f as of now.
func Render(d Data, f Format, now time.Time) (string, error) {
	if f == FormatJSON {
		return JSON(d, now)
	}
	return Markdown(d, now), nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
