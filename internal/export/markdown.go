package export

import (
	"fmt"
	"strings"
	"time"
)

// Markdown formats d as a markdown document.
func Markdown(d Data, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Brisk — %s\n", d.User)
	fmt.Fprintf(&b, "> Exported %s\n", now.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "\n## Bookmarks (%d)\n\n", len(d.Bookmarks))
	for _, bm := range d.Bookmarks {
		fmt.Fprintf(&b, "- %s — %s\n", link(bm.Title, bm.URL), relativeTime(bm.CreatedAt, now))
	}

	fmt.Fprintf(&b, "\n## History (%d)\n\n", len(d.History))
	for _, h := range d.History {
		fmt.Fprintf(&b, "- %s — %s\n", link(h.Title, h.URL), relativeTime(h.VisitTime, now))
	}

	for _, s := range d.Sessions {
		n := len(s.Tabs)
		fmt.Fprintf(&b, "\n## Session: %s (%d %s)\n\n", s.Name, n, plural(n, "tab", "tabs"))
		for _, t := range s.Tabs {
			fmt.Fprintf(&b, "- %s\n", link(t.Title, t.URL))
		}
	}

	return b.String()
}

func link(title, url string) string {
	if title == "" {
		title = url
	}
	title = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(title)
	return fmt.Sprintf("[%s](%s)", title, url)
}
