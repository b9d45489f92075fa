package export

import (
	"encoding/json"
	"time"
)

type jsonExport struct {
	User       string        `json:"user"`
	ExportedAt time.Time     `json:"exported_at"`
	Bookmarks  []jsonLink    `json:"bookmarks"`
	History    []jsonLink    `json:"history"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonLink struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Domain   string    `json:"domain"`
	At       time.Time `json:"at"`
	AtPretty string    `json:"at_pretty"`
}

type jsonSession struct {
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Tabs      []jsonTab  `json:"tabs"`
}

type jsonTab struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// JSON formats d as an indented JSON document.
func JSON(d Data, now time.Time) (string, error) {
	out := jsonExport{
		User:       d.User,
		ExportedAt: now,
		Bookmarks:  make([]jsonLink, 0, len(d.Bookmarks)),
		History:    make([]jsonLink, 0, len(d.History)),
		Sessions:   make([]jsonSession, 0, len(d.Sessions)),
	}
	for _, b := range d.Bookmarks {
		out.Bookmarks = append(out.Bookmarks, newLink(b.Title, b.URL, b.CreatedAt, now))
	}
	for _, h := range d.History {
		out.History = append(out.History, newLink(h.Title, h.URL, h.VisitTime, now))
	}
	for _, s := range d.Sessions {
		js := jsonSession{Name: s.Name, CreatedAt: s.CreatedAt, Tabs: make([]jsonTab, 0, len(s.Tabs))}
		for _, t := range s.Tabs {
			js.Tabs = append(js.Tabs, jsonTab{Title: t.Title, URL: t.URL, Domain: extractDomain(t.URL)})
		}
		out.Sessions = append(out.Sessions, js)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func newLink(title, url string, at, now time.Time) jsonLink {
	return jsonLink{
		Title:    title,
		URL:      url,
		Domain:   extractDomain(url),
		At:       at,
		AtPretty: relativeTime(at, now),
	}
}
