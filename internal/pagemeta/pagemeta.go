// Package pagemeta fetches a page and extracts its title.
package pagemeta

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/lotas/brisk/internal/resolve"
	"github.com/lotas/brisk/internal/types"
)

const excerptLen = 200

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is what gets extracted from a fetched document.
type Page struct {
	Title   string
	Excerpt string
	Favicon string
}

// Fetcher downloads pages over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL and extracts its readable metadata. Only http and
// https URLs are fetched.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, fmt.Errorf("fetch %q: %w", rawURL, types.ErrInvalidURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %v: %w", rawURL, err, types.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Page{}, fmt.Errorf("fetch %s: HTTP %d: %w", rawURL, resp.StatusCode, types.ErrUnavailable)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return Page{}, fmt.Errorf("extract content from %s: %w", rawURL, err)
	}

	p := Page{
		Title:   strings.TrimSpace(article.Title),
		Excerpt: excerpt(article.TextContent, excerptLen),
	}
	p.Favicon, _ = resolve.FaviconURL(rawURL)
	return p, nil
}

// excerpt returns the first n runes of text with whitespace collapsed.
func excerpt(text string, n int) string {
	r := []rune(strings.Join(strings.Fields(text), " "))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// Title returns the page title of rawURL, falling back to the hostname
// display when the page cannot be fetched or has no title.
func (f *Fetcher) Title(ctx context.Context, rawURL string) string {
	p, err := f.Fetch(ctx, rawURL)
	if err != nil || p.Title == "" {
		return resolve.Title(rawURL)
	}
	return p.Title
}
