// Package resolve turns address-bar text into fully-qualified URLs.
package resolve

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lotas/brisk/internal/types"
	"golang.org/x/net/idna"
)

const (
	// HomeURL is where new tabs point.
	HomeURL = "https://www.google.com"

	searchURL = "https://www.google.com/search?q="
	videoURL  = "https://www.youtube.com/results?search_query="
	wikiURL   = "https://en.wikipedia.org/wiki/"

	videoPrefix = "/yt "
	wikiPrefix  = "/wiki "
)

// Schemes that never get navigated to even though they carry no "//".
var opaqueSchemes = []string{"about:", "chrome:", "data:", "file:", "ftp:", "javascript:", "mailto:", "tel:"}

// Resolve maps raw input to a URL. It never fails: anything it cannot
// recognise becomes a search.
//
// Rules, first match wins:
//
//	"/yt <q>"      video search for q
//	"/wiki <t>"    encyclopedia article t
//	http(s)://...  unchanged
//	other scheme   search (only http and https are navigable)
//	has a "."      https:// prefixed, unless it contains whitespace
//	anything else  search
func Resolve(input string) string {
	in := strings.TrimSpace(input)

	switch {
	case strings.HasPrefix(in, videoPrefix):
		return videoURL + Encode(strings.TrimPrefix(in, videoPrefix))
	case strings.HasPrefix(in, wikiPrefix):
		return wikiURL + Encode(strings.TrimPrefix(in, wikiPrefix))
	case hasWebScheme(in):
		return in
	case hasOtherScheme(in):
		return searchURL + Encode(in)
	case strings.Contains(in, ".") && !strings.ContainsAny(in, " \t\n"):
		return "https://" + in
	}
	return searchURL + Encode(in)
}

// Encode percent-encodes s for use as a URL component. Spaces become %20.
func Encode(s string) string {
	// QueryEscape escapes a literal '+' as %2B, so every '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func hasWebScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func hasOtherScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range opaqueSchemes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, c := range s[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// Hostname returns the host of an absolute URL, without port.
func Hostname(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q is not absolute", types.ErrInvalidURL, raw)
	}
	return u.Hostname(), nil
}

// Title derives a display title from a URL: the unicode hostname with any
// leading "www." removed. Unparseable URLs are returned unchanged.
func Title(raw string) string {
	host, err := Hostname(raw)
	if err != nil {
		return raw
	}
	if uni, err := idna.Display.ToUnicode(host); err == nil {
		host = uni
	}
	return strings.TrimPrefix(host, "www.")
}

// FaviconURL returns the conventional favicon location for a page.
func FaviconURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidURL, raw)
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico", nil
}
