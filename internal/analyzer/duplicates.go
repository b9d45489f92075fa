package analyzer

import (
	"net/url"
	"sort"
	"strings"
)

// NormalizeURL drops the fragment, sorts query parameters and trims a
// trailing slash so equivalent URLs compare equal.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	params := u.Query()
	for k := range params {
		sort.Strings(params[k])
	}
	u.RawQuery = params.Encode()
	result := u.String()
	if strings.HasSuffix(result, "/") && result != u.Scheme+"://"+u.Host+"/" {
		result = strings.TrimRight(result, "/")
	}
	return result
}

// Duplicates groups the indices of urls that normalize to the same URL.
// Only groups of two or more are returned, ordered by their first index.
func Duplicates(urls []string) [][]int {
	groups := make(map[string][]int)
	var order []string
	for i, u := range urls {
		n := NormalizeURL(u)
		if _, seen := groups[n]; !seen {
			order = append(order, n)
		}
		groups[n] = append(groups[n], i)
	}

	var out [][]int
	for _, n := range order {
		if len(groups[n]) > 1 {
			out = append(out, groups[n])
		}
	}
	return out
}

// Dedupe returns the indices of urls to keep: the first of every group of
// equivalent URLs.
func Dedupe(urls []string) []int {
	seen := make(map[string]bool, len(urls))
	var keep []int
	for i, u := range urls {
		n := NormalizeURL(u)
		if seen[n] {
			continue
		}
		seen[n] = true
		keep = append(keep, i)
	}
	return keep
}
