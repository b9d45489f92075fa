// Package analyzer checks saved links for dead pages and duplicates.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lotas/brisk/internal/applog"
)

// LinkResult is the outcome of checking one URL.
type LinkResult struct {
	Index  int
	URL    string
	Dead   bool
	Reason string
}

// maxParallel bounds concurrent requests.
const maxParallel = 10

var skipPrefixes = []string{"about:", "chrome:", "data:", "file:", "javascript:"}

func shouldSkip(url string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// NewClient returns the HTTP client CheckLinks uses by default.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// CheckLinks sends a HEAD request to every URL and returns one result per
// checked URL, in input order. A page is dead when it is unreachable or
// answers 404 or 410. Non-web URLs are skipped.
func CheckLinks(ctx context.Context, client *http.Client, urls []string) []LinkResult {
	if client == nil {
		client = NewClient(5 * time.Second)
	}

	results := make([]*LinkResult, len(urls))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, u := range urls {
		if shouldSkip(u) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			r := check(ctx, client, u)
			r.Index = i
			results[i] = &r
		}()
	}
	wg.Wait()

	out := make([]LinkResult, 0, len(urls))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func check(ctx context.Context, client *http.Client, url string) LinkResult {
	result := LinkResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		result.Dead = true
		result.Reason = "invalid URL"
		return result
	}
	resp, err := client.Do(req)
	if err != nil {
		applog.Error("linkcheck", err, "url", url)
		result.Dead = true
		result.Reason = "unreachable"
		return result
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.Dead = true
		result.Reason = fmt.Sprintf("%d", resp.StatusCode)
	}
	return result
}
