// Package scraper fetches source pages for the generation pipeline and
// reduces them to plain text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const maxBodyBytes = 2 << 20 // 2 MiB per source

type Scraper struct {
	httpClient *http.Client
	userAgent  string
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "SmartCopyBot/1.0 (+https://smart-copy.ai)",
	}
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Fetch downloads one URL and returns its visible text. Non-2xx responses and
// non-HTML content are errors; the caller decides whether a failed source is
// fatal for the stage.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "text/plain") {
		return "", fmt.Errorf("fetch %s: unsupported content type %s", url, ct)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return ExtractText(string(body)), nil
}

// FetchAll scrapes each URL, skipping failures; at least one success is
// required for the result to be non-empty.
func (s *Scraper) FetchAll(ctx context.Context, urls []string) []string {
	var out []string
	for _, u := range urls {
		text, err := s.Fetch(ctx, u)
		if err != nil || text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

// ExtractText strips markup and collapses whitespace.
func ExtractText(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
