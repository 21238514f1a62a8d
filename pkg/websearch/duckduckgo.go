// Package websearch provides the web capability behind the agent's search
// tool: ranked DuckDuckGo results for free-text queries and readable text
// extraction for direct URLs.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	htmlEndpoint = "https://html.duckduckgo.com/html/"
	userAgent    = "ai-agent-be/1.0"
	maxResults   = 5
)

var multiSpaceRe = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)

// Result is one ranked search hit.
type Result struct {
	Title   string
	Link    string
	Content string
}

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// IsURL reports whether the query is a well-formed absolute http(s) URL.
func IsURL(query string) bool {
	u, err := url.Parse(strings.TrimSpace(query))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Search scrapes the DuckDuckGo HTML results page for the query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := fmt.Sprintf("%s?q=%s", htmlEndpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find(".result__a").First()
		title := strings.TrimSpace(anchor.Text())
		link, _ := anchor.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())
		if title == "" && snippet == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			Link:    resolveRedirect(link),
			Content: snippet,
		})
		return len(results) < maxResults
	})
	return results, nil
}

// FetchPage downloads a URL and returns its readable text with scripts,
// styles and layout chrome stripped.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	text := doc.Find("body").Text()
	text = multiSpaceRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text), nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		u.Scheme = "https"
		if u.Host == "" {
			u.Host = "duckduckgo.com"
		}
		return u.String()
	}
	return link
}
