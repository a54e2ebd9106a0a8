// Package websearch queries public web search providers: the Brave Search API
// when a key is configured and the DuckDuckGo HTML endpoint otherwise.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"shop_assistant_backend/platform/apperr"
)

const (
	defaultBraveURL      = "https://api.search.brave.com/res/v1/web/search"
	defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
	defaultCount         = 5
	userAgent            = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrNoResults is returned when a provider answered but nothing could be read.
var ErrNoResults = errors.New("websearch: no results")

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Config configures the web search client.
type Config struct {
	BraveAPIKey string
	// BraveURL and DuckDuckGoURL override the provider endpoints.
	BraveURL      string
	DuckDuckGoURL string
	Timeout       time.Duration
}

// Client searches the web.
type Client struct {
	braveAPIKey   string
	braveURL      string
	duckDuckGoURL string
	httpClient    *http.Client
}

// NewClient creates a new web search client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	braveURL := cfg.BraveURL
	if braveURL == "" {
		braveURL = defaultBraveURL
	}
	ddgURL := cfg.DuckDuckGoURL
	if ddgURL == "" {
		ddgURL = defaultDuckDuckGoURL
	}

	return &Client{
		braveAPIKey:   cfg.BraveAPIKey,
		braveURL:      braveURL,
		duckDuckGoURL: ddgURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Search returns up to count results. Brave is tried first when configured;
// any Brave failure falls back to DuckDuckGo.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("websearch: query is required")
	}
	if count <= 0 {
		count = defaultCount
	}

	if c.braveAPIKey != "" {
		results, braveErr := c.searchBrave(ctx, query, count)
		if braveErr == nil && len(results) > 0 {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	results, err := c.searchDuckDuckGo(ctx, query, count)
	if err != nil && !errors.Is(err, ErrNoResults) && ctx.Err() == nil {
		return nil, apperr.Upstream("web search unavailable", err).WithOp("websearch.Search")
	}
	return results, err
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (c *Client) searchBrave(ctx context.Context, query string, count int) ([]Result, error) {
	reqURL := c.braveURL + "?q=" + url.QueryEscape(query) + "&count=" + strconv.Itoa(count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: create brave request: %w", err)
	}
	req.Header.Set("X-Subscription-Token", c.braveAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: brave request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: brave returned status %d", resp.StatusCode)
	}

	var decoded braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("websearch: decode brave response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Web.Results))
	for _, r := range decoded.Web.Results {
		if len(results) == count {
			break
		}
		results = append(results, Result{
			Title:   stripTags(r.Title),
			URL:     r.URL,
			Snippet: stripTags(r.Description),
		})
	}
	return results, nil
}

func (c *Client) searchDuckDuckGo(ctx context.Context, query string, count int) ([]Result, error) {
	reqURL := c.duckDuckGoURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: create duckduckgo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: duckduckgo returned status %d", resp.StatusCode)
	}

	results, err := parseDuckDuckGo(io.LimitReader(resp.Body, 2<<20), count)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

// parseDuckDuckGo reads result titles (a.result__a) and their snippets
// (.result__snippet) from the HTML results page.
func parseDuckDuckGo(r io.Reader, count int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("websearch: parse duckduckgo html: %w", err)
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) > count {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				link := resolveRedirect(attr(n, "href"))
				title := strings.TrimSpace(textContent(n))
				if link != "" && title != "" {
					results = append(results, Result{Title: title, URL: link})
				}
				return
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = strings.TrimSpace(textContent(n))
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's //duckduckgo.com/l/?uddg=<target> links.
func resolveRedirect(raw string) string {
	if !strings.Contains(raw, "uddg=") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// stripTags removes the <strong> highlighting Brave puts in titles and snippets.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return s
	}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(textContent(n))
		sb.WriteString(" ")
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
