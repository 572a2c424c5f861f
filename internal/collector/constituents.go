package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"StockScreener/internal/cache"
	"StockScreener/internal/metrics"
	"StockScreener/internal/model"
)

// DefaultConstituentsURL is the Wikipedia list of S&P 500 companies.
const DefaultConstituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// WikipediaSource scrapes the constituents table from a Wikipedia page.
type WikipediaSource struct {
	URL    string
	Client *http.Client
}

// NewWikipediaSource creates a source for pageURL with optional proxy support.
func NewWikipediaSource(pageURL, proxyURL string) *WikipediaSource {
	if pageURL == "" {
		pageURL = DefaultConstituentsURL
	}
	return &WikipediaSource{URL: pageURL, Client: newHTTPClient(proxyURL, 30*time.Second)}
}

// FetchConstituents downloads the page and parses its constituents table.
func (w *WikipediaSource) FetchConstituents(ctx context.Context) ([]model.Constituent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("constituents fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("constituents: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	return ParseConstituents(resp.Body)
}

// ParseConstituents extracts the constituents table from an HTML document.
// Columns are matched by header text, so column order does not matter.
func ParseConstituents(r io.Reader) ([]model.Constituent, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := findConstituentsTable(doc)
	if table == nil {
		return nil, errors.New("constituents table not found")
	}

	var headers []string
	var out []model.Constituent
	for _, tr := range tableRows(table) {
		if headers == nil {
			if ths := cells(tr, atom.Th); len(ths) > 0 {
				for _, th := range ths {
					headers = append(headers, nodeText(th))
				}
			}
			continue
		}
		tds := cells(tr, atom.Td)
		if len(tds) == 0 {
			continue
		}
		var c model.Constituent
		for i, td := range tds {
			if i >= len(headers) {
				break
			}
			assignColumn(&c, headers[i], nodeText(td))
		}
		if c.Symbol == "" {
			continue
		}
		out = append(out, c)
	}
	if headers == nil {
		return nil, errors.New("constituents table has no header row")
	}
	if len(out) == 0 {
		return nil, errors.New("constituents table has no rows")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func assignColumn(c *model.Constituent, header, value string) {
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "symbol") || strings.Contains(h, "ticker"):
		c.Symbol = strings.ToUpper(value)
	case strings.Contains(h, "security") || strings.Contains(h, "company"):
		c.Security = value
	case strings.Contains(h, "sub-industry") || strings.Contains(h, "sub industry"):
		c.SubIndustry = value
	case strings.Contains(h, "sector"):
		c.Sector = value
	case strings.Contains(h, "headquarters"):
		c.Headquarters = value
	case strings.Contains(h, "added"):
		c.DateAdded = value
	case strings.Contains(h, "cik"):
		c.CIK = value
	case strings.Contains(h, "founded"):
		c.Founded = value
	}
}

// findConstituentsTable prefers table#constituents and falls back to the first table.
func findConstituentsTable(doc *html.Node) *html.Node {
	var first, byID *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if byID != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			if first == nil {
				first = n
			}
			if attr(n, "id") == "constituents" {
				byID = n
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	if byID != nil {
		return byID
	}
	return first
}

// tableRows returns the <tr> elements of table, not descending into nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch ch.DataAtom {
			case atom.Tr:
				rows = append(rows, ch)
			case atom.Table:
			default:
				walk(ch)
			}
		}
	}
	walk(table)
	return rows
}

func cells(tr *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for ch := tr.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && ch.DataAtom == a {
			out = append(out, ch)
		}
	}
	return out
}

// nodeText returns the whitespace-normalised text of n, skipping footnote markers.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Sup || n.DataAtom == atom.Style || n.DataAtom == atom.Script) {
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// CachedSource wraps a ConstituentSource with a TTL cache.
type CachedSource struct {
	Source  ConstituentSource
	Store   cache.Store
	TTL     time.Duration
	Key     string
	Metrics *metrics.Metrics
}

// NewCachedSource caches src in store for ttl.
func NewCachedSource(src ConstituentSource, store cache.Store, ttl time.Duration, m *metrics.Metrics) *CachedSource {
	return &CachedSource{Source: src, Store: store, TTL: ttl, Key: "constituents:sp500", Metrics: m}
}

// FetchConstituents serves from cache when possible. Cache failures are
// logged and fall through to the underlying source.
func (c *CachedSource) FetchConstituents(ctx context.Context) ([]model.Constituent, error) {
	var cached []model.Constituent
	err := c.Store.Get(ctx, c.Key, &cached)
	switch {
	case err == nil && len(cached) > 0:
		c.Metrics.ObserveCache(true)
		return cached, nil
	case err != nil && !errors.Is(err, cache.ErrMiss):
		log.Printf("[WARN] constituents cache (%s) read failed: %v", c.Store.Name(), err)
	}
	c.Metrics.ObserveCache(false)

	begin := time.Now()
	list, err := c.Source.FetchConstituents(ctx)
	c.Metrics.ObserveFetch("constituents", time.Since(begin), err)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, c.Key, list, c.TTL); err != nil {
		log.Printf("[WARN] constituents cache (%s) write failed: %v", c.Store.Name(), err)
	}
	return list, nil
}

// Refresh drops the cached table and loads a fresh copy.
func (c *CachedSource) Refresh(ctx context.Context) ([]model.Constituent, error) {
	if err := c.Store.Delete(ctx, c.Key); err != nil {
		log.Printf("[WARN] constituents cache (%s) delete failed: %v", c.Store.Name(), err)
	}
	return c.FetchConstituents(ctx)
}
