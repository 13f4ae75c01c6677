// Package hsz69 scrapes the 69hsz search page.
package hsz69

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/extract"
	"github.com/billmal071/novelapi/internal/fetch"
)

// Novel is one search hit.
type Novel struct {
	Name      string `json:"name"`
	Author    string `json:"author"`
	Intro     string `json:"intro"`
	WordCount string `json:"wordcount"`
	Image     string `json:"img"`
	URL       string `json:"url"`
	ID        string `json:"id"`
}

const defaultUserAgent = "Mozilla/5.0 (Linux; Android 13; PFJM10 Build/TP1A.220905.001; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/131.0.6778.260 Mobile Safari/537.36"

var idPattern = regexp.MustCompile(`/(\d+)(/|$)`)

// Client searches 69hsz
type Client struct {
	fetcher   fetch.Fetcher
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a new 69hsz client
func NewClient(fetcher fetch.Fetcher, baseURL, userAgent string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://www.69hsz.com"
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		logger:    logger,
	}
}

// headers mimics the mobile browser the site expects.
func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Sec-Ch-Ua", `"Android WebView";v="131", "Chromium";v="131", "Not_A Brand";v="24"`)
	h.Set("Sec-Ch-Ua-Mobile", "?1")
	h.Set("Sec-Ch-Ua-Platform", `"Android"`)
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Referer", c.baseURL+"/")
	return h
}

// Search looks up novels by keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]Novel, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apperr.CallerInput("请输入关键词")
	}

	searchURL := fmt.Sprintf("%s/ss/?searchkey=%s", c.baseURL, url.QueryEscape(keyword))
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: searchURL, Headers: c.headers()})
	if err != nil {
		return nil, fmt.Errorf("hsz69: search: %w", err)
	}

	doc, err := extract.Parse(resp.Body, resp.ContentType())
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("hsz69: search: %w", err))
	}

	novels := ParseSearch(doc, c.logger)
	c.logger.InfoContext(ctx, "69hsz search", "keyword", keyword, "results", len(novels))
	return novels, nil
}

// ParseSearch returns one Novel per .item block. Missing fields are empty strings.
func ParseSearch(doc *extract.Doc, logger *slog.Logger) []Novel {
	fields := extract.Fields{Logger: logger, Source: "hsz69.search"}

	items, err := extract.Find(doc.Selection(), ".item")
	if err != nil {
		fields.List("items", nil, err)
		return []Novel{}
	}

	novels := make([]Novel, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		var n Novel

		text := func(field, selector string) string {
			v, _, err := extract.TextOf(item, selector)
			return fields.String(field, v, err, "")
		}
		attr := func(field, selector, name string) string {
			v, _, err := extract.AttrOf(item, selector, name)
			return fields.String(field, v, err, "")
		}

		n.Name = text("name", "dt > a")
		n.Author = text("author", ".btm > a")
		n.Intro = text("intro", "dd")
		n.WordCount = text("wordcount", ".btm > em")
		n.Image = attr("img", "img", "data-original")
		n.URL = attr("url", "dt > a", "href")
		if m := idPattern.FindStringSubmatch(n.URL); m != nil {
			n.ID = m[1]
		}

		novels = append(novels, n)
	})
	return novels
}
