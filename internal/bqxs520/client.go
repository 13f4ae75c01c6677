package bqxs520

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/extract"
	"github.com/billmal071/novelapi/internal/fetch"
)

// Options configures a Client
type Options struct {
	BaseURL      string
	DefaultImage string
	UserAgent    string // used when the caller sends none
	// DetailDelay is waited between fetching and parsing a detail page.
	DetailDelay time.Duration
}

// Client scrapes bqxs520
type Client struct {
	fetcher fetch.Fetcher
	opts    Options
	logger  *slog.Logger
}

// NewClient creates a new bqxs520 client
func NewClient(fetcher fetch.Fetcher, opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.bqxs520.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.DefaultImage == "" {
		opts.DefaultImage = DefaultImage
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mobile"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetcher: fetcher, opts: opts, logger: logger}
}

func (c *Client) headers(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = c.opts.UserAgent
	}
	return http.Header{"User-Agent": []string{userAgent}}
}

// Search looks up books by keyword. An empty listing is a successful result.
func (c *Client) Search(ctx context.Context, query, userAgent string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.CallerInput("请输入搜索关键词")
	}

	searchURL := fmt.Sprintf("%s/search.shtml?key=%s", c.opts.BaseURL, url.QueryEscape(query))
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: searchURL, Headers: c.headers(userAgent)})
	if err != nil {
		return nil, fmt.Errorf("bqxs520: search: %w", err)
	}

	doc, err := extract.Parse(resp.Body, resp.ContentType())
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("bqxs520: search: %w", err))
	}

	results := ParseSearch(doc, c.opts.DefaultImage, c.logger)
	c.logger.InfoContext(ctx, "bqxs520 search", "query", query, "results", len(results))
	return results, nil
}

// Detail fetches and parses the book page for bookID ("N_N_N").
func (c *Client) Detail(ctx context.Context, bookID, userAgent string) (*BookDetail, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, apperr.CallerInput("请输入书籍ID")
	}
	id, ok := extract.ParseBookID(bookID)
	if !ok {
		return nil, apperr.CallerInput("书籍ID格式错误")
	}

	detailURL := fmt.Sprintf("%s/book/%s.shtml", c.opts.BaseURL, bookID)
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{URL: detailURL, Headers: c.headers(userAgent)})
	if err != nil {
		return nil, fmt.Errorf("bqxs520: detail: %w", err)
	}

	if c.opts.DetailDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, apperr.Upstream(fetch.MsgRequestFailed, 0).WithCause(ctx.Err())
		case <-time.After(c.opts.DetailDelay):
		}
	}

	doc, err := extract.Parse(resp.Body, resp.ContentType())
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("bqxs520: detail: %w", err))
	}

	detail := ParseDetail(doc, id, c.logger)
	c.logger.InfoContext(ctx, "bqxs520 detail", "book_id", bookID, "chapter", detail.FirstChapterID)
	return detail, nil
}
