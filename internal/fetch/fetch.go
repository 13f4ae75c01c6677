// Package fetch performs the single outbound GET every handler starts with.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"
)

// Request describes one outbound GET.
type Request struct {
	URL     string
	Headers http.Header
	// Timeout bounds the whole exchange; zero means the fetcher default.
	Timeout time.Duration
}

// Response is a successful (2xx) answer.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	URL        string
}

// ContentType returns the response media type header.
func (r *Response) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Fetcher issues GET requests. Failures are *apperr.Error values of kind Upstream.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Options configures a CollyFetcher
type Options struct {
	UserAgent        string
	Timeout          time.Duration
	MaxBodySize      int
	CloudflareBypass bool
}

// CollyFetcher fetches pages with a fresh colly collector per request
type CollyFetcher struct {
	userAgent   string
	timeout     time.Duration
	maxBodySize int
	transport   http.RoundTripper
	logger      *slog.Logger
}

// NewCollyFetcher creates a fetcher
func NewCollyFetcher(opts Options, logger *slog.Logger) *CollyFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mobile"
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &CollyFetcher{
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		maxBodySize: opts.MaxBodySize,
		logger:      logger,
	}
	if opts.CloudflareBypass {
		f.transport = cloudflarebp.AddCloudFlareByPass(http.DefaultTransport.(*http.Transport).Clone())
	}
	return f
}

// Fetch performs the GET. Any 2xx answer is a success. Non-2xx answers,
// transport failures and timeouts are returned as classified errors;
// nothing is retried.
func (f *CollyFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(err, 0, nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}

	collector := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.MaxBodySize(f.maxBodySize),
		colly.AllowURLRevisit(),
		// every answer reaches OnResponse; the status is checked below
		colly.ParseHTTPErrorResponse(),
	)
	collector.SetRequestTimeout(timeout)
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range req.Headers {
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	var (
		resp       *Response
		failStatus int
		failBody   []byte
	)

	collector.OnResponse(func(r *colly.Response) {
		header := http.Header{}
		if r.Headers != nil {
			header = r.Headers.Clone()
		}
		resp = &Response{
			StatusCode: r.StatusCode,
			Body:       r.Body,
			Header:     header,
			URL:        r.Request.URL.String(),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			failStatus = r.StatusCode
			failBody = r.Body
		}
	})

	start := time.Now()
	err := collector.Visit(req.URL)
	collector.Wait()

	if err != nil {
		f.logger.WarnContext(ctx, "fetch failed",
			"url", req.URL,
			"status", failStatus,
			"elapsed", time.Since(start),
			"err", err,
		)
		return nil, classify(err, failStatus, &StatusError{URL: req.URL, StatusCode: failStatus, Body: failBody})
	}
	if resp == nil {
		return nil, classify(fmt.Errorf("no response from %s", req.URL), 0, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.WarnContext(ctx, "fetch rejected",
			"url", req.URL,
			"status", resp.StatusCode,
			"elapsed", time.Since(start),
		)
		statusErr := &StatusError{URL: req.URL, StatusCode: resp.StatusCode, Body: resp.Body}
		return nil, classify(statusErr, resp.StatusCode, statusErr)
	}

	f.logger.DebugContext(ctx, "fetched",
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"elapsed", time.Since(start),
	)
	return resp, nil
}
