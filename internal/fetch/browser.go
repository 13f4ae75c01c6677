package fetch

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/billmal071/novelapi/internal/apperr"
)

// silentLogger discards chromedp's own log output
var silentLogger = log.New(io.Discard, "", 0)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserFetcher renders a page in headless Chrome and returns the final DOM.
// It is only used to get past anti-bot interstitials.
type BrowserFetcher struct {
	timeout time.Duration
	settle  time.Duration
	logger  *slog.Logger
}

// NewBrowserFetcher creates a browser fetcher
func NewBrowserFetcher(timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserFetcher{timeout: timeout, settle: 5 * time.Second, logger: logger}
}

// Fetch navigates to req.URL and returns the rendered HTML. Only the
// User-Agent header is honoured.
func (b *BrowserFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	userAgent := browserUserAgent
	if ua := req.Headers.Get("User-Agent"); ua != "" {
		userAgent = ua
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(silentLogger.Printf),
		chromedp.WithErrorf(silentLogger.Printf),
	)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, b.timeout)
	defer timeoutCancel()

	start := time.Now()
	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(req.URL),
		// give the challenge script time to redirect
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		b.logger.WarnContext(ctx, "browser render failed", "url", req.URL, "err", err)
		if isTimeout(err) {
			return nil, apperr.Upstream(MsgRequestTimeout, 0).WithCause(err)
		}
		return nil, apperr.Upstream(MsgRequestFailed, 0).WithCause(err)
	}

	b.logger.DebugContext(ctx, "rendered", "url", req.URL, "bytes", len(htmlContent), "elapsed", time.Since(start))
	return &Response{
		StatusCode: http.StatusOK,
		Body:       []byte(htmlContent),
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		URL:        req.URL,
	}, nil
}
