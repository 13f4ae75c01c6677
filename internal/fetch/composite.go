package fetch

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
)

var challengeMarkers = [][]byte{
	[]byte("cf-browser-verification"),
	[]byte("Just a moment..."),
	[]byte("_cf_chl_opt"),
}

// IsChallenge reports whether an answer looks like an anti-bot interstitial.
func IsChallenge(statusCode int, body []byte) bool {
	for _, marker := range challengeMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	if statusCode == http.StatusForbidden || statusCode == http.StatusServiceUnavailable {
		return bytes.Contains(bytes.ToLower(body), []byte("cloudflare"))
	}
	return false
}

// Composite tries the primary fetcher and re-fetches with the renderer when
// the primary answer is a challenge page.
type Composite struct {
	primary  Fetcher
	renderer Fetcher
	logger   *slog.Logger
}

// NewComposite creates a composite fetcher. A nil renderer disables the fallback.
func NewComposite(primary, renderer Fetcher, logger *slog.Logger) *Composite {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composite{primary: primary, renderer: renderer, logger: logger}
}

func (c *Composite) Fetch(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.primary.Fetch(ctx, req)
	if c.renderer == nil {
		return resp, err
	}

	switch {
	case err == nil && !IsChallenge(resp.StatusCode, resp.Body):
		return resp, nil
	case err != nil:
		statusErr, ok := AsStatusError(err)
		if !ok || !IsChallenge(statusErr.StatusCode, statusErr.Body) {
			return nil, err
		}
	}

	c.logger.InfoContext(ctx, "challenge page detected, rendering", "url", req.URL)
	return c.renderer.Fetch(ctx, req)
}
