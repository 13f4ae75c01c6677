package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/logger"
)

func newTestFetcher() *CollyFetcher {
	return NewCollyFetcher(Options{UserAgent: "Mobile", Timeout: 2 * time.Second}, logger.Discard())
}

func TestCollyFetcherSuccess(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	resp, err := newTestFetcher().Fetch(context.Background(), Request{
		URL:     srv.URL + "/page",
		Headers: http.Header{"Referer": {"https://ref.test/"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "ok")
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType())
	assert.Equal(t, "Mobile", gotUA)
	assert.Equal(t, "https://ref.test/", gotReferer)
}

func TestCollyFetcherUserAgentOverride(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), Request{
		URL:     srv.URL,
		Headers: http.Header{"User-Agent": {"custom"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", gotUA)
}

func TestCollyFetcherNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)

	assert.ErrorIs(t, err, apperr.ErrUpstream)
	appErr := apperr.From(err)
	assert.Equal(t, http.StatusNotFound, appErr.UpstreamStatus)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())

	statusErr, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "gone")
}

func TestCollyFetcherPartialContent(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Range", "bytes 0-2/10")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("abc"))
	}))
	defer srv.Close()

	resp, err := newTestFetcher().Fetch(context.Background(), Request{
		URL:     srv.URL,
		Headers: http.Header{"Range": []string{"bytes=0-2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "bytes=0-2", gotRange)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "abc", string(resp.Body))
}

func TestCollyFetcherRedirectStatusIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotModified, apperr.From(err).UpstreamStatus)
}

func TestCollyFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, MsgRequestTimeout, apperr.From(err).Message)
}

func TestCollyFetcherConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), Request{URL: addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Zero(t, apperr.From(err).UpstreamStatus)
}

func TestCollyFetcherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Fetch(ctx, Request{URL: "http://127.0.0.1:1/"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestIsChallenge(t *testing.T) {
	assert.True(t, IsChallenge(200, []byte("<title>Just a moment...</title>")))
	assert.True(t, IsChallenge(403, []byte("<div id=cf-browser-verification>")))
	assert.True(t, IsChallenge(503, []byte("Attention Required! | Cloudflare")))
	assert.False(t, IsChallenge(403, []byte("forbidden")))
	assert.False(t, IsChallenge(200, []byte("<html>book list</html>")))
}

func TestComposite(t *testing.T) {
	rendered := &Response{StatusCode: 200, Body: []byte("rendered")}
	renderCalls := 0
	renderer := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
		renderCalls++
		return rendered, nil
	})

	t.Run("plain page is returned as is", func(t *testing.T) {
		renderCalls = 0
		primary := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
			return &Response{StatusCode: 200, Body: []byte("plain")}, nil
		})
		resp, err := NewComposite(primary, renderer, logger.Discard()).Fetch(context.Background(), Request{URL: "http://x"})
		require.NoError(t, err)
		assert.Equal(t, "plain", string(resp.Body))
		assert.Zero(t, renderCalls)
	})

	t.Run("challenge body is rendered", func(t *testing.T) {
		renderCalls = 0
		primary := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
			return &Response{StatusCode: 200, Body: []byte("Just a moment...")}, nil
		})
		resp, err := NewComposite(primary, renderer, logger.Discard()).Fetch(context.Background(), Request{URL: "http://x"})
		require.NoError(t, err)
		assert.Equal(t, "rendered", string(resp.Body))
		assert.Equal(t, 1, renderCalls)
	})

	t.Run("challenge status error is rendered", func(t *testing.T) {
		renderCalls = 0
		primary := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
			return nil, classify(errors.New("Forbidden"), 403, &StatusError{StatusCode: 403, Body: []byte("_cf_chl_opt")})
		})
		resp, err := NewComposite(primary, renderer, logger.Discard()).Fetch(context.Background(), Request{URL: "http://x"})
		require.NoError(t, err)
		assert.Equal(t, "rendered", string(resp.Body))
	})

	t.Run("other failures pass through", func(t *testing.T) {
		renderCalls = 0
		primary := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
			return nil, classify(errors.New("Not Found"), 404, &StatusError{StatusCode: 404})
		})
		_, err := NewComposite(primary, renderer, logger.Discard()).Fetch(context.Background(), Request{URL: "http://x"})
		assert.ErrorIs(t, err, apperr.ErrUpstream)
		assert.Zero(t, renderCalls)
	})

	t.Run("nil renderer disables fallback", func(t *testing.T) {
		primary := FetcherFunc(func(ctx context.Context, req Request) (*Response, error) {
			return &Response{StatusCode: 200, Body: []byte("Just a moment...")}, nil
		})
		resp, err := NewComposite(primary, nil, logger.Discard()).Fetch(context.Background(), Request{URL: "http://x"})
		require.NoError(t, err)
		assert.Equal(t, "Just a moment...", string(resp.Body))
	})
}
