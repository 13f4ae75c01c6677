// Package font pulls the obfuscation web-font a chapter page embeds in its
// stylesheet and stores it as a woff2 asset.
package font

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/assets"
	"github.com/billmal071/novelapi/internal/extract"
	"github.com/billmal071/novelapi/internal/fetch"
)

// Dir is the asset directory fonts are written to.
const Dir = "font/woff2"

var (
	linkPattern  = regexp.MustCompile(`<link.*type="text/css" href="(.*\.css)"/>`)
	fontPattern  = regexp.MustCompile(`base64,(.*?)\) `)
	chapterChars = regexp.MustCompile(`^[A-Za-z0-9_\-/]+$`)
)

// Result describes a saved font.
type Result struct {
	Message string `json:"message"`
	Path    string `json:"woff2_file_path"`
}

// Options configures an Extractor
type Options struct {
	BaseURL      string
	UserAgent    string
	PublicPrefix string // URL prefix the asset store is served under
}

// Extractor fetches chapter pages and stores their fonts.
type Extractor struct {
	fetcher fetch.Fetcher
	store   *assets.Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewExtractor creates an extractor
func NewExtractor(fetcher fetch.Fetcher, store *assets.Store, opts Options, logger *slog.Logger) *Extractor {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://m.feibzw.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = "/assets"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fetcher: fetcher, store: store, opts: opts, logger: logger, now: time.Now}
}

// Extract saves the font used by chapter and returns its public path.
func (e *Extractor) Extract(ctx context.Context, chapter string) (*Result, error) {
	chapter = strings.Trim(strings.TrimSpace(chapter), "/")
	if chapter == "" {
		return nil, apperr.CallerInput("请输入章节名称")
	}
	if !chapterChars.MatchString(chapter) || strings.Contains(chapter, "..") {
		return nil, apperr.CallerInput("章节名称格式错误")
	}

	headers := http.Header{"User-Agent": []string{e.opts.UserAgent}}
	page, err := e.fetcher.Fetch(ctx, fetch.Request{URL: fmt.Sprintf("%s/%s/", e.opts.BaseURL, chapter), Headers: headers})
	if err != nil {
		return nil, passthrough(err, "请求失败，状态码: %d")
	}

	href, ok := stylesheetHref(page)
	if !ok {
		return nil, apperr.Upstream("未找到匹配的<link>标签", 0).WithStatus(http.StatusNotFound)
	}

	cssURL := href
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		cssURL = e.opts.BaseURL + href
	}
	css, err := e.fetcher.Fetch(ctx, fetch.Request{URL: cssURL, Headers: headers})
	if err != nil {
		return nil, passthrough(err, "下载CSS文件失败，状态码: %d")
	}

	m := fontPattern.FindSubmatch(css.Body)
	if m == nil {
		return nil, apperr.Upstream("未找到匹配的@font-face规则", 0).WithStatus(http.StatusNotFound)
	}

	data, err := base64.StdEncoding.DecodeString(string(m[1]))
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("font: decode base64: %w", err))
	}

	rel, err := e.store.Put(path.Join(Dir, e.filename(chapter)), data)
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("font: save: %w", err))
	}

	publicPath := strings.TrimRight(e.opts.PublicPrefix, "/") + "/" + rel
	e.logger.InfoContext(ctx, "font saved", "chapter", chapter, "css", cssURL, "path", publicPath, "bytes", len(data))
	return &Result{Message: "字体文件已保存", Path: publicPath}, nil
}

func (e *Extractor) filename(chapter string) string {
	safe := strings.ReplaceAll(chapter, "/", "_")
	return fmt.Sprintf("%s_%d_%d.woff2", safe, e.now().Unix(), 1000+rand.IntN(9000))
}

// stylesheetHref finds the first text/css <link> ending in .css.
func stylesheetHref(page *fetch.Response) (string, bool) {
	if doc, err := extract.Parse(page.Body, page.ContentType()); err == nil {
		href, ok, err := extract.AttrOf(doc.Selection(), `link[type="text/css"][href$=".css"]`, "href")
		if err == nil && ok && href != "" {
			return href, true
		}
	}
	if m := linkPattern.FindSubmatch(page.Body); m != nil {
		return string(m[1]), true
	}
	return "", false
}

// passthrough answers with the upstream status when the site answered at
// all, keeping other fetch failures as they are.
func passthrough(err error, format string) error {
	statusErr, ok := fetch.AsStatusError(err)
	if !ok {
		return fmt.Errorf("font: %w", err)
	}
	return apperr.Upstream(fmt.Sprintf(format, statusErr.StatusCode), statusErr.StatusCode).
		WithStatus(statusErr.StatusCode).
		WithCause(err)
}
