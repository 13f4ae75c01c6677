// Package api exposes the scrapers, converter, font extractor and uploader
// over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/billmal071/novelapi/internal/assets"
	"github.com/billmal071/novelapi/internal/bqxs520"
	"github.com/billmal071/novelapi/internal/font"
	"github.com/billmal071/novelapi/internal/github"
	"github.com/billmal071/novelapi/internal/hsz69"
)

// BookSource searches and describes books.
type BookSource interface {
	Search(ctx context.Context, query, userAgent string) ([]bqxs520.SearchResult, error)
	Detail(ctx context.Context, bookID, userAgent string) (*bqxs520.BookDetail, error)
}

// NovelSearcher searches a second catalog.
type NovelSearcher interface {
	Search(ctx context.Context, keyword string) ([]hsz69.Novel, error)
}

// ImageConverter turns remote AVIF images into PNG.
type ImageConverter interface {
	Convert(ctx context.Context, rawURL string, headers http.Header) ([]byte, error)
	Version(ctx context.Context) (string, error)
}

// FontExtractor saves chapter fonts.
type FontExtractor interface {
	Extract(ctx context.Context, chapter string) (*font.Result, error)
}

// FileUploader pushes files to a repository.
type FileUploader interface {
	Upload(ctx context.Context, req github.UploadRequest) (*github.UploadResult, error)
}

// Services are the components behind the routes. Nil services leave their
// routes unregistered.
type Services struct {
	Books   BookSource
	Novels  NovelSearcher
	Images  ImageConverter
	Fonts   FontExtractor
	Uploads FileUploader
	Assets  *assets.Store
}

// Options configures the router
type Options struct {
	PublicPrefix string
	// MaxUploadBytes bounds upload request bodies; zero means unlimited.
	MaxUploadBytes int64
}

// NewRouter builds the gin engine.
func NewRouter(svc Services, opts Options, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = "/assets"
	}

	router := gin.New()
	router.Use(requestID(), accessLog(logger), recovery(logger))

	router.GET("/", usage)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if svc.Books != nil {
		h := &bookHandler{books: svc.Books}
		h.RegisterRoutes(router.Group(""))
		h.RegisterRoutes(router.Group("/bqxs520"))
	}
	if svc.Novels != nil {
		h := &novelHandler{novels: svc.Novels}
		h.RegisterRoutes(router.Group("/69hsz"))
	}
	if svc.Images != nil {
		h := &imageHandler{images: svc.Images, logger: logger}
		h.RegisterRoutes(router.Group(""))
	}
	if svc.Fonts != nil {
		h := &fontHandler{fonts: svc.Fonts}
		h.RegisterRoutes(router.Group(""))
	}
	if svc.Uploads != nil {
		h := &uploadHandler{uploads: svc.Uploads, maxBytes: opts.MaxUploadBytes}
		h.RegisterRoutes(router.Group(""))
	}
	if svc.Assets != nil {
		router.Static(strings.TrimRight(opts.PublicPrefix, "/"), svc.Assets.Root())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	return router
}
