package cli

import (
	"fmt"
	"log/slog"

	"github.com/billmal071/novelapi/internal/api"
	"github.com/billmal071/novelapi/internal/assets"
	"github.com/billmal071/novelapi/internal/avif"
	"github.com/billmal071/novelapi/internal/bqxs520"
	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/fetch"
	"github.com/billmal071/novelapi/internal/font"
	"github.com/billmal071/novelapi/internal/github"
	"github.com/billmal071/novelapi/internal/hsz69"
)

// services holds every component built from config.
type services struct {
	fetcher  fetch.Fetcher
	store    *assets.Store
	books    *bqxs520.Client
	novels   *hsz69.Client
	images   *avif.Converter
	fonts    *font.Extractor
	uploader *github.Uploader
}

func newFetcher(cfg *config.Config, logger *slog.Logger) fetch.Fetcher {
	primary := fetch.NewCollyFetcher(fetch.Options{
		UserAgent:        cfg.Network.UserAgent,
		Timeout:          cfg.Network.Timeout,
		MaxBodySize:      cfg.Network.MaxBodySize,
		CloudflareBypass: cfg.Network.CloudflareBypass,
	}, logger)

	if !cfg.Network.RenderFallback {
		return primary
	}
	renderer := fetch.NewBrowserFetcher(cfg.Network.RenderTimeout, logger)
	return fetch.NewComposite(primary, renderer, logger)
}

func buildServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	store, err := assets.NewStore(cfg.Assets.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset directory: %w", err)
	}

	fetcher := newFetcher(cfg, logger)

	return &services{
		fetcher: fetcher,
		store:   store,
		books: bqxs520.NewClient(fetcher, bqxs520.Options{
			BaseURL:      cfg.Bqxs520.BaseURL,
			DefaultImage: cfg.Bqxs520.DefaultImage,
			UserAgent:    cfg.Bqxs520.UserAgent,
			DetailDelay:  cfg.Bqxs520.DetailDelay,
		}, logger.With("site", "bqxs520")),
		novels: hsz69.NewClient(fetcher, cfg.Hsz69.BaseURL, cfg.Hsz69.UserAgent, logger.With("site", "69hsz")),
		images: avif.NewConverter(fetcher, store, avif.Options{
			FFmpegPath:      cfg.Avif.FFmpegPath,
			DownloadTimeout: cfg.Avif.DownloadTimeout,
			ConvertTimeout:  cfg.Avif.ConvertTimeout,
			VersionTimeout:  cfg.Avif.VersionTimeout,
		}, logger.With("component", "avif")),
		fonts: font.NewExtractor(fetcher, store, font.Options{
			BaseURL:      cfg.Font.BaseURL,
			UserAgent:    cfg.Font.UserAgent,
			PublicPrefix: cfg.Assets.PublicPrefix,
		}, logger.With("component", "font")),
		uploader: github.NewUploader(github.Options{
			APIBaseURL:        cfg.Upload.APIBaseURL,
			RawBaseURL:        cfg.Upload.RawBaseURL,
			RequireSourceName: cfg.Upload.RequireSourceName,
		}, logger.With("component", "github")),
	}, nil
}

func (s *services) api() api.Services {
	return api.Services{
		Books:   s.books,
		Novels:  s.novels,
		Images:  s.images,
		Fonts:   s.fonts,
		Uploads: s.uploader,
		Assets:  s.store,
	}
}

func (s *services) sweeper(cfg *config.Config, logger *slog.Logger) *assets.Sweeper {
	return assets.NewSweeper(s.store, font.Dir, cfg.Assets.MaxAge, cfg.Assets.SweepInterval, logger.With("component", "sweeper"))
}
