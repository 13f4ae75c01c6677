// Package avif converts AVIF images to PNG with an external ffmpeg binary.
package avif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/assets"
	"github.com/billmal071/novelapi/internal/fetch"
)

// State is the lifecycle position of a conversion job.
type State int

const (
	StateIdle State = iota
	StateDownloaded
	StateStaged
	StateTranscoded
	StateCleanedUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDownloaded:
		return "downloaded"
	case StateStaged:
		return "staged"
	case StateTranscoded:
		return "transcoded"
	case StateCleanedUp:
		return "cleaned_up"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Job is one conversion, owned by a single request.
type Job struct {
	Source []byte
	Dir    string
	Output []byte
	State  State
}

const (
	inputName  = "input.avif"
	outputName = "output.png"
)

// Options configures a Converter
type Options struct {
	FFmpegPath      string
	DownloadTimeout time.Duration
	ConvertTimeout  time.Duration
	VersionTimeout  time.Duration
}

// Converter downloads AVIF images and transcodes them to PNG.
type Converter struct {
	fetcher fetch.Fetcher
	store   *assets.Store
	ffmpeg  string
	opts    Options
	logger  *slog.Logger
}

var imageAccept = http.Header{"Accept": []string{"image/avif,image/webp,image/*,*/*;q=0.8"}}

// NewConverter creates a converter. An empty FFmpegPath is looked up on PATH.
func NewConverter(fetcher fetch.Fetcher, store *assets.Store, opts Options, logger *slog.Logger) *Converter {
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 15 * time.Second
	}
	if opts.ConvertTimeout <= 0 {
		opts.ConvertTimeout = 10 * time.Second
	}
	if opts.VersionTimeout <= 0 {
		opts.VersionTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
		if p, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpeg = p
		}
	}

	return &Converter{fetcher: fetcher, store: store, ffmpeg: ffmpeg, opts: opts, logger: logger}
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.CallerInput("url 不是有效的http(s)地址")
	}
	return nil
}

// Convert downloads rawURL with the given headers and returns PNG bytes.
func (c *Converter) Convert(ctx context.Context, rawURL string, headers http.Header) ([]byte, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{
		URL:     strings.TrimSpace(rawURL),
		Headers: fetch.HeaderOverrides{Header: headers}.Merge(imageAccept),
		Timeout: c.opts.DownloadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("avif: download: %w", err)
	}
	c.logger.InfoContext(ctx, "avif downloaded", "bytes", len(resp.Body), "elapsed", time.Since(start))

	return c.ConvertBytes(ctx, resp.Body)
}

// ConvertBytes transcodes an in-memory AVIF image. The staging directory is
// removed before returning, whatever the outcome.
func (c *Converter) ConvertBytes(ctx context.Context, src []byte) ([]byte, error) {
	job := &Job{Source: src, State: StateDownloaded}

	dir, release, err := c.store.Scratch("avif")
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("avif: stage: %w", err))
	}
	job.Dir = dir
	defer func() {
		if err := release(); err != nil {
			c.logger.WarnContext(ctx, "avif scratch cleanup failed", "dir", dir, "err", err)
		}
		job.State = StateCleanedUp
	}()

	start := time.Now()
	in := filepath.Join(dir, inputName)
	out := filepath.Join(dir, outputName)
	if err := os.WriteFile(in, src, 0600); err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("avif: stage: %w", err))
	}
	job.State = StateStaged

	if err := c.transcode(ctx, in, out); err != nil {
		c.logger.ErrorContext(ctx, "avif transcode failed", "state", job.State, "err", err)
		return nil, err
	}

	job.Output, err = os.ReadFile(out)
	if err != nil {
		return nil, apperr.Conversion("FFmpeg 未生成输出文件", err.Error()).WithCause(err)
	}
	job.State = StateTranscoded

	c.logger.InfoContext(ctx, "avif converted", "bytes", len(job.Output), "elapsed", time.Since(start))
	return job.Output, nil
}

func (c *Converter) transcode(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConvertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.ffmpeg, "-y", "-i", in, "-frames:v", "1", out)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	// children that inherit stderr must not keep Wait blocked after a kill
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Conversion("FFmpeg 转换超时", stderr.String()).WithCause(ctx.Err())
	}
	if err != nil {
		return apperr.Conversion("FFmpeg 错误", strings.TrimSpace(stderr.String())).WithCause(err)
	}
	return nil
}

// Version returns the first line of `ffmpeg -version`.
func (c *Converter) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.VersionTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.ffmpeg, "-version")
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	if err != nil && len(output) == 0 {
		return "", err
	}
	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first), nil
}
