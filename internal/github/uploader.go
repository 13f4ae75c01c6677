// Package github uploads files through the GitHub contents API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/billmal071/novelapi/internal/apperr"
)

const (
	letters      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	stampLayout  = "20060102150405"
	genericName  = "upload"
	sourceNameID = "bookSourceName"
)

// UploadRequest is one caller supplied upload.
type UploadRequest struct {
	Repository    string // owner/repo[/dir...]
	Branch        string
	CommitMessage string
	AccessToken   string
	Filename      string // original name, only its extension is kept
	Content       []byte
}

// UploadResult points at the uploaded file.
type UploadResult struct {
	DownloadURL string `json:"download_url"`
}

// Destination is a parsed repository reference.
type Destination struct {
	Owner string
	Repo  string
	Dir   string
}

// ParseDestination parses "owner/repo[/dir...]".
func ParseDestination(ref string) (Destination, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(ref), "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Destination{}, apperr.CallerInput("仓库名称格式应为 用户名/仓库[/目录]")
	}
	for _, p := range parts[2:] {
		if p == "" || p == "." || p == ".." {
			return Destination{}, apperr.CallerInput("仓库目录格式错误")
		}
	}
	return Destination{Owner: parts[0], Repo: parts[1], Dir: strings.Join(parts[2:], "/")}, nil
}

// Path returns the repository path of name inside the destination.
func (d Destination) Path(name string) string {
	if d.Dir == "" {
		return name
	}
	return d.Dir + "/" + name
}

// SourceName returns the bookSourceName hint of a JSON document: a top level
// object's field, or the first element's field for an array. A document that
// is not JSON is reported as an error.
func SourceName(content []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	switch v := doc.(type) {
	case map[string]interface{}:
		name, _ := v[sourceNameID].(string)
		return strings.TrimSpace(name), nil
	case []interface{}:
		if len(v) == 0 {
			return "", nil
		}
		first, _ := v[0].(map[string]interface{})
		name, _ := first[sourceNameID].(string)
		return strings.TrimSpace(name), nil
	}
	return "", nil
}

// Options configures an Uploader
type Options struct {
	APIBaseURL        string
	RawBaseURL        string
	RequireSourceName bool
	Timeout           time.Duration
}

// Uploader creates or updates files in a repository.
type Uploader struct {
	client *resty.Client
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	suffix func() string
}

// NewUploader creates an uploader
func NewUploader(opts Options, logger *slog.Logger) *Uploader {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "https://api.github.com"
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = "https://raw.githubusercontent.com"
	}
	opts.RawBaseURL = strings.TrimRight(opts.RawBaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.APIBaseURL, "/"))
	client.SetHeader("Accept", "application/vnd.github.v3+json")
	client.SetTimeout(opts.Timeout)

	return &Uploader{
		client: client,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		suffix: func() string { return gonanoid.MustGenerate(letters, 4) },
	}
}

// DeriveFilename builds "{hint}{4 letters}{YYYYMMDDhhmmss}{ext}".
func (u *Uploader) DeriveFilename(content []byte, original string) (string, error) {
	ext := filepath.Ext(original)

	hint, err := SourceName(content)
	if u.opts.RequireSourceName {
		if err != nil {
			return "", apperr.CallerInput("上传的文件不是有效的JSON格式")
		}
		if hint == "" {
			return "", apperr.CallerInput("不支持这个文件上传，文件没有书源特征")
		}
	}

	base := strings.NewReplacer("/", "_", "\\", "_").Replace(hint)
	if base == "" {
		base = genericName
	}
	return base + u.suffix() + u.now().Format(stampLayout) + ext, nil
}

type contentInfo struct {
	SHA string `json:"sha"`
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

func contentsPath(dest Destination, filePath string) string {
	segments := []string{"repos", url.PathEscape(dest.Owner), url.PathEscape(dest.Repo), "contents"}
	for _, s := range strings.Split(filePath, "/") {
		segments = append(segments, url.PathEscape(s))
	}
	return "/" + path.Join(segments...)
}

// Upload writes req.Content to the repository, updating the file when it
// already exists on the branch.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	dest, err := ParseDestination(req.Repository)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Branch) == "" {
		return nil, apperr.CallerInput("请输入分支名称")
	}
	if req.AccessToken == "" {
		return nil, apperr.CallerInput("请输入访问令牌")
	}

	name, err := u.DeriveFilename(req.Content, req.Filename)
	if err != nil {
		return nil, err
	}
	filePath := dest.Path(name)
	endpoint := contentsPath(dest, filePath)
	auth := "token " + req.AccessToken

	body := putBody{
		Message: req.CommitMessage,
		Content: base64.StdEncoding.EncodeToString(req.Content),
		Branch:  req.Branch,
	}

	// any non-200 answer means the file does not exist yet
	existing, err := u.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetQueryParam("ref", req.Branch).
		Get(endpoint)
	if err != nil {
		return nil, apperr.Upstream("请求失败", 0).WithCause(fmt.Errorf("github: lookup: %w", err))
	}
	if existing.StatusCode() == http.StatusOK {
		var info contentInfo
		if err := json.Unmarshal(existing.Body(), &info); err == nil {
			body.SHA = info.SHA
		}
	}

	res, err := u.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Put(endpoint)
	if err != nil {
		return nil, apperr.Upstream("请求失败", 0).WithCause(fmt.Errorf("github: put: %w", err))
	}

	switch res.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	default:
		u.logger.WarnContext(ctx, "github upload rejected", "repo", dest.Owner+"/"+dest.Repo, "path", filePath, "status", res.StatusCode())
		return nil, apperr.Upstream("文件上传失败，错误信息："+strings.TrimSpace(string(res.Body())), res.StatusCode())
	}

	downloadURL := fmt.Sprintf("%s/%s/%s/%s/%s", u.opts.RawBaseURL, dest.Owner, dest.Repo, req.Branch, filePath)
	u.logger.InfoContext(ctx, "github upload complete",
		"repo", dest.Owner+"/"+dest.Repo,
		"path", filePath,
		"updated", body.SHA != "",
	)
	return &UploadResult{DownloadURL: downloadURL}, nil
}
