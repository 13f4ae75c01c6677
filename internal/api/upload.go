package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/github"
)

type uploadForm struct {
	RepoName      string                `form:"repo_name" binding:"required"`
	Branch        string                `form:"branch" binding:"required"`
	CommitMessage string                `form:"commit_message" binding:"required"`
	AccessToken   string                `form:"access_token" binding:"required"`
	File          *multipart.FileHeader `form:"file" binding:"required"`
}

type uploadHandler struct {
	uploads  FileUploader
	maxBytes int64
}

func (h *uploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload) // POST /upload (multipart)
}

func (h *uploadHandler) upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "上传的文件过大"})
			return
		}
		failDetail(c, apperr.CallerInput("缺少必填字段: repo_name, branch, commit_message, access_token, file").WithCause(err), detailPrefixes{})
		return
	}

	content, err := readFormFile(form.File)
	if err != nil {
		failDetail(c, apperr.CallerInput("读取上传文件失败").WithCause(err), detailPrefixes{})
		return
	}

	res, err := h.uploads.Upload(c.Request.Context(), github.UploadRequest{
		Repository:    form.RepoName,
		Branch:        form.Branch,
		CommitMessage: form.CommitMessage,
		AccessToken:   form.AccessToken,
		Filename:      form.File.Filename,
		Content:       content,
	})
	if err != nil {
		failDetail(c, err, detailPrefixes{})
		return
	}
	c.JSON(http.StatusOK, res)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
