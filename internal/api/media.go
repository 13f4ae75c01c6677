package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/billmal071/novelapi/internal/apperr"
	"github.com/billmal071/novelapi/internal/fetch"
)

const ignoredHeadersHeader = "X-Ignored-Options"

type imageHandler struct {
	images ImageConverter
	logger *slog.Logger
}

func (h *imageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/to", h.convert)             // GET /to?url=&options=
	rg.GET("/ffmpeg-version", h.version) // GET /ffmpeg-version
}

func (h *imageHandler) convert(c *gin.Context) {
	overrides, err := fetch.ParseHeaderOverrides(c.Query("options"))
	if err != nil {
		failDetail(c, err, detailPrefixes{})
		return
	}
	if len(overrides.Ignored) > 0 {
		h.logger.InfoContext(c.Request.Context(), "ignored header overrides", "keys", overrides.Ignored)
		c.Header(ignoredHeadersHeader, strings.Join(overrides.Ignored, ","))
	}

	png, err := h.images.Convert(c.Request.Context(), c.Query("url"), overrides.Header)
	if err != nil {
		failDetail(c, err, detailPrefixes{upstream: "下载失败: ", conversion: "转换失败: ", unexpected: "转换失败: "})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *imageHandler) version(c *gin.Context) {
	v, err := h.images.Version(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": v})
}

type fontHandler struct {
	fonts FontExtractor
}

func (h *fontHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/content2", h.extract) // GET /content2?chapter=
}

func (h *fontHandler) extract(c *gin.Context) {
	res, err := h.fonts.Extract(c.Request.Context(), c.Query("chapter"))
	if err != nil {
		appErr := apperr.From(err)
		_ = c.Error(err)
		c.JSON(appErr.HTTPStatus(), gin.H{"message": appErr.Message})
		return
	}
	c.JSON(http.StatusOK, res)
}
