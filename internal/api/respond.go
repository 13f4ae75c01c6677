package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billmal071/novelapi/internal/apperr"
)

const (
	msgOK       = "成功响应"
	msgNovelOK  = "请求成功"
	msgInternal = "服务器内部错误"
)

// Envelope is the {c, m, data} wrapper used by the scraping endpoints.
type Envelope struct {
	Code    string `json:"c"`
	Message string `json:"m"`
	Data    any    `json:"data"`
}

func ok(c *gin.Context, data any) {
	okWithMessage(c, msgOK, data)
}

func okWithMessage(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Envelope{Code: strconv.Itoa(http.StatusOK), Message: msg, Data: data})
}

// fail answers with an envelope whose code mirrors the HTTP status. empty
// is the zero data value for the endpoint ([] or {}).
func fail(c *gin.Context, err error, empty any) {
	appErr := apperr.From(err)
	_ = c.Error(err)

	status := appErr.HTTPStatus()
	c.JSON(status, Envelope{Code: strconv.Itoa(status), Message: appErr.Message, Data: empty})
}

// detailPrefixes are put in front of the message for each error kind.
type detailPrefixes struct {
	upstream   string
	conversion string
	unexpected string
}

// failDetail answers with {"detail": ...}. Conversion failures also carry
// the transcoder output.
func failDetail(c *gin.Context, err error, prefix detailPrefixes) {
	appErr := apperr.From(err)
	_ = c.Error(err)

	body := gin.H{}
	switch appErr.Kind {
	case apperr.KindUpstream:
		body["detail"] = prefix.upstream + appErr.Message
	case apperr.KindConversion:
		body["detail"] = prefix.conversion + appErr.Message
		if appErr.Detail != "" {
			body["output"] = appErr.Detail
		}
	case apperr.KindUnexpected:
		body["detail"] = prefix.unexpected + appErr.Message
	default:
		body["detail"] = appErr.Message
	}
	c.JSON(appErr.HTTPStatus(), body)
}
