package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected int
	}{
		{KindCallerInput, http.StatusBadRequest},
		{KindUpstream, http.StatusBadRequest},
		{KindConversion, http.StatusInternalServerError},
		{KindUnexpected, http.StatusInternalServerError},
	}

	for _, test := range testCases {
		assert.Equal(t, test.expected, test.kind.HTTPStatus(), test.kind)
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("bqxs520: search: %w", Upstream("请求失败", 503))

	require.True(t, errors.Is(err, ErrUpstream))
	require.False(t, errors.Is(err, ErrCallerInput))

	appErr := From(err)
	assert.Equal(t, 503, appErr.UpstreamStatus)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
}

func TestWithStatusOverridesKind(t *testing.T) {
	err := Upstream("下载CSS文件失败", 403).WithStatus(403)
	assert.Equal(t, 403, err.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ErrUpstream.HTTPStatus())
}

func TestFromClassifiesUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	appErr := From(cause)

	assert.Equal(t, KindUnexpected, appErr.Kind)
	assert.Equal(t, "disk full", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestWithCauseKeepsMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("请求失败", 0).WithCause(cause)

	assert.Equal(t, "请求失败: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
