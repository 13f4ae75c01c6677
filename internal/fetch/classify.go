package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/billmal071/novelapi/internal/apperr"
)

// Client-facing messages for fetch failures.
const (
	MsgRequestFailed  = "请求失败"
	MsgRequestTimeout = "请求超时"
)

// StatusError reports a non-2xx answer from the target.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// classify turns a transport outcome into an Upstream error. The status code
// is checked first, then timeouts, then well-known connection failures.
func classify(err error, statusCode int, statusErr *StatusError) *apperr.Error {
	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		cause := error(statusErr)
		if statusErr == nil {
			cause = &StatusError{StatusCode: statusCode}
		}
		return apperr.Upstream(fmt.Sprintf("服务器返回错误状态码: %d", statusCode), statusCode).WithCause(cause)
	}

	if err == nil {
		return apperr.Upstream(MsgRequestFailed, statusCode)
	}

	if isTimeout(err) {
		return apperr.Upstream(MsgRequestTimeout, 0).WithCause(err)
	}

	return apperr.Upstream(MsgRequestFailed, 0).WithCause(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "deadline exceeded"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// AsStatusError returns the non-2xx answer behind err, if there is one.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode != 0 {
		return statusErr, true
	}
	return nil, false
}
