package fetch

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/titanous/json5"

	"github.com/billmal071/novelapi/internal/apperr"
)

// recognizedHeaders lists the override keys that are forwarded upstream.
var recognizedHeaders = map[string]bool{
	"User-Agent":      true,
	"Referer":         true,
	"Accept":          true,
	"Accept-Language": true,
	"Accept-Encoding": true,
	"Cookie":          true,
	"Origin":          true,
	"Authorization":   true,
	"Range":           true,
}

// HeaderOverrides is the parsed form of a caller supplied options blob.
type HeaderOverrides struct {
	Header  http.Header
	Ignored []string
}

// ParseHeaderOverrides parses a JSON (or JSON5) object of header names to
// values. Keys are matched case-insensitively; unrecognized keys and
// non-scalar values are skipped and reported in Ignored.
func ParseHeaderOverrides(blob string) (HeaderOverrides, error) {
	out := HeaderOverrides{Header: http.Header{}}
	if strings.TrimSpace(blob) == "" {
		return out, nil
	}

	var raw map[string]interface{}
	if err := json5.Unmarshal([]byte(blob), &raw); err != nil {
		return HeaderOverrides{}, apperr.CallerInput("options 参数不是有效的JSON").WithCause(err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := http.CanonicalHeaderKey(strings.TrimSpace(key))
		if !recognizedHeaders[name] {
			out.Ignored = append(out.Ignored, key)
			continue
		}

		switch v := raw[key].(type) {
		case string:
			out.Header.Set(name, v)
		case float64, bool:
			out.Header.Set(name, fmt.Sprint(v))
		default:
			out.Ignored = append(out.Ignored, key)
		}
	}
	return out, nil
}

// Merge returns a copy of base with the overrides applied on top.
func (h HeaderOverrides) Merge(base http.Header) http.Header {
	merged := base.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for name, values := range h.Header {
		merged[name] = append([]string(nil), values...)
	}
	return merged
}
