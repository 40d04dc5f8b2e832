package data

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// RequestToMap flattens an HTTP request into plain values. The body is read and restored so
// the request remains usable.
func RequestToMap(r *http.Request) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("request is nil")
	}

	headers := map[string][]string(r.Header.Clone())
	if headers == nil {
		headers = map[string][]string{}
	}
	out := map[string]any{
		"method":         r.Method,
		"proto":          r.Proto,
		"host":           r.Host,
		"remote_addr":    r.RemoteAddr,
		"content_length": r.ContentLength,
		"headers":        headers,
		"body":           "",
		"url":            "",
		"url_path":       "",
		"query_params":   map[string][]string{},
	}
	if r.URL != nil {
		out["url"] = r.URL.String()
		out["url_path"] = r.URL.Path
		out["query_params"] = map[string][]string(r.URL.Query())
	}

	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		out["body"] = string(body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	return out, nil
}
