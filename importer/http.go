package importer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robbyt/go-jsonnetvm/importer/httpauth"
	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

const defaultUserAgent = "go-jsonnetvm/http-importer"

// HTTPOptions configures an HTTPImporter. Start from DefaultHTTPOptions.
type HTTPOptions struct {
	// Timeout bounds each request.
	Timeout time.Duration

	// TLSConfig takes precedence over InsecureSkipVerify.
	TLSConfig *tls.Config

	// InsecureSkipVerify disables certificate verification. Only for tests.
	InsecureSkipVerify bool

	// Authenticator decorates each request. Defaults to httpauth.NoAuth.
	Authenticator httpauth.Authenticator

	// Headers are set on every request before authentication.
	Headers map[string]string

	// MaxBytes caps the size of an imported document.
	MaxBytes int64
}

// DefaultHTTPOptions returns a 30 second timeout, no authentication and a 10 MiB size cap.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout:       30 * time.Second,
		Authenticator: httpauth.NewNoAuth(),
		Headers:       make(map[string]string),
		MaxBytes:      10 << 20,
	}
}

// HTTPImporter fetches imports over HTTP(S). An import is resolved against the importing
// file's URL when that file was itself fetched over HTTP, otherwise against the root URL.
// Absolute http and https imports are fetched as given.
type HTTPImporter struct {
	logging
	root    *url.URL
	options *HTTPOptions
	client  *http.Client
}

// NewHTTPImporter creates an importer rooted at rootURL. An empty rootURL means only absolute
// URLs and imports from HTTP-loaded files are handled.
func NewHTTPImporter(rootURL string, options *HTTPOptions, opts ...Option) (*HTTPImporter, error) {
	l, err := newLogging("HTTPImporter", opts)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = DefaultHTTPOptions()
	}
	if options.Authenticator == nil {
		options.Authenticator = httpauth.NewNoAuth()
	}

	var root *url.URL
	if rootURL != "" {
		root, err = parseHTTPURL(rootURL)
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(root.Path, "/") {
			root.Path += "/"
		}
	}

	client := &http.Client{Timeout: options.Timeout}
	if options.InsecureSkipVerify || options.TLSConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if options.TLSConfig != nil {
			transport.TLSClientConfig = options.TLSConfig
		} else {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		client.Transport = transport
	}

	return &HTTPImporter{logging: l, root: root, options: options, client: client}, nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, raw)
	}
	return u, nil
}

func (h *HTTPImporter) String() string {
	if h.root == nil {
		return "importer.HTTPImporter{}"
	}
	return fmt.Sprintf("importer.HTTPImporter{Root: %s, Auth: %s}", h.root, h.options.Authenticator.Name())
}

func (h *HTTPImporter) target(baseDir, rel string) (*url.URL, error) {
	relURL, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("unable to parse import %q: %w", rel, err)
	}
	if relURL.IsAbs() {
		return parseHTTPURL(rel)
	}

	if strings.HasPrefix(baseDir, "http://") || strings.HasPrefix(baseDir, "https://") {
		base, err := parseHTTPURL(baseDir)
		if err != nil {
			return nil, err
		}
		return base.ResolveReference(relURL), nil
	}
	if h.root == nil {
		return nil, ErrNotFound
	}
	return h.root.ResolveReference(relURL), nil
}

// Import implements Resolver.
func (h *HTTPImporter) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	logger := h.logger.WithGroup("Import")

	target, err := h.target(baseDir, rel)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range h.options.Headers {
		req.Header.Set(key, value)
	}
	if err := h.options.Authenticator.AuthenticateWithContext(ctx, req); err != nil {
		return "", "", fmt.Errorf("authentication failed: %w", err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("unexpected response for %s: HTTP %d", target, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	limit := h.options.MaxBytes
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to read response body: %w", err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return "", "", fmt.Errorf("%s exceeds %d bytes", target, limit)
	}

	content := string(body)
	logger.DebugContext(ctx, "resolved import",
		"rel", rel, "foundHere", target.String(), "sha256", helpers.ShortSHA256(content))
	return content, target.String(), nil
}
