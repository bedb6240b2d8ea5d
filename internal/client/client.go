// Package client talks to the epaper server: uploading packed frames,
// asking the server to convert images, and conditionally fetching the
// current frame. Requests are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rook-computer/epaper/internal/render"
)

const (
	uploadEndpoint      = "/api/upload"
	convertEndpoint     = "/api/convert"
	imageEndpoint       = "/api/image"
	defaultUserAgent    = "epaper-client/1.0"
	defaultHTTPTimeout  = 30 * time.Second
	maxResponseBodySize = 4 << 20
)

type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient builds a client for the server at baseURL, e.g. "http://frame.local:8080".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("epaper: base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("epaper: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultHTTPTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return c, nil
}

type UploadResult struct {
	// ETag is empty when the server runs without ETags.
	ETag string
}

type FetchResult struct {
	Data        []byte
	ETag        string
	NotModified bool
}

// Upload sends an already packed frame.
func (c *Client) Upload(ctx context.Context, packed []byte) (UploadResult, error) {
	return c.post(ctx, uploadEndpoint, "application/octet-stream", bytes.NewReader(packed))
}

// Convert sends an encoded image for the server to fit, dither and pack.
func (c *Client) Convert(ctx context.Context, body io.Reader, contentType string, mode render.FitMode) (UploadResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.post(ctx, convertEndpoint+"?fit="+url.QueryEscape(mode.String()), contentType, body)
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader) (UploadResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, errors.Wrap(err, "epaper: execute request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return UploadResult{}, errors.Wrap(err, "epaper: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadResult{}, buildAPIError(resp.StatusCode, raw)
	}

	var out struct {
		Success bool   `json:"success"`
		ETag    string `json:"etag"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return UploadResult{}, errors.Wrap(err, "epaper: decode response")
	}
	if !out.Success {
		return UploadResult{}, &APIError{StatusCode: resp.StatusCode, Message: "server did not report success"}
	}
	return UploadResult{ETag: out.ETag}, nil
}

// Fetch downloads the current frame. A non-empty etag is sent as
// If-None-Match; a matching server answers NotModified with no data.
func (c *Client) Fetch(ctx context.Context, etag string) (FetchResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, imageEndpoint, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return FetchResult{}, errors.Wrap(err, "epaper: execute request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		tag := resp.Header.Get("ETag")
		if tag == "" {
			tag = etag
		}
		return FetchResult{ETag: tag, NotModified: true}, nil
	case http.StatusNotFound:
		return FetchResult{}, ErrNoImage
	case http.StatusOK:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		if err != nil {
			return FetchResult{}, errors.Wrap(err, "epaper: read frame")
		}
		return FetchResult{Data: data, ETag: resp.Header.Get("ETag")}, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return FetchResult{}, buildAPIError(resp.StatusCode, raw)
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "epaper: build request")
	}
	if ua := strings.TrimSpace(c.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	return req, nil
}
