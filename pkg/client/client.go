// Package client talks to the inference service: endpoint metadata and
// prediction calls. Schema documents are fetched by the openapi loader.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/goliatone/go-inferform/pkg/marshal"
)

const requestIDHeader = "X-Request-Id"

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is safe for concurrent use; it holds no per-call state.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger
}

// New constructs a client for the service rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", parsed.Scheme)
	}
	c := &Client{
		base:   parsed,
		http:   &http.Client{},
		logger: log.New(io.Discard),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Resolve joins an absolute API path onto the base URL.
func (c *Client) Resolve(path string) string {
	ref := &url.URL{Path: path}
	if !strings.HasPrefix(path, "/") {
		ref.Path = "/" + path
	}
	joined := *c.base
	joined.Path = strings.TrimSuffix(c.base.Path, "/") + ref.Path
	joined.RawQuery = ""
	return joined.String()
}

// Response is a raw prediction response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Predict POSTs req to path. Params travel in the query string, list values
// as repeated keys; files travel as a multipart body. The accept parameter is
// also sent as the Accept header. Non-200 responses are returned, not
// treated as errors.
func (c *Client) Predict(ctx context.Context, path string, req marshal.Request) (Response, error) {
	target, err := url.Parse(c.Resolve(path))
	if err != nil {
		return Response{}, fmt.Errorf("client: resolve %s: %w", path, err)
	}
	target.RawQuery = encodeQuery(req.Params).Encode()

	body, contentType, err := encodeFiles(req.Files)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		return Response{}, fmt.Errorf("client: build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if accept, ok := req.Params["accept"].(string); ok && accept != "" {
		httpReq.Header.Set("Accept", accept)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(requestIDHeader, requestID)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("client: predict %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("client: read predict response: %w", err)
	}
	c.logger.Debug("prediction call",
		"request_id", requestID,
		"path", path,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(raw))),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func encodeQuery(params map[string]any) url.Values {
	values := url.Values{}
	for name, value := range params {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				values.Add(name, scalarText(item))
			}
		case []string:
			for _, item := range v {
				values.Add(name, item)
			}
		default:
			values.Set(name, scalarText(v))
		}
	}
	return values
}

func scalarText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool, int, int64, float64, json.Number:
		return fmt.Sprint(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

func encodeFiles(files map[string]marshal.FilePart) (io.Reader, string, error) {
	if len(files) == 0 {
		return http.NoBody, "", nil
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range names {
		part := files[name]
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, part.Filename))
		if part.MIMEType != "" {
			header.Set("Content-Type", part.MIMEType)
		} else {
			header.Set("Content-Type", "application/octet-stream")
		}
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("client: create part %s: %w", name, err)
		}
		if _, err := w.Write(part.Content); err != nil {
			return nil, "", fmt.Errorf("client: write part %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
