// Package upload sends session tracking records to the remote collector
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayoisaiah/annotrack/internal/apperr"
)

// DefaultPath is the collector endpoint that accepts tracking records.
const DefaultPath = "/upload-tracking"

const defaultTimeout = 10 * time.Second

var (
	errUploadRequest = &apperr.Error{
		Message: "unable to send tracking data",
	}

	errUploadStatus = &apperr.Error{
		Message: "collector rejected tracking data with status %d: %s",
	}
)

// Payload is the request body accepted by the collector.
type Payload struct {
	CSV      string `json:"csv"`
	Filename string `json:"filename"`
}

// FilenameFor returns the collector file name for a user's records.
func FilenameFor(username string) string {
	return fmt.Sprintf("tracking_%s.csv", username)
}

// Client posts payloads to a collector.
type Client struct {
	http    *http.Client
	baseURL string
	path    string
}

// Option configures a Client.
type Option func(*Client)

// WithPath overrides the collector endpoint path.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithTimeout bounds each upload request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the collector at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		path:    DefaultPath,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the full endpoint address.
func (c *Client) URL() string {
	return c.baseURL + c.path
}

// Upload sends p to the collector. It makes a single attempt.
func (c *Client) Upload(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.URL(),
		bytes.NewReader(body),
	)
	if err != nil {
		return errUploadRequest.Wrap(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errUploadRequest.Wrap(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return errUploadStatus.Fmt(
			resp.StatusCode,
			strings.TrimSpace(string(msg)),
		)
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
