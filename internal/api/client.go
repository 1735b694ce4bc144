package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL is used when no API base is configured.
const DefaultBaseURL = "http://localhost:8080"

const (
	chatPath      = "/api/chat"
	uploadPath    = "/api/index/upload"
	urlOrTextPath = "/api/index/url-or-text"
)

// Error is returned for any non-2xx response. Message holds the server's
// {"error": "..."} field when the body carried one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %d", e.StatusCode)
}

// Client talks to the indexing and chat backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (no timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for baseURL. An empty base falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat posts a question and returns the assistant's response text.
// A success body without a "response" field, or one that is not JSON,
// yields an empty string.
func (c *Client) Chat(ctx context.Context, query string) (string, error) {
	reqBody, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", fmt.Errorf("chat encode error: %w", err)
	}

	resp, err := c.post(ctx, chatPath, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp struct {
		Response string `json:"response"`
	}
	// an unreadable success body counts as one without a response field
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil && err != io.EOF {
		c.log.Warn("chat response not JSON", zap.Error(err))
		return "", nil
	}
	return chatResp.Response, nil
}

// UploadFile sends r as the multipart field "file" named name.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("upload form error: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("upload read error: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("upload form error: %w", err)
	}

	resp, err := c.post(ctx, uploadPath, mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	// success body is ignored
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// IndexURLOrText submits a URL or a block of raw text for indexing.
func (c *Client) IndexURLOrText(ctx context.Context, input string) error {
	reqBody, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return fmt.Errorf("index encode error: %w", err)
	}

	resp, err := c.post(ctx, urlOrTextPath, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// post issues the request and converts non-2xx responses into *Error.
// On success the caller owns resp.Body.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s req error: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(bodyBytes, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		c.log.Warn("request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Message))
		return nil, apiErr
	}

	c.log.Debug("request ok", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return resp, nil
}
