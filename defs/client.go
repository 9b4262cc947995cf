// Package defs fetches TypeScript declaration files listed by the GitHub
// contents API and joins them into a single local file.
package defs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configure a Client. The token is required and is never read from
// the environment here.
type Options struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	userAgent string
}

// Entry is one item of a contents listing.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// RequestError reports a failed request together with the response body.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, strings.TrimSpace(e.Body))
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// maxErrorBody caps how much of a failed response is kept for reporting.
const maxErrorBody = 64 << 10

func NewClient(options Options) (*Client, error) {
	if options.Token == "" {
		return nil, errors.New("defs: api token is required")
	}
	if options.BaseURL == "" {
		return nil, errors.New("defs: base url is required")
	}

	var httpClient *http.Client
	if options.HTTPClient != nil {
		clone := *options.HTTPClient
		if options.Timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.Timeout
		}
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	ua := options.UserAgent
	if ua == "" {
		ua = "tsplay"
	}

	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimSuffix(options.BaseURL, "/"),
		token:     options.Token,
		userAgent: ua,
	}, nil
}

// URL resolves a listing path against the base URL. Absolute URLs are kept.
func (c *Client) URL(listing string) string {
	if strings.HasPrefix(listing, "http://") || strings.HasPrefix(listing, "https://") {
		return listing
	}
	return c.baseURL + "/" + strings.TrimPrefix(listing, "/")
}

// List returns the entries of a contents listing, in the order the API
// returned them.
func (c *Client) List(ctx context.Context, listing string) ([]Entry, error) {
	data, err := c.get(ctx, c.URL(listing), "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding listing %s: %w", c.URL(listing), err)
	}
	return entries, nil
}

// Content downloads the raw text of a listed file.
func (c *Client) Content(ctx context.Context, e Entry) ([]byte, error) {
	if e.DownloadURL == "" {
		return nil, fmt.Errorf("%s: entry has no download url", e.Path)
	}
	return c.get(ctx, e.DownloadURL, "application/vnd.github.raw")
}

func (c *Client) get(ctx context.Context, url string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			Method:     req.Method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: url, Err: err}
	}
	return data, nil
}
