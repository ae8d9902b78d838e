// Package eshttp implements the es.Backend port over the backend's REST API.
package eshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kestrel-sec/detdex/internal/es"
)

// Compile-time check: Client implements es.Backend.
var _ es.Backend = (*Client)(nil)

const maxErrorBodyBytes = 2048

// Config holds connection parameters for the search backend.
type Config struct {
	Addrs    []string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the backend over HTTP/JSON, rotating across addresses.
type Client struct {
	addrs    []string
	username string
	password string
	hc       *http.Client
	next     atomic.Uint64
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	addrs := make([]string, len(cfg.Addrs))
	for i, a := range cfg.Addrs {
		if !strings.Contains(a, "://") {
			a = "http://" + a
		}
		addrs[i] = strings.TrimRight(a, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		addrs:    addrs,
		username: cfg.Username,
		password: cfg.Password,
		hc:       &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, es.OpPing, http.MethodGet, "/", nil, nil)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

// WaitForReady polls Ping until the backend responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for backend: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Search executes a _search call against an index.
func (c *Client) Search(ctx context.Context, index string, body *es.SearchBody) (*es.SearchResponse, error) {
	var resp es.SearchResponse
	path := "/" + url.PathEscape(index) + "/_search"
	if err := c.do(ctx, es.OpSearch, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Suggest executes a completion suggest call against an index.
func (c *Client) Suggest(ctx context.Context, index string, body *es.SuggestBody) (*es.SuggestResponse, error) {
	var resp es.SuggestResponse
	path := "/" + url.PathEscape(index) + "/_search"
	if err := c.do(ctx, es.OpSuggest, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClusterHealth returns the cluster status scoped to an index.
func (c *Client) ClusterHealth(ctx context.Context, index string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	path := "/_cluster/health/" + url.PathEscape(index)
	if err := c.do(ctx, es.OpClusterHealth, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// IndexExists reports whether an index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	err := c.do(ctx, es.OpIndexExists, http.MethodHead, "/"+url.PathEscape(index), nil, nil)
	if err != nil {
		var esErr *es.Error
		if errors.As(err, &esErr) && esErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateIndex creates an index with the given settings and mappings.
func (c *Client) CreateIndex(ctx context.Context, index string, schema json.RawMessage) error {
	return c.do(ctx, es.OpCreateIndex, http.MethodPut, "/"+url.PathEscape(index), schema, nil)
}

// RefreshIndex makes recent writes visible to search.
func (c *Client) RefreshIndex(ctx context.Context, index string) error {
	path := "/" + url.PathEscape(index) + "/_refresh"
	return c.do(ctx, es.OpRefreshIndex, http.MethodPost, path, nil, nil)
}

// IndexDocument writes a document under the given id.
func (c *Client) IndexDocument(ctx context.Context, index, id string, doc any) error {
	path := "/" + url.PathEscape(index) + "/_doc/" + url.PathEscape(id)
	return c.do(ctx, es.OpIndexDocument, http.MethodPut, path, doc, nil)
}

// do sends one request to the next address and decodes the JSON reply.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	addr := c.addrs[c.next.Add(1)%uint64(len(c.addrs))]

	var reqBody io.Reader
	if body != nil {
		data, err := encodeBody(body)
		if err != nil {
			return &es.Error{Op: op, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, addr+path, reqBody)
	if err != nil {
		return &es.Error{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &es.Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &es.Error{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &es.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(body)
}
