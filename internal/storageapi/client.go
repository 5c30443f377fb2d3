// Package storageapi is the narrow HTTP client boundary between the
// transfer engine and the remote storage service: header construction,
// GET for Backup, and a streamed PUT for Restore. It implements
// transfer.Transport so the engine never touches resty or net/http
// directly.
package storageapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"resty.dev/v3"

	"github.com/openmined/adaptivebackup/internal/transfer"
	"github.com/openmined/adaptivebackup/internal/version"
)

// Client is a thin resty wrapper scoped to exactly the two operations the
// transfer engine needs.
type Client struct {
	resty      *resty.Client
	httpClient *http.Client
	baseURL    string
	token      string
	origin     string
}

// New builds a Client against baseURL, authenticating every request with
// token and advertising origin as the Origin header.
func New(baseURL, token, origin string) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "AdaptiveBackup/"+version.Version).
		SetHeader("Origin", origin).
		SetAuthToken(token).
		SetRetryCount(0). // the transfer engine owns its own retry/pause policy
		AddContentTypeEncoder("json", jsonEncoder).
		AddContentTypeDecoder("json", jsonDecoder)

	return &Client{
		resty:      r,
		httpClient: &http.Client{Timeout: 0},
		baseURL:    baseURL,
		token:      token,
		origin:     origin,
	}
}

// FetchPath implements transfer.Transport for Backup's GET.
func (c *Client) FetchPath(ctx context.Context, remotePath string) (*transfer.TransportResponse, error) {
	url := transfer.JoinEndpoint(c.baseURL, remotePath)

	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("storageapi: GET %s: %w", remotePath, err)
	}

	return &transfer.TransportResponse{
		StatusCode: resp.StatusCode(),
		Header:     lowerHeadersHTTP(resp.Header()),
		Body:       resp.Body,
		ETag:       resp.Header().Get("ETag"),
	}, nil
}

// PutPath implements transfer.Transport for Restore's PUT. It bypasses
// resty deliberately: resty's SetBody buffers a io.Reader body fully before
// sending (see resty.dev/v3's multipart/body handling), which defeats
// streaming a large file with an exact, pre-known Content-Length. Plain
// net/http's Request.Body supports a streamed io.ReadCloser directly.
func (c *Client) PutPath(ctx context.Context, remotePath string, body io.Reader, headers map[string]string) (*transfer.TransportResponse, error) {
	url := transfer.JoinEndpoint(c.baseURL, remotePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, fmt.Errorf("storageapi: build PUT request %s: %w", remotePath, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "AdaptiveBackup/"+version.Version)
	req.Header.Set("Origin", c.origin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if cl, ok := headers["Content-Length"]; ok {
		if n, err := parseContentLength(cl); err == nil {
			req.ContentLength = n
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storageapi: PUT %s: %w", remotePath, err)
	}

	return &transfer.TransportResponse{
		StatusCode: resp.StatusCode,
		Header:     lowerHeadersHTTP(resp.Header),
		Body:       resp.Body,
		ETag:       resp.Header.Get("ETag"),
	}, nil
}

// Close releases the underlying resty client's connections.
func (c *Client) Close() {
	c.resty.Close()
}

func lowerHeadersHTTP(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[httpHeaderKeyLower(k)] = h.Get(k)
	}
	return out
}

func httpHeaderKeyLower(k string) string {
	out := make([]byte, len(k))
	for i := 0; i < len(k); i++ {
		c := k[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func parseContentLength(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
