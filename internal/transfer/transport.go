package transfer

import (
	"context"
	"io"
)

// TransportResponse is the minimal shape both transfer kinds need out of an
// HTTP round trip. Decoupling from *http.Response (and from resty.Response)
// keeps this package testable against a fake transport with no real
// network, and keeps the dependency on resty.dev/v3 confined to the
// storage-API client that implements this interface.
type TransportResponse struct {
	StatusCode int
	Header     map[string]string // lower-cased header names
	Body       io.ReadCloser
	ETag       string // convenience extraction of the ETag response header
}

// Transport abstracts the two HTTP operations the engine needs. A real
// implementation (internal/storageapi.Client) issues GET/PUT against the
// storage service; tests substitute a fake.
type Transport interface {
	// FetchPath issues GET endpoint+encodedPath for a Backup transfer.
	FetchPath(ctx context.Context, remotePath string) (*TransportResponse, error)

	// PutPath issues PUT endpoint+encodedPath for a Restore transfer,
	// streaming body as the request entity. headers carries Content-Type,
	// Content-Length, and (when present) If-None-Match.
	PutPath(ctx context.Context, remotePath string, body io.Reader, headers map[string]string) (*TransportResponse, error)
}
