package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ProgressFunc receives transfer progress as a 0-100 percent.
type ProgressFunc func(percent int)

// Executor performs single presigned PUTs against object storage.
//
// It deliberately uses net/http instead of the API client: high-level HTTP
// clients buffer the body or mishandle Content-Length on presigned URLs, and
// presigned requests carry no auth headers anyway.
type Executor struct {
	client *http.Client
}

// NewExecutor creates an Executor. A nil client falls back to
// http.DefaultClient.
func NewExecutor(client *http.Client) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{client: client}
}

// Put performs exactly one PUT of body to a presigned destination URL.
//
// Progress is reported for this request only; values below 100 track bytes
// handed to the transport, 100 is emitted once the response is acknowledged.
// Cancelling ctx aborts the request; the call always finishes with exactly
// one outcome, the returned (etag, error) pair.
func (e *Executor) Put(ctx context.Context, url, contentType string, body io.Reader, size int64, onProgress ProgressFunc) (string, error) {
	pr := &progressReader{
		reader:    body,
		totalSize: size,
		callback:  onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, pr)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = size // THIS IS IMPORTANT FOR PRESIGNED URLS
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		// surface the cancellation cause instead of the wrapped url error
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("put failed with status %d", resp.StatusCode)
	}

	if onProgress != nil {
		onProgress(100)
	}

	return strings.Trim(resp.Header.Get("ETag"), "\""), nil
}
