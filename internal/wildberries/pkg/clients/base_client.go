package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"gomarket_feedbacks/pkg/logger"
)

// ErrUnexpectedStatus matches any *StatusError via errors.Is.
var ErrUnexpectedStatus = errors.New("unexpected status")

type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-OK status %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// maxDrain bounds how much of a probe body is read back to keep the
// connection reusable.
const maxDrain = 64 << 10

// BaseClient is one request-scoped HTTP session. Close releases its pool.
type BaseClient struct {
	log    logger.Logger
	client *http.Client
}

func NewBaseClient(client *http.Client, log logger.Logger) *BaseClient {
	return &BaseClient{client: client, log: log}
}

// Probe issues a GET and reports the status code; the body is discarded.
func (c *BaseClient) Probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, wrapTransportErr(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return resp.StatusCode, nil
}

// GetJSON fetches url and decodes a 200 response into response.
func (c *BaseClient) GetJSON(ctx context.Context, url string, header http.Header, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wrapTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *BaseClient) Close() {
	c.client.CloseIdleConnections()
}

func wrapTransportErr(ctx context.Context, err error) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("request was cancelled: %w", ctx.Err())
	default:
		return fmt.Errorf("failed to execute request: %w", err)
	}
}
