package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout applies when no client is supplied.
const DefaultTimeout = 12 * time.Second

// GetBytes fetches url and returns at most limit bytes of the body. A limit
// of zero or less reads everything. Non-200 responses are errors.
func GetBytes(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(b)) > limit {
		return nil, fmt.Errorf("GET %s: body larger than %d bytes", url, limit)
	}
	return b, nil
}
