package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/youruser/beebot/internal/util"
)

var httpURL = regexp.MustCompile(`^https?:`)

// Fetcher downloads and decodes base images.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher returns a Fetcher with the given request timeout and body limit.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// IsHTTPURL reports whether url may be fetched.
func IsHTTPURL(url string) bool { return httpURL.MatchString(url) }

// Fetch downloads url and decodes it, keeping every frame of animations.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Source, error) {
	body, err := f.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}
	src, err := Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return src, nil
}

// Bytes downloads url without decoding it.
func (f *Fetcher) Bytes(ctx context.Context, url string) ([]byte, error) {
	if !IsHTTPURL(url) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	return util.GetBytes(ctx, f.client, url, f.maxBytes)
}
