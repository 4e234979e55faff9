package http

import (
	"context"
	"io"
)

// Getter retrieves the body of a URL.
type Getter interface {
	// Get returns the response body of a successful GET request. The caller
	// closes it.
	Get(ctx context.Context, rawURL string) (io.ReadCloser, error)
}
