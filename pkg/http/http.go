// Package http is the authenticated HTTP client used by remote stores.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/auth"
	"github.com/glorpus-work/enpkg/pkg/errors"
)

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "enpkg/1.0"

// Client performs GET requests with optional credentials.
type Client struct {
	client    *http.Client
	auth      auth.Authenticator
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithAuthenticator applies a to every request.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.client.Transport = rt }
}

// NewClient creates a client. A zero timeout disables it.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request for rawURL. 401 and 403 responses fail with
// ErrAuthFailed, other non-200 responses with ErrUnexpectedStatus.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != nil {
		if err := c.auth.Apply(req); err != nil {
			return nil, err
		}
	}

	logger.Debug("GET", logger.Fields{"url": rawURL})
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", rawURL)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d for %s", errors.ErrAuthFailed, resp.StatusCode, rawURL)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d for %s", errors.ErrUnexpectedStatus, resp.StatusCode, rawURL)
	}
}

// JoinURL appends path elements to the path of base.
func JoinURL(base string, elem ...string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidURL, base)
	}
	parsed.Path, err = url.JoinPath(parsed.Path, elem...)
	if err != nil {
		return "", errors.Wrapf(err, "failed to build URL from %s", base)
	}
	return parsed.String(), nil
}
