package store

import (
	"context"
	"io"
	"sync"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
	enhttp "github.com/glorpus-work/enpkg/pkg/http"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// HTTP is a store served over HTTP: <url>/index.json lists the eggs, which
// live next to it. The index may be gzip compressed.
type HTTP struct {
	url    string
	client enhttp.Getter

	mu    sync.Mutex
	index *index
}

// NewHTTP creates a store rooted at url.
func NewHTTP(url string, client enhttp.Getter) *HTTP {
	return &HTTP{url: url, client: client}
}

// Info implements repository.Store.
func (h *HTTP) Info() repository.StoreInfo {
	return repository.StoreInfo{Root: h.url}
}

// loadIndex fetches the index once. A failed fetch is retried on the next
// call.
func (h *HTTP) loadIndex(ctx context.Context) (*index, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index != nil {
		return h.index, nil
	}

	indexURL, err := enhttp.JoinURL(h.url, IndexFile)
	if err != nil {
		return nil, err
	}
	body, err := h.client.Get(ctx, indexURL)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot fetch index of %s", h.url)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read index of %s", h.url)
	}
	idx, err := decodeIndex(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched index", logger.Fields{"store": h.url, "eggs": len(idx.keys)})
	h.index = idx
	return idx, nil
}

// QueryKeys implements repository.Store.
func (h *HTTP) QueryKeys(ctx context.Context) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.keys, nil
}

// GetMetadata implements repository.Store.
func (h *HTTP) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.metadata(key)
}

// Open implements fetch.Transport.
func (h *HTTP) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	eggURL, err := enhttp.JoinURL(h.url, key)
	if err != nil {
		return nil, err
	}
	body, err := h.client.Get(ctx, eggURL)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", key)
	}
	return body, nil
}
