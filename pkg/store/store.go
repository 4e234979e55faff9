// Package store provides the egg stores a remote repository is loaded from:
// a local directory of eggs and an HTTP index.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mholt/archives"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/fetch"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
)

// IndexFile is the name of the index mapping egg keys to their records.
const IndexFile = "index.json"

// Store is a package store eggs can also be downloaded from.
type Store interface {
	repository.Store
	fetch.Transport
}

var gzipMagic = []byte{0x1f, 0x8b}

// index is a decoded index.json.
type index struct {
	keys    []string
	records map[string][]byte
}

// decodeIndex parses index data, gzip compressed or not. Records are
// projected onto the fields of a metadata record.
func decodeIndex(data []byte) (*index, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		r, err := archives.Gz{}.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: index: %w", errors.ErrInvalidFormat, err)
		}
		defer r.Close()
		if data, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("%w: index: %w", errors.ErrInvalidFormat, err)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: index: %w", errors.ErrInvalidFormat, err)
	}
	idx := &index{keys: make([]string, 0, len(raw)), records: make(map[string][]byte, len(raw))}
	for key, rec := range raw {
		fields, err := model.ProjectRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "index entry %s", key)
		}
		projected, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		idx.keys = append(idx.keys, key)
		idx.records[key] = projected
	}
	sort.Strings(idx.keys)
	return idx, nil
}

func (idx *index) metadata(key string) ([]byte, error) {
	rec, ok := idx.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the index", errors.ErrMissingPackage, key)
	}
	return rec, nil
}
