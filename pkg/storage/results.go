package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

const resultPrefix = "scans/"

// ResultStore persists scan results keyed by scan ID over any BlobStore.
// Results are stored as indented JSON so local files stay readable.
type ResultStore struct {
	Blobs BlobStore
}

func NewResultStore(blobs BlobStore) *ResultStore {
	return &ResultStore{Blobs: blobs}
}

func resultKey(scanID string) string {
	return resultPrefix + scanID + ".json"
}

// Save writes one scan result under its scan ID.
func (s *ResultStore) Save(ctx context.Context, scanID string, result interface{}) error {
	if scanID == "" {
		return fmt.Errorf("scan id is required")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	return s.Blobs.Put(ctx, resultKey(scanID), data)
}

// Load reads one scan result into out.
func (s *ResultStore) Load(ctx context.Context, scanID string, out interface{}) error {
	data, err := s.Blobs.Get(ctx, resultKey(scanID))
	if err != nil {
		return fmt.Errorf("load scan %s: %w", scanID, err)
	}
	return json.Unmarshal(data, out)
}

// List returns the stored scan IDs.
func (s *ResultStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.Blobs.List(ctx, resultPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		base := path.Base(k)
		ids = append(ids, strings.TrimSuffix(base, ".json"))
	}
	return ids, nil
}
