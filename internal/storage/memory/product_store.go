// Package memory provides in-memory store implementations for development
// and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// ProductStore keeps extracted products in a mutex-guarded map keyed by
// source URL.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]dupe.ProductAttributes
}

// NewProductStore constructs an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]dupe.ProductAttributes)}
}

// GetByURL looks up a product by its source URL.
func (s *ProductStore) GetByURL(_ context.Context, url string) (dupe.ProductAttributes, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[url]
	return product, ok, nil
}

// Upsert inserts or replaces the product stored under its source URL.
func (s *ProductStore) Upsert(_ context.Context, product dupe.ProductAttributes) error {
	if product.SourceURL == "" {
		return errors.New("product has no source url")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.SourceURL] = product
	return nil
}

// List returns all stored products ordered by source URL.
func (s *ProductStore) List(_ context.Context) ([]dupe.ProductAttributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dupe.ProductAttributes, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceURL < out[j].SourceURL })
	return out, nil
}

// Search matches the query case-insensitively against product names and
// source URLs.
func (s *ProductStore) Search(_ context.Context, query string) ([]dupe.ProductAttributes, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List(context.Background())
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dupe.ProductAttributes
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.SourceURL), query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceURL < out[j].SourceURL })
	return out, nil
}
