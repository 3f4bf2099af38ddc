// Package pipeline orchestrates the analyze and compare flows: fetch,
// extract, score, and cache.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/extractor"
	"github.com/briannabogos1157/threadtwin/internal/metrics"
	"github.com/briannabogos1157/threadtwin/internal/scorer"
)

// Config bounds a whole analyze or compare operation. The per-page
// behavior (retries, page timeout) lives in the fetcher.
type Config struct {
	OverallTimeout time.Duration
	CacheTTL       time.Duration
}

// Service runs the extraction pipeline. The product store is optional; when
// present it acts as a warm layer behind the TTL cache and is written
// through after every successful extraction.
type Service struct {
	cfg       Config
	fetcher   dupe.Fetcher
	extractor *extractor.Extractor
	scorer    *scorer.Scorer
	cache     dupe.Cache
	products  dupe.ProductStore
	logger    *zap.Logger
}

// New assembles a pipeline service. fetcher and cache are required.
func New(cfg Config, fetcher dupe.Fetcher, cache dupe.Cache, products dupe.ProductStore, logger *zap.Logger) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor.New(),
		scorer:    scorer.New(),
		cache:     cache,
		products:  products,
		logger:    logger,
	}, nil
}

// Analyze extracts the product attributes behind a single URL, consulting
// the TTL cache and the product store before touching the network.
func (s *Service) Analyze(ctx context.Context, rawURL string) (dupe.ProductAttributes, error) {
	rawURL, err := normalizeURL(rawURL)
	if err != nil {
		return dupe.ProductAttributes{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OverallTimeout)
	defer cancel()

	return s.analyze(ctx, rawURL)
}

func (s *Service) analyze(ctx context.Context, rawURL string) (dupe.ProductAttributes, error) {
	if cached, ok := s.cache.Get(rawURL); ok {
		if product, ok := cached.(dupe.ProductAttributes); ok {
			metrics.ObserveCacheLookup(true)
			return product, nil
		}
	}
	metrics.ObserveCacheLookup(false)

	if s.products != nil {
		product, found, err := s.products.GetByURL(ctx, rawURL)
		if err != nil {
			s.logger.Warn("product store lookup failed", zap.String("url", rawURL), zap.Error(err))
		} else if found {
			s.cache.Put(rawURL, product, s.cfg.CacheTTL)
			return product, nil
		}
	}

	doc, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.ObserveExtraction(rawURL, "fetch_error")
		return dupe.ProductAttributes{}, err
	}

	product, err := s.extractor.Extract(doc.DOM, doc.URL)
	if err != nil {
		metrics.ObserveExtraction(rawURL, "extract_error")
		return dupe.ProductAttributes{}, err
	}
	// Results are keyed and reported by the URL the caller asked for,
	// not whatever the page redirected to.
	product.SourceURL = rawURL
	metrics.ObserveExtraction(rawURL, "ok")

	s.cache.Put(rawURL, product, s.cfg.CacheTTL)
	if s.products != nil {
		if err := s.products.Upsert(ctx, product); err != nil {
			s.logger.Warn("product store upsert failed", zap.String("url", rawURL), zap.Error(err))
		}
	}

	s.logger.Info("product analyzed",
		zap.String("url", rawURL),
		zap.String("name", product.Name),
		zap.Bool("rendered", doc.Rendered))
	return product, nil
}

// Compare analyzes both URLs concurrently and scores the pair. The
// comparison is memoized under an order-sensitive key, so swapping the
// arguments is a distinct cache entry even though the score is symmetric.
func (s *Service) Compare(ctx context.Context, originalURL, dupeURL string) (dupe.Comparison, error) {
	originalURL, err := normalizeURL(originalURL)
	if err != nil {
		return dupe.Comparison{}, err
	}
	dupeURL, err = normalizeURL(dupeURL)
	if err != nil {
		return dupe.Comparison{}, err
	}

	key := originalURL + ":" + dupeURL
	if cached, ok := s.cache.Get(key); ok {
		if cmp, ok := cached.(dupe.Comparison); ok {
			metrics.ObserveCacheLookup(true)
			metrics.ObserveComparison("cached")
			return cmp, nil
		}
	}
	metrics.ObserveCacheLookup(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OverallTimeout)
	defer cancel()

	var (
		wg       sync.WaitGroup
		original dupe.ProductAttributes
		dup      dupe.ProductAttributes
		origErr  error
		dupErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		original, origErr = s.analyze(ctx, originalURL)
	}()
	go func() {
		defer wg.Done()
		dup, dupErr = s.analyze(ctx, dupeURL)
	}()
	wg.Wait()

	if origErr != nil {
		metrics.ObserveComparison("error")
		return dupe.Comparison{}, fmt.Errorf("analyze original: %w", origErr)
	}
	if dupErr != nil {
		metrics.ObserveComparison("error")
		return dupe.Comparison{}, fmt.Errorf("analyze dupe: %w", dupErr)
	}

	cmp := dupe.Comparison{
		Original:       original,
		Dupe:           dup,
		MatchBreakdown: s.scorer.Score(original, dup),
	}
	metrics.ObserveComparison("ok")
	s.cache.Put(key, cmp, s.cfg.CacheTTL)

	s.logger.Info("comparison scored",
		zap.String("original", originalURL),
		zap.String("dupe", dupeURL),
		zap.Int("total", cmp.MatchBreakdown.Total))
	return cmp, nil
}

// CacheStats exposes the underlying cache counters for the health surface.
func (s *Service) CacheStats() (int, dupe.CacheStats) {
	return s.cache.Keys(), s.cache.Stats()
}

// normalizeURL validates the input and rejects anything that is not an
// absolute http(s) URL.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", dupe.ErrBadInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", dupe.ErrBadInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", dupe.ErrBadInput, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", dupe.ErrBadInput)
	}
	return u.String(), nil
}
