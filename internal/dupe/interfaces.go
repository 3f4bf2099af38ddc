package dupe

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Document is a fetched, parsed page plus the URL it resolved to. The
// resolved URL is what relative image references are resolved against.
type Document struct {
	DOM      *goquery.Document
	URL      string
	Rendered bool
}

// Page is the raw result of a single fetch strategy attempt.
type Page struct {
	Body       []byte
	URL        string
	StatusCode int
	Duration   time.Duration
	Rendered   bool
}

// Fetcher retrieves a parsed document for a URL, applying whatever retry,
// timeout, and strategy-selection policy the implementation carries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// Strategy is a single way of obtaining page content (static HTTP or a
// headless render). Fetchers compose strategies; callers use Fetcher.
type Strategy interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Cache memoizes extraction and comparison results with a time-to-live.
// Stored values are treated as read-only snapshots; implementations do not
// deep-copy on Put or Get and callers must not mutate returned values.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any, ttl time.Duration)
	Keys() int
	Stats() CacheStats
}

// ProductStore persists extracted products keyed by source URL. The
// pipeline consults it as a warm cache and writes through after a
// successful extraction.
type ProductStore interface {
	GetByURL(ctx context.Context, url string) (ProductAttributes, bool, error)
	Upsert(ctx context.Context, product ProductAttributes) error
	List(ctx context.Context) ([]ProductAttributes, error)
	Search(ctx context.Context, query string) ([]ProductAttributes, error)
}

// SubmissionStore persists community-submitted dupe pairs.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub Submission) error
	ListSubmissions(ctx context.Context, status SubmissionStatus) ([]Submission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status SubmissionStatus) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
