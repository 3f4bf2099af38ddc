// Package dupe defines core types shared across the analysis pipeline.
package dupe

import (
	"time"
)

// ProductAttributes is the structured result of extracting a product page.
// A value is built once per successful extraction and never mutated after.
type ProductAttributes struct {
	SourceURL         string   `json:"url"`
	Name              string   `json:"name"`
	Price             float64  `json:"price"`
	FabricComposition []string `json:"fabricComposition"`
	Construction      []string `json:"construction"`
	Fit               []string `json:"fit"`
	CareInstructions  []string `json:"careInstructions"`
	Images            []string `json:"images"`
}

// MatchBreakdown holds the per-category similarity scores plus the weighted
// total, all on a 0-100 scale.
type MatchBreakdown struct {
	Fabric       int `json:"fabric"`
	Construction int `json:"construction"`
	Fit          int `json:"fit"`
	Care         int `json:"care"`
	Total        int `json:"total"`
}

// Comparison bundles both extractions with their match breakdown.
type Comparison struct {
	Original       ProductAttributes `json:"original"`
	Dupe           ProductAttributes `json:"dupe"`
	MatchBreakdown MatchBreakdown    `json:"matchBreakdown"`
}

// SubmissionStatus is the review state of a community-submitted dupe pair.
type SubmissionStatus string

// Submission status values persisted in the submission store.
const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// ValidSubmissionStatus reports whether s is one of the known review states.
func ValidSubmissionStatus(s SubmissionStatus) bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	default:
		return false
	}
}

// Submission is a community-submitted original/dupe pair awaiting review.
type Submission struct {
	ID               string           `json:"id"`
	OriginalProduct  string           `json:"original_product"`
	DupeProduct      string           `json:"dupe_product"`
	PriceComparison  string           `json:"price_comparison"`
	SimilarityReason string           `json:"similarity_reason"`
	Status           SubmissionStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CacheStats exposes hit/miss counters for observability.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Expired uint64 `json:"expired"`
}
