package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/briannabogos1157/threadtwin/internal/affiliate"
	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/search"
)

type analyzeRequest struct {
	URL string `json:"url"`
}

type compareRequest struct {
	OriginalURL string `json:"originalUrl"`
	DupeURL     string `json:"dupeUrl"`
}

type submissionRequest struct {
	OriginalProduct  string `json:"original_product"`
	DupeProduct      string `json:"dupe_product"`
	PriceComparison  string `json:"price_comparison"`
	SimilarityReason string `json:"similarity_reason"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type affiliateLinkRequest struct {
	URL string `json:"url"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	keys, stats := s.pipeline.CacheStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache": map[string]any{
			"keys":  keys,
			"stats": stats,
		},
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	product, err := s.pipeline.Analyze(r.Context(), req.URL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	comparison, err := s.pipeline.Compare(r.Context(), req.OriginalURL, req.DupeURL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeError(w, http.StatusServiceUnavailable, "product store not configured")
		return
	}
	products, err := s.products.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []dupe.ProductAttributes{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeError(w, http.StatusServiceUnavailable, "product store not configured")
		return
	}
	query := r.URL.Query().Get("q")
	products, err := s.products.Search(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []dupe.ProductAttributes{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	if s.submissions == nil {
		writeError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.OriginalProduct) == "" || strings.TrimSpace(req.DupeProduct) == "" {
		writeError(w, http.StatusBadRequest, "original_product and dupe_product are required")
		return
	}
	sub := dupe.Submission{
		ID:               uuid.NewString(),
		OriginalProduct:  req.OriginalProduct,
		DupeProduct:      req.DupeProduct,
		PriceComparison:  req.PriceComparison,
		SimilarityReason: req.SimilarityReason,
		Status:           dupe.SubmissionPending,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.submissions.CreateSubmission(r.Context(), sub); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.submissions == nil {
		writeError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}
	status := dupe.SubmissionStatus(r.URL.Query().Get("status"))
	if status != "" && !dupe.ValidSubmissionStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	subs, err := s.submissions.ListSubmissions(r.Context(), status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if subs == nil {
		subs = []dupe.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (s *Server) updateSubmission(w http.ResponseWriter, r *http.Request) {
	if s.submissions == nil {
		writeError(w, http.StatusServiceUnavailable, "submission store not configured")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	status := dupe.SubmissionStatus(req.Status)
	if !dupe.ValidSubmissionStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	id := chi.URLParam(r, "submission_id")
	if err := s.submissions.UpdateSubmissionStatus(r.Context(), id, status); err != nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

func (s *Server) findDupes(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "dupe search not configured")
		return
	}
	item := strings.TrimSpace(r.URL.Query().Get("item"))
	if item == "" {
		writeError(w, http.StatusBadRequest, "item query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := s.search.FindDupes(r.Context(), item, limit)
	if errors.Is(err, search.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "dupe search not configured")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) affiliateLink(w http.ResponseWriter, r *http.Request) {
	if s.affiliate == nil {
		writeError(w, http.StatusServiceUnavailable, "affiliate links not configured")
		return
	}
	var req affiliateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	link, err := s.affiliate.GenerateLink(r.Context(), req.URL)
	if errors.Is(err, affiliate.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "affiliate links not configured")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": req.URL, "affiliateUrl": link})
}
