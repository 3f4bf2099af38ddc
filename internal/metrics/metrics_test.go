package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	require.NotPanics(t, Init)

	// Collectors must be usable after a second Init.
	ObserveExtraction("https://example.com/product", "success")
	ObserveFetch("static", 120*time.Millisecond)
	ObserveRetry()
	ObserveHeadlessPromotion()
	ObserveComparison("success")
	ObserveCacheLookup(true)
	ObserveCacheLookup(false)
	ObserveHTTPRequest("POST", "/api/analyze", 200, 50*time.Millisecond)
}

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://Shop.Example.com/tops/1", "shop.example.com"},
		{"example.com/p", "example.com"},
		{"http://example.com:8080/p", "example.com"},
		{"", "unknown"},
		{"http://", "unknown"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SanitizeSite(tc.in), "input %q", tc.in)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveExtraction("https://example.com", "success")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "threadtwin_extractions_total")
}
