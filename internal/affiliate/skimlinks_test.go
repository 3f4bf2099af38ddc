package affiliate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		ClientID:     "client",
		ClientSecret: "secret",
		PublisherID:  "pub-1",
	}
}

func TestGenerateLink(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/links", r.URL.Path)
		require.Equal(t, "Basic Y2xpZW50OnNlY3JldA==", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://shop.example/p", body["url"])
		require.Equal(t, "pub-1", body["publisher_id"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"skimlinks_url": "https://go.skimresources.com/?url=https://shop.example/p",
		})
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	link, err := client.GenerateLink(context.Background(), "https://shop.example/p")
	require.NoError(t, err)
	require.Contains(t, link, "skimresources.com")
}

func TestGenerateLinkErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	_, err := client.GenerateLink(context.Background(), "https://shop.example/p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestSearchProductsDegradesOnLinkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/search":
			require.Equal(t, "ribbed tank", r.URL.Query().Get("q"))
			require.Equal(t, "5", r.URL.Query().Get("limit"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"products": []map[string]any{{
					"id":            "p-1",
					"name":          "Ribbed Tank",
					"price":         12.99,
					"currency":      "USD",
					"merchant_name": "H&M",
					"url":           "https://shop.example/p",
				}},
			})
		case "/links":
			http.Error(w, "quota", http.StatusTooManyRequests)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), zap.NewNop())
	results, err := client.SearchProducts(context.Background(), "ribbed tank", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Ribbed Tank", results[0].Title)
	// Falls back to the raw product URL when link generation fails.
	require.Equal(t, "https://shop.example/p", results[0].AffiliateURL)
}

func TestUnconfiguredClient(t *testing.T) {
	t.Parallel()

	client := New(Config{}, zap.NewNop())
	_, err := client.GenerateLink(context.Background(), "https://shop.example/p")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.False(t, Config{ClientID: "only-id"}.Enabled())
}
