// Package affiliate wraps the Skimlinks v2 API for monetizing outbound
// merchant links.
package affiliate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api-v2.skimlinks.com"

// ErrNotConfigured is returned when the client is used without credentials.
var ErrNotConfigured = errors.New("skimlinks credentials not configured")

// Config carries Skimlinks API credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	PublisherID  string
	Timeout      time.Duration
}

// Enabled reports whether enough credentials are present to make calls.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.PublisherID != ""
}

// ProductResult is one affiliate product hit.
type ProductResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Merchant     string  `json:"merchant"`
	ImageURL     string  `json:"imageUrl"`
	ProductURL   string  `json:"productUrl"`
	AffiliateURL string  `json:"affiliateUrl"`
}

// Client talks to the Skimlinks API using basic auth.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a client. It does not validate credentials; call
// ValidateCredentials at startup if the config claims to be enabled.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// ValidateCredentials checks that the publisher account is reachable.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var ignored json.RawMessage
	return c.do(ctx, http.MethodGet, "/publisher/"+c.cfg.PublisherID, nil, &ignored)
}

// GenerateLink asks Skimlinks for an affiliate URL wrapping merchantURL.
func (c *Client) GenerateLink(ctx context.Context, merchantURL string) (string, error) {
	body := map[string]string{
		"url":          merchantURL,
		"publisher_id": c.cfg.PublisherID,
	}
	var resp struct {
		SkimlinksURL string `json:"skimlinks_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/links", body, &resp); err != nil {
		return "", err
	}
	if resp.SkimlinksURL == "" {
		return "", errors.New("skimlinks response carried no url")
	}
	return resp.SkimlinksURL, nil
}

// SearchProducts queries the affiliate product catalog and wraps each hit
// with an affiliate link. Link generation failures degrade to the raw
// product URL rather than failing the search.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]ProductResult, error) {
	if limit <= 0 {
		limit = 20
	}
	path := "/products/search?q=" + url.QueryEscape(query) +
		"&limit=" + strconv.Itoa(limit) +
		"&publisher_id=" + url.QueryEscape(c.cfg.PublisherID)

	var resp struct {
		Products []struct {
			ID           string  `json:"id"`
			Name         string  `json:"name"`
			Description  string  `json:"description"`
			Price        float64 `json:"price"`
			Currency     string  `json:"currency"`
			MerchantName string  `json:"merchant_name"`
			ImageURL     string  `json:"image_url"`
			URL          string  `json:"url"`
		} `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]ProductResult, 0, len(resp.Products))
	for _, p := range resp.Products {
		affiliateURL, err := c.GenerateLink(ctx, p.URL)
		if err != nil {
			c.logger.Warn("affiliate link generation failed",
				zap.String("product_url", p.URL),
				zap.Error(err))
			affiliateURL = p.URL
		}
		out = append(out, ProductResult{
			ID:           p.ID,
			Title:        p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Currency:     p.Currency,
			Merchant:     p.MerchantName,
			ImageURL:     p.ImageURL,
			ProductURL:   p.URL,
			AffiliateURL: affiliateURL,
		})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if !c.cfg.Enabled() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.ClientID, c.cfg.ClientSecret))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("skimlinks request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("skimlinks %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func basicAuth(id, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret))
}
