// Package search finds candidate dupes for a luxury item via the SerpApi
// Google results endpoint.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://serpapi.com"

// The merchants whose catalogs are worth surfacing as dupe candidates.
var dupeSites = []string{"hm.com", "forever21.com", "zara.com", "asos.com"}

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("serpapi key not configured")

// Config carries the SerpApi credentials and limits.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether the client can make calls.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries SerpApi for affordable alternatives.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a SerpApi client.
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

// FindDupes searches for affordable alternatives to the named item,
// restricted to the known fast-fashion merchants.
func (c *Client) FindDupes(ctx context.Context, luxuryItem string, limit int) ([]Result, error) {
	if !c.cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 5
	}

	query := "affordable alternative to " + luxuryItem
	for i, site := range dupeSites {
		if i == 0 {
			query += " site:" + site
		} else {
			query += " OR site:" + site
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi search: status %d", resp.StatusCode)
	}

	var payload struct {
		OrganicResults []Result `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("dupe search completed",
		zap.String("item", luxuryItem),
		zap.Int("results", len(payload.OrganicResults)))
	return payload.OrganicResults, nil
}
