// Package fetcher composes the static and headless fetch strategies into
// a single retrying client that returns parsed documents.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/metrics"
)

// Fetch modes. Auto probes statically first and promotes to a headless
// render when the detector flags the page as JavaScript-driven.
const (
	ModeStatic   = "static"
	ModeHeadless = "headless"
	ModeAuto     = "auto"
)

// Config controls retry and timeout behavior of the client. MaxRetries
// counts attempts after the first one, so a budget of 3 allows four
// fetches in total.
type Config struct {
	Mode        string
	MaxRetries  int
	RetryDelay  time.Duration
	PageTimeout time.Duration
}

// Client implements dupe.Fetcher on top of one or two strategies. Each
// attempt gets its own page deadline; the caller's context bounds the
// whole operation.
type Client struct {
	cfg      Config
	static   dupe.Strategy
	headless dupe.Strategy
	detector *Detector
	logger   *zap.Logger
}

// New builds a client. The headless strategy and detector may be nil, in
// which case every fetch stays static regardless of mode.
func New(cfg Config, static dupe.Strategy, headless dupe.Strategy, detector *Detector, logger *zap.Logger) (*Client, error) {
	if static == nil {
		return nil, errors.New("static strategy is required")
	}
	switch cfg.Mode {
	case ModeStatic, ModeHeadless, ModeAuto:
	case "":
		cfg.Mode = ModeAuto
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.Mode)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:      cfg,
		static:   static,
		headless: headless,
		detector: detector,
		logger:   logger,
	}, nil
}

// Fetch retrieves and parses the page at url. Attempts are spaced by a
// fixed delay; a context deadline or cancellation ends the loop early
// and surfaces as ErrFetchTimeout or the context error respectively.
func (c *Client) Fetch(ctx context.Context, url string) (dupe.Document, error) {
	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		page, err := c.fetchOnce(ctx, url)
		if err == nil {
			return parseDocument(page)
		}
		lastErr = err

		if ctxErr := translateContextErr(ctx, err); ctxErr != nil {
			return dupe.Document{}, ctxErr
		}
		c.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < attempts {
			metrics.ObserveRetry()
			if err := c.sleep(ctx); err != nil {
				return dupe.Document{}, err
			}
		}
	}
	return dupe.Document{}, &dupe.ExhaustedError{Attempts: attempts, Cause: lastErr}
}

// fetchOnce runs a single attempt under the page deadline, including the
// headless promotion when the mode calls for it.
func (c *Client) fetchOnce(ctx context.Context, url string) (dupe.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, c.cfg.PageTimeout)
	defer cancel()

	if c.cfg.Mode == ModeHeadless && c.headless != nil {
		return c.timedFetch(pageCtx, c.headless, "headless", url)
	}

	page, err := c.timedFetch(pageCtx, c.static, "static", url)
	if err != nil {
		return dupe.Page{}, err
	}
	if c.cfg.Mode != ModeAuto || c.headless == nil || c.detector == nil {
		return page, nil
	}
	if !c.detector.NeedsRender(page) {
		return page, nil
	}

	metrics.ObserveHeadlessPromotion()
	rendered, err := c.timedFetch(pageCtx, c.headless, "headless", url)
	if err != nil {
		// The static page is still usable; extraction gets a shot at it.
		c.logger.Warn("headless promotion failed",
			zap.String("url", url),
			zap.Error(err))
		return page, nil
	}
	return rendered, nil
}

func (c *Client) timedFetch(ctx context.Context, strategy dupe.Strategy, name, url string) (dupe.Page, error) {
	start := time.Now()
	page, err := strategy.Fetch(ctx, url)
	metrics.ObserveFetch(name, time.Since(start))
	if err != nil {
		return dupe.Page{}, fmt.Errorf("%s fetch: %w", name, err)
	}
	return page, nil
}

func (c *Client) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		if err := translateContextErr(ctx, ctx.Err()); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// translateContextErr maps a dead parent context onto the timeout
// sentinel. A per-attempt deadline is retryable, so only the caller's
// context counts here.
func translateContextErr(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", dupe.ErrFetchTimeout, err)
	}
	return ctx.Err()
}

func parseDocument(page dupe.Page) (dupe.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return dupe.Document{}, fmt.Errorf("parse html: %w", err)
	}
	return dupe.Document{DOM: doc, URL: page.URL, Rendered: page.Rendered}, nil
}
