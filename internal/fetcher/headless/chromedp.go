// Package headless implements the full-render fetch strategy using
// chromedp and headless Chrome, for pages whose product content is
// JavaScript-driven.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	MaxParallel        int
	UserAgent          string
	NavigationTimeout  time.Duration
	BlockResourceTypes []string
}

// Fetcher implements dupe.Strategy using chromedp and headless Chrome.
// The browser allocator lives for the fetcher's lifetime; each Fetch gets
// its own tab context, canceled on every exit path.
type Fetcher struct {
	cfg         Config
	blocked     map[network.ResourceType]bool
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		blocked:     blockedTypes(cfg.BlockResourceTypes),
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context, tearing down the browser.
func (f *Fetcher) Close() {
	if f.allocCancel != nil {
		f.allocCancel()
	}
}

// Fetch navigates with a headless browser and returns the fully rendered
// DOM. The tab is torn down before Fetch returns, whether the navigation
// succeeded, failed, or timed out.
func (f *Fetcher) Fetch(ctx context.Context, url string) (dupe.Page, error) {
	if err := f.acquire(ctx); err != nil {
		return dupe.Page{}, err
	}
	defer f.release()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.navTimeout(ctx))
	defer cancel()

	// Tie the tab's lifetime to the caller's context so an overall
	// deadline upstream still tears the render session down.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if len(f.blocked) > 0 {
		f.interceptRequests(taskCtx)
	}

	start := time.Now()
	html, finalURL, err := f.runHeadless(taskCtx, url)
	if err != nil {
		return dupe.Page{}, err
	}
	if finalURL == "" {
		finalURL = url
	}

	return dupe.Page{
		Body:       []byte(html),
		URL:        finalURL,
		StatusCode: 200,
		Duration:   time.Since(start),
		Rendered:   true,
	}, nil
}

func (f *Fetcher) runHeadless(ctx context.Context, url string) (string, string, error) {
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		f.networkSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, finalURL, nil
}

func (f *Fetcher) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if len(f.blocked) > 0 {
			if err := fetch.Enable().Do(ctx); err != nil {
				return fmt.Errorf("enable fetch domain: %w", err)
			}
		}
		return nil
	})
}

// interceptRequests fails paused requests for blocked resource types and
// continues everything else. Heavy subresources are most of a product
// page's weight; skipping them cuts render time substantially.
func (f *Fetcher) interceptRequests(taskCtx context.Context) {
	chromedp.ListenTarget(taskCtx, func(ev any) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(taskCtx)
			execCtx := cdp.WithExecutor(taskCtx, c.Target)
			if f.blocked[paused.ResourceType] {
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	select {
	case f.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (f *Fetcher) release() {
	if f.limiter == nil {
		return
	}
	select {
	case <-f.limiter:
	default:
	}
}

// navTimeout prefers the caller's remaining deadline when it is tighter
// than the configured navigation ceiling.
func (f *Fetcher) navTimeout(ctx context.Context) time.Duration {
	timeout := f.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func blockedTypes(names []string) map[network.ResourceType]bool {
	known := map[string]network.ResourceType{
		"image":      network.ResourceTypeImage,
		"stylesheet": network.ResourceTypeStylesheet,
		"font":       network.ResourceTypeFont,
		"media":      network.ResourceTypeMedia,
	}
	blocked := map[network.ResourceType]bool{}
	for _, name := range names {
		if rt, ok := known[name]; ok {
			blocked[rt] = true
		}
	}
	return blocked
}
