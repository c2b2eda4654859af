package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/alexberlino/atp/pkg/logger"
)

// RenderFunc returns the page's HTML once its table rows are present.
type RenderFunc func(ctx context.Context, url string) ([]byte, error)

// HeadlessLoader renders the page in headless Chrome so rows injected by
// scripts are present, then parses the resulting DOM.
type HeadlessLoader struct {
	selector      string
	waitSelector  string
	userAgent     string
	chromePath    string
	settleDelay   time.Duration
	renderTimeout time.Duration
	render        RenderFunc
	log           logger.Logger
}

// HeadlessOption configures a HeadlessLoader.
type HeadlessOption func(*HeadlessLoader)

// WithRowSelector sets the selector used to parse rows.
func WithRowSelector(sel string) HeadlessOption {
	return func(h *HeadlessLoader) {
		if sel != "" {
			h.selector = sel
		}
	}
}

// WithWaitSelector sets the element that marks the table as rendered.
func WithWaitSelector(sel string) HeadlessOption {
	return func(h *HeadlessLoader) {
		if sel != "" {
			h.waitSelector = sel
		}
	}
}

// WithBrowserUserAgent overrides Chrome's User-Agent.
func WithBrowserUserAgent(ua string) HeadlessOption {
	return func(h *HeadlessLoader) { h.userAgent = ua }
}

// WithChromePath points at a Chrome or Chromium binary.
func WithChromePath(p string) HeadlessOption {
	return func(h *HeadlessLoader) { h.chromePath = p }
}

// WithSettleDelay sets the pause between navigation and the readiness wait.
func WithSettleDelay(d time.Duration) HeadlessOption {
	return func(h *HeadlessLoader) {
		if d >= 0 {
			h.settleDelay = d
		}
	}
}

// WithRenderTimeout bounds the wait for the table rows.
func WithRenderTimeout(d time.Duration) HeadlessOption {
	return func(h *HeadlessLoader) {
		if d > 0 {
			h.renderTimeout = d
		}
	}
}

// WithRenderFunc replaces the Chrome renderer.
func WithRenderFunc(fn RenderFunc) HeadlessOption {
	return func(h *HeadlessLoader) {
		if fn != nil {
			h.render = fn
		}
	}
}

// NewHeadlessLoader builds a loader that waits up to 30 seconds for rows
// after a 3 second settle delay.
func NewHeadlessLoader(opts ...HeadlessOption) *HeadlessLoader {
	h := &HeadlessLoader{
		selector:      FallbackSelector,
		waitSelector:  FallbackSelector,
		settleDelay:   3 * time.Second,
		renderTimeout: 30 * time.Second,
		log:           logger.Get().Named("source.headless"),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.render == nil {
		h.render = h.renderChrome
	}
	return h
}

// Load renders url and returns the parsed table rows. A readiness wait that
// runs out is reported as ErrRenderTimeout.
func (h *HeadlessLoader) Load(ctx context.Context, url string) ([][]string, error) {
	began := time.Now()
	html, err := h.render(ctx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s after %s: %w", ErrRenderTimeout, h.waitSelector, h.renderTimeout, err)
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	h.log.Debug(ctx, "page rendered",
		logger.String("url", url),
		logger.Int("bytes", len(html)),
		logger.Duration("took", time.Since(began)),
	)
	return ParseRows(html, h.selector)
}

func (h *HeadlessLoader) renderChrome(ctx context.Context, url string) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if h.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(h.userAgent))
	}
	if h.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(h.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(h.settleDelay),
	); err != nil {
		return nil, err
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, h.renderTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(h.waitSelector, chromedp.ByQuery)); err != nil {
		return nil, err
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return []byte(html), nil
}
