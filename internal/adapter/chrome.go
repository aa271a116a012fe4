package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages with a headless Chrome driven over the DevTools protocol.
type ChromeRenderer struct {
	execPath          string
	userAgent         string
	navigationTimeout time.Duration
	selectorTimeout   time.Duration

	run func(ctx context.Context, actions ...chromedp.Action) error
}

// NewChromeRenderer creates a renderer. An empty execPath lets chromedp locate
// the browser. Zero timeouts default to 30s navigation and 10s selector wait.
func NewChromeRenderer(execPath string, navigationTimeout, selectorTimeout time.Duration) *ChromeRenderer {
	if navigationTimeout <= 0 {
		navigationTimeout = 30 * time.Second
	}
	if selectorTimeout <= 0 {
		selectorTimeout = 10 * time.Second
	}
	return &ChromeRenderer{
		execPath:          execPath,
		userAgent:         BrowserUserAgent,
		navigationTimeout: navigationTimeout,
		selectorTimeout:   selectorTimeout,
		run:               chromedp.Run,
	}
}

// Render launches a fresh browser for the page and closes it before returning.
func (r *ChromeRenderer) Render(ctx context.Context, pageURL, waitSelector string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(r.userAgent),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// The browser lives as long as the context of the first Run, so start it
	// on browserCtx and bound only the individual steps.
	if err := r.run(browserCtx); err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.navigationTimeout)
	defer cancelNav()
	if err := r.run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, r.selectorTimeout)
	defer cancelWait()
	if err := r.run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("wait for selector %q: %w", waitSelector, err)
	}

	var html string
	if err := r.run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read rendered document: %w", err)
	}
	return html, nil
}
