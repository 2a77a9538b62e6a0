package maps

import (
	"context"

	"github.com/chromedp/chromedp"

	"sjsage522/leadworker/config"
)

// Browser owns the Chrome process shared by one crawl session. The results
// feed and every detail fetch open their own tabs as child contexts, so
// closing the browser releases everything a session opened.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowser starts a Chrome allocator. No process is launched until the
// first tab runs an action.
func NewBrowser(ctx context.Context, cfg *config.Config) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Browser{allocCtx: allocCtx, cancel: cancel}
}

// NewTab opens an isolated tab context. The returned cancel closes the tab.
func (b *Browser) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(b.allocCtx)
}

// Close shuts down the Chrome process and every tab opened from it.
func (b *Browser) Close() {
	b.cancel()
}
