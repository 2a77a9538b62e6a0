package maps

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chromedp/chromedp"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/crawler"
	"sjsage522/leadworker/logger"
)

// Selectors for the provider's search results view.
const (
	// snippetSelector matches one business card in the results list.
	snippetSelector = ".search-business-snippet-view__content"
	// scrollContainerSelector is the element that grows the feed when
	// scrolled to its end.
	scrollContainerSelector = "div.scroll__container"
)

// harvestJS collects the first anchor href of every rendered card, in
// document order. Cards without an anchor yield an empty string.
const harvestJS = `
	Array.from(document.querySelectorAll(%q)).map((card) => {
		const a = card.querySelector('a');
		return a ? (a.getAttribute('href') || '') : '';
	})
`

// scrollJS scrolls the results container to its end, which makes the view
// request the next chunk of results.
const scrollJS = `
	(() => {
		const container = document.querySelector(%q);
		if (container) container.scrollTop = container.scrollHeight;
	})()
`

// Feed is the chromedp-backed results feed: one browser tab showing the
// provider's search results for a query.
type Feed struct {
	browser *Browser
	cfg     *config.Config
	log     *logger.Logger

	tabCtx    context.Context
	cancelTab context.CancelFunc
}

var _ crawler.ResultsFeed = (*Feed)(nil)

// NewFeed creates a feed over the session's shared browser.
func NewFeed(browser *Browser, cfg *config.Config) *Feed {
	return &Feed{
		browser: browser,
		cfg:     cfg,
		log:     logger.ForBrowser(),
	}
}

// Open navigates the feed tab to the search results and waits for the
// results container to appear within the configured bound. The view has no
// "loaded" signal, so the bounded wait doubles as the structural check:
// no container within the bound means the session cannot run.
func (f *Feed) Open(ctx context.Context, query crawler.Query) error {
	f.tabCtx, f.cancelTab = f.browser.NewTab()

	searchURL := fmt.Sprintf("%s/maps/?text=%s",
		f.cfg.MapsBaseURL,
		url.QueryEscape(query.City+" "+query.Type),
	)
	f.log.Debug().Str("url", searchURL).Msg("Opening results feed")

	waitCtx, cancel := context.WithTimeout(f.runCtx(ctx), f.cfg.FeedWaitTimeout)
	defer cancel()

	return chromedp.Run(waitCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible(snippetSelector, chromedp.ByQuery),
	)
}

// Candidates reads every currently rendered card href in document order.
func (f *Feed) Candidates(ctx context.Context) ([]crawler.Candidate, error) {
	var hrefs []string
	err := chromedp.Run(f.runCtx(ctx),
		chromedp.Evaluate(fmt.Sprintf(harvestJS, snippetSelector), &hrefs),
	)
	if err != nil {
		return nil, err
	}

	candidates := make([]crawler.Candidate, 0, len(hrefs))
	for _, href := range hrefs {
		if href == "" {
			continue
		}
		candidates = append(candidates, crawler.Candidate{Href: href})
	}
	return candidates, nil
}

// LoadMore scrolls the results container to its end and waits the settle
// interval for the asynchronously loaded cards to render.
func (f *Feed) LoadMore(ctx context.Context) error {
	return chromedp.Run(f.runCtx(ctx),
		chromedp.Evaluate(fmt.Sprintf(scrollJS, scrollContainerSelector), nil),
		chromedp.Sleep(f.cfg.ScrollSettle),
	)
}

// Close releases the feed tab.
func (f *Feed) Close() error {
	if f.cancelTab != nil {
		f.cancelTab()
	}
	return nil
}

// runCtx returns the chromedp tab context. Caller cancellation reaches it
// through the allocator, which is a child of the session context.
func (f *Feed) runCtx(ctx context.Context) context.Context {
	if f.tabCtx == nil {
		return ctx
	}
	return f.tabCtx
}
