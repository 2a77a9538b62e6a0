package maps

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/chromedp"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/crawler"
	"sjsage522/leadworker/logger"
	errs "sjsage522/leadworker/pkg/errors"
)

// DetailFetcher opens a short-lived tab per listing, waits the settle
// interval for client-rendered content, and hands the captured DOM to
// goquery. The tab is closed on every exit path: a long crawl must not
// accumulate open pages.
type DetailFetcher struct {
	browser *Browser
	cfg     *config.Config
	log     *logger.Logger
}

var _ crawler.DetailFetcher = (*DetailFetcher)(nil)

// NewDetailFetcher creates a fetcher over the session's shared browser.
func NewDetailFetcher(browser *Browser, cfg *config.Config) *DetailFetcher {
	return &DetailFetcher{
		browser: browser,
		cfg:     cfg,
		log:     logger.ForBrowser(),
	}
}

// Fetch navigates a fresh tab to the listing's detail page and returns the
// rendered document. Transient navigation failures are retried with
// exponential backoff up to the configured attempt count.
func (d *DetailFetcher) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	var html string

	navigate := func() error {
		tabCtx, closeTab := d.browser.NewTab()
		defer closeTab()

		runCtx, cancel := context.WithTimeout(tabCtx, d.cfg.DetailTimeout)
		defer cancel()

		return chromedp.Run(runCtx,
			chromedp.Navigate(link),
			chromedp.Sleep(d.cfg.DetailSettle),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.cfg.DetailRetries),
		ctx,
	)
	if err := backoff.Retry(navigate, bo); err != nil {
		return nil, errs.NewNavigation(link, "detail page navigation failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.NewParsing(link, "detail page HTML unparseable", err)
	}
	return doc, nil
}
