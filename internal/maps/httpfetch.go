package maps

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/leadworker/helpers"
	"sjsage522/leadworker/internal/crawler"
	errs "sjsage522/leadworker/pkg/errors"
)

// HTTPDetailFetcher fetches detail pages with a plain HTTP GET instead of a
// browser tab. Client-rendered fields may be missing from the response, so
// this is a best-effort mode for environments without Chrome, selected with
// DETAIL_FETCH=http.
type HTTPDetailFetcher struct{}

var _ crawler.DetailFetcher = (*HTTPDetailFetcher)(nil)

// NewHTTPDetailFetcher creates a plain-HTTP detail fetcher.
func NewHTTPDetailFetcher() *HTTPDetailFetcher {
	return &HTTPDetailFetcher{}
}

// Fetch downloads and parses the detail page. The body is normalized to
// UTF-8 before parsing.
func (h *HTTPDetailFetcher) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := helpers.FetchWithRandomHeaders(link)
	if err != nil {
		return nil, errs.NewNavigation(link, "detail page request failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errs.NewParsing(link, "detail page HTML unparseable", err)
	}
	return doc, nil
}
