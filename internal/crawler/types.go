package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Organization is one accepted lead: a business listed on the map provider
// that has no website of its own. Link is the canonical detail-page URL and
// the unique identifier; City is the query city, not parsed from the page.
type Organization struct {
	City    string `json:"city"`
	Title   string `json:"title"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Link    string `json:"link"`
}

// Candidate references one search-result card as currently rendered: the raw
// href of its detail page, possibly relative. A candidate is only valid until
// the next re-scan of the results feed.
type Candidate struct {
	Href string
}

// Query describes one crawl session.
type Query struct {
	City  string
	Type  string
	Limit int
}

// Result is the terminal summary of a session. Zero Found with a nil error
// is a valid outcome ("nothing matched"), distinct from a structural failure.
type Result struct {
	Found     int
	Exhausted bool
}

// ResultsFeed drives the provider's scroll-loaded search results view.
type ResultsFeed interface {
	// Open navigates to the results for the query and waits for the results
	// container to render. An error here is structural: the session cannot run.
	Open(ctx context.Context, query Query) error

	// Candidates returns every card currently rendered, in document order.
	// The same card may be returned on successive calls; callers dedup.
	Candidates(ctx context.Context) ([]Candidate, error)

	// LoadMore asks the view to grow the feed and waits the settle interval.
	LoadMore(ctx context.Context) error

	// Close releases the results view.
	Close() error
}

// DetailFetcher opens one listing's detail page and returns its rendered
// document. Implementations own the page resource and must release it on
// every exit path before returning.
type DetailFetcher interface {
	Fetch(ctx context.Context, link string) (*goquery.Document, error)
}

// Store is the durable duplicate store shared by all sessions.
type Store interface {
	// IsKnown reports whether the canonical link has already been recorded.
	IsKnown(ctx context.Context, link string) (bool, error)

	// SaveOrganization records an accepted lead. It is idempotent on Link:
	// losing an insert race returns (false, nil), never an error.
	SaveOrganization(ctx context.Context, org Organization) (bool, error)
}
