package crawler

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// fakeFeed replays scripted scans: one slice of hrefs per Candidates call.
// After the script runs out, the last scan repeats (the view keeps rendering
// the same cards until more are loaded).
type fakeFeed struct {
	scans     [][]string
	scanIdx   int
	openErr   error
	loadCalls int
	closed    bool
}

func (f *fakeFeed) Open(ctx context.Context, query Query) error {
	return f.openErr
}

func (f *fakeFeed) Candidates(ctx context.Context) ([]Candidate, error) {
	if len(f.scans) == 0 {
		return nil, nil
	}
	idx := f.scanIdx
	if idx >= len(f.scans) {
		idx = len(f.scans) - 1
	}
	var out []Candidate
	for _, href := range f.scans[idx] {
		out = append(out, Candidate{Href: href})
	}
	return out, nil
}

func (f *fakeFeed) LoadMore(ctx context.Context) error {
	f.loadCalls++
	if f.scanIdx < len(f.scans) {
		f.scanIdx++
	}
	return nil
}

func (f *fakeFeed) Close() error {
	f.closed = true
	return nil
}

// fakeFetcher serves canned detail-page HTML keyed by canonical link.
// Links absent from the map fail with errFetch.
type fakeFetcher struct {
	pages    map[string]string
	errFetch error
	fetched  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	f.fetched = append(f.fetched, link)
	html, ok := f.pages[link]
	if !ok {
		return nil, f.errFetch
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// fakeStore is an in-memory duplicate store.
type fakeStore struct {
	mu    sync.Mutex
	known map[string]Organization
}

func newFakeStore() *fakeStore {
	return &fakeStore{known: make(map[string]Organization)}
}

func (s *fakeStore) IsKnown(ctx context.Context, link string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[link]
	return ok, nil
}

func (s *fakeStore) SaveOrganization(ctx context.Context, org Organization) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[org.Link]; ok {
		return false, nil
	}
	s.known[org.Link] = org
	return true, nil
}

func detailPage(title, address, phone string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	if title != "" {
		sb.WriteString("<h1>" + title + "</h1>")
	}
	if address != "" {
		sb.WriteString(`<div class="business-contacts-view__address">` + address + `</div>`)
	}
	if phone != "" {
		sb.WriteString(`<div class="card-phones-view__phone-number">` + phone + `</div>`)
	}
	for _, link := range links {
		sb.WriteString(`<a href="` + link + `">link</a>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
