package crawler

import (
	"context"
	"net/url"

	"sjsage522/leadworker/logger"
	errs "sjsage522/leadworker/pkg/errors"
)

// maxStaleScans is how many consecutive scans may yield no new candidate
// before the feed is considered exhausted. The view grows asynchronously, so
// a single stale scan right after a scroll is not yet proof of exhaustion.
const maxStaleScans = 2

// Session is one end-to-end crawl for a (city, type, limit) query. It pulls
// candidates from the results feed, resolves them to canonical links, skips
// duplicates (both in-session and durable), extracts and classifies each
// listing, and emits accepted organizations in discovery order.
//
// A session is single-use: run it once and discard it.
type Session struct {
	query    Query
	base     *url.URL
	feed     ResultsFeed
	fetch    DetailFetcher
	store    Store
	classify *Classifier
	log      *logger.Logger

	seen map[string]struct{}
}

// NewSession creates a session. base is the provider base URL used to
// resolve relative card hrefs.
func NewSession(
	query Query,
	base *url.URL,
	feed ResultsFeed,
	fetch DetailFetcher,
	store Store,
	classify *Classifier,
	log *logger.Logger,
) *Session {
	return &Session{
		query:    query,
		base:     base,
		feed:     feed,
		fetch:    fetch,
		store:    store,
		classify: classify,
		log:      log,
		seen:     make(map[string]struct{}),
	}
}

// Run drives the crawl until the limit is reached or the feed is exhausted,
// sending each accepted organization on out as soon as it is persisted.
// out is closed before Run returns.
//
// The returned error is nil for both terminal outcomes (limit reached,
// feed exhausted); it is non-nil only for structural failures and
// cancellation, which callers must report distinctly from "nothing found".
func (s *Session) Run(ctx context.Context, out chan<- Organization) (Result, error) {
	defer close(out)

	s.log.Info().
		Str("city", s.query.City).
		Str("type", s.query.Type).
		Int("limit", s.query.Limit).
		Msg("Session started")

	if err := s.feed.Open(ctx, s.query); err != nil {
		s.log.Error().Err(err).Msg("Results feed failed to open")
		return Result{}, errs.NewStructural("feed", "results view never rendered", err)
	}
	defer s.feed.Close()

	var res Result
	stale := 0
	firstScan := true

	for res.Found < s.query.Limit {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		candidates, err := s.feed.Candidates(ctx)
		if err != nil {
			return res, errs.NewStructural("feed", "failed to read result cards", err)
		}
		if firstScan && len(candidates) == 0 {
			return res, errs.NewStructural("feed", "results view rendered zero cards", nil)
		}
		firstScan = false

		fresh := 0
		for _, candidate := range candidates {
			if res.Found >= s.query.Limit {
				break
			}
			accepted, isNew := s.processCandidate(ctx, candidate)
			if isNew {
				fresh++
			}
			if accepted == nil {
				continue
			}
			select {
			case out <- *accepted:
			case <-ctx.Done():
				return res, ctx.Err()
			}
			res.Found++
		}

		if res.Found >= s.query.Limit {
			break
		}

		// No new card since the previous scroll: the feed may be done.
		if fresh == 0 {
			stale++
			if stale >= maxStaleScans {
				res.Exhausted = true
				break
			}
		} else {
			stale = 0
		}

		if err := s.feed.LoadMore(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to grow results feed")
			res.Exhausted = true
			break
		}
	}

	s.log.Info().
		Int("found", res.Found).
		Bool("exhausted", res.Exhausted).
		Msg("Session finished")

	return res, nil
}

// processCandidate runs one candidate through resolve → duplicate check →
// extract → classify. It returns the accepted organization (nil when the
// candidate was discarded for any reason) and whether the candidate was new
// to this session. Per-listing failures are logged and swallowed: a single
// broken listing never aborts the session.
func (s *Session) processCandidate(ctx context.Context, candidate Candidate) (*Organization, bool) {
	link, err := CanonicalLink(s.base, candidate.Href)
	if err != nil {
		s.log.Debug().Str("href", candidate.Href).Err(err).Msg("Unresolvable card href")
		return nil, false
	}

	if _, ok := s.seen[link]; ok {
		return nil, false
	}
	s.seen[link] = struct{}{}

	known, err := s.store.IsKnown(ctx, link)
	if err != nil {
		s.log.Error().Str("link", link).Err(err).Msg("Duplicate check failed, skipping listing")
		return nil, true
	}
	if known {
		s.log.Debug().Str("link", link).Msg("Organization already recorded")
		return nil, true
	}

	doc, err := s.fetch.Fetch(ctx, link)
	if err != nil {
		s.log.Error().Str("link", link).Err(err).Msg("Failed to load detail page, skipping listing")
		return nil, true
	}

	org := ExtractDetails(doc)
	org.City = s.query.City
	org.Link = link

	if website := s.classify.Website(doc); website != "" {
		s.log.Debug().
			Str("title", org.Title).
			Str("website", website).
			Msg("Organization has a website, rejected")
		return nil, true
	}

	inserted, err := s.store.SaveOrganization(ctx, org)
	if err != nil {
		s.log.Error().Str("link", link).Err(err).Msg("Failed to persist organization")
		return nil, true
	}
	if !inserted {
		// Lost an insert race to another process: already present is fine.
		s.log.Debug().Str("link", link).Msg("Organization inserted elsewhere meanwhile")
		return nil, true
	}

	s.log.Info().
		Str("title", org.Title).
		Str("address", org.Address).
		Str("phone", org.Phone).
		Str("link", org.Link).
		Msg("Organization accepted")

	return &org, true
}
