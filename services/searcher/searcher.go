package searcher

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/crawler"
	"sjsage522/leadworker/internal/maps"
	"sjsage522/leadworker/logger"
	errs "sjsage522/leadworker/pkg/errors"
	"sjsage522/leadworker/services/cache"
	"sjsage522/leadworker/services/publisher"
)

// Outcome is the terminal summary of one search.
type Outcome struct {
	Result crawler.Result
	Err    error
}

// sessionFunc runs one crawl session, emitting accepted organizations on out
// and closing out before returning.
type sessionFunc func(ctx context.Context, q crawler.Query, out chan<- crawler.Organization) (crawler.Result, error)

// Searcher validates queries, rate-limits repeated searches, and runs crawl
// sessions one at a time, streaming accepted leads to the caller and
// mirroring them to the publisher.
type Searcher struct {
	cfg   *config.Config
	store crawler.Store
	cache cache.CacheService
	pub   publisher.Publisher
	log   *logger.Logger

	run sessionFunc

	// mu serializes sessions: one browser crawl at a time per process.
	mu       sync.Mutex
	searches atomic.Int64
}

// New creates a searcher backed by a browser session per search. cacheSvc
// and pub may be nil, which disables rate limiting and mirroring.
func New(cfg *config.Config, store crawler.Store, cacheSvc cache.CacheService, pub publisher.Publisher) *Searcher {
	s := &Searcher{
		cfg:   cfg,
		store: store,
		cache: cacheSvc,
		pub:   pub,
		log:   logger.ForSearcher(),
	}
	s.run = s.runBrowserSession
	return s
}

// Search starts one crawl for the query. Accepted organizations arrive on
// the first channel in discovery order; the second channel delivers exactly
// one Outcome after the first channel is closed.
//
// An error return means no session was started: invalid input or an active
// rate limit for the same query.
func (s *Searcher) Search(ctx context.Context, q crawler.Query) (<-chan crawler.Organization, <-chan Outcome, error) {
	q.City = strings.TrimSpace(q.City)
	q.Type = strings.TrimSpace(q.Type)
	if q.City == "" {
		return nil, nil, errs.NewValidation("search", "city must not be empty")
	}
	if q.Type == "" {
		return nil, nil, errs.NewValidation("search", "business type must not be empty")
	}
	q.Limit = s.cfg.ClampLimit(q.Limit)

	if err := s.checkRateLimit(q); err != nil {
		return nil, nil, err
	}

	s.searches.Add(1)

	out := make(chan crawler.Organization, q.Limit)
	done := make(chan Outcome, 1)

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		defer close(out)

		inner := make(chan crawler.Organization, q.Limit)
		type sessionEnd struct {
			res crawler.Result
			err error
		}
		endCh := make(chan sessionEnd, 1)

		go func() {
			res, err := s.run(ctx, q, inner)
			endCh <- sessionEnd{res: res, err: err}
		}()

		for org := range inner {
			s.mirror(org)
			out <- org
		}

		end := <-endCh
		if end.err == nil {
			s.trim()
		}
		done <- Outcome{Result: end.res, Err: end.err}
	}()

	return out, done, nil
}

// Searches returns the number of searches started since process start.
func (s *Searcher) Searches() int64 {
	return s.searches.Load()
}

// checkRateLimit blocks a repeat of the same (city, type) search while its
// cache entry is alive.
func (s *Searcher) checkRateLimit(q crawler.Query) error {
	if s.cache == nil || s.cfg.SearchBlockTime <= 0 {
		return nil
	}

	key := "search:" + strings.ToLower(q.City) + ":" + strings.ToLower(q.Type)
	if _, err := s.cache.Get(key); err == nil {
		return errs.NewRateLimit(key, s.cfg.SearchBlockTime)
	}
	if err := s.cache.Set(key, []byte("1"), s.cfg.SearchBlockTime); err != nil {
		// Rate limiting is best-effort: a dead cache must not stop searches.
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit entry")
	}
	return nil
}

// runBrowserSession wires a fresh browser to a crawl session. The browser
// and all its tabs are released when the session ends, on every path.
func (s *Searcher) runBrowserSession(ctx context.Context, q crawler.Query, out chan<- crawler.Organization) (crawler.Result, error) {
	base, err := url.Parse(s.cfg.MapsBaseURL)
	if err != nil {
		close(out)
		return crawler.Result{}, errs.NewConfiguration("invalid maps base URL", err)
	}

	browser := maps.NewBrowser(ctx, s.cfg)
	defer browser.Close()

	var fetch crawler.DetailFetcher
	if s.cfg.DetailFetch == "http" {
		fetch = maps.NewHTTPDetailFetcher()
	} else {
		fetch = maps.NewDetailFetcher(browser, s.cfg)
	}

	session := crawler.NewSession(
		q,
		base,
		maps.NewFeed(browser, s.cfg),
		fetch,
		s.store,
		crawler.NewClassifier(s.cfg.DeniedDomains),
		logger.ForSession(q.City, q.Type),
	)
	return session.Run(ctx, out)
}

// mirror publishes one accepted lead to the stream. Failures are logged and
// swallowed: mirroring must never block or fail the crawl.
func (s *Searcher) mirror(org crawler.Organization) {
	if s.pub == nil {
		return
	}
	data, err := json.Marshal(org)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode organization")
		return
	}
	if err := s.pub.Publish("organization", data); err != nil {
		s.log.Warn().Err(err).Str("link", org.Link).Msg("Failed to publish organization")
	}
}

func (s *Searcher) trim() {
	if s.pub == nil {
		return
	}
	if err := s.pub.Trim(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to trim stream")
	}
}
