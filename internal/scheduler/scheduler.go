// Package scheduler orchestrates page fetches against the source site:
// search pages fan out concurrently, profile pages run in fixed-size
// batches with a pause between batches so the site's implicit rate limits
// are respected.
package scheduler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/devscout/internal/cache"
	"github.com/sells-group/devscout/internal/extract"
	"github.com/sells-group/devscout/internal/model"
	"github.com/sells-group/devscout/internal/transport"
)

// Options configures a Scheduler.
type Options struct {
	// BaseURL of the source site, e.g. "https://github.com".
	BaseURL string

	// BatchSize is the number of profile pages fetched concurrently per
	// batch. Default: 5.
	BatchSize int

	// BatchDelay is the pause between profile batches. Default: 2s.
	BatchDelay time.Duration
}

// Scheduler owns Candidate and ProfileRecord creation. It consults the
// result cache before every network call.
type Scheduler struct {
	client transport.Client
	cache  *cache.Cache
	opts   Options
}

// New creates a Scheduler.
func New(client transport.Client, c *cache.Cache, opts Options) *Scheduler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 2 * time.Second
	}
	return &Scheduler{client: client, cache: c, opts: opts}
}

// searchURL builds the user-search URL for a query and 1-based page number.
func (s *Scheduler) searchURL(query string, page int) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "users")
	q.Set("p", fmt.Sprint(page))
	return s.opts.BaseURL + "/search?" + q.Encode()
}

// SearchPages fetches pages 1..pages for query concurrently and returns the
// extracted candidates flattened in page order. A failed page contributes
// an empty list; partial success is the normal case.
func (s *Scheduler) SearchPages(ctx context.Context, query string, pages int) []model.Candidate {
	if pages < 1 {
		pages = 1
	}

	perPage := make([][]model.Candidate, pages)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < pages; i++ {
		page := i + 1
		g.Go(func() error {
			perPage[page-1] = s.searchPage(gCtx, query, page)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.Candidate
	for _, cands := range perPage {
		out = append(out, cands...)
	}

	zap.L().Info("scheduler: search complete",
		zap.String("query", query),
		zap.Int("pages", pages),
		zap.Int("candidates", len(out)),
	)
	return out
}

// searchPage resolves one search page through cache, fetch, extract.
func (s *Scheduler) searchPage(ctx context.Context, query string, page int) []model.Candidate {
	key := cache.SearchKey(query, page)
	if v, ok := s.cache.Get(key); ok {
		if cands, ok := v.([]model.Candidate); ok {
			return cands
		}
	}

	body, err := s.client.Fetch(ctx, s.searchURL(query, page))
	if err != nil {
		zap.L().Warn("scheduler: search page fetch failed",
			zap.String("query", query),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil
	}

	cands, err := extract.SearchResults(s.opts.BaseURL, body)
	if err != nil {
		zap.L().Warn("scheduler: search page extract failed",
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil
	}

	s.cache.Put(key, cands)
	return cands
}

// FetchProfiles fetches and extracts the profile page of every candidate in
// sequential batches. Output order follows input order, and every candidate
// yields exactly one record: a failed fetch produces a record carrying only
// the candidate fields plus FetchError, never a dropped entry.
func (s *Scheduler) FetchProfiles(ctx context.Context, cands []model.Candidate) []model.ProfileRecord {
	records := make([]model.ProfileRecord, len(cands))

	for start := 0; start < len(cands); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(cands) {
			end = len(cands)
		}

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			idx := i
			g.Go(func() error {
				records[idx] = s.fetchProfile(gCtx, cands[idx])
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Debug("scheduler: profile batch complete",
			zap.Int("from", start),
			zap.Int("to", end),
		)

		// Pause between batches, not after the last one.
		if end < len(cands) {
			timer := time.NewTimer(s.opts.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				// Remaining candidates still get records; their fetches
				// will fail fast on the canceled context.
			case <-timer.C:
			}
		}
	}

	return records
}

// fetchProfile resolves one profile through cache, fetch, extract.
func (s *Scheduler) fetchProfile(ctx context.Context, cand model.Candidate) model.ProfileRecord {
	key := cache.ProfileKey(cand.Username)
	if v, ok := s.cache.Get(key); ok {
		if rec, ok := v.(model.ProfileRecord); ok {
			return rec
		}
	}

	body, err := s.client.Fetch(ctx, cand.ProfileURL)
	if err != nil {
		zap.L().Warn("scheduler: profile fetch failed",
			zap.String("username", cand.Username),
			zap.Error(err),
		)
		return model.ProfileRecord{
			Candidate:   cand,
			PinnedRepos: []model.PinnedRepo{},
			FetchError:  err.Error(),
		}
	}

	rec := extract.Profile(body, cand)
	s.cache.Put(key, *rec)
	return *rec
}
