// Package pipeline wires discovery, extraction, and enrichment into the
// top-level search operation.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/devscout/internal/enrich"
	"github.com/sells-group/devscout/internal/model"
	"github.com/sells-group/devscout/internal/scheduler"
	"github.com/sells-group/devscout/internal/store"
)

// ErrEmptyQuery is the only error reported before any network activity.
var ErrEmptyQuery = eris.New("pipeline: query must not be empty")

// Pipeline runs the full discovery-and-enrichment flow. Every stage below
// the top-level invocation degrades to partial output instead of failing
// the run.
type Pipeline struct {
	sched *scheduler.Scheduler
	queue *enrich.Queue
	store store.Store // optional; nil disables history recording
}

// New creates a Pipeline.
func New(sched *scheduler.Scheduler, queue *enrich.Queue, st store.Store) *Pipeline {
	return &Pipeline{sched: sched, queue: queue, store: st}
}

// Run executes one search: fan out over search pages, dedupe candidates,
// batch-fetch profiles, enrich each fetched profile, and return the
// aggregated records in candidate order.
func (p *Pipeline) Run(ctx context.Context, query string, pages int) ([]model.ProfileRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	requestID := p.recordRequest(ctx, query, pages)

	candidates := dedupeCandidates(p.sched.SearchPages(ctx, query, pages))
	zap.L().Info("pipeline: candidates discovered",
		zap.String("query", query),
		zap.Int("count", len(candidates)),
	)

	records := p.sched.FetchProfiles(ctx, candidates)

	// Submit every fetched profile, then await the tickets. Submission is
	// non-blocking, so the queue drains serially while we wait in order.
	tickets := make(map[int]*enrich.Ticket, len(records))
	for i := range records {
		if records[i].FetchError != "" {
			continue
		}
		tickets[i] = p.queue.Submit(enrich.BuildPrompt(records[i]))
	}

	for i := range records {
		t, ok := tickets[i]
		if !ok {
			continue
		}
		ins, err := t.Wait(ctx)
		if err != nil {
			zap.L().Warn("pipeline: enrichment wait canceled",
				zap.String("username", records[i].Username),
				zap.Error(err),
			)
			continue
		}
		records[i].Insight = &ins
	}

	p.recordResult(ctx, requestID, records)

	return records, nil
}

// recordRequest appends the request to history. Store failures are logged
// and the run continues.
func (p *Pipeline) recordRequest(ctx context.Context, query string, pages int) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.RecordRequest(ctx, query, pages)
	if err != nil {
		zap.L().Warn("pipeline: record request failed", zap.Error(err))
		return ""
	}
	return id
}

func (p *Pipeline) recordResult(ctx context.Context, requestID string, records []model.ProfileRecord) {
	if p.store == nil || requestID == "" {
		return
	}
	if err := p.store.RecordResult(ctx, requestID, records); err != nil {
		zap.L().Warn("pipeline: record result failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

// dedupeCandidates drops repeat usernames preserving first-seen order. The
// same profile routinely appears on adjacent search pages.
func dedupeCandidates(cands []model.Candidate) []model.Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.Username]; ok {
			continue
		}
		seen[c.Username] = struct{}{}
		out = append(out, c)
	}
	return out
}
