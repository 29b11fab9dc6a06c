package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/devscout/internal/cache"
	"github.com/sells-group/devscout/internal/enrich"
	"github.com/sells-group/devscout/internal/pipeline"
	"github.com/sells-group/devscout/internal/scheduler"
	"github.com/sells-group/devscout/internal/store"
	"github.com/sells-group/devscout/internal/transport"
	"github.com/sells-group/devscout/pkg/anthropic"
)

// env bundles the wired pipeline and its lifecycle.
type env struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
	Queue    *enrich.Queue
}

// Close releases the queue and store.
func (e *env) Close() {
	if e.Queue != nil {
		e.Queue.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured history backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initEnv wires transport, cache, scheduler, enrichment queue, store, and
// pipeline from config.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	client := transport.New(transport.Options{
		Timeout:        cfg.Source.FetchTimeout(),
		RequestsPerSec: cfg.Source.RequestsPerSec,
	})

	sched := scheduler.New(client, cache.New(cfg.Cache.Capacity), scheduler.Options{
		BaseURL:    cfg.Source.BaseURL,
		BatchSize:  cfg.Scheduler.BatchSize,
		BatchDelay: cfg.Scheduler.BatchDelay(),
	})

	gen := &anthropic.TextGenerator{
		Client:    anthropic.NewClient(cfg.Anthropic.Key),
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		System:    enrich.SystemPrompt,
	}

	queue := enrich.NewQueue(gen, enrich.Options{
		MaxAttempts: cfg.Enrich.MaxAttempts,
		BaseDelay:   cfg.Enrich.BaseDelay(),
		DispatchGap: cfg.Enrich.DispatchGap(),
	})

	return &env{
		Pipeline: pipeline.New(sched, queue, st),
		Store:    st,
		Queue:    queue,
	}, nil
}
