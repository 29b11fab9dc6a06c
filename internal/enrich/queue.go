// Package enrich turns extracted profiles into insights via the generation
// API. The Queue is the single place in the process allowed to call the
// API: submissions are FIFO, at most one call is in flight at any instant,
// and a minimum gap is enforced between the end of one dispatch and the
// start of the next.
package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/devscout/internal/model"
	"github.com/sells-group/devscout/internal/resilience"
	"github.com/sells-group/devscout/pkg/anthropic"
)

// Options configures a Queue.
type Options struct {
	// MaxAttempts is the per-item attempt budget against the generation
	// API. Default: 3.
	MaxAttempts int

	// BaseDelay drives the linear retry backoff (delay = BaseDelay ×
	// attempt). Default: 1s.
	BaseDelay time.Duration

	// DispatchGap is the minimum interval between the end of one dispatch
	// and the start of the next, success or failure. Default: 1.5s.
	DispatchGap time.Duration
}

// Ticket is the one-shot result handle returned by Submit. Exactly one
// insight is delivered per ticket.
type Ticket struct {
	ch chan model.Insight
}

// Wait blocks until the insight is delivered or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (model.Insight, error) {
	select {
	case ins := <-t.ch:
		return ins, nil
	case <-ctx.Done():
		return model.Insight{}, ctx.Err()
	}
}

type queueItem struct {
	prompt string
	ticket *Ticket
}

// Queue serializes calls to the generation API. Only the dispatch goroutine
// touches the in-flight state; submitters never block.
type Queue struct {
	gen  anthropic.Generator
	opts Options

	mu       sync.Mutex
	fifo     []queueItem
	inFlight bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewQueue creates a Queue and starts its dispatch loop.
func NewQueue(gen anthropic.Generator, opts Options) *Queue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.DispatchGap <= 0 {
		opts.DispatchGap = 1500 * time.Millisecond
	}

	q := &Queue{
		gen:  gen,
		opts: opts,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	q.done.Add(1)
	go q.dispatchLoop()
	return q
}

// Submit appends a prompt to the FIFO and returns its ticket. Submission
// always succeeds and never blocks; failures are reported only through the
// ticket at fulfillment time.
func (q *Queue) Submit(prompt string) *Ticket {
	t := &Ticket{ch: make(chan model.Insight, 1)}

	q.mu.Lock()
	q.fifo = append(q.fifo, queueItem{prompt: prompt, ticket: t})
	depth := len(q.fifo)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	zap.L().Debug("enrich: submitted", zap.Int("queue_depth", depth))
	return t
}

// Pending returns the number of items waiting for dispatch.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo)
}

// InFlight reports whether an item is currently being dispatched.
func (q *Queue) InFlight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Close stops the dispatch loop. Items still pending are fulfilled with an
// error insight so no submitter is left waiting.
func (q *Queue) Close() {
	q.stopOnce.Do(func() { close(q.stop) })
	q.done.Wait()

	q.mu.Lock()
	remaining := q.fifo
	q.fifo = nil
	q.mu.Unlock()

	for _, it := range remaining {
		it.ticket.ch <- model.Insight{
			Error:       "enrichment queue closed before dispatch",
			GeneratedAt: time.Now().UTC(),
		}
	}
}

// dispatchLoop drains the FIFO one item at a time. It blocks on the wake
// signal when idle rather than polling.
func (q *Queue) dispatchLoop() {
	defer q.done.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-q.stop
		cancel()
	}()

	for {
		it, ok := q.next()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}

		it.ticket.ch <- q.process(ctx, it.prompt)

		// Enforced gap runs end-of-dispatch to start-of-next, even after
		// failures.
		timer := time.NewTimer(q.opts.DispatchGap)
		select {
		case <-q.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// next pops the front of the FIFO.
func (q *Queue) next() (queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.fifo) == 0 {
		q.inFlight = false
		return queueItem{}, false
	}
	it := q.fifo[0]
	q.fifo = q.fifo[1:]
	q.inFlight = true
	return it, true
}

// process runs one generation call with linear-backoff retry and parses the
// response. Every failure class is retried until the attempt budget is
// spent; exhaustion yields the error-variant insight.
func (q *Queue) process(ctx context.Context, prompt string) model.Insight {
	text, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: q.opts.MaxAttempts,
		BaseDelay:   q.opts.BaseDelay,
		ShouldRetry: resilience.RetryAlways,
		OnRetry:     resilience.RetryLogger("anthropic", "generate"),
	}, func(ctx context.Context) (string, error) {
		return q.gen.GenerateText(ctx, prompt)
	})
	if err != nil {
		zap.L().Warn("enrich: generation failed after retries", zap.Error(err))
		return model.Insight{
			Error:       err.Error(),
			GeneratedAt: time.Now().UTC(),
		}
	}

	return Parse(text)
}
