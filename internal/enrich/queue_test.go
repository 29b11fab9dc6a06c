package enrich

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/devscout/pkg/anthropic"
)

// mockGenerator implements anthropic.Generator for testing.
type mockGenerator struct {
	mu      sync.Mutex
	prompts []string
	fn      func(attempt int, prompt string) (string, error)

	attempts int32
	inFlight int32
	maxSeen  int32
}

func (m *mockGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)

	attempt := int(atomic.AddInt32(&m.attempts, 1))
	m.mu.Lock()
	if cur > m.maxSeen {
		m.maxSeen = cur
	}
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	// Simulate call latency so overlap would be observable.
	time.Sleep(2 * time.Millisecond)
	return m.fn(attempt, prompt)
}

const validResponse = `{"primary_skills":"Go","tech_stack":"Go","experience_level":"Senior","notable_contributions":"x","professional_summary":"y"}`

func fastOpts() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		DispatchGap: time.Millisecond,
	}
}

func TestQueue_DeliversInsight(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		return validResponse, nil
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	ins, err := q.Submit("prompt").Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go", ins.PrimarySkills)
	assert.False(t, ins.Failed())
}

func TestQueue_SingleFlightUnderConcurrentSubmission(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		return validResponse, nil
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	const k = 8
	tickets := make([]*Ticket, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tickets[n] = q.Submit(fmt.Sprintf("prompt-%d", n))
		}(i)
	}
	wg.Wait()

	for _, ticket := range tickets {
		_, err := ticket.Wait(context.Background())
		require.NoError(t, err)
	}

	gen.mu.Lock()
	maxSeen := gen.maxSeen
	gen.mu.Unlock()
	assert.Equal(t, int32(1), maxSeen, "at most one outbound call at any instant")
	assert.Equal(t, int32(k), atomic.LoadInt32(&gen.attempts))
}

func TestQueue_PreservesFIFOOrder(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		return validResponse, nil
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	var tickets []*Ticket
	for i := 0; i < 4; i++ {
		tickets = append(tickets, q.Submit(fmt.Sprintf("p%d", i)))
	}
	for _, ticket := range tickets {
		_, err := ticket.Wait(context.Background())
		require.NoError(t, err)
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, []string{"p0", "p1", "p2", "p3"}, gen.prompts)
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	gen := &mockGenerator{fn: func(attempt int, _ string) (string, error) {
		if attempt < 3 {
			return "", fmt.Errorf("transient failure %d", attempt)
		}
		return validResponse, nil
	}}
	base := 10 * time.Millisecond
	q := NewQueue(gen, Options{MaxAttempts: 3, BaseDelay: base, DispatchGap: time.Millisecond})
	defer q.Close()

	start := time.Now()
	ins, err := q.Submit("prompt").Wait(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, ins.Failed())
	assert.Equal(t, int32(3), atomic.LoadInt32(&gen.attempts))
	// Two backoffs with linear growth: base×1 + base×2.
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestQueue_ExhaustedAttemptsSurfaceError(t *testing.T) {
	gen := &mockGenerator{fn: func(attempt int, _ string) (string, error) {
		return "", fmt.Errorf("boom %d", attempt)
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	ins, err := q.Submit("prompt").Wait(context.Background())
	require.NoError(t, err, "submission-side errors never surface as Wait errors")
	require.True(t, ins.Failed())
	assert.Contains(t, ins.Error, "boom 3")
	assert.Equal(t, int32(3), atomic.LoadInt32(&gen.attempts), "exactly MaxAttempts calls")
	assert.Empty(t, ins.PrimarySkills)
}

func TestQueue_EmptyContentBecomesErrorInsight(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		return "", anthropic.ErrEmptyContent
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	ins, err := q.Submit("prompt").Wait(context.Background())
	require.NoError(t, err)
	require.True(t, ins.Failed())
	assert.Empty(t, ins.PrimarySkills)
}

func TestQueue_EnforcesDispatchGap(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		return validResponse, nil
	}}
	gap := 20 * time.Millisecond
	q := NewQueue(gen, Options{MaxAttempts: 1, BaseDelay: time.Millisecond, DispatchGap: gap})
	defer q.Close()

	t1 := q.Submit("a")
	t2 := q.Submit("b")

	start := time.Now()
	_, err := t1.Wait(context.Background())
	require.NoError(t, err)
	_, err = t2.Wait(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), gap,
		"second dispatch must wait out the gap")
}

func TestQueue_CloseFulfillsPending(t *testing.T) {
	release := make(chan struct{})
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		<-release
		return validResponse, nil
	}}
	q := NewQueue(gen, Options{MaxAttempts: 1, BaseDelay: time.Millisecond, DispatchGap: time.Hour})

	first := q.Submit("a")
	pending := q.Submit("b") // stuck behind the hour-long gap

	close(release)
	_, err := first.Wait(context.Background())
	require.NoError(t, err)

	q.Close()

	ins, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, ins.Failed(), "pending items are fulfilled with an error on close")
}

func TestQueue_SubmitNeverBlocks(t *testing.T) {
	gen := &mockGenerator{fn: func(_ int, _ string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return validResponse, nil
	}}
	q := NewQueue(gen, fastOpts())
	defer q.Close()

	start := time.Now()
	for i := 0; i < 20; i++ {
		q.Submit("p")
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"submission must not wait for dispatch")
	assert.GreaterOrEqual(t, q.Pending(), 10)
}
