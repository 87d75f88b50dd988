package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"collectionsync/internal/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg Config) (*Limiter, *[]time.Duration) {
	l := NewLimiter(cfg)

	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	slept := []time.Duration{}

	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}
	return l, &slept
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	l, slept := newTestLimiter(Config{})
	calls := 0

	err := l.Execute(context.Background(), "billing", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestExecuteEnforcesMinimumSpacing(t *testing.T) {
	l, slept := newTestLimiter(Config{MaxRequestsPerSecond: 5})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := l.Execute(ctx, "billing", func(ctx context.Context) error { return nil })
		require.NoError(t, err)
	}

	// second call must wait the 200ms inter-request gap
	require.Len(t, *slept, 1)
	assert.Equal(t, 200*time.Millisecond, (*slept)[0])
}

func TestExecuteThrottleBackoffDoublesAndCaps(t *testing.T) {
	l, slept := newTestLimiter(Config{
		MaxRequestsPerSecond: 1000,
		MaxRetries:           4,
		BaseDelayMs:          1000,
		MaxDelayMs:           3000,
	})

	calls := 0
	err := l.Execute(context.Background(), "billing", func(ctx context.Context) error {
		calls++
		return &models.ProviderError{StatusCode: 429, Body: "slow down"}
	})

	assert.Equal(t, 4, calls)

	var exhausted *models.RateLimitExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "billing", exhausted.ServiceKey)
	assert.Equal(t, 4, exhausted.Attempts)

	// backoff between attempts: 1000ms, 2000ms, then capped at 3000ms
	backoffs := filterBackoffs(*slept)
	require.Len(t, backoffs, 3)
	assert.Equal(t, 1000*time.Millisecond, backoffs[0])
	assert.Equal(t, 2000*time.Millisecond, backoffs[1])
	assert.Equal(t, 3000*time.Millisecond, backoffs[2])
}

func TestExecuteLinearBackoffForNonThrottleErrors(t *testing.T) {
	l, slept := newTestLimiter(Config{
		MaxRequestsPerSecond: 1000,
		MaxRetries:           3,
		BaseDelayMs:          500,
		MaxDelayMs:           30000,
	})

	err := l.Execute(context.Background(), "billing", func(ctx context.Context) error {
		return errors.New("connection reset")
	})

	var exhausted *models.RateLimitExhaustedError
	require.ErrorAs(t, err, &exhausted)

	backoffs := filterBackoffs(*slept)
	require.Len(t, backoffs, 2)
	assert.Equal(t, 500*time.Millisecond, backoffs[0])
	assert.Equal(t, 1000*time.Millisecond, backoffs[1])
}

func TestExecuteRecoveryResetsBackoff(t *testing.T) {
	l, _ := newTestLimiter(Config{
		MaxRequestsPerSecond: 1000,
		MaxRetries:           5,
		BaseDelayMs:          1000,
		MaxDelayMs:           30000,
	})
	ctx := context.Background()

	calls := 0
	err := l.Execute(ctx, "billing", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &models.ProviderError{StatusCode: 429, Body: "slow down"}
		}
		return nil
	})
	require.NoError(t, err)

	// after success the throttle delay starts over from the base
	d := l.backoff("billing", true)
	assert.Equal(t, 1000*time.Millisecond, d)
}

func TestExecuteKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{
		MaxRequestsPerSecond: 1000,
		MaxRetries:           3,
		BaseDelayMs:          1000,
		MaxDelayMs:           30000,
	})

	d1 := l.backoff("billing", true)
	d2 := l.backoff("billing", true)
	other := l.backoff("webhooks", true)

	assert.Equal(t, 1000*time.Millisecond, d1)
	assert.Equal(t, 2000*time.Millisecond, d2)
	assert.Equal(t, 1000*time.Millisecond, other)
}

func TestExecuteConcurrentCallersRespectWindow(t *testing.T) {
	// real clock: the fake in newTestLimiter is single-goroutine only
	l := NewLimiter(Config{MaxRequestsPerSecond: 4, MaxRetries: 1})

	const callers = 8
	var mu sync.Mutex
	times := make([]time.Time, 0, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Execute(context.Background(), "billing", func(ctx context.Context) error {
				mu.Lock()
				times = append(times, time.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, times, callers)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// no five calls may land inside one second; small slack for scheduling
	for i := 0; i+4 < len(times); i++ {
		span := times[i+4].Sub(times[i])
		assert.GreaterOrEqual(t, span, 900*time.Millisecond,
			"calls %d..%d landed %v apart", i, i+4, span)
	}
}

func TestExecuteStopsWhenContextCanceled(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxRequestsPerSecond: 1000, MaxRetries: 3})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := l.Execute(ctx, "billing", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("interrupted")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

// filterBackoffs drops sub-200ms pacing waits, leaving retry delays.
func filterBackoffs(slept []time.Duration) []time.Duration {
	var out []time.Duration
	for _, d := range slept {
		if d >= 500*time.Millisecond {
			out = append(out, d)
		}
	}
	return out
}
