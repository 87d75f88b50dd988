// Package ratelimit paces outbound calls to the banking provider. The
// provider enforces a hard requests-per-second ceiling per credential
// and answers HTTP 429 when it is exceeded, so every client call goes
// through a shared Limiter keyed by service area.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
)

type Config struct {
	MaxRequestsPerSecond int
	MaxRetries           int
	BaseDelayMs          int
	MaxDelayMs           int
}

type keyState struct {
	requestCount    int
	windowStart     time.Time
	lastRequestTime time.Time
	failureCount    int
	currentDelayMs  int
}

type Limiter struct {
	cfg    Config
	mu     sync.Mutex
	states map[string]*keyState

	// overridable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.MaxRequestsPerSecond <= 0 {
		cfg.MaxRequestsPerSecond = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelayMs <= 0 {
		cfg.BaseDelayMs = 1000
	}
	if cfg.MaxDelayMs <= 0 {
		cfg.MaxDelayMs = 30000
	}
	return &Limiter{
		cfg:    cfg,
		states: make(map[string]*keyState),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) state(key string) *keyState {
	st, ok := l.states[key]
	if !ok {
		st = &keyState{windowStart: l.now()}
		l.states[key] = st
	}
	return st
}

// reserve computes how long the caller must wait before the next
// request under key, and books the slot.
func (l *Limiter) reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(key)
	now := l.now()
	var wait time.Duration

	// sliding one-second window
	if now.Sub(st.windowStart) >= time.Second {
		st.windowStart = now
		st.requestCount = 0
	} else if st.requestCount >= l.cfg.MaxRequestsPerSecond {
		wait = time.Second - now.Sub(st.windowStart)
		st.windowStart = now.Add(wait)
		st.requestCount = 0
	}

	// minimum spacing between consecutive requests
	minGap := time.Duration(1000/l.cfg.MaxRequestsPerSecond) * time.Millisecond
	if !st.lastRequestTime.IsZero() {
		if gap := st.lastRequestTime.Add(minGap).Sub(now.Add(wait)); gap > 0 {
			wait += gap
		}
	}

	st.requestCount++
	st.lastRequestTime = now.Add(wait)
	return wait
}

// backoff registers a failure under key and returns how long to wait
// before retrying. Throttle responses grow the delay exponentially;
// other failures back off linearly.
func (l *Limiter) backoff(key string, throttled bool) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(key)
	st.failureCount++

	var delayMs int
	if throttled {
		if st.currentDelayMs == 0 {
			st.currentDelayMs = l.cfg.BaseDelayMs
		} else {
			st.currentDelayMs *= 2
		}
		if st.currentDelayMs > l.cfg.MaxDelayMs {
			st.currentDelayMs = l.cfg.MaxDelayMs
		}
		delayMs = st.currentDelayMs
	} else {
		delayMs = l.cfg.BaseDelayMs * st.failureCount
		if max := l.cfg.MaxDelayMs / 2; delayMs > max {
			delayMs = max
		}
	}
	return time.Duration(delayMs) * time.Millisecond
}

func (l *Limiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(key)
	st.failureCount = 0
	st.currentDelayMs = 0
}

// Execute runs fn under the pacing rules for key, retrying transient
// failures up to the configured attempt count.
func (l *Limiter) Execute(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= l.cfg.MaxRetries; attempt++ {
		if wait := l.reserve(key); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			l.reset(key)
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		throttled := models.IsThrottle(lastErr)
		delay := l.backoff(key, throttled)

		logger.CtxWarn(ctx, "Provider request failed, backing off",
			slog.String("service_key", key),
			slog.Int("attempt", attempt),
			slog.Bool("throttled", throttled),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		if attempt < l.cfg.MaxRetries {
			if err := l.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return &models.RateLimitExhaustedError{
		ServiceKey: key,
		Attempts:   l.cfg.MaxRetries,
		LastErr:    lastErr,
	}
}
