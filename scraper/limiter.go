package scraper

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// LimiterConfig controls the per-run request pacing.
type LimiterConfig struct {
	// Ceiling is the number of requests allowed before a cooldown.
	Ceiling int // default: 20

	// Cooldown is the pause taken once the ceiling is exceeded.
	Cooldown time.Duration // default: 60s

	// JitterMin and JitterMax bound the random pause before every other request.
	JitterMin time.Duration // default: 1s
	JitterMax time.Duration // default: 3s
}

// DefaultLimiterConfig returns 20 requests per logical minute with 1-3s jitter.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Ceiling:   20,
		Cooldown:  60 * time.Second,
		JitterMin: 1 * time.Second,
		JitterMax: 3 * time.Second,
	}
}

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RequestLimiter counts the requests of one discovery run and paces them.
// A limiter is created per run and shared by all source goroutines of that
// run; it is safe for concurrent use.
type RequestLimiter struct {
	cfg    LimiterConfig
	sleep  SleepFunc
	jitter func(lo, hi time.Duration) time.Duration

	mu    sync.Mutex
	count int
	// gen advances on every reset so a late cooldown cannot erase counts
	// taken after an earlier one finished.
	gen uint64
}

// LimiterOption configures a RequestLimiter.
type LimiterOption func(*RequestLimiter)

// WithSleep replaces the real sleep, mainly for tests.
func WithSleep(fn SleepFunc) LimiterOption {
	return func(l *RequestLimiter) {
		l.sleep = fn
	}
}

// WithJitter replaces the uniform random jitter source.
func WithJitter(fn func(lo, hi time.Duration) time.Duration) LimiterOption {
	return func(l *RequestLimiter) {
		l.jitter = fn
	}
}

// NewRequestLimiter creates a limiter with a zeroed counter. Zero config
// fields fall back to DefaultLimiterConfig.
func NewRequestLimiter(cfg LimiterConfig, opts ...LimiterOption) *RequestLimiter {
	def := DefaultLimiterConfig()
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = def.Ceiling
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.JitterMin < 0 {
		cfg.JitterMin = 0
	}
	if cfg.JitterMax < cfg.JitterMin {
		cfg.JitterMax = cfg.JitterMin
	}

	l := &RequestLimiter{
		cfg:    cfg,
		sleep:  sleepContext,
		jitter: uniformJitter,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait must be called before every request. It increments the counter and
// either sleeps a short random interval or, once the ceiling is exceeded,
// sleeps the full cooldown and resets the counter.
//
// The lock is never held while sleeping. Callers that arrive while another
// goroutine is cooling down also see the counter above the ceiling and cool
// down too, so the whole run pauses.
func (l *RequestLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	l.count++
	overLimit := l.count > l.cfg.Ceiling
	gen := l.gen
	l.mu.Unlock()

	if !overLimit {
		return l.sleep(ctx, l.jitter(l.cfg.JitterMin, l.cfg.JitterMax))
	}

	err := l.sleep(ctx, l.cfg.Cooldown)

	l.mu.Lock()
	if l.gen == gen {
		l.count = 0
		l.gen++
	}
	l.mu.Unlock()
	return err
}

// Count returns the number of requests counted since the last reset.
func (l *RequestLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
