package scraper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep captures requested pauses instead of sleeping.
type recordingSleep struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses = append(r.pauses, d)
	return nil
}

func (r *recordingSleep) snapshot() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.pauses...)
}

func TestRequestLimiter_CooldownOnTwentyFirstRequest(t *testing.T) {
	rec := &recordingSleep{}
	l := NewRequestLimiter(DefaultLimiterConfig(), WithSleep(rec.sleep))

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Equal(t, 20, l.Count())
	for i, d := range rec.snapshot() {
		assert.GreaterOrEqual(t, d, time.Second, "request %d", i+1)
		assert.LessOrEqual(t, d, 3*time.Second, "request %d", i+1)
	}

	require.NoError(t, l.Wait(context.Background()))
	pauses := rec.snapshot()
	require.Len(t, pauses, 21)
	assert.Equal(t, 60*time.Second, pauses[20])
	assert.Equal(t, 0, l.Count(), "counter resets after the cooldown")

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, 1, l.Count())
	assert.Less(t, rec.snapshot()[21], 60*time.Second)
}

func TestRequestLimiter_ConcurrentCountsAreNotLost(t *testing.T) {
	rec := &recordingSleep{}
	l := NewRequestLimiter(LimiterConfig{Ceiling: 1000, Cooldown: time.Minute}, WithSleep(rec.sleep))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = l.Wait(context.Background())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, l.Count())
	assert.Len(t, rec.snapshot(), 500)
}

func TestRequestLimiter_LateCooldownKeepsNewCounts(t *testing.T) {
	// Each cooldown blocks until the test releases it.
	entered := make(chan chan struct{}, 2)
	sleep := func(ctx context.Context, d time.Duration) error {
		if d != time.Minute {
			return nil
		}
		release := make(chan struct{})
		entered <- release
		<-release
		return nil
	}
	l := NewRequestLimiter(LimiterConfig{Ceiling: 2, Cooldown: time.Minute}, WithSleep(sleep))

	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))

	wait := func() <-chan error {
		done := make(chan error, 1)
		go func() { done <- l.Wait(context.Background()) }()
		return done
	}

	doneA := wait()
	releaseA := <-entered
	doneB := wait()
	releaseB := <-entered
	assert.Equal(t, 4, l.Count())

	close(releaseA)
	require.NoError(t, <-doneA)
	assert.Equal(t, 0, l.Count())

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, 1, l.Count())

	close(releaseB)
	require.NoError(t, <-doneB)
	assert.Equal(t, 1, l.Count(), "second cooldown must not reset counts taken after the first")
}

func TestRequestLimiter_CustomJitter(t *testing.T) {
	rec := &recordingSleep{}
	l := NewRequestLimiter(DefaultLimiterConfig(),
		WithSleep(rec.sleep),
		WithJitter(func(lo, hi time.Duration) time.Duration { return hi }),
	)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.snapshot())
}

func TestRequestLimiter_RealSleepHonoursContext(t *testing.T) {
	l := NewRequestLimiter(LimiterConfig{JitterMin: time.Hour, JitterMax: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUniformJitter_Bounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := uniformJitter(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, uniformJitter(time.Second, time.Second))
}
