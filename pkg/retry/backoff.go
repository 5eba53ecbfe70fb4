package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	errs "playreviews/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before the given attempt's retry (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements capped exponential backoff
type ExponentialBackoff struct {
	// BaseDelay is the delay after the first failure
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
}

// RateLimitBackoff waits min(30s, 5s * 2^attempt): 10s, 20s, 30s, 30s, ...
func RateLimitBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  10 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// NextDelay calculates the next delay with exponential growth
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// KindBackoff picks a strategy by the failure kind of the last error
type KindBackoff struct {
	// RateLimited for 429/403 responses
	RateLimited BackoffStrategy
	// Transient for other errors reported by the source
	Transient BackoffStrategy
	// Unknown for failures the source could not classify
	Unknown BackoffStrategy
}

// NewKindBackoff returns the delays used by the review collector
func NewKindBackoff() *KindBackoff {
	return &KindBackoff{
		RateLimited: RateLimitBackoff(),
		Transient:   &ConstantBackoff{Delay: 4 * time.Second},
		Unknown:     &ConstantBackoff{Delay: 3 * time.Second},
	}
}

// For returns the strategy for err
func (kb *KindBackoff) For(err error) BackoffStrategy {
	switch errs.KindOf(err) {
	case errs.KindRateLimited:
		return kb.RateLimited
	case errs.KindTransient:
		return kb.Transient
	default:
		return kb.Unknown
	}
}

// Jitter produces a random extra delay
type Jitter interface {
	Next() time.Duration
}

// UniformJitter draws uniformly from [Min, Max]
type UniformJitter struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewUniformJitter creates a jitter source; seed makes it reproducible
func NewUniformJitter(min, max time.Duration, seed int64) *UniformJitter {
	return &UniformJitter{
		Min: min,
		Max: max,
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// DefaultPageJitter is the 0.5s-1.2s spread added between page requests
func DefaultPageJitter() *UniformJitter {
	return NewUniformJitter(500*time.Millisecond, 1200*time.Millisecond, time.Now().UnixNano())
}

// Next returns a value in [Min, Max]
func (j *UniformJitter) Next() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Max <= j.Min {
		return j.Min
	}
	span := float64(j.Max - j.Min)
	return j.Min + time.Duration(j.rnd.Float64()*span)
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
