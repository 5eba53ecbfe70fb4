package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket is a token bucket limiter refilled at a steady rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows burst requests at once and one more every interval
func NewTokenBucket(burst int, every time.Duration) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// PerMinute returns a bucket refilled at n requests per minute.
// n <= 0 disables limiting.
func PerMinute(n, burst int) Limiter {
	if n <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(burst, time.Minute/time.Duration(n))
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
