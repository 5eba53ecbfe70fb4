// Package ratelimit paces requests to the review store.
//
// TokenBucket wraps golang.org/x/time/rate: it admits a burst of requests and
// then one request per interval. Wait honours context cancellation, so a
// cancelled collection run never sits in the limiter.
//
// Usage:
//
//	// 20 requests per minute, no bursting
//	limiter := ratelimit.PerMinute(20, 1)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
