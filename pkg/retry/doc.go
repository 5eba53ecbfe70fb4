// Package retry provides backoff strategies and a retry loop for requests
// to the review source.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Per-kind strategy selection (rate limited, transient, unknown)
//   - Seedable jitter for spacing page requests
//   - Context support for cancellation and an injectable sleep for tests
//
// Basic usage:
//
//	kb := retry.NewKindBackoff()
//	page, err := retry.DoWithResult(func() (Page, error) {
//		return source.FetchPage(ctx, req)
//	}, &retry.Config{
//		MaxAttempts: 4,
//		BackoffFor:  kb.For,
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// Error Kind Handling:
//   - Rate limited: min(30s, 5s * 2^n) where n is the consecutive failure count
//   - Transient: fixed 4s
//   - Unknown: fixed 3s
//   - Not found / input: no retry
//
// After MaxAttempts consecutive failures Do returns an error of kind
// retries_exhausted that wraps the last failure.
package retry
