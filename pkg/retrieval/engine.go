package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	errs "playreviews/pkg/errors"
	"playreviews/pkg/logger"
	"playreviews/pkg/models"
	"playreviews/pkg/retry"
	"playreviews/pkg/ui"
)

const (
	// MaxPageSize is the largest page the store serves
	MaxPageSize = 200
	// DefaultMaxConsecutiveErrors stops a run after this many failures in a row
	DefaultMaxConsecutiveErrors = 4
)

// Config describes one collection run
type Config struct {
	AppID       string
	TargetCount int
	// BaseDelay is the pause between pages before jitter is added
	BaseDelay time.Duration
	Language  string
	Country   string
	PageSize  int
	// MaxConsecutiveErrors defaults to DefaultMaxConsecutiveErrors
	MaxConsecutiveErrors int
}

// Validate reports bad caller input as an input error
func (c Config) Validate() error {
	if c.AppID == "" {
		return errs.Input("app id is required")
	}
	if c.TargetCount <= 0 {
		return errs.Input("target count must be positive, got %d", c.TargetCount)
	}
	if c.BaseDelay < 0 {
		return errs.Input("base delay cannot be negative")
	}
	if c.PageSize < 0 || c.PageSize > MaxPageSize {
		return errs.Input("page size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if c.MaxConsecutiveErrors < 0 {
		return errs.Input("max consecutive errors cannot be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "ru"
	}
	if c.Country == "" {
		c.Country = "ru"
	}
	if c.PageSize == 0 {
		c.PageSize = MaxPageSize
	}
	if c.MaxConsecutiveErrors == 0 {
		c.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	return c
}

// StopReason tells why the paging loop ended
type StopReason string

const (
	StopTargetReached StopReason = "target_reached"
	StopEndOfStream   StopReason = "end_of_stream"
	StopEmptyPage     StopReason = "empty_page"
	StopErrorCeiling  StopReason = "error_ceiling"
)

// Result is the outcome of FetchReviews
type Result struct {
	RunID      string
	Reviews    []models.RawReview
	Pages      int
	StopReason StopReason
	// Partial is set when the run stopped on the error ceiling after collecting something
	Partial  bool
	Duration time.Duration
}

// state is the mutable part of a single run
type state struct {
	reviews []models.RawReview
	seen    map[string]struct{}
	token   string
	pages   int
}

func newState() *state {
	return &state{seen: make(map[string]struct{})}
}

// add appends reviews whose ids have not been seen yet, keeping order
func (s *state) add(batch []models.RawReview) int {
	added := 0
	for _, r := range batch {
		if _, dup := s.seen[r.ID]; dup {
			continue
		}
		s.seen[r.ID] = struct{}{}
		s.reviews = append(s.reviews, r)
		added++
	}
	return added
}

// Engine pages through a ReviewSource until it has enough unique reviews
type Engine struct {
	source   ReviewSource
	progress ui.ProgressSink
	jitter   retry.Jitter
	backoff  *retry.KindBackoff
	sleep    retry.SleepFunc
	logger   logger.Logger
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithProgress sets the sink that receives progress updates
func WithProgress(p ui.ProgressSink) Option {
	return func(e *Engine) { e.progress = p }
}

// WithJitter replaces the inter-page jitter source
func WithJitter(j retry.Jitter) Option {
	return func(e *Engine) { e.jitter = j }
}

// WithBackoff replaces the per-kind backoff delays
func WithBackoff(b *retry.KindBackoff) Option {
	return func(e *Engine) { e.backoff = b }
}

// WithSleep replaces the wait primitive, mostly for tests
func WithSleep(s retry.SleepFunc) Option {
	return func(e *Engine) { e.sleep = s }
}

// WithLogger sets the engine logger
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine reading from source
func NewEngine(source ReviewSource, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		progress: ui.NopSink{},
		jitter:   retry.DefaultPageJitter(),
		backoff:  retry.NewKindBackoff(),
		sleep:    retry.Wait,
		logger:   logger.GetLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchReviews collects up to cfg.TargetCount unique reviews, newest first.
//
// A source failure is retried on the same page with a delay picked by its
// kind. NotFound aborts immediately. After MaxConsecutiveErrors failures in a
// row the run stops: with nothing collected it returns a retries_exhausted
// error, otherwise the reviews gathered so far with Partial set.
func (e *Engine) FetchReviews(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	runID := uuid.NewString()
	log := e.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"app_id": cfg.AppID,
	})
	log.InfoWithFields("Starting review collection", map[string]interface{}{
		"target":     cfg.TargetCount,
		"language":   cfg.Language,
		"country":    cfg.Country,
		"base_delay": cfg.BaseDelay,
	})

	started := e.now()
	st := newState()
	result := &Result{RunID: runID}

	for {
		if st.pages > 0 {
			delay := cfg.BaseDelay + e.jitter.Next()
			log.DebugWithFields("Waiting before next page", map[string]interface{}{
				"delay_ms": delay.Milliseconds(),
			})
			if err := e.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("collection cancelled: %w", err)
			}
		}

		req := PageRequest{
			AppID:    cfg.AppID,
			Language: cfg.Language,
			Country:  cfg.Country,
			Sort:     SortNewest,
			Count:    min(cfg.PageSize, cfg.TargetCount-len(st.reviews)),
			Token:    st.token,
		}

		page, err := e.fetchPage(ctx, req, st, cfg, log)
		if err != nil {
			if errs.Is(err, errs.KindRetriesExhausted) && len(st.reviews) > 0 {
				log.WithError(err).WarnWithFields("Error ceiling reached, keeping partial result", map[string]interface{}{
					"collected": len(st.reviews),
				})
				result.StopReason = StopErrorCeiling
				result.Partial = true
				break
			}
			log.WithError(err).Error("Review collection failed")
			return nil, err
		}

		st.pages++

		if len(page.Reviews) == 0 {
			if st.pages == 1 {
				return nil, errs.New(errs.KindNotFound, "no reviews found for %s", cfg.AppID)
			}
			result.StopReason = StopEmptyPage
			break
		}

		added := st.add(page.Reviews)
		st.token = page.NextToken

		collected := len(st.reviews)
		e.progress.Report(
			min(float64(collected)/float64(cfg.TargetCount), 1),
			fmt.Sprintf("Page %d | Collected: %d/%d", st.pages, collected, cfg.TargetCount),
		)
		logger.LogPage(log, st.pages, len(page.Reviews), added, collected, cfg.TargetCount, st.token != "")

		if collected >= cfg.TargetCount {
			result.StopReason = StopTargetReached
			break
		}
		if st.token == "" {
			result.StopReason = StopEndOfStream
			break
		}
	}

	reviews := st.reviews
	if len(reviews) > cfg.TargetCount {
		reviews = reviews[:cfg.TargetCount]
	}
	result.Reviews = reviews
	result.Pages = st.pages
	result.Duration = e.now().Sub(started)

	log.InfoWithFields("Review collection finished", map[string]interface{}{
		"collected":   len(reviews),
		"pages":       result.Pages,
		"stop_reason": string(result.StopReason),
		"partial":     result.Partial,
	})

	return result, nil
}

// fetchPage requests one page, retrying failures until the error ceiling
func (e *Engine) fetchPage(ctx context.Context, req PageRequest, st *state, cfg Config, log logger.Logger) (Page, error) {
	rcfg := &retry.Config{
		MaxAttempts: cfg.MaxConsecutiveErrors,
		BackoffFor:  e.backoff.For,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Sleep:       e.sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			kind := errs.KindOf(err)
			logger.LogBackoff(log, string(kind), attempt, cfg.MaxConsecutiveErrors, delay, err)
			e.progress.Report(
				min(float64(len(st.reviews))/float64(cfg.TargetCount), 1),
				fmt.Sprintf("Page %d | %s, retrying in %s (%d/%d)",
					st.pages+1, kindLabel(kind), delay.Round(time.Second), attempt, cfg.MaxConsecutiveErrors),
			)
		},
	}

	return retry.DoWithResult(func() (Page, error) {
		return e.source.FetchPage(ctx, req)
	}, rcfg)
}

func kindLabel(kind errs.Kind) string {
	switch kind {
	case errs.KindRateLimited:
		return "Rate limited"
	case errs.KindTransient:
		return "Request failed"
	default:
		return "Unknown error"
	}
}
