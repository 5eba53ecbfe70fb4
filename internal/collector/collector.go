// Package collector wires retrieval, filtering and export into one run.
package collector

import (
	"context"
	"fmt"
	"io"
	"time"

	"playreviews/pkg/config"
	errs "playreviews/pkg/errors"
	"playreviews/pkg/export"
	"playreviews/pkg/filter"
	"playreviews/pkg/langdetect"
	"playreviews/pkg/logger"
	"playreviews/pkg/models"
	"playreviews/pkg/playstore"
	"playreviews/pkg/ratelimit"
	"playreviews/pkg/retrieval"
	"playreviews/pkg/storage"
	"playreviews/pkg/summary"
	"playreviews/pkg/ui"
)

// Collector runs the collect, filter and export pipeline for one app
type Collector struct {
	config     *config.Config
	source     retrieval.ReviewSource
	classifier filter.Classifier
	progress   ui.ProgressSink
	storage    *storage.Manager
	logger     logger.Logger
	engineOpts []retrieval.Option
	now        func() time.Time
}

// Outcome is what a run produced
type Outcome struct {
	AppID     string
	Criteria  models.Criteria
	Retrieval *retrieval.Result
	Reviews   []models.FilteredReview
	Stats     models.FilterStats
	Summary   *summary.Summary
	Artifacts []string
}

// Option configures a Collector
type Option func(*Collector)

// WithSource replaces the Google Play client
func WithSource(s retrieval.ReviewSource) Option {
	return func(c *Collector) { c.source = s }
}

// WithClassifier replaces the language detector
func WithClassifier(cl filter.Classifier) Option {
	return func(c *Collector) { c.classifier = cl }
}

// WithProgress sets the progress sink
func WithProgress(p ui.ProgressSink) Option {
	return func(c *Collector) { c.progress = p }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithEngineOptions passes options through to the retrieval engine
func WithEngineOptions(opts ...retrieval.Option) Option {
	return func(c *Collector) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithClock replaces time.Now, used for the default end date and file names
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates a collector from configuration. Nothing touches the network or
// the file system until Run.
func New(cfg *config.Config, opts ...Option) *Collector {
	c := &Collector{
		config:   cfg,
		progress: ui.NopSink{},
		logger:   logger.GetLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.source == nil {
		limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
		c.source = playstore.NewClient(cfg.Store, limiter, c.logger)
	}
	if c.classifier == nil {
		c.classifier = langdetect.New(cfg.Filter.MinConfidence)
	}
	c.storage = storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.FileNamePattern)

	return c
}

// Criteria builds the filter criteria from configuration. An empty end date
// means today.
func (c *Collector) Criteria() (models.Criteria, error) {
	start, err := models.ParseDate(c.config.Filter.StartDate)
	if err != nil {
		return models.Criteria{}, errs.Input("start date: %v", err)
	}

	end := models.DateOf(c.now())
	if c.config.Filter.EndDate != "" {
		end, err = models.ParseDate(c.config.Filter.EndDate)
		if err != nil {
			return models.Criteria{}, errs.Input("end date: %v", err)
		}
	}

	criteria, err := models.Criteria{
		StartDate: start,
		EndDate:   end,
		Languages: c.config.Filter.Languages,
	}.Normalized()
	if err != nil {
		return models.Criteria{}, err
	}
	for _, lang := range criteria.Languages {
		if !config.IsSupportedLanguage(lang) {
			return models.Criteria{}, errs.Input("language %q cannot be detected, choose from %v", lang, config.SupportedLanguages)
		}
	}
	return criteria, nil
}

// Run collects, filters and exports reviews for the app behind locator.
// All input is validated before the first request is sent.
func (c *Collector) Run(ctx context.Context, locator string) (*Outcome, error) {
	if !playstore.IsStoreURL(locator) {
		return nil, errs.Input("%q is not a Google Play link", locator)
	}
	appID, err := playstore.ExtractAppID(locator)
	if err != nil {
		return nil, err
	}
	criteria, err := c.Criteria()
	if err != nil {
		return nil, err
	}
	exporters, err := export.ForFormat(c.config.Output.Format, c.config.Output.IncludeLanguage)
	if err != nil {
		return nil, errs.Input("%v", err)
	}

	log := c.logger.WithField("app_id", appID)
	logger.LogComponentStart("collector", map[string]interface{}{
		"app_id":    appID,
		"target":    c.config.Retrieval.TargetCount,
		"languages": criteria.Languages,
		"from":      criteria.StartDate.String(),
		"to":        criteria.EndDate.String(),
	})

	engineOpts := append([]retrieval.Option{
		retrieval.WithProgress(c.progress),
		retrieval.WithLogger(c.logger),
	}, c.engineOpts...)
	engine := retrieval.NewEngine(c.source, engineOpts...)

	res, err := engine.FetchReviews(ctx, retrieval.Config{
		AppID:                appID,
		TargetCount:          c.config.Retrieval.TargetCount,
		BaseDelay:            c.config.Retrieval.BaseDelay,
		Language:             c.config.Store.Language,
		Country:              c.config.Store.Country,
		PageSize:             c.config.Retrieval.PageSize,
		MaxConsecutiveErrors: c.config.Retrieval.MaxConsecutiveErrors,
	})
	if err != nil {
		logger.LogComponentStop("collector", string(errs.KindOf(err)))
		return nil, err
	}

	pipeline := filter.New(c.classifier, log)
	reviews, stats := pipeline.Filter(res.Reviews, criteria)

	out := &Outcome{
		AppID:     appID,
		Criteria:  criteria,
		Retrieval: res,
		Reviews:   reviews,
		Stats:     stats,
	}

	if len(reviews) == 0 {
		log.Warn("No reviews left after filtering, nothing exported")
	} else {
		for _, exp := range exporters {
			name := c.storage.FileName(appID, c.now(), exp.Extension())
			if c.storage.Exists(name) {
				log.WithField("file", name).Warn("Overwriting existing export")
			}
			path, err := c.storage.Save(name, func(w io.Writer) error {
				return exp.Export(w, reviews)
			})
			if err != nil {
				return out, fmt.Errorf("export %s: %w", exp.Extension(), err)
			}
			log.WithField("path", path).Info("Reviews exported")
		}
	}

	out.Summary = summary.Build(summary.Run{
		RunID:      res.RunID,
		AppID:      appID,
		Collected:  len(res.Reviews),
		Pages:      res.Pages,
		StopReason: string(res.StopReason),
		Partial:    res.Partial,
		Duration:   res.Duration,
	}, criteria, stats, reviews)
	out.Summary.Artifacts = c.storage.Saved()

	if c.config.Output.WriteSummary {
		name := c.storage.FileName(appID, c.now(), "summary.json")
		if _, err := c.storage.Save(name, out.Summary.Write); err != nil {
			return out, fmt.Errorf("write summary: %w", err)
		}
	}
	out.Artifacts = c.storage.Saved()

	logger.LogComponentStop("collector", string(res.StopReason))
	return out, nil
}
