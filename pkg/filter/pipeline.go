// Package filter turns raw reviews into the output dataset.
package filter

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"playreviews/pkg/langdetect"
	"playreviews/pkg/logger"
	"playreviews/pkg/models"
)

const (
	// MinContentRunes is the shortest review text kept
	MinContentRunes = 5
	// ClassifyPrefixRunes bounds the text handed to the classifier
	ClassifyPrefixRunes = 300
)

// Classifier guesses the language of a text. It returns
// langdetect.ErrUndetectable when it cannot decide.
type Classifier interface {
	Detect(text string) (string, error)
}

// Pipeline applies the date, content and language rules in that order
type Pipeline struct {
	classifier Classifier
	logger     logger.Logger
}

// New creates a pipeline
func New(classifier Classifier, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{classifier: classifier, logger: log}
}

// Filter keeps the reviews that match criteria. Every input lands in exactly
// one bucket of the returned stats; the first rule that rejects wins.
// criteria is expected to be valid (see models.Criteria.Validate).
func (p *Pipeline) Filter(reviews []models.RawReview, criteria models.Criteria) ([]models.FilteredReview, models.FilterStats) {
	stats := models.FilterStats{Total: len(reviews)}
	out := make([]models.FilteredReview, 0, len(reviews))

	for _, r := range reviews {
		date, ok := reviewDate(r.SubmittedAt)
		if !ok || !criteria.Contains(date) {
			stats.RejectedByDate++
			continue
		}

		content := norm.NFC.String(strings.TrimSpace(r.Content))
		if utf8.RuneCountInString(content) < MinContentRunes {
			stats.RejectedEmptyContent++
			continue
		}

		lang, err := p.classifier.Detect(prefix(content, ClassifyPrefixRunes))
		if err != nil {
			if !errors.Is(err, langdetect.ErrUndetectable) {
				p.logger.WithError(err).DebugWithFields("classifier failed", map[string]interface{}{
					"review_id": r.ID,
				})
			}
			stats.RejectedLanguageUndetected++
			continue
		}
		if !criteria.Accepts(lang) {
			stats.RejectedByLanguage++
			continue
		}

		stats.Accepted++
		out = append(out, models.FilteredReview{
			Rating:   r.Rating,
			Title:    "",
			Content:  content,
			Date:     date.String(),
			Language: lang,
		})
	}

	logger.LogFilterStats(p.logger, stats.Total, stats.Accepted, stats.RejectedByDate,
		stats.RejectedByLanguage, stats.RejectedEmptyContent, stats.RejectedLanguageUndetected)

	return out, stats
}

// reviewDate coerces the submission timestamp to a calendar date
func reviewDate(v interface{}) (models.Date, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return models.Date{}, false
		}
		return models.DateOf(t), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return models.Date{}, false
		}
		return models.DateOf(*t), true
	case models.Date:
		return t, !t.IsZero()
	case string:
		if len(t) < 10 {
			return models.Date{}, false
		}
		d, err := models.ParseDate(t[:10])
		return d, err == nil
	default:
		return models.Date{}, false
	}
}

// prefix returns at most n runes of s
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
