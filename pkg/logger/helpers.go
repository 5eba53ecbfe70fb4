package logger

import (
	"fmt"
	"time"
)

// LogPage logs one successfully fetched page
func LogPage(l Logger, page, fetched, added, collected, target int, hasNext bool) {
	l.InfoWithFields("Review page fetched", map[string]interface{}{
		"page":      page,
		"fetched":   fetched,
		"added":     added,
		"collected": collected,
		"target":    target,
		"has_next":  hasNext,
	})
}

// LogBackoff logs a failed request that will be retried after delay
func LogBackoff(l Logger, kind string, attempt, maxAttempts int, delay time.Duration, err error) {
	l.WithError(err).WarnWithFields("Review request failed, backing off", map[string]interface{}{
		"kind":         kind,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"delay":        delay,
	})
}

// LogFilterStats logs the outcome of a filter run
func LogFilterStats(l Logger, total, accepted, byDate, byLanguage, empty, undetected int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(accepted) / float64(total) * 100
	}

	l.InfoWithFields("Filtering completed", map[string]interface{}{
		"total":                 total,
		"accepted":              accepted,
		"accepted_pct":          fmt.Sprintf("%.1f%%", percentage),
		"rejected_by_date":      byDate,
		"rejected_by_language":  byLanguage,
		"rejected_empty":        empty,
		"rejected_undetectable": undetected,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}
