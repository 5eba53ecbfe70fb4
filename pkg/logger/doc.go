// Package logger provides a structured logging interface for playreviews.
//
// It wraps zerolog with:
//   - Level parsing from configuration
//   - Colored console output on stderr, optional file output
//   - Immutable field chaining (WithField, WithFields, WithError)
//   - A global logger for command wiring
//   - NewTestLogger for tests
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Collecting reviews", map[string]interface{}{
//		"app_id": appID,
//		"target": 500,
//	})
package logger
