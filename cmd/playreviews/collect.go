package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"playreviews/internal/collector"
	"playreviews/pkg/config"
	errs "playreviews/pkg/errors"
	"playreviews/pkg/logger"
	"playreviews/pkg/ui"
)

var (
	// Collect command flags
	targetCount      int
	baseDelay        time.Duration
	fromDate         string
	toDate           string
	languages        []string
	outputFormat     string
	outputDir        string
	noLanguageColumn bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <store-url>",
	Short: "Collect, filter and export reviews of a Google Play app",
	Long: `Collect reviews of a Google Play app, newest first, until the target
count is reached or the store runs out of reviews. Reviews are then filtered
by date range and language and written next to a JSON run summary.`,
	Example: `  # 500 Russian reviews since 2023 as CSV and XLSX
  playreviews collect "https://play.google.com/store/apps/details?id=com.example.app"

  # Russian and Ukrainian reviews from the first quarter, CSV only
  playreviews collect "https://play.google.com/store/apps/details?id=com.example.app" \
    --lang ru --lang uk --from 2024-01-01 --to 2024-03-31 --format csv

  # Larger run with a slower pace
  playreviews collect "https://play.google.com/store/apps/details?id=com.example.app" \
    --count 2000 --delay 4s --output ./reviews`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVarP(&targetCount, "count", "n", 0, "number of reviews to collect (default 500)")
	collectCmd.Flags().DurationVar(&baseDelay, "delay", 0, "base delay between pages (default 2.5s)")
	collectCmd.Flags().StringVar(&fromDate, "from", "", "first review date to keep, YYYY-MM-DD")
	collectCmd.Flags().StringVar(&toDate, "to", "", "last review date to keep, YYYY-MM-DD (default today)")
	collectCmd.Flags().StringArrayVarP(&languages, "lang", "l", nil, "language to keep, repeatable (default ru); one of "+strings.Join(config.SupportedLanguages, ", "))
	collectCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: csv, xlsx or both")
	collectCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default current directory)")
	collectCmd.Flags().BoolVar(&noLanguageColumn, "no-language-column", false, "omit the language column from exports")
}

func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if targetCount > 0 {
		flags["count"] = targetCount
	}
	if baseDelay > 0 {
		flags["delay"] = baseDelay
	}
	if fromDate != "" {
		flags["from"] = fromDate
	}
	if toDate != "" {
		flags["to"] = toDate
	}
	if len(languages) > 0 {
		flags["lang"] = languages
	}
	if outputFormat != "" {
		flags["format"] = outputFormat
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("no-language-column") {
		flags["include-language"] = !noLanguageColumn
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if noColor {
		flags["no-color"] = true
	}
	return flags
}

func runCollect(cmd *cobra.Command, args []string) error {
	locator := strings.TrimSpace(args[0])

	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return errs.Wrap(errs.KindInput, err, "failed to load configuration")
	}

	showBar := !quiet && ui.IsTerminal(os.Stderr)
	// Console logs would tear the progress line apart.
	if showBar && logLevel == "" && cfg.Logging.File == "" {
		cfg.Logging.Level = "warn"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Logging.NoColor {
		ui.SetColor(false)
	}
	logger.WithField("version", version).Info("playreviews starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *ui.ProgressBar
	var sink ui.ProgressSink = ui.LogSink{Logger: logger.GetLogger()}
	if showBar {
		bar = ui.NewProgressBar(os.Stderr, "Collecting")
		sink = bar
	}

	c := collector.New(cfg, collector.WithProgress(sink))

	if !quiet {
		ui.PrintInfo("Store URL", locator)
		ui.PrintInfo("Target", fmt.Sprintf("%d reviews", cfg.Retrieval.TargetCount))
	}

	out, err := c.Run(ctx, locator)
	if bar != nil {
		if err != nil {
			bar.Complete("stopped")
		} else {
			bar.Complete(fmt.Sprintf("Collected %d reviews", len(out.Retrieval.Reviews)))
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			ui.PrintWarning("Interrupted")
		}
		return err
	}

	printSummary(out.Summary, cfg.Store.Language, out.Artifacts)
	return nil
}
