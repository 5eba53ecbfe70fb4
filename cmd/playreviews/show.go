package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"playreviews/pkg/playstore"
	"playreviews/pkg/summary"
	"playreviews/pkg/ui"
)

// showCmd prints a summary written by an earlier collect run
var showCmd = &cobra.Command{
	Use:   "show <summary.json>",
	Short: "Print the results of an earlier run",
	Long: `Print the results stored in a run summary file. collect writes one next
to the exports unless output.write_summary is false.`,
	Example: `  playreviews show ./reviews_com.example.app_20240131.summary.json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := summary.Load(args[0])
		if err != nil {
			return err
		}
		printSummary(s, "", s.Artifacts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// printSummary renders a run summary for the terminal
func printSummary(s *summary.Summary, hl string, artifacts []string) {
	fmt.Println()
	ui.PrintHighlight("Results")
	ui.PrintInfo("App", s.AppID)
	ui.PrintInfo("Listing", playstore.ListingURL(s.AppID, hl))
	ui.PrintInfo("Collected", fmt.Sprintf("%d (%d pages, %s)", s.Collected, s.Pages, s.StopReason))
	if s.Partial {
		ui.PrintWarning("Collection stopped early after repeated errors, results are partial")
	}
	ui.PrintInfo("After filtering", fmt.Sprintf("%d", s.Stats.Accepted))
	ui.PrintInfo("Period", fmt.Sprintf("%s .. %s", s.Criteria.StartDate, s.Criteria.EndDate))
	ui.PrintInfo("Languages", strings.Join(s.Criteria.Languages, ", "))

	fmt.Println()
	fmt.Println(ui.Dim("Filtered out:"))
	fmt.Printf("  by date:              %d\n", s.Stats.RejectedByDate)
	fmt.Printf("  by language:          %d\n", s.Stats.RejectedByLanguage)
	fmt.Printf("  empty or too short:   %d\n", s.Stats.RejectedEmptyContent)
	fmt.Printf("  language undetected:  %d\n", s.Stats.RejectedLanguageUndetected)

	if s.Stats.Accepted == 0 {
		fmt.Println()
		ui.PrintWarning("No reviews matched the filters, nothing was exported")
		return
	}

	if len(s.Languages) > 1 {
		fmt.Println()
		fmt.Println(ui.Dim("Languages:"))
		codes := make([]string, 0, len(s.Languages))
		for code := range s.Languages {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Printf("  %s: %d\n", code, s.Languages[code])
		}
	}

	fmt.Println()
	fmt.Println(ui.Dim("Ratings:"))
	for i := len(s.Ratings) - 1; i >= 0; i-- {
		b := s.Ratings[i]
		fmt.Printf("  %s %4d  (%.1f%%)\n", stars(b.Rating), b.Count, b.Percent)
	}
	ui.PrintInfo("Average rating", fmt.Sprintf("%.2f", s.AverageRating))
	ui.PrintInfo("Positive (4-5)", fmt.Sprintf("%d (%.1f%%)", s.Positive, s.Percent(s.Positive)))
	ui.PrintInfo("Negative (1-2)", fmt.Sprintf("%d (%.1f%%)", s.Negative, s.Percent(s.Negative)))

	if len(artifacts) > 0 {
		fmt.Println()
		for _, path := range artifacts {
			ui.PrintSuccess("Saved " + path)
		}
	}
}

func stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
