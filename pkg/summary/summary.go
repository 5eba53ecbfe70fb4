// Package summary describes a finished collection run.
package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"playreviews/pkg/models"
)

// Summary is the JSON document written next to the exports
type Summary struct {
	// Run
	RunID       string        `json:"run_id"`
	AppID       string        `json:"app_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration_ns"`

	// Retrieval
	Collected  int    `json:"collected"`
	Pages      int    `json:"pages"`
	StopReason string `json:"stop_reason"`
	Partial    bool   `json:"partial"`

	// Filtering
	Criteria models.Criteria    `json:"criteria"`
	Stats    models.FilterStats `json:"stats"`

	// Dataset
	Ratings       []RatingBucket `json:"ratings"`
	AverageRating float64        `json:"average_rating"`
	Positive      int            `json:"positive"`
	Negative      int            `json:"negative"`
	Languages     map[string]int `json:"languages"`
	FirstDate     string         `json:"first_date,omitempty"`
	LastDate      string         `json:"last_date,omitempty"`

	Artifacts []string `json:"artifacts,omitempty"`
}

// RatingBucket is the share of reviews with one star rating
type RatingBucket struct {
	Rating  int     `json:"rating"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Run carries the retrieval facts a summary needs
type Run struct {
	RunID      string
	AppID      string
	Collected  int
	Pages      int
	StopReason string
	Partial    bool
	Duration   time.Duration
}

// Build computes the summary of a filtered dataset
func Build(run Run, criteria models.Criteria, stats models.FilterStats, reviews []models.FilteredReview) *Summary {
	s := &Summary{
		RunID:       run.RunID,
		AppID:       run.AppID,
		GeneratedAt: time.Now().UTC(),
		Duration:    run.Duration,
		Collected:   run.Collected,
		Pages:       run.Pages,
		StopReason:  run.StopReason,
		Partial:     run.Partial,
		Criteria:    criteria,
		Stats:       stats,
		Languages:   make(map[string]int),
	}

	if len(reviews) == 0 {
		return s
	}

	counts := make(map[int]int)
	total := 0
	for _, r := range reviews {
		counts[r.Rating]++
		total += r.Rating
		s.Languages[r.Language]++

		switch {
		case r.Rating >= 4:
			s.Positive++
		case r.Rating <= 2:
			s.Negative++
		}

		// dates are YYYY-MM-DD so string order is date order
		if s.FirstDate == "" || r.Date < s.FirstDate {
			s.FirstDate = r.Date
		}
		if r.Date > s.LastDate {
			s.LastDate = r.Date
		}
	}

	n := float64(len(reviews))
	s.AverageRating = float64(total) / n

	ratings := make([]int, 0, len(counts))
	for rating := range counts {
		ratings = append(ratings, rating)
	}
	sort.Ints(ratings)
	for _, rating := range ratings {
		s.Ratings = append(s.Ratings, RatingBucket{
			Rating:  rating,
			Count:   counts[rating],
			Percent: roundTo(float64(counts[rating])/n*100, 1),
		})
	}

	return s
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Percent returns part as a percentage of the filtered count
func (s *Summary) Percent(part int) float64 {
	if s.Stats.Accepted == 0 {
		return 0
	}
	return float64(part) / float64(s.Stats.Accepted) * 100
}

// Write encodes the summary as indented JSON
func (s *Summary) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return nil
}

// Load reads a summary from a JSON file
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary file: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &s, nil
}
