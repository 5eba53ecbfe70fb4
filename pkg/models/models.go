package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	errs "playreviews/pkg/errors"
)

// RawReview is a review record as returned by the review source.
// SubmittedAt holds a time.Time, a Date, or a string starting with YYYY-MM-DD.
type RawReview struct {
	ID          string      `json:"review_id"`
	Rating      int         `json:"rating"`
	Content     string      `json:"content"`
	SubmittedAt interface{} `json:"submitted_at"`
	UserName    string      `json:"user_name,omitempty"`
	ThumbsUp    int         `json:"thumbs_up,omitempty"`
	AppVersion  string      `json:"app_version,omitempty"`
}

// FilteredReview is one row of the output dataset
type FilteredReview struct {
	Rating   int    `json:"rating"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	Language string `json:"language"`
}

// FilterStats counts the disposition of every filtered input
type FilterStats struct {
	Total                      int `json:"total" yaml:"total"`
	Accepted                   int `json:"accepted" yaml:"accepted"`
	RejectedByDate             int `json:"rejected_by_date" yaml:"rejected_by_date"`
	RejectedByLanguage         int `json:"rejected_by_language" yaml:"rejected_by_language"`
	RejectedEmptyContent       int `json:"rejected_empty_content" yaml:"rejected_empty_content"`
	RejectedLanguageUndetected int `json:"rejected_language_undetected" yaml:"rejected_language_undetected"`
}

// Rejected returns the sum of all rejection buckets
func (s FilterStats) Rejected() int {
	return s.RejectedByDate + s.RejectedByLanguage + s.RejectedEmptyContent + s.RejectedLanguageUndetected
}

// Conserved reports whether every input landed in exactly one bucket
func (s FilterStats) Conserved() bool {
	return s.Total == s.Accepted+s.Rejected()
}

// Date is a calendar date without time of day or location
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for constants; it panics on bad input
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of d
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly after other
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Criteria selects which reviews survive filtering. Both bounds are inclusive.
type Criteria struct {
	StartDate Date     `json:"start_date"`
	EndDate   Date     `json:"end_date"`
	Languages []string `json:"languages"`
}

// Accepts reports whether lang is one of the accepted languages
func (c Criteria) Accepts(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Contains reports whether d falls within [StartDate, EndDate]
func (c Criteria) Contains(d Date) bool {
	return !d.Before(c.StartDate) && !d.After(c.EndDate)
}

// Normalized validates c and returns it with language codes in canonical
// ISO 639-1 form where one exists ("rus" becomes "ru").
func (c Criteria) Normalized() (Criteria, error) {
	if len(c.Languages) == 0 {
		return c, errs.Input("at least one language must be selected")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return c, errs.Input("start and end dates are required")
	}
	if c.StartDate.After(c.EndDate) {
		return c, errs.Input("start date %s is after end date %s", c.StartDate, c.EndDate)
	}

	langs := make([]string, 0, len(c.Languages))
	seen := make(map[string]bool, len(c.Languages))
	for _, code := range c.Languages {
		base, err := language.ParseBase(strings.TrimSpace(strings.ToLower(code)))
		if err != nil {
			return c, errs.Input("unknown language code %q", code)
		}
		canonical := base.String()
		if !seen[canonical] {
			seen[canonical] = true
			langs = append(langs, canonical)
		}
	}

	out := c
	out.Languages = langs
	return out, nil
}

// Validate reports bad criteria as an input error
func (c Criteria) Validate() error {
	_, err := c.Normalized()
	return err
}
