package retrieval

import (
	"context"

	"playreviews/pkg/models"
)

// SortOrder is the order the store returns reviews in
type SortOrder int

// SortNewest is the store's code for newest-first ordering
const SortNewest SortOrder = 2

// PageRequest asks the source for one page of reviews
type PageRequest struct {
	AppID    string
	Language string
	Country  string
	Sort     SortOrder
	Count    int
	// Token is the continuation token from the previous page; empty for the first
	Token string
}

// Page is one batch of reviews. An empty NextToken means the stream has ended.
type Page struct {
	Reviews   []models.RawReview
	NextToken string
}

// ReviewSource defines the interface for paged review retrieval.
// Failures should carry an errors.Kind so the engine can pick a backoff.
type ReviewSource interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}
