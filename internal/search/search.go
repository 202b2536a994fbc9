package search

import "context"

// Result represents a single URL returned by a search provider.
type Result struct {
	URL string `json:"url"`
}

// Provider abstracts a search engine that can return a list of result URLs
// for a given query. Implementations may use scraping, official APIs, or
// other mechanisms. The limit parameter caps the number of results returned,
// and implementations must issue a bounded number of network calls per query.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
