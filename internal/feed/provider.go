package feed

import (
	"context"
	"log"
	"time"
)

// RawArticle is one candidate news item as fetched from a feed, before any
// classification has happened.
type RawArticle struct {
	Title       string
	Description string
	URL         string
	PublishedAt time.Time
	SourceName  string
	SourceType  string // "rss" or "newsapi"
	FeedURL     string
}

// Provider supplies batches of raw candidate articles.
type Provider interface {
	Fetch(ctx context.Context) ([]RawArticle, error)
}

// Multi fans out to several providers and concatenates their results.
// A failing provider is logged and skipped; one bad source never blocks
// the others.
type Multi []Provider

func (m Multi) Fetch(ctx context.Context) ([]RawArticle, error) {
	var all []RawArticle
	for _, p := range m {
		articles, err := p.Fetch(ctx)
		if err != nil {
			log.Printf("feed: provider failed: %v", err)
			continue
		}
		all = append(all, articles...)
	}
	return all, nil
}
