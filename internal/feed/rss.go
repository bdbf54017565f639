package feed

import (
	"context"
	"log"
	"sync"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/metrics"
)

// perFeedLimit caps how many items one RSS feed contributes per fetch.
const perFeedLimit = 10

// maxConcurrentFeeds bounds parallel feed requests.
const maxConcurrentFeeds = 4

// RSS fetches articles from a fixed list of RSS/Atom feed URLs.
type RSS struct {
	FeedURLs []string
}

// NewRSS creates an RSS provider for the given feed URLs.
func NewRSS(feedURLs []string) *RSS {
	return &RSS{FeedURLs: feedURLs}
}

// Fetch pulls all configured feeds concurrently. Per-feed failures are logged
// and counted but never abort the batch; Fetch only returns what it got.
func (r *RSS) Fetch(ctx context.Context) ([]RawArticle, error) {
	var (
		mu  sync.Mutex
		all []RawArticle
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)

	for _, feedURL := range r.FeedURLs {
		g.Go(func() error {
			// gofeed.Parser keeps translator state; one per goroutine
			parsed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
			if err != nil {
				log.Printf("feed: rss %s: %v", feedURL, err)
				metrics.FeedFetchErrors.Inc()
				return nil // isolate this source's failure
			}

			sourceName := parsed.Title
			if sourceName == "" {
				sourceName = feedURL
			}

			items := parsed.Items
			if len(items) > perFeedLimit {
				items = items[:perFeedLimit]
			}

			batch := make([]RawArticle, 0, len(items))
			for _, item := range items {
				a := RawArticle{
					Title:       item.Title,
					Description: item.Description,
					URL:         item.Link,
					SourceName:  sourceName,
					SourceType:  "rss",
					FeedURL:     feedURL,
				}
				if item.PublishedParsed != nil {
					a.PublishedAt = *item.PublishedParsed
				}
				batch = append(batch, a)
			}

			log.Printf("feed: fetched %d articles from %s", len(batch), feedURL)

			mu.Lock()
			all = append(all, batch...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return all, err
	}
	return all, nil
}
