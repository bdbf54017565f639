package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"newsdesk/internal/metrics"
)

const defaultNewsAPIBase = "https://newsapi.org"

// newsAPIPageSize is how many top headlines one fetch requests.
const newsAPIPageSize = 30

// NewsAPI fetches top headlines from the NewsAPI.org REST endpoint.
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPI creates a NewsAPI provider.
func NewNewsAPI(apiKey string) *NewsAPI {
	return &NewsAPI{
		apiKey:  apiKey,
		baseURL: defaultNewsAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch pulls the current US/English top headlines.
func (n *NewsAPI) Fetch(ctx context.Context) ([]RawArticle, error) {
	url := fmt.Sprintf("%s/v2/top-headlines?language=en&country=us&pageSize=%d",
		n.baseURL, newsAPIPageSize)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.FeedFetchErrors.Inc()
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.FeedFetchErrors.Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.FeedFetchErrors.Inc()
		return nil, fmt.Errorf("newsapi status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.FeedFetchErrors.Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := make([]RawArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		ra := RawArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			SourceType:  "newsapi",
		}
		if a.Source.Name == "" {
			ra.SourceName = "NewsAPI"
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			ra.PublishedAt = ts
		}
		articles = append(articles, ra)
	}

	log.Printf("feed: fetched %d articles from newsapi", len(articles))
	return articles, nil
}
