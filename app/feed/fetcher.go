package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	sources    *Sources
	userAgent  string
}

func NewFetcher(httpClient *http.Client, parser *Parser, sources *Sources, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		sources:    sources,
		userAgent:  userAgent,
	}
}

// Run fetches every feed concurrently and waits for all of them. Results are
// index-aligned with feedURLs; a failed feed carries Err and no items.
func (f *Fetcher) Run(ctx context.Context, feedURLs []string) []FetchResult {
	results := make([]FetchResult, len(feedURLs))

	var g errgroup.Group
	for i, feedURL := range feedURLs {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, feedURL)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, feedURL string) FetchResult {
	start := time.Now()
	publisher := f.sources.PublisherFor(feedURL)
	result := FetchResult{
		URL:       feedURL,
		Source:    f.sources.SourceName(feedURL),
		Publisher: publisher,
	}

	data, err := f.fetchFeed(ctx, feedURL)
	if err != nil {
		slog.Warn("Feed fetch failed", "source", result.Source, "url", feedURL, "error", err)
		result.Err = err
		return result
	}

	metadata, items, err := f.parser.Run(data)
	if err != nil {
		slog.Warn("Feed parse failed", "source", result.Source, "url", feedURL, "error", err)
		result.Err = err
		return result
	}

	for i := range items {
		items[i].Source = result.Source
		items[i].Publisher = publisher
	}

	result.Metadata = metadata
	result.Items = items

	slog.Debug("Feed fetched",
		"source", result.Source,
		"url", feedURL,
		"items", len(items),
		"duration", time.Since(start))

	return result
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
