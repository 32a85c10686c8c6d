package feed

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"
)

var epoch = time.Unix(0, 0).UTC()

type Aggregator struct {
	sources      *Sources
	fetcher      *Fetcher
	filterer     *Filterer
	deduplicator *Deduplicator
	images       *ImageResolver
	sanitizer    *Sanitizer
	classifier   *Classifier
	concurrency  int
}

func NewAggregator(sources *Sources, fetcher *Fetcher, filterer *Filterer, deduplicator *Deduplicator,
	images *ImageResolver, sanitizer *Sanitizer, classifier *Classifier, concurrency int) *Aggregator {
	return &Aggregator{
		sources:      sources,
		fetcher:      fetcher,
		filterer:     filterer,
		deduplicator: deduplicator,
		images:       images,
		sanitizer:    sanitizer,
		classifier:   classifier,
		concurrency:  max(concurrency, 1),
	}
}

// Options carries the process-level settings Build needs.
type Options struct {
	HTTPClient  *http.Client
	UserAgent   string
	ProxyPath   string
	Concurrency int
}

// Build wires the full pipeline for sources.
func Build(sources *Sources, opts Options) *Aggregator {
	var extractor *ContentExtractor
	if sources.Settings.Enrich {
		extractor = NewContentExtractor(opts.HTTPClient, opts.UserAgent, sources.Enrichment)
	}

	return NewAggregator(
		sources,
		NewFetcher(opts.HTTPClient, NewParser(), sources, opts.UserAgent),
		NewFilterer(sources),
		NewDeduplicator(),
		NewImageResolver(sources, opts.ProxyPath),
		NewSanitizer(sources, extractor),
		NewClassifier(sources),
		opts.Concurrency,
	)
}

// Run fetches every configured feed and returns the merged collection,
// newest first. It fails only when no feed could be fetched.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	stats := Stats{
		StartedAt:  time.Now(),
		FeedsTotal: len(a.sources.Feeds),
	}

	var items []RawItem
	for _, result := range a.fetcher.Run(ctx, a.sources.Feeds) {
		if result.Err != nil {
			stats.FeedsFailed++
			continue
		}
		items = append(items, result.Items...)
	}
	stats.Fetched = len(items)

	if stats.FeedsFailed == stats.FeedsTotal {
		stats.Duration = time.Since(stats.StartedAt)
		return &Result{Stats: stats}, ErrNoFeedsAvailable
	}

	items = a.filterer.Run(items)
	stats.Excluded = stats.Fetched - len(items)

	if a.sources.Settings.Dedup {
		before := len(items)
		items = a.deduplicator.Run(items)
		stats.Duplicates = before - len(items)
	}

	articles := make([]Article, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, item := range items {
		g.Go(func() error {
			articles[i] = a.buildArticle(gctx, item)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].published.After(articles[j].published)
	})

	stats.Returned = len(articles)
	stats.Duration = time.Since(stats.StartedAt)

	slog.Info("Aggregation completed",
		"feeds", stats.FeedsTotal,
		"failed", stats.FeedsFailed,
		"fetched", stats.Fetched,
		"excluded", stats.Excluded,
		"duplicates", stats.Duplicates,
		"returned", stats.Returned,
		"duration", stats.Duration)

	return &Result{
		Title:       AggregateTitle,
		Link:        "",
		Description: AggregateDescription,
		Items:       articles,
		Stats:       stats,
	}, nil
}

func (a *Aggregator) buildArticle(ctx context.Context, item RawItem) Article {
	link := strings.TrimSpace(item.Link.Text())
	title := cmp.Or(strings.TrimSpace(item.Title.Text()), DefaultTitle)

	imageURL := a.images.Proxy(a.images.Run(item), link)
	description, fullContent := a.sanitizer.Run(ctx, item, title, imageURL)

	article := Article{
		Title:       title,
		Link:        link,
		Description: description,
		FullContent: fullContent,
		PubDate:     strings.TrimSpace(item.PubDate.Text()),
		Creator:     cmp.Or(strings.TrimSpace(item.Creator.Text()), DefaultCreator),
		Categories:  item.Categories.Labels(),
		GUID:        cmp.Or(strings.TrimSpace(item.GUID.Text()), link),
		Source:      cmp.Or(item.Source, UnknownSource),
		published:   publishedAt(item),
	}

	if imageURL != "" {
		article.ImageURL = &imageURL
	}

	article.DetectedCategory = a.classifier.Run(article)

	return article
}

// publishedAt prefers the parser's own date, then a lenient parse of the raw
// value. Anything else sorts as the oldest possible date.
func publishedAt(item RawItem) time.Time {
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		return *item.PublishedAt
	}

	if raw := strings.TrimSpace(item.PubDate.Text()); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}

	return epoch
}

// Rules lists the topic rules used for classification.
func (a *Aggregator) Rules() []CategoryRule {
	return a.classifier.Rules()
}
