package feed

import (
	"errors"
	"time"
)

var ErrNoFeedsAvailable = errors.New("no feeds available")

const (
	DefaultTitle         = "No title"
	DefaultCreator       = "Unknown"
	UnknownSource        = "Unknown"
	Uncategorized        = "uncategorized"
	AggregateTitle       = "Lajme-AI - News Aggregator"
	AggregateDescription = "News from multiple sources"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	FeedType    string
}

// RawItem is one entry as parsed from a source feed. Every field keeps the
// shape the publisher used; Value flattens it on demand.
type RawItem struct {
	Title          Value
	Link           Value
	Description    Value
	Content        Value
	ContentSnippet Value
	ContentEncoded Value
	PubDate        Value
	Creator        Value
	Categories     Value
	MediaContent   Value
	Enclosure      Value
	Thumbnail      Value
	GUID           Value

	PublishedAt *time.Time

	// Set by the fetcher after parsing.
	Source    string
	Publisher *Publisher
}

type Article struct {
	Title            string   `json:"title"`
	Link             string   `json:"link"`
	Description      string   `json:"description"`
	FullContent      string   `json:"fullContent"`
	PubDate          string   `json:"pubDate"`
	Creator          string   `json:"creator"`
	Categories       []string `json:"categories"`
	ImageURL         *string  `json:"imageUrl"`
	GUID             string   `json:"guid"`
	Source           string   `json:"source"`
	DetectedCategory string   `json:"detectedCategory"`

	published time.Time
}

// Published is the parsed publication time used for ordering.
func (a Article) Published() time.Time {
	return a.published
}

type Result struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Items       []Article `json:"items"`
	Stats       Stats     `json:"-"`
}

type Stats struct {
	StartedAt   time.Time
	Duration    time.Duration
	FeedsTotal  int
	FeedsFailed int
	Fetched     int
	Excluded    int
	Duplicates  int
	Returned    int
}

type FetchResult struct {
	URL       string
	Source    string
	Publisher *Publisher
	Metadata  *Metadata
	Items     []RawItem
	Err       error
}
