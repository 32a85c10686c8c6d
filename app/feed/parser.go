package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses an RSS, Atom or JSON feed document. A fresh gofeed parser is
// used per call since it keeps decoding state.
func (p *Parser) Run(data []byte) (*Metadata, []RawItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
		FeedType:    feed.FeedType,
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item, feed.FeedType))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, feedType string) RawItem {
	raw := RawItem{
		Title:       textOrNull(item.Title),
		Link:        textOrNull(item.Link),
		Description: textOrNull(item.Description),
		GUID:        textOrNull(item.GUID),
		PubDate:     textOrNull(cmp.Or(item.Published, item.Updated)),
		Creator:     p.extractCreator(item),
	}

	// RSS carries content:encoded in Content; Atom and JSON carry their
	// native content body there.
	if feedType == "rss" {
		raw.ContentEncoded = textOrNull(item.Content)
	} else {
		raw.Content = textOrNull(item.Content)
	}

	if snippet := plainText(cmp.Or(item.Content, item.Description)); snippet != "" {
		raw.ContentSnippet = Text(snippet)
	}

	if item.PublishedParsed != nil {
		raw.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		raw.PublishedAt = item.UpdatedParsed
	}

	if len(item.Categories) > 0 {
		categories := make([]Value, 0, len(item.Categories))
		for _, category := range item.Categories {
			categories = append(categories, Text(category))
		}
		raw.Categories = List(categories...)
	}

	if media := extensionNodes(item.Extensions, "media", "content"); len(media) > 0 {
		raw.MediaContent = List(media...)
	}

	if len(item.Enclosures) > 0 {
		enclosures := make([]Value, 0, len(item.Enclosures))
		for _, enclosure := range item.Enclosures {
			if enclosure == nil {
				continue
			}
			enclosures = append(enclosures, Node("", map[string]string{
				"url":    enclosure.URL,
				"type":   enclosure.Type,
				"length": enclosure.Length,
			}, nil))
		}
		raw.Enclosure = List(enclosures...)
	}

	if thumbnails := extensionNodes(item.Extensions, "media", "thumbnail"); len(thumbnails) > 0 {
		raw.Thumbnail = thumbnails[0]
	} else if item.Image != nil && item.Image.URL != "" {
		raw.Thumbnail = Node("", map[string]string{"url": item.Image.URL}, nil)
	}

	return raw
}

func (p *Parser) extractCreator(item *gofeed.Item) Value {
	if item.Author != nil {
		if name := strings.TrimSpace(item.Author.Name); name != "" {
			return Text(name)
		}
	}

	for _, author := range item.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return Text(strings.TrimSpace(author.Name))
		}
	}

	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return textOrNull(strings.TrimSpace(item.DublinCoreExt.Creator[0]))
	}

	return Null()
}

// extensionNodes collects prefix:name elements, including those nested in a
// prefix:group element.
func extensionNodes(extensions ext.Extensions, prefix, name string) []Value {
	elements, ok := extensions[prefix]
	if !ok {
		return nil
	}

	var nodes []Value
	for _, e := range elements[name] {
		nodes = append(nodes, nodeFromExtension(e))
	}
	for _, group := range elements["group"] {
		for _, e := range group.Children[name] {
			nodes = append(nodes, nodeFromExtension(e))
		}
	}

	return nodes
}

func nodeFromExtension(e ext.Extension) Value {
	var children map[string][]Value
	if len(e.Children) > 0 {
		children = make(map[string][]Value, len(e.Children))
		for name, elements := range e.Children {
			for _, child := range elements {
				children[name] = append(children[name], nodeFromExtension(child))
			}
		}
	}

	return Node(strings.TrimSpace(e.Value), e.Attrs, children)
}
