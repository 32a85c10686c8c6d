package feed

import (
	"strings"
	"unicode/utf8"
)

const (
	similarityThreshold = 0.6
	minSimilarLength    = 20
	minSignificantWord  = 4
)

// Deduplicator drops repeated stories across sources. The first item seen
// wins, so feed order decides which source keeps the story.
type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

type seenTitle struct {
	normalized string
	words      map[string]struct{}
}

func (d *Deduplicator) Run(items []RawItem) []RawItem {
	seenLinks := make(map[string]struct{})
	var seenTitles []seenTitle

	unique := make([]RawItem, 0, len(items))
	for _, item := range items {
		link := strings.TrimSpace(item.Link.Text())
		if link != "" {
			if _, ok := seenLinks[link]; ok {
				continue
			}
		}

		title := newSeenTitle(item.Title.Text())
		if title.normalized != "" && d.isSimilar(title, seenTitles) {
			continue
		}

		if link != "" {
			seenLinks[link] = struct{}{}
		}
		if title.normalized != "" {
			seenTitles = append(seenTitles, title)
		}
		unique = append(unique, item)
	}

	return unique
}

func (d *Deduplicator) isSimilar(title seenTitle, seen []seenTitle) bool {
	for _, other := range seen {
		if title.normalized == other.normalized {
			return true
		}

		shorter := min(utf8.RuneCountInString(title.normalized), utf8.RuneCountInString(other.normalized))
		if shorter < minSimilarLength {
			continue
		}

		if wordOverlap(title.words, other.words) > similarityThreshold {
			return true
		}
	}
	return false
}

func newSeenTitle(raw string) seenTitle {
	normalized := normalizeTitle(raw)
	return seenTitle{
		normalized: normalized,
		words:      significantWords(normalized),
	}
}

func significantWords(normalized string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		if utf8.RuneCountInString(word) >= minSignificantWord {
			words[word] = struct{}{}
		}
	}
	return words
}

// wordOverlap is the shared word count over the larger set size.
func wordOverlap(a, b map[string]struct{}) float64 {
	larger := max(len(a), len(b))
	if larger == 0 {
		return 0
	}

	shared := 0
	for word := range a {
		if _, ok := b[word]; ok {
			shared++
		}
	}

	return float64(shared) / float64(larger)
}
