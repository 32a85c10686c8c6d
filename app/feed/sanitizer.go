package feed

import (
	"context"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	previewLimit        = 300
	previewBudget       = 296
	previewWordBoundary = 250
	previewSuffix       = " ..."
)

// Attribution text may only span links, so a match never leaves its
// paragraph.
const attributionSpan = `(?:[^<]|<a\b[^>]*>|</a>)*?`

var attributionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<p\b[^>]*>\s*The post\s` + attributionSpan + `(?:appeared first on|first appeared on)` + attributionSpan + `</p>`),
	regexp.MustCompile(`(?i)The post\s` + attributionSpan + `(?:appeared first on|first appeared on)\s*(?:<a\b[^>]*>[^<]*</a>|[^<.]*)\s*\.?`),
}

const (
	shareSelector = `[class*="share"], [class*="sharing"], [class*="social-links"], [class*="addtoany"], ` +
		`[class*="sharedaddy"], [class*="jp-relatedposts"], [class*="related-posts"], script, style`
	readMoreSelector = `a[class*="more-link"], a[class*="read-more"], a[class*="readmore"], ` +
		`a[href*="#more-"], a[href*="read-more"], a[href*="utm_source"]`
	embedSelector = `blockquote.instagram-media, blockquote.instagram-media-rendered, blockquote[cite*="instagram.com"], ` +
		`blockquote[cite*="facebook.com"], .fb-post, .fb-video, .fb-embed, iframe[src*="instagram.com"], ` +
		`iframe[src*="facebook.com"], script[src*="instagram.com"], script[src*="facebook.net"], ` +
		`script[src*="facebook.com"]`
	emptySelector = `p, div, span, section, figure, blockquote, strong, em, b, i, li, ul, ol, h1, h2, h3, h4, h5, h6`
	mediaSelector = `img, iframe, video, audio, picture, source, svg, embed, object`
	blockSelector = `blockquote, figure, div, p`
)

var readMoreTexts = []string{
	"read more", "continue reading", "lexo më shumë", "lexo me shume", "lexo më tepër",
	"lexo të plotë", "vazhdo leximin", "burimi", "source",
}

var socialPlatforms = []string{"instagram", "facebook"}

type contentSource func(RawItem) Value

// Richest first.
var contentPreference = []contentSource{
	func(item RawItem) Value { return item.ContentEncoded },
	func(item RawItem) Value { return item.Content },
	func(item RawItem) Value { return item.ContentSnippet },
	func(item RawItem) Value { return item.Description },
}

type Sanitizer struct {
	extractor  *ContentExtractor
	enrichment EnrichmentConfig
	enrich     bool
}

// NewSanitizer builds a sanitizer. extractor may be nil to disable remote
// enrichment.
func NewSanitizer(sources *Sources, extractor *ContentExtractor) *Sanitizer {
	return &Sanitizer{
		extractor:  extractor,
		enrichment: sources.Enrichment,
		enrich:     sources.Settings.Enrich && extractor != nil,
	}
}

// Run returns the plain-text preview and the sanitized HTML body of item.
// imageURL, when set, is injected at the top of a body that has no image.
func (s *Sanitizer) Run(ctx context.Context, item RawItem, title, imageURL string) (string, string) {
	body := selectContent(item)
	body = stripAttribution(body)
	body = clean(body)

	if s.shouldEnrich(item, body) {
		body = s.enrichContent(ctx, item, body)
	}

	body = strings.TrimSpace(stripAttribution(body))

	description := preview(body)

	if imageURL != "" && !strings.Contains(strings.ToLower(body), "<img") {
		body = `<img src="` + html.EscapeString(imageURL) + `" alt="` + html.EscapeString(title) + `" />` + body
	}

	return description, body
}

func selectContent(item RawItem) string {
	for _, source := range contentPreference {
		if content := strings.TrimSpace(source(item).Text()); content != "" {
			return content
		}
	}
	return ""
}

func stripAttribution(body string) string {
	for _, pattern := range attributionPatterns {
		body = pattern.ReplaceAllString(body, "")
	}
	return body
}

// clean applies the structural removals and decodes entities left in text
// nodes. Escaped markup stays text.
func clean(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		slog.Debug("Content parse failed, keeping raw body", "error", err)
		return body
	}
	root := doc.Find("body")

	root.Find(shareSelector).Remove()
	removeReadMoreLinks(root)
	removeSocialEmbeds(root)
	removeEmptyContainers(root)
	decodeTextNodes(root)

	out, err := root.Html()
	if err != nil {
		return body
	}
	return strings.TrimSpace(out)
}

// decodeTextNodes resolves entities the parser left behind, such as
// double-encoded ones, and turns non-breaking spaces into spaces.
func decodeTextNodes(root *goquery.Selection) {
	root.Find("*").AddSelection(root).Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "#text" {
			return
		}
		node := s.Get(0)
		node.Data = decodeEntities(strings.ReplaceAll(node.Data, "\u00a0", " "))
	})
}

func removeReadMoreLinks(root *goquery.Selection) {
	root.Find(readMoreSelector).Remove()

	root.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := lower(collapseWhitespace(a.Text()))
		text = strings.TrimRight(text, " .:»›→>")
		for _, phrase := range readMoreTexts {
			if text == phrase || strings.HasPrefix(text, phrase+":") {
				a.Remove()
				return
			}
		}
	})
}

// removeSocialEmbeds drops embedded Instagram/Facebook posts. When an embed
// is found, paragraphs that mention the same platform go too.
func removeSocialEmbeds(root *goquery.Selection) {
	found := make(map[string]bool)

	root.Find(embedSelector).Each(func(_ int, s *goquery.Selection) {
		markPlatforms(found, s)
		s.Remove()
	})

	// Only the innermost block carrying the phrase is removed.
	sharedPost := func(_ int, s *goquery.Selection) bool {
		return strings.Contains(lower(s.Text()), "a post shared by")
	}
	root.Find(blockSelector).FilterFunction(sharedPost).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).FilterFunction(sharedPost).Length() > 0 {
			return
		}
		markPlatforms(found, s)
		s.Remove()
	})

	if len(found) == 0 {
		return
	}

	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := lower(p.Text())
		for platform := range found {
			if strings.Contains(text, platform) {
				p.Remove()
				return
			}
		}
	})
}

func markPlatforms(found map[string]bool, s *goquery.Selection) {
	outer, _ := goquery.OuterHtml(s)
	outer = strings.ToLower(outer)

	matched := false
	for _, platform := range socialPlatforms {
		if strings.Contains(outer, platform) {
			found[platform] = true
			matched = true
		}
	}
	if !matched {
		found["instagram"] = true
	}
}

func removeEmptyContainers(root *goquery.Selection) {
	// Nested empties collapse one level per pass.
	for pass := 0; pass < 3; pass++ {
		removed := 0
		root.Find(emptySelector).Each(func(_ int, s *goquery.Selection) {
			if strings.TrimSpace(s.Text()) != "" || s.Find(mediaSelector).Length() > 0 {
				return
			}
			s.Remove()
			removed++
		})
		if removed == 0 {
			return
		}
	}
}

// shouldEnrich reports whether the body looks truncated for a publisher
// that allows fetching the article page.
func (s *Sanitizer) shouldEnrich(item RawItem, body string) bool {
	if !s.enrich || item.Publisher == nil || !item.Publisher.Enrich {
		return false
	}
	if strings.TrimSpace(item.Link.Text()) == "" {
		return false
	}

	return utf8.RuneCountInString(body) < s.enrichment.MinLength ||
		strings.Contains(body, s.enrichment.TruncationMarker)
}

func (s *Sanitizer) enrichContent(ctx context.Context, item RawItem, body string) string {
	link := strings.TrimSpace(item.Link.Text())

	extracted, err := s.extractor.Run(ctx, link)
	if err != nil {
		slog.Warn("Content enrichment failed", "source", item.Source, "url", link, "error", err)
		return body
	}

	extracted = clean(extracted)
	if utf8.RuneCountInString(plainText(extracted)) <= utf8.RuneCountInString(plainText(body)) {
		return body
	}

	slog.Debug("Content enriched", "source", item.Source, "url", link, "content_length", len(extracted))

	return extracted
}

// preview builds the plain-text description: at most 296 characters, cut at
// the last space past position 250 when there is one, followed by " ...".
func preview(body string) string {
	text := plainText(body)
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}

	cut := runes[:previewBudget]
	for i := len(cut) - 1; i > previewWordBoundary; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}

	return strings.TrimRight(string(cut), " ") + previewSuffix
}
