package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
)

const maxPageSize = 5 << 20

// ContentExtractor fetches an article page and pulls out its main body.
type ContentExtractor struct {
	httpClient *http.Client
	userAgent  string
	cfg        EnrichmentConfig
}

func NewContentExtractor(httpClient *http.Client, userAgent string, cfg EnrichmentConfig) *ContentExtractor {
	return &ContentExtractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		cfg:        cfg,
	}
}

// Run fetches pageURL and extracts its article body as HTML.
func (e *ContentExtractor) Run(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid page URL: %q", pageURL)
	}

	data, err := e.fetchPage(ctx, u.String())
	if err != nil {
		return "", err
	}

	return e.Extract(data, u)
}

// Extract tries the configured selectors first, then readability, then a
// plain collection of the page's paragraphs.
func (e *ContentExtractor) Extract(data []byte, pageURL *url.URL) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	if content := e.bySelectors(doc); content != "" {
		slog.Debug("Content extracted by selector", "url", pageURL, "content_length", len(content))
		return content, nil
	}

	if content := e.byReadability(data, pageURL); content != "" {
		slog.Debug("Content extracted by readability", "url", pageURL, "content_length", len(content))
		return content, nil
	}

	if content := e.byParagraphs(doc); content != "" {
		slog.Debug("Content extracted from paragraphs", "url", pageURL, "content_length", len(content))
		return content, nil
	}

	return "", fmt.Errorf("no content extracted from %s", pageURL)
}

// bySelectors returns the longest candidate that clears the length and
// paragraph bar. Earlier selectors win ties.
func (e *ContentExtractor) bySelectors(doc *goquery.Document) string {
	var best string
	bestLength := 0

	for _, selector := range e.cfg.Selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if s.Find("p").Length() < e.cfg.MinParagraphs {
				return
			}

			length := utf8.RuneCountInString(collapseWhitespace(s.Text()))
			if length < e.cfg.MinLength || length <= bestLength {
				return
			}

			content, err := s.Html()
			if err != nil {
				return
			}
			best = strings.TrimSpace(content)
			bestLength = length
		})
	}

	return best
}

func (e *ContentExtractor) byReadability(data []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		slog.Debug("Readability extraction failed", "url", pageURL, "error", err)
		return ""
	}

	content := strings.TrimSpace(article.Content)
	if content == "" || strings.Count(content, "<p") < e.cfg.MinParagraphs {
		return ""
	}
	if utf8.RuneCountInString(plainText(content)) < e.cfg.MinLength {
		return ""
	}

	return content
}

func (e *ContentExtractor) byParagraphs(doc *goquery.Document) string {
	var b strings.Builder
	count := 0

	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseWhitespace(s.Text())
		if utf8.RuneCountInString(text) < e.cfg.ParagraphMinLength {
			return true
		}

		inner, err := s.Html()
		if err != nil {
			return true
		}

		b.WriteString("<p>")
		b.WriteString(strings.TrimSpace(inner))
		b.WriteString("</p>")
		count++

		return count < e.cfg.MaxParagraphs
	})

	return b.String()
}

func (e *ContentExtractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
