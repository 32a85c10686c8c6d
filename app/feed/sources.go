package feed

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yml
var defaultSources []byte

// Sources is the pipeline configuration. It is loaded once at startup and
// treated as read-only afterwards.
type Sources struct {
	Feeds      []string         `yaml:"feeds"`
	Publishers []Publisher      `yaml:"publishers"`
	Settings   SourcesSettings  `yaml:"settings"`
	Exclusions []string         `yaml:"exclusions"`
	Social     SocialConfig     `yaml:"social"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Categories []CategoryRule   `yaml:"categories"`
}

type Publisher struct {
	Host                string `yaml:"host"`
	Name                string `yaml:"name"`
	Enrich              bool   `yaml:"enrich"`
	PreferResolutionTag bool   `yaml:"prefer_resolution_tag"`
	HotlinkProtected    bool   `yaml:"hotlink_protected"`
}

type SourcesSettings struct {
	Dedup             bool `yaml:"dedup"`
	FilterSocialPosts bool `yaml:"filter_social_posts"`
	Enrich            bool `yaml:"enrich"`
}

type SocialConfig struct {
	Phrases      []string `yaml:"phrases"`
	LinkPatterns []string `yaml:"link_patterns"`

	linkRegexps []*regexp.Regexp
}

type EnrichmentConfig struct {
	MinLength          int      `yaml:"min_length"`
	TruncationMarker   string   `yaml:"truncation_marker"`
	MinParagraphs      int      `yaml:"min_paragraphs"`
	ParagraphMinLength int      `yaml:"paragraph_min_length"`
	MaxParagraphs      int      `yaml:"max_paragraphs"`
	Selectors          []string `yaml:"selectors"`
}

type CategoryRule struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Keywords     []string `yaml:"keywords"`
	Patterns     []string `yaml:"patterns"`
	LinkPatterns []string `yaml:"link_patterns"`
	MinScore     int      `yaml:"min_score"`

	patterns []*regexp.Regexp
}

// DefaultSources returns the embedded configuration.
func DefaultSources() (*Sources, error) {
	return ParseSources(nil)
}

// LoadSources reads a YAML file on top of the embedded defaults. Keys present
// in the file replace the default value for that key.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	sources, err := ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}

	slog.Debug("Sources loaded", "file", path, "feeds", len(sources.Feeds), "rules", len(sources.Categories))

	return sources, nil
}

// ParseSources decodes overrides (may be nil) over the embedded defaults,
// then validates and compiles the result.
func ParseSources(overrides []byte) (*Sources, error) {
	var sources Sources
	if err := yaml.Unmarshal(defaultSources, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse default sources: %w", err)
	}

	if len(overrides) > 0 {
		if err := yaml.Unmarshal(overrides, &sources); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	sources.applyDefaults()

	if err := sources.validate(); err != nil {
		return nil, err
	}

	if err := sources.compile(); err != nil {
		return nil, err
	}

	return &sources, nil
}

func (s *Sources) applyDefaults() {
	if s.Enrichment.MinLength == 0 {
		s.Enrichment.MinLength = 500
	}
	if s.Enrichment.TruncationMarker == "" {
		s.Enrichment.TruncationMarker = "......"
	}
	if s.Enrichment.MinParagraphs == 0 {
		s.Enrichment.MinParagraphs = 2
	}
	if s.Enrichment.ParagraphMinLength == 0 {
		s.Enrichment.ParagraphMinLength = 40
	}
	if s.Enrichment.MaxParagraphs == 0 {
		s.Enrichment.MaxParagraphs = 20
	}

	for i := range s.Publishers {
		s.Publishers[i].Host = normalizeHost(s.Publishers[i].Host)
	}
	for i := range s.Exclusions {
		s.Exclusions[i] = strings.ToLower(strings.TrimSpace(s.Exclusions[i]))
	}
}

func (s *Sources) validate() error {
	if len(s.Feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}

	for i, feedURL := range s.Feeds {
		u, err := url.Parse(feedURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid feed URL at index %d: %q", i, feedURL)
		}
	}

	for i, publisher := range s.Publishers {
		if publisher.Host == "" || publisher.Name == "" {
			return fmt.Errorf("publisher at index %d must have host and name", i)
		}
	}

	seen := make(map[string]bool)
	for i, rule := range s.Categories {
		if rule.ID == "" {
			return fmt.Errorf("category rule at index %d must have an id", i)
		}
		if rule.ID == Uncategorized {
			return fmt.Errorf("category id %q is reserved", rule.ID)
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate category id %q", rule.ID)
		}
		seen[rule.ID] = true

		if rule.MinScore < 0 {
			return fmt.Errorf("category %q: min score must be non-negative", rule.ID)
		}
	}

	nonNegativeFields := map[string]int{
		"enrichment min length":           s.Enrichment.MinLength,
		"enrichment min paragraphs":       s.Enrichment.MinParagraphs,
		"enrichment paragraph min length": s.Enrichment.ParagraphMinLength,
		"enrichment max paragraphs":       s.Enrichment.MaxParagraphs,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (s *Sources) compile() error {
	for i := range s.Categories {
		rule := &s.Categories[i]
		rule.patterns = make([]*regexp.Regexp, 0, len(rule.Patterns))
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return fmt.Errorf("category %q: invalid pattern %q: %w", rule.ID, pattern, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
		for j := range rule.Keywords {
			rule.Keywords[j] = lower(strings.TrimSpace(rule.Keywords[j]))
		}
		for j := range rule.LinkPatterns {
			rule.LinkPatterns[j] = strings.ToLower(rule.LinkPatterns[j])
		}
	}

	s.Social.linkRegexps = make([]*regexp.Regexp, 0, len(s.Social.LinkPatterns))
	for _, pattern := range s.Social.LinkPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return fmt.Errorf("invalid social link pattern %q: %w", pattern, err)
		}
		s.Social.linkRegexps = append(s.Social.linkRegexps, re)
	}
	for i := range s.Social.Phrases {
		s.Social.Phrases[i] = strings.ToLower(s.Social.Phrases[i])
	}

	return nil
}

// PublisherFor resolves the publisher whose host matches rawURL, ignoring
// a leading www. and accepting subdomains.
func (s *Sources) PublisherFor(rawURL string) *Publisher {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	for i := range s.Publishers {
		if hostMatches(host, s.Publishers[i].Host) {
			return &s.Publishers[i]
		}
	}
	return nil
}

// SourceName resolves the display name for a feed URL.
func (s *Sources) SourceName(feedURL string) string {
	if publisher := s.PublisherFor(feedURL); publisher != nil {
		return publisher.Name
	}
	return UnknownSource
}

// HotlinkHosts lists hosts whose images must go through the relay.
func (s *Sources) HotlinkHosts() []string {
	var hosts []string
	for _, publisher := range s.Publishers {
		if publisher.HotlinkProtected {
			hosts = append(hosts, publisher.Host)
		}
	}
	return hosts
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// hostMatches reports whether host equals domain or is one of its subdomains.
func hostMatches(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// MatchesHost reports whether rawURL is served by one of domains or their
// subdomains.
func MatchesHost(rawURL string, domains []string) bool {
	host := hostOf(rawURL)
	for _, domain := range domains {
		if hostMatches(host, normalizeHost(domain)) {
			return true
		}
	}
	return false
}
