package feed

import (
	"strings"
)

const (
	keywordWeight  = 2
	titleWeight    = 3
	categoryWeight = 4
	patternWeight  = 5
	linkWeight     = 3
)

// Classifier assigns a topic label by weighted keyword and pattern scoring.
// It holds only the compiled rules and is safe for concurrent use.
type Classifier struct {
	rules []CategoryRule
}

func NewClassifier(sources *Sources) *Classifier {
	return &Classifier{rules: sources.Categories}
}

// Run returns the winning rule id, or Uncategorized when no rule reaches
// its minimum score.
func (c *Classifier) Run(article Article) string {
	title := lower(article.Title)
	link := lower(article.Link)

	categories := make(map[string]bool, len(article.Categories))
	for _, category := range article.Categories {
		categories[lower(strings.TrimSpace(category))] = true
	}

	blob := lower(strings.Join([]string{
		article.Title,
		article.Description,
		plainText(article.FullContent),
		article.Link,
		strings.Join(article.Categories, " "),
	}, " "))

	best := Uncategorized
	bestScore := 0
	var bestRule *CategoryRule

	for i := range c.rules {
		rule := &c.rules[i]
		score := c.score(rule, blob, title, link, categories)
		if score > bestScore {
			best = rule.ID
			bestScore = score
			bestRule = rule
		}
	}

	if bestRule == nil || bestScore < bestRule.MinScore {
		return Uncategorized
	}

	return best
}

func (c *Classifier) score(rule *CategoryRule, blob, title, link string, categories map[string]bool) int {
	score := 0

	for _, keyword := range rule.Keywords {
		if !containsWord(blob, keyword) {
			continue
		}
		score += keywordWeight

		if containsWord(title, keyword) {
			score += titleWeight
		}
		if categories[keyword] {
			score += categoryWeight
		}
	}

	for _, pattern := range rule.patterns {
		if pattern.MatchString(blob) {
			score += patternWeight
		}
	}

	for _, fragment := range rule.LinkPatterns {
		if fragment != "" && strings.Contains(link, fragment) {
			score += linkWeight
			break
		}
	}

	return score
}

// Rules lists the configured topics in declaration order.
func (c *Classifier) Rules() []CategoryRule {
	return c.rules
}
