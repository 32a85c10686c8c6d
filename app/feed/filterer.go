package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

type Filterer struct {
	exclusions        []string
	social            SocialConfig
	filterSocialPosts bool
}

func NewFilterer(sources *Sources) *Filterer {
	return &Filterer{
		exclusions:        sources.Exclusions,
		social:            sources.Social,
		filterSocialPosts: sources.Settings.FilterSocialPosts,
	}
}

// Run drops excluded items and returns the survivors in their original order.
func (f *Filterer) Run(items []RawItem) []RawItem {
	filtered := make([]RawItem, 0, len(items))
	for _, item := range items {
		if isFiltered, reason := f.applyFilters(item); isFiltered {
			slog.Debug("Item filtered", "source", item.Source, "title", item.Title.Text(), "reason", reason)
			continue
		}
		filtered = append(filtered, item)
	}

	return filtered
}

func (f *Filterer) applyFilters(item RawItem) (bool, string) {
	for _, label := range item.Categories.Labels() {
		if exclude, ok := f.matchesExclusion(label); ok {
			return true, fmt.Sprintf("Excluded by category filter: '%s' matches '%s'", label, exclude)
		}
	}

	if f.filterSocialPosts {
		if reason := f.socialPostReason(item); reason != "" {
			return true, reason
		}
	}

	return false, ""
}

// matchesExclusion compares a category label against the vocabulary by
// substring in either direction.
func (f *Filterer) matchesExclusion(label string) (string, bool) {
	value := lower(strings.TrimSpace(label))
	if value == "" {
		return "", false
	}

	for _, exclude := range f.exclusions {
		if exclude == "" {
			continue
		}
		if strings.Contains(value, exclude) || strings.Contains(exclude, value) {
			return exclude, true
		}
	}

	return "", false
}

func (f *Filterer) socialPostReason(item RawItem) string {
	title := lower(item.Title.Text())
	description := lower(plainText(item.Description.Text()))

	for _, phrase := range f.social.Phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(title, phrase) || strings.Contains(description, phrase) {
			return fmt.Sprintf("Excluded by social filter: contains '%s'", phrase)
		}
	}

	for _, re := range f.social.linkRegexps {
		if re.MatchString(title) || re.MatchString(description) {
			return fmt.Sprintf("Excluded by social filter: links a post (%s)", re.String())
		}
	}

	return ""
}
