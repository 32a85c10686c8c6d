package feed

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	imgSrcPattern = regexp.MustCompile(`(?i)<img\b[^>]*?\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	resolutionTag = regexp.MustCompile(`[-_]\d+x\d+`)
)

type imageStrategy func(item RawItem) string

// ImageResolver picks one image per item. Strategies run in priority order
// and the first non-empty URL wins.
type ImageResolver struct {
	proxyPath    string
	hotlinkHosts []string
	strategies   []imageStrategy
}

func NewImageResolver(sources *Sources, proxyPath string) *ImageResolver {
	r := &ImageResolver{
		proxyPath:    proxyPath,
		hotlinkHosts: sources.HotlinkHosts(),
	}

	r.strategies = []imageStrategy{
		r.fromMediaContent,
		r.fromEnclosure,
		r.fromThumbnail,
		htmlImage(func(item RawItem) Value { return item.ContentEncoded }),
		htmlImage(func(item RawItem) Value { return item.Content }),
		htmlImage(func(item RawItem) Value { return item.Description }),
		htmlImage(func(item RawItem) Value { return item.ContentSnippet }),
	}

	return r
}

// Run returns the resolved image URL, or "" when the item has none.
func (r *ImageResolver) Run(item RawItem) string {
	for _, strategy := range r.strategies {
		if imageURL := strategy(item); imageURL != "" {
			return imageURL
		}
	}
	return ""
}

// Proxy rewrites images served by hotlink-protected hosts to the relay path.
func (r *ImageResolver) Proxy(imageURL, link string) string {
	if imageURL == "" || !MatchesHost(imageURL, r.hotlinkHosts) {
		return imageURL
	}

	proxied := r.proxyPath + "?url=" + url.QueryEscape(imageURL)
	if link != "" {
		proxied += "&referer=" + url.QueryEscape(link)
	}
	return proxied
}

func (r *ImageResolver) fromMediaContent(item RawItem) string {
	var candidates []string
	for _, node := range item.MediaContent.Nodes() {
		if !isImageNode(node) {
			continue
		}
		if candidate := cleanImageURL(nodeURL(node)); candidate != "" {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	if item.Publisher != nil && item.Publisher.PreferResolutionTag {
		for _, candidate := range candidates {
			if resolutionTag.MatchString(fileName(candidate)) {
				return candidate
			}
		}
	}

	return candidates[0]
}

func (r *ImageResolver) fromEnclosure(item RawItem) string {
	for _, node := range item.Enclosure.Nodes() {
		if !strings.HasPrefix(strings.ToLower(node.Attr("type")), "image/") {
			continue
		}
		if candidate := cleanImageURL(nodeURL(node)); candidate != "" {
			return candidate
		}
	}
	return ""
}

func (r *ImageResolver) fromThumbnail(item RawItem) string {
	for _, node := range item.Thumbnail.Nodes() {
		if candidate := cleanImageURL(nodeURL(node)); candidate != "" {
			return candidate
		}
	}
	return ""
}

func htmlImage(field func(RawItem) Value) imageStrategy {
	return func(item RawItem) string {
		return firstImageSrc(field(item).Text())
	}
}

// firstImageSrc returns the src of the first <img> tag, as written.
func firstImageSrc(html string) string {
	if html == "" {
		return ""
	}

	for _, match := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
		for _, group := range match[1:] {
			if candidate := cleanImageURL(group); candidate != "" {
				return candidate
			}
		}
	}
	return ""
}

func cleanImageURL(raw string) string {
	return basicEntities.Replace(strings.TrimSpace(raw))
}

func nodeURL(node Value) string {
	if u := node.Attr("url"); u != "" {
		return u
	}
	return node.Str
}

// isImageNode rejects media entries explicitly declared as another medium.
func isImageNode(node Value) bool {
	if medium := strings.ToLower(node.Attr("medium")); medium != "" && medium != "image" {
		return false
	}
	if mimeType := strings.ToLower(node.Attr("type")); mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		return false
	}
	return true
}

func fileName(imageURL string) string {
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(imageURL)
}
