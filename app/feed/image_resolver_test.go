package feed

import (
	"testing"
)

func newTestResolver(t *testing.T) *ImageResolver {
	t.Helper()

	sources, err := DefaultSources()
	if err != nil {
		t.Fatalf("Failed to load default sources: %v", err)
	}
	return NewImageResolver(sources, "/image-proxy")
}

func mediaNode(url string, attrs map[string]string) Value {
	all := map[string]string{"url": url}
	for k, v := range attrs {
		all[k] = v
	}
	return Node("", all, nil)
}

func TestImageResolver_Run_PrefersResolutionTag(t *testing.T) {
	resolver := newTestResolver(t)

	item := RawItem{
		Link: Text("https://www.gazetaexpress.com/lajm/"),
		MediaContent: List(
			mediaNode("https://www.gazetaexpress.com/img/photo.jpg", nil),
			mediaNode("https://www.gazetaexpress.com/img/photo-800x600.jpg", nil),
		),
		Publisher: &Publisher{Host: "gazetaexpress.com", Name: "Gazeta Express", PreferResolutionTag: true},
	}

	got := resolver.Run(item)
	if got != "https://www.gazetaexpress.com/img/photo-800x600.jpg" {
		t.Errorf("Expected resolution-tagged image, got: %s", got)
	}

	item.Publisher = &Publisher{Host: "insajderi.org", Name: "Insajderi"}
	got = resolver.Run(item)
	if got != "https://www.gazetaexpress.com/img/photo.jpg" {
		t.Errorf("Expected first media image without preference, got: %s", got)
	}
}

func TestImageResolver_Run_StrategyOrder(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name     string
		item     RawItem
		expected string
	}{
		{
			name: "media content wins over enclosure",
			item: RawItem{
				MediaContent: List(mediaNode("https://example.com/media.jpg", nil)),
				Enclosure:    List(mediaNode("https://example.com/enclosure.jpg", map[string]string{"type": "image/jpeg"})),
			},
			expected: "https://example.com/media.jpg",
		},
		{
			name: "video media is skipped",
			item: RawItem{
				MediaContent: List(mediaNode("https://example.com/clip.mp4", map[string]string{"medium": "video"})),
				Enclosure:    List(mediaNode("https://example.com/enclosure.jpg", map[string]string{"type": "image/jpeg"})),
			},
			expected: "https://example.com/enclosure.jpg",
		},
		{
			name: "non-image enclosure is skipped",
			item: RawItem{
				Enclosure: List(mediaNode("https://example.com/podcast.mp3", map[string]string{"type": "audio/mpeg"})),
				Thumbnail: mediaNode("https://example.com/thumb.jpg", nil),
			},
			expected: "https://example.com/thumb.jpg",
		},
		{
			name: "plain text thumbnail",
			item: RawItem{
				Thumbnail: Text("https://example.com/text-thumb.jpg"),
			},
			expected: "https://example.com/text-thumb.jpg",
		},
		{
			name: "encoded content before description",
			item: RawItem{
				ContentEncoded: Text(`<p>Hyrje</p><img src="https://example.com/encoded.jpg" alt="">`),
				Description:    Text(`<img src="https://example.com/description.jpg">`),
			},
			expected: "https://example.com/encoded.jpg",
		},
		{
			name: "single quoted src in description",
			item: RawItem{
				Description: Text(`<div><img class='wp-image' src='https://example.com/single.jpg'></div>`),
			},
			expected: "https://example.com/single.jpg",
		},
		{
			name: "unquoted src with entities",
			item: RawItem{
				Content: Text(`<img src=https://example.com/a.jpg?w=1&amp;h=2 alt=x>`),
			},
			expected: "https://example.com/a.jpg?w=1&h=2",
		},
		{
			name: "data-src is not src",
			item: RawItem{
				Description: Text(`<img data-src="https://example.com/lazy.jpg" src="https://example.com/real.jpg">`),
			},
			expected: "https://example.com/real.jpg",
		},
		{
			name:     "no image",
			item:     RawItem{Description: Text("<p>Vetëm tekst</p>")},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Run(tt.item); got != tt.expected {
				t.Errorf("Expected %q, got: %q", tt.expected, got)
			}
		})
	}
}

func TestImageResolver_Proxy(t *testing.T) {
	resolver := newTestResolver(t)

	got := resolver.Proxy("https://www.gazetaexpress.com/img/photo-800x600.jpg", "https://www.gazetaexpress.com/lajm/")
	expected := "/image-proxy?url=https%3A%2F%2Fwww.gazetaexpress.com%2Fimg%2Fphoto-800x600.jpg&referer=https%3A%2F%2Fwww.gazetaexpress.com%2Flajm%2F"
	if got != expected {
		t.Errorf("Expected %s, got: %s", expected, got)
	}

	got = resolver.Proxy("https://cdn.telegrafi.com/img/a.jpg", "")
	if got != "/image-proxy?url=https%3A%2F%2Fcdn.telegrafi.com%2Fimg%2Fa.jpg" {
		t.Errorf("Expected subdomain image to be proxied without referer, got: %s", got)
	}

	direct := "https://insajderi.org/wp-content/uploads/a.jpg"
	if got := resolver.Proxy(direct, "https://insajderi.org/a/"); got != direct {
		t.Errorf("Expected image from unprotected host to be unchanged, got: %s", got)
	}

	if got := resolver.Proxy("", "https://www.gazetaexpress.com/"); got != "" {
		t.Errorf("Expected empty image to stay empty, got: %s", got)
	}
}
