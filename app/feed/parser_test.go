package feed

import (
	"testing"
)

func TestParser_Run_RSSWithMediaExtensions(t *testing.T) {
	rssData := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
  xmlns:content="http://purl.org/rss/1.0/modules/content/"
  xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Gazeta Express</title>
    <link>https://www.gazetaexpress.com</link>
    <description>Lajme</description>
    <language>sq</language>
    <item>
      <title>Kuvendi mblidhet sot</title>
      <link>https://www.gazetaexpress.com/kuvendi-mblidhet-sot/</link>
      <description><![CDATA[<p>Përmbledhje e shkurtër</p>]]></description>
      <content:encoded><![CDATA[<p>Teksti i plotë i lajmit.</p>]]></content:encoded>
      <dc:creator>Redaksia</dc:creator>
      <guid isPermaLink="false">ge-1001</guid>
      <pubDate>Mon, 03 Mar 2025 10:00:00 +0100</pubDate>
      <category>Lajme</category>
      <category>Kosova</category>
      <media:content url="https://www.gazetaexpress.com/img/photo.jpg" medium="image" />
      <media:group>
        <media:content url="https://www.gazetaexpress.com/img/photo-800x600.jpg" medium="image" />
      </media:group>
      <media:thumbnail url="https://www.gazetaexpress.com/img/thumb.jpg" />
      <enclosure url="https://www.gazetaexpress.com/img/enc.jpg" length="1234" type="image/jpeg" />
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Gazeta Express" {
		t.Errorf("Expected title 'Gazeta Express', got: %s", metadata.Title)
	}
	if metadata.FeedType != "rss" {
		t.Errorf("Expected feed type 'rss', got: %s", metadata.FeedType)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Title.Text() != "Kuvendi mblidhet sot" {
		t.Errorf("Expected title 'Kuvendi mblidhet sot', got: %s", item.Title.Text())
	}
	if item.GUID.Text() != "ge-1001" {
		t.Errorf("Expected guid 'ge-1001', got: %s", item.GUID.Text())
	}
	if item.Creator.Text() != "Redaksia" {
		t.Errorf("Expected creator 'Redaksia', got: %s", item.Creator.Text())
	}
	if item.ContentEncoded.Text() != "<p>Teksti i plotë i lajmit.</p>" {
		t.Errorf("Expected encoded content, got: %s", item.ContentEncoded.Text())
	}
	if !item.Content.IsNull() {
		t.Errorf("Expected no separate content for RSS, got: %s", item.Content.Text())
	}
	if item.ContentSnippet.Text() != "Teksti i plotë i lajmit." {
		t.Errorf("Expected plain snippet, got: %q", item.ContentSnippet.Text())
	}
	if item.PublishedAt == nil {
		t.Error("Expected parsed publication date")
	}

	labels := item.Categories.Labels()
	if len(labels) != 2 || labels[0] != "Lajme" || labels[1] != "Kosova" {
		t.Errorf("Expected categories [Lajme Kosova], got: %v", labels)
	}

	media := item.MediaContent.Nodes()
	if len(media) != 2 {
		t.Fatalf("Expected 2 media:content nodes (including grouped), got %d", len(media))
	}
	if media[1].Attr("url") != "https://www.gazetaexpress.com/img/photo-800x600.jpg" {
		t.Errorf("Expected grouped media url, got: %s", media[1].Attr("url"))
	}

	if item.Thumbnail.Attr("url") != "https://www.gazetaexpress.com/img/thumb.jpg" {
		t.Errorf("Expected thumbnail url, got: %s", item.Thumbnail.Attr("url"))
	}

	enclosures := item.Enclosure.Nodes()
	if len(enclosures) != 1 || enclosures[0].Attr("type") != "image/jpeg" {
		t.Errorf("Expected one image enclosure, got: %+v", enclosures)
	}
}

func TestParser_Run_Atom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.com/"/>
  <updated>2025-03-03T12:00:00Z</updated>
  <id>urn:uuid:feed</id>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/entry"/>
    <id>urn:uuid:entry-1</id>
    <updated>2025-03-03T11:00:00Z</updated>
    <author><name>Autori</name></author>
    <category term="Ekonomi"/>
    <content type="html">&lt;p&gt;Atom body&lt;/p&gt;</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if metadata.FeedType != "atom" {
		t.Errorf("Expected feed type 'atom', got: %s", metadata.FeedType)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if !item.ContentEncoded.IsNull() {
		t.Errorf("Expected no encoded content for Atom, got: %s", item.ContentEncoded.Text())
	}
	if item.Content.Text() != "<p>Atom body</p>" {
		t.Errorf("Expected Atom content, got: %s", item.Content.Text())
	}
	if item.Creator.Text() != "Autori" {
		t.Errorf("Expected creator 'Autori', got: %s", item.Creator.Text())
	}
	if labels := item.Categories.Labels(); len(labels) != 1 || labels[0] != "Ekonomi" {
		t.Errorf("Expected categories [Ekonomi], got: %v", labels)
	}
	if item.PublishedAt == nil {
		t.Error("Expected updated date to be used as publication date")
	}
}

func TestParser_Run_InvalidFeed(t *testing.T) {
	parser := NewParser()

	_, _, err := parser.Run([]byte("this is not a feed"))
	if err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
