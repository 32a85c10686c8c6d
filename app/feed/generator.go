package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"path"
	"strings"
	"time"
)

// Generator renders an aggregation result as an RSS 2.0 document.
type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run renders result. selfLink is the public URL of the rendered document.
func (g *Generator) Run(result *Result, selfLink string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is nil")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", result.Title, 4)
	g.writeElement(&buf, "link", result.Link, 4)
	g.writeElement(&buf, "description", result.Description, 4)

	if selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(result.Items) > 0 && !result.Items[0].published.Equal(epoch) {
		lastBuildDate = result.Items[0].published
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Comb/%s", g.version), 4)

	for _, item := range result.Items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Article) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", cmp.Or(item.Description, "No description available"), 6)

	if item.FullContent != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(item.FullContent, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !item.published.Equal(epoch) && !item.published.IsZero() {
		g.writeElement(buf, "pubDate", item.published.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "dc:creator", item.Creator, 6)
	g.writeElement(buf, "source", item.Source, 6)

	for _, category := range item.Categories {
		g.writeElement(buf, "category", category, 6)
	}
	if item.DetectedCategory != "" && item.DetectedCategory != Uncategorized {
		buf.WriteString(fmt.Sprintf("      <category domain=\"topic\">%s</category>\n", html.EscapeString(item.DetectedCategory)))
	}

	// RSS 2.0 requires url, length and type on enclosures; length is unknown here.
	if item.ImageURL != nil && g.isURL(*item.ImageURL) {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(*item.ImageURL),
			html.EscapeString(g.imageType(*item.ImageURL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (g *Generator) imageType(imageURL string) string {
	if mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(fileName(imageURL)))); strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return "image/jpeg"
}
