package feed

import (
	"strings"
	"testing"
	"time"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeImageURL_EmptyStaysEmpty(t *testing.T) {
	if got := NormalizeImageURL(""); got != "" {
		t.Errorf("empty input should stay empty, got %q", got)
	}
}

func TestNormalizeImageURL_SchemeRelative(t *testing.T) {
	got := NormalizeImageURL("//example.com/x.jpg")

	if got != "https://example.com/x.jpg" {
		t.Errorf("scheme-relative URL should be upgraded, got %q", got)
	}
}

func TestNormalizeImageURL_HostOnly(t *testing.T) {
	got := NormalizeImageURL("example.com/x.jpg")

	if got != "https://example.com/x.jpg" {
		t.Errorf("bare host/path should be prefixed, got %q", got)
	}
}

func TestNormalizeImageURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/x.jpg",
		"http://example.com/x.jpg",
		"//example.com/x.jpg",
		"example.com/x.jpg",
	}

	for _, input := range inputs {
		once := NormalizeImageURL(input)
		twice := NormalizeImageURL(once)
		if once != twice {
			t.Errorf("NormalizeImageURL not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

const rssWithImageInDescription = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://example.com</link>
    <description>News site</description>
    <item>
      <guid>https://example.com/articles/1</guid>
      <title>First article</title>
      <link>https://example.com/articles/1</link>
      <description>&lt;p&gt;Intro text&lt;/p&gt;&lt;img src="//cdn.example.com/pic.jpg" alt=""&gt;</description>
    </item>
  </channel>
</rss>`

func TestNormalize_RSSItemWithScrapedImage(t *testing.T) {
	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(rssWithImageInDescription)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if feed.FeedType != domain.FormatRSS {
		t.Errorf("feedType should be rss, got %q", feed.FeedType)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("expected exactly one item, got %d", len(feed.Items))
	}

	item := feed.Items[0]
	if item.ID != "https://example.com/articles/1" {
		t.Errorf("id should come from guid, got %q", item.ID)
	}
	if item.ImageURL != "https://cdn.example.com/pic.jpg" {
		t.Errorf("imageUrl should be the scraped, normalized src, got %q", item.ImageURL)
	}
	if item.SourceName != "Example News" {
		t.Errorf("sourceName should propagate the feed title, got %q", item.SourceName)
	}
}

const rssWithEnclosure = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Enclosure Feed</title>
    <item>
      <title>With enclosure</title>
      <link>https://example.com/a</link>
      <enclosure url="https://cdn.example.com/enclosure.png" type="image/png" length="1000"/>
      <description>&lt;img src="https://cdn.example.com/inline.jpg"&gt;</description>
    </item>
  </channel>
</rss>`

func TestNormalize_EnclosureWinsOverScrapedImage(t *testing.T) {
	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(rssWithEnclosure)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if feed.Items[0].ImageURL != "https://cdn.example.com/enclosure.png" {
		t.Errorf("image enclosure should win the fallback chain, got %q", feed.Items[0].ImageURL)
	}
}

const atomMinimal = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <id>urn:uuid:feed-1</id>
  <updated>2024-05-01T10:00:00Z</updated>
  <entry>
    <id>urn:uuid:entry-1</id>
    <title>Atom entry</title>
    <link rel="alternate" href="https://example.com/atom-entry"/>
    <summary>Short summary text</summary>
    <updated>2024-05-01T10:00:00Z</updated>
  </entry>
</feed>`

func TestNormalize_AtomEntry(t *testing.T) {
	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(atomMinimal)}, "https://example.com/atom.xml")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if feed.FeedType != domain.FormatAtom {
		t.Errorf("feedType should be atom, got %q", feed.FeedType)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(feed.Items))
	}

	item := feed.Items[0]
	if item.Link != "https://example.com/atom-entry" {
		t.Errorf("link should be the rel=alternate href, got %q", item.Link)
	}
	if item.Description != "Short summary text" {
		t.Errorf("description should be the summary, got %q", item.Description)
	}
	if item.PubDate != "2024-05-01T10:00:00Z" {
		t.Errorf("pubDate should come from updated, got %q", item.PubDate)
	}
}

const rssEmpty = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Empty Feed</title>
    <link>https://example.com</link>
    <description>Nothing here</description>
  </channel>
</rss>`

func TestNormalize_ZeroItemsSucceeds(t *testing.T) {
	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(rssEmpty)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("zero-item feed should normalize without error, got %v", err)
	}
	if feed.Items == nil || len(feed.Items) != 0 {
		t.Errorf("items should be an empty list, got %v", feed.Items)
	}
}

func TestNormalize_ItemOrderPreserved(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Ordered</title>` +
		`<item><guid>c</guid><title>third</title></item>` +
		`<item><guid>a</guid><title>first</title></item>` +
		`<item><guid>b</guid><title>second</title></item>` +
		`</channel></rss>`

	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(body)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	got := []string{feed.Items[0].ID, feed.Items[1].ID, feed.Items[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items must keep source document order, got %v", got)
		}
	}
}

func TestNormalize_MissingDatesDefaultToNow(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>` +
		`<item><guid>1</guid><title>undated</title></item></channel></rss>`

	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(body)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if feed.Items[0].PubDate != "2025-03-14T12:00:00Z" {
		t.Errorf("missing pubDate should default to retrieval time, got %q", feed.Items[0].PubDate)
	}
}

func TestNormalize_DerivedDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100)
	body := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>t</title><id>f</id><updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <id>e1</id><title>long</title>
    <content type="html">&lt;p&gt;` + long + `&lt;/p&gt;</content>
    <updated>2024-01-01T00:00:00Z</updated>
  </entry>
</feed>`

	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Body: []byte(body)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	desc := feed.Items[0].Description
	if !strings.HasSuffix(desc, "…") {
		t.Errorf("derived description should end with an ellipsis, got %q", desc)
	}
	if len([]rune(desc)) > derivedDescriptionLimit+1 {
		t.Errorf("derived description should be capped at %d runes, got %d", derivedDescriptionLimit, len([]rune(desc)))
	}
}

func TestNormalize_UnparseableBodyIsParseError(t *testing.T) {
	n := NewNormalizer(fixedNow)

	_, err := n.Normalize(&domain.RawFeed{Body: []byte("this is not a feed at all")}, "https://example.com/feed")

	if !coreerrors.IsParse(err) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestNormalize_AggregatorItems(t *testing.T) {
	body := `{
		"status": "ok",
		"title": "Bridged Feed",
		"home_page_url": "https://example.com",
		"items": [
			{
				"uid": "item-1",
				"uri": "https://example.com/bridged",
				"title": "Bridged article",
				"content_html": "<p>Body</p>",
				"date_published": 1714557600,
				"author": "An Author",
				"tags": ["tech", "news"],
				"enclosures": [{"url": "//cdn.example.com/b.jpg", "type": "image/jpeg"}]
			}
		]
	}`

	n := NewNormalizer(fixedNow)

	feed, err := n.Normalize(&domain.RawFeed{Format: domain.FormatAggregator, Body: []byte(body)}, "https://example.com/feed")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if feed.FeedType != domain.FormatAggregator {
		t.Errorf("feedType should be the aggregator tag, got %q", feed.FeedType)
	}

	item := feed.Items[0]
	if item.ID != "item-1" {
		t.Errorf("id should come from uid, got %q", item.ID)
	}
	if item.Link != "https://example.com/bridged" {
		t.Errorf("link should come from uri, got %q", item.Link)
	}
	if item.PubDate != "2024-05-01T10:00:00Z" {
		t.Errorf("pubDate should convert unix seconds, got %q", item.PubDate)
	}
	if item.ImageURL != "https://cdn.example.com/b.jpg" {
		t.Errorf("enclosure image should be normalized, got %q", item.ImageURL)
	}
	if len(item.Categories) != 2 || item.Categories[0] != "tech" {
		t.Errorf("categories should come from tags, got %v", item.Categories)
	}
	if item.SourceName != "Bridged Feed" {
		t.Errorf("sourceName should propagate, got %q", item.SourceName)
	}
}

func TestNormalize_AggregatorErrorStatus(t *testing.T) {
	n := NewNormalizer(fixedNow)

	_, err := n.Normalize(&domain.RawFeed{
		Format: domain.FormatAggregator,
		Body:   []byte(`{"status":"error","items":[]}`),
	}, "https://example.com/feed")

	if !coreerrors.IsParse(err) {
		t.Errorf("expected ParseError for non-ok status, got %v", err)
	}
}

func TestScrapeImageSrc_MalformedMarkup(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"well-formed", `<p><img src="https://example.com/a.jpg"></p>`, "https://example.com/a.jpg"},
		{"first of several", `<img src="first.jpg"><img src="second.jpg">`, "first.jpg"},
		{"unclosed tag", `<img src="x.jpg`, ""},
		{"no src", `<img alt="none">`, ""},
		{"no image", `<p>plain text</p>`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScrapeImageSrc(tt.fragment); got != tt.want {
				t.Errorf("ScrapeImageSrc(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestExcerpt_ShortTextUnchanged(t *testing.T) {
	got := excerpt("<p>short</p>", derivedDescriptionLimit)

	if got != "short" {
		t.Errorf("excerpt should strip tags without truncating short text, got %q", got)
	}
}
