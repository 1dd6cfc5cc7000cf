// ABOUTME: Feed normalizer converts RSS 2.0, Atom, and aggregator JSON payloads
// ABOUTME: into the canonical NormalizedFeed shape with shared image heuristics

package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

const derivedDescriptionLimit = 200

// Normalizer converts raw feed payloads into NormalizedFeed values.
// A single normalizer dispatches over the closed set of source formats so
// the image and category extraction heuristics exist exactly once.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer. now is injected for deterministic
// tests; nil means time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize parses raw into a NormalizedFeed. It returns a ParseError when
// the body cannot be parsed as a recognized feed. A malformed individual
// item never aborts the batch; it degrades to a minimal placeholder.
func (n *Normalizer) Normalize(raw *domain.RawFeed, declaredURL string) (*domain.NormalizedFeed, error) {
	if raw == nil || len(raw.Body) == 0 {
		return nil, &coreerrors.ParseError{URL: declaredURL, Message: "empty feed body"}
	}

	if raw.Format == domain.FormatAggregator {
		return n.normalizeAggregator(raw.Body, declaredURL)
	}
	return n.normalizeXML(raw.Body, declaredURL)
}

func (n *Normalizer) normalizeXML(body []byte, declaredURL string) (*domain.NormalizedFeed, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &coreerrors.ParseError{URL: declaredURL, Message: err.Error()}
	}

	feed := &domain.NormalizedFeed{
		FeedType:    detectFormat(parsed),
		Title:       firstNonEmpty(parsed.Title, hostOf(declaredURL)),
		Description: parsed.Description,
		Link:        firstNonEmpty(parsed.Link, declaredURL),
		Items:       make([]domain.FeedItem, 0, len(parsed.Items)),
	}

	for i, item := range parsed.Items {
		feed.Items = append(feed.Items, n.safeMapItem(item, feed.Title, declaredURL, i))
	}

	return feed, nil
}

// safeMapItem maps one gofeed item, degrading to a minimal placeholder if
// the mapping panics on an unexpected shape. The per-item fallback must
// never raise.
func (n *Normalizer) safeMapItem(item *gofeed.Item, sourceName, declaredURL string, index int) (mapped domain.FeedItem) {
	defer func() {
		if recover() != nil {
			mapped = domain.FeedItem{
				ID:         fmt.Sprintf("%s#item-%d", declaredURL, index),
				PubDate:    n.now().UTC().Format(time.RFC3339),
				Categories: []string{},
				SourceName: sourceName,
			}
		}
	}()

	link := item.Link
	if link == "" && isHTTPURL(item.GUID) {
		link = item.GUID
	}

	content := firstNonEmpty(item.Content, item.Description)
	description := item.Description
	if description == "" {
		description = excerpt(content, derivedDescriptionLimit)
	}

	categories := make([]string, 0, len(item.Categories))
	categories = append(categories, item.Categories...)

	mapped = domain.FeedItem{
		ID:          n.itemID(item, link, declaredURL, index),
		Title:       item.Title,
		Link:        link,
		Content:     content,
		Description: description,
		ImageURL:    NormalizeImageURL(findItemImage(item, content, item.Description)),
		PubDate:     n.itemPubDate(item),
		Categories:  categories,
		Author:      itemAuthor(item),
		SourceName:  sourceName,
	}
	return mapped
}

// itemID derives a non-empty id: guid, then link, then a positional
// fallback on the requested URL.
func (n *Normalizer) itemID(item *gofeed.Item, link, declaredURL string, index int) string {
	if item.GUID != "" {
		return item.GUID
	}
	if link != "" {
		return link
	}
	return fmt.Sprintf("%s#item-%d", declaredURL, index)
}

func (n *Normalizer) itemPubDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return n.now().UTC().Format(time.RFC3339)
}

// findItemImage walks the image fallback chain shared by RSS and Atom:
// image enclosure, media:content, media:thumbnail, the item image field,
// then the first <img src> in the item's HTML.
func findItemImage(item *gofeed.Item, content, description string) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if mediaURL := mediaExtensionURL(item, "content"); mediaURL != "" {
		return mediaURL
	}
	if mediaURL := mediaExtensionURL(item, "thumbnail"); mediaURL != "" {
		return mediaURL
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	if src := ScrapeImageSrc(content); src != "" {
		return src
	}
	return ScrapeImageSrc(description)
}

// mediaExtensionURL pulls the url attribute from a media-namespace
// extension element, tolerating absent maps at every level.
func mediaExtensionURL(item *gofeed.Item, element string) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, ext := range media[element] {
		if u := ext.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	return ""
}

// detectFormat maps the parser's detected type onto the closed FeedFormat
// set. Anything that is not Atom normalizes as RSS.
func detectFormat(parsed *gofeed.Feed) domain.FeedFormat {
	if strings.EqualFold(parsed.FeedType, "atom") {
		return domain.FormatAtom
	}
	return domain.FormatRSS
}

// aggregatorEnvelope is the JSON shape bridge/aggregator services return.
type aggregatorEnvelope struct {
	Status      string           `json:"status"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Link        string           `json:"home_page_url"`
	Items       []aggregatorItem `json:"items"`
}

type aggregatorItem struct {
	UID           string                `json:"uid"`
	URI           string                `json:"uri"`
	Title         string                `json:"title"`
	ContentHTML   string                `json:"content_html"`
	DatePublished int64                 `json:"date_published"`
	Author        string                `json:"author"`
	Tags          []string              `json:"tags"`
	Enclosures    []aggregatorEnclosure `json:"enclosures"`
}

type aggregatorEnclosure struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

func (n *Normalizer) normalizeAggregator(body []byte, declaredURL string) (*domain.NormalizedFeed, error) {
	var envelope aggregatorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &coreerrors.ParseError{URL: declaredURL, Message: "aggregator body is not JSON: " + err.Error()}
	}
	if envelope.Status != "ok" {
		return nil, &coreerrors.ParseError{URL: declaredURL, Message: "aggregator reported status " + envelope.Status}
	}

	feed := &domain.NormalizedFeed{
		FeedType:    domain.FormatAggregator,
		Title:       firstNonEmpty(envelope.Title, hostOf(declaredURL)),
		Description: envelope.Description,
		Link:        firstNonEmpty(envelope.Link, declaredURL),
		Items:       make([]domain.FeedItem, 0, len(envelope.Items)),
	}

	for i, item := range envelope.Items {
		mapped := domain.FeedItem{
			ID:          firstNonEmpty(item.UID, item.URI, fmt.Sprintf("%s#item-%d", declaredURL, i)),
			Title:       item.Title,
			Link:        item.URI,
			Content:     item.ContentHTML,
			Description: excerpt(item.ContentHTML, derivedDescriptionLimit),
			ImageURL:    NormalizeImageURL(aggregatorImage(item)),
			PubDate:     n.aggregatorPubDate(item),
			Categories:  append([]string{}, item.Tags...),
			Author:      item.Author,
			SourceName:  firstNonEmpty(envelope.Title, hostOf(declaredURL)),
		}
		feed.Items = append(feed.Items, mapped)
	}

	return feed, nil
}

func (n *Normalizer) aggregatorPubDate(item aggregatorItem) string {
	if item.DatePublished > 0 {
		return time.Unix(item.DatePublished, 0).UTC().Format(time.RFC3339)
	}
	return n.now().UTC().Format(time.RFC3339)
}

func aggregatorImage(item aggregatorItem) string {
	for _, enc := range item.Enclosures {
		if enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	return ScrapeImageSrc(item.ContentHTML)
}

// NormalizeImageURL upgrades an image reference to an absolute https URL.
// It is pure and total: empty stays empty, scheme-relative URLs get https,
// bare host/path strings get an https prefix, everything else is unchanged.
func NormalizeImageURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	if strings.HasPrefix(imageURL, "//") {
		return "https:" + imageURL
	}
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}
	return "https://" + imageURL
}

// ScrapeImageSrc finds the src of the first <img> tag in an HTML fragment.
// This is a tolerant heuristic, not an HTML parser contract: malformed
// markup yields an empty string, never an error.
func ScrapeImageSrc(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<img") {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "img" {
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key == "src" && attr.Val != "" {
					return attr.Val
				}
			}
		}
	}
}

// excerpt strips tags from an HTML fragment and truncates it for use as a
// derived description.
func excerpt(fragment string, limit int) string {
	text := strings.TrimSpace(stripTags(fragment))
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// stripTags extracts the text content of an HTML fragment, returning the
// input unchanged if it cannot be parsed.
func stripTags(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return text.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

func isHTTPURL(candidate string) bool {
	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
