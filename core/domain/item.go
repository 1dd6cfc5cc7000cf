// ABOUTME: FeedItem domain model represents an individual entry within a feed
// ABOUTME: All source formats map into this one shape during normalization

package domain

// FeedItem represents an individual item/entry in a normalized feed.
type FeedItem struct {
	// ID is derived from guid/id/link and is non-empty after the
	// fallback chain. Uniqueness is best-effort, not enforced.
	ID string `json:"id"`

	// Title is the item's headline
	Title string `json:"title"`

	// Link is the URL to the full article
	Link string `json:"link"`

	// Content is the full body when the source provides one
	Content string `json:"content"`

	// Description is a short summary, at most 200 characters when it
	// had to be derived from the content
	Description string `json:"description"`

	// ImageURL is an absolute http(s) URL, or empty when no image was
	// found
	ImageURL string `json:"imageUrl"`

	// PubDate is an ISO-8601 timestamp, defaulting to retrieval time
	// when the source carries none
	PubDate string `json:"pubDate"`

	// Categories in source order, may be empty
	Categories []string `json:"categories"`

	// Author of the item, may be empty
	Author string `json:"author"`

	// SourceName is the parent feed title, propagated to every item so
	// clients can display it without re-fetching the feed
	SourceName string `json:"sourceName"`
}
