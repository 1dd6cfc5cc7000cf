// ABOUTME: NormalizedFeed domain model represents the canonical feed shape
// ABOUTME: Every retrieval strategy and source format converges on this value

package domain

// FeedFormat identifies the source format a feed was normalized from.
type FeedFormat string

const (
	// FormatRSS is an RSS 2.0 document.
	FormatRSS FeedFormat = "rss"

	// FormatAtom is an Atom document.
	FormatAtom FeedFormat = "atom"

	// FormatAggregator is the JSON shape returned by a bridge/aggregator
	// service. Consumers only learn which strategy produced the data
	// through this tag.
	FormatAggregator FeedFormat = "rssbridge"

	// FormatUnknown marks a raw payload whose format has not been
	// detected yet. Never appears on a NormalizedFeed.
	FormatUnknown FeedFormat = ""
)

// NormalizedFeed is the canonical representation of a feed regardless of
// which strategy retrieved it or which format it arrived in. It is
// immutable once constructed; cache entries store it by value.
type NormalizedFeed struct {
	// FeedType is the source format the feed was normalized from
	FeedType FeedFormat `json:"feedType"`

	// Title is the human-readable title of the feed
	Title string `json:"title"`

	// Description provides a brief description of the feed's content
	Description string `json:"description"`

	// Link is the canonical feed URL, falling back to the requested URL
	Link string `json:"link"`

	// Items are the feed entries in source document order
	Items []FeedItem `json:"items"`
}

// RawFeed is the payload a retrieval strategy produced, before
// normalization.
type RawFeed struct {
	// Format is the declared format when the strategy knows it
	// (aggregator JSON); FormatUnknown means sniff the body.
	Format FeedFormat

	// Body is the raw response payload.
	Body []byte

	// Strategy is the name of the strategy that produced the payload.
	Strategy string
}
