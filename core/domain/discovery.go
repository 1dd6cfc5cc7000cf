// ABOUTME: Domain types for feed auto-discovery
// ABOUTME: FeedInfo records a found feed and which phase found it

package domain

// FeedInfo is one discovered feed for a site.
type FeedInfo struct {
	// URL is the absolute feed URL
	URL string `json:"url"`

	// Source names the discovery phase: autodiscovery, common_path or known_domain
	Source string `json:"source"`

	// Title is the feed title if the page declared one
	Title string `json:"title"`
}

// DiscoveryResult is the outcome of discovering feeds for one site.
type DiscoveryResult struct {
	// Site is the normalized site root the search ran against
	Site string `json:"site"`

	// Feeds are the discovered feeds, deduplicated by URL
	Feeds []FeedInfo `json:"feeds"`

	// CacheHit is true when the result was served from cache
	CacheHit bool `json:"-"`
}
