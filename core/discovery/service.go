// ABOUTME: Feed auto-discovery service with three search phases
// ABOUTME: Tries link-tag autodiscovery, then common paths, then a known-domain table

package discovery

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	gocache "github.com/patrickmn/go-cache"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/interfaces"
)

// commonFeedTypes are the link types accepted during autodiscovery.
var commonFeedTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
	"application/feed+json",
	"application/rss",
	"application/xml",
	"text/xml",
}

// commonFeedPaths are probed when autodiscovery finds nothing. The set
// covers WordPress, The Verge, Blogger, Hugo and generic layouts.
var commonFeedPaths = []string{
	"/feed",
	"/rss",
	"/feed/rss",
	"/rss/index.xml",
	"/atom",
	"/rss.xml",
	"/feed.xml",
	"/feeds/posts/default",
	"/rssfeeds/",
	"/index.xml",
	"/feed/atom",
	"/atom.xml",
}

// knownDomainFeeds maps hostnames to their feed URL when neither
// autodiscovery nor path probing works.
var knownDomainFeeds = map[string]string{
	"wired.it":      "https://www.wired.it/feed/rss",
	"repubblica.it": "https://www.repubblica.it/rss/homepage/rss2.0.xml",
	"ilpost.it":     "https://www.ilpost.it/feed/",
	"ansa.it":       "https://www.ansa.it/sito/notizie/tecnologia/tecnologia_rss.xml",
	"corriere.it":   "https://xml2.corriereobjects.it/rss/homepage.xml",
	"gazzetta.it":   "https://www.gazzetta.it/rss/home.xml",
	"tomshw.it":     "https://www.tomshw.it/feed/",
	"nytimes.com":   "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
	"theverge.com":  "https://www.theverge.com/rss/index.xml",
	"bbc.co.uk":     "http://feeds.bbci.co.uk/news/world/rss.xml",
}

// DiscoveryService finds the feeds a site offers.
type DiscoveryService struct {
	deps    interfaces.Dependencies
	results *gocache.Cache
	timeout time.Duration
}

// NewDiscoveryService creates a discovery service caching results for ttl.
func NewDiscoveryService(deps interfaces.Dependencies, ttl time.Duration) *DiscoveryService {
	return &DiscoveryService{
		deps:    deps,
		results: gocache.New(ttl, 2*ttl),
		timeout: 10 * time.Second,
	}
}

// Discover returns the feeds available for siteURL. A bare hostname is
// accepted and treated as https. Results are cached per site root.
func (s *DiscoveryService) Discover(ctx context.Context, siteURL string) (*domain.DiscoveryResult, error) {
	if siteURL == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url parameter is required"}
	}
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}

	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url must name a host"}
	}
	hostname := parsed.Hostname()
	siteRoot := parsed.Scheme + "://" + parsed.Host

	if cached, found := s.results.Get(siteRoot); found {
		feeds := cached.([]domain.FeedInfo)
		return &domain.DiscoveryResult{Site: siteRoot, Feeds: feeds, CacheHit: true}, nil
	}

	feeds := s.viaAutodiscovery(ctx, siteRoot, hostname)
	if len(feeds) == 0 {
		feeds = s.viaCommonPaths(ctx, siteRoot, hostname)
	}
	if len(feeds) == 0 {
		feeds = viaKnownDomains(hostname)
	}

	feeds = dedupeByURL(feeds)
	s.results.SetDefault(siteRoot, feeds)

	return &domain.DiscoveryResult{Site: siteRoot, Feeds: feeds, CacheHit: false}, nil
}

// viaAutodiscovery fetches the homepage and reads feed declarations from
// <link rel="alternate"> tags.
func (s *DiscoveryService) viaAutodiscovery(ctx context.Context, siteRoot, hostname string) []domain.FeedInfo {
	resp, err := s.deps.HTTPClient.GetWithOptions(ctx, siteRoot, interfaces.RequestOptions{
		Headers: map[string]string{
			"Accept":        "text/html",
			"Cache-Control": "no-cache",
		},
		Timeout:            s.timeout,
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logPhaseFailure("autodiscovery", siteRoot, err)
		return nil
	}
	defer resp.Body().Close()
	if resp.StatusCode() != 200 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body())
	if err != nil {
		s.logPhaseFailure("autodiscovery", siteRoot, err)
		return nil
	}

	var feeds []domain.FeedInfo
	doc.Find("link[rel]").Each(func(_ int, sel *goquery.Selection) {
		rel, _ := sel.Attr("rel")
		rel = strings.ToLower(rel)
		if !strings.Contains(rel, "alternate") && !strings.Contains(rel, "feed") {
			return
		}

		linkType, _ := sel.Attr("type")
		if !isFeedType(linkType) {
			return
		}

		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}

		feeds = append(feeds, domain.FeedInfo{
			URL:    resolveAgainst(siteRoot, href),
			Source: "autodiscovery",
			Title:  firstNonEmptyAttr(sel, "title", "Feed di "+hostname),
		})
	})

	return feeds
}

// viaCommonPaths probes well-known feed paths in parallel. A path counts
// when it answers 200 with a feed-looking content type.
func (s *DiscoveryService) viaCommonPaths(ctx context.Context, siteRoot, hostname string) []domain.FeedInfo {
	found := make([]*domain.FeedInfo, len(commonFeedPaths))

	var wg sync.WaitGroup
	for i, path := range commonFeedPaths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			resp, err := s.deps.HTTPClient.GetWithOptions(ctx, siteRoot+path, interfaces.RequestOptions{
				Headers: map[string]string{
					"Accept": "application/xml, application/rss+xml, application/atom+xml",
				},
				Timeout:            5 * time.Second,
				InsecureSkipVerify: true,
			})
			if err != nil {
				return
			}
			defer resp.Body().Close()
			if resp.StatusCode() != 200 {
				return
			}
			if !isFeedContentType(resp.Header("Content-Type")) {
				return
			}

			found[i] = &domain.FeedInfo{
				URL:    siteRoot + path,
				Source: "common_path",
				Title:  "Feed di " + hostname + " (" + path + ")",
			}
		}(i, path)
	}
	wg.Wait()

	var feeds []domain.FeedInfo
	for _, info := range found {
		if info != nil {
			feeds = append(feeds, *info)
		}
	}
	return feeds
}

// viaKnownDomains consults the static domain table.
func viaKnownDomains(hostname string) []domain.FeedInfo {
	var feeds []domain.FeedInfo
	for dom, feedURL := range knownDomainFeeds {
		if strings.Contains(hostname, dom) {
			feeds = append(feeds, domain.FeedInfo{
				URL:    feedURL,
				Source: "known_domain",
				Title:  "Feed di " + dom,
			})
		}
	}
	return feeds
}

func (s *DiscoveryService) logPhaseFailure(phase, target string, err error) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Debug("discovery phase failed", map[string]interface{}{
		"phase": phase,
		"url":   target,
		"error": err.Error(),
	})
}

func isFeedType(linkType string) bool {
	for _, t := range commonFeedTypes {
		if strings.Contains(linkType, t) {
			return true
		}
	}
	return false
}

func isFeedContentType(contentType string) bool {
	lower := strings.ToLower(contentType)
	for _, marker := range []string{"xml", "rss", "atom", "feed"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// resolveAgainst makes href absolute relative to the site root.
func resolveAgainst(siteRoot, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return siteRoot + href
	}
	return siteRoot + "/" + href
}

func firstNonEmptyAttr(sel *goquery.Selection, attr, fallback string) string {
	if value, ok := sel.Attr(attr); ok && value != "" {
		return value
	}
	return fallback
}

func dedupeByURL(feeds []domain.FeedInfo) []domain.FeedInfo {
	seen := make(map[string]bool, len(feeds))
	unique := make([]domain.FeedInfo, 0, len(feeds))
	for _, feed := range feeds {
		if seen[feed.URL] {
			continue
		}
		seen[feed.URL] = true
		unique = append(unique, feed)
	}
	return unique
}
