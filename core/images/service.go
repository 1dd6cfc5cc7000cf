// ABOUTME: Image proxy service: fetch with publisher header profiles, resize, re-encode
// ABOUTME: Resolves hotlink blocking and CORS for feed article images

package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/url"
	"strings"
	"time"

	_ "image/gif" // decode-only

	"github.com/nfnt/resize"

	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/fetch"
	"feedrelay-api/core/interfaces"
)

const defaultQuality = 80

// Options controls how a proxied image is processed. Zero dimensions keep
// the source size; zero Quality means the default; empty Format keeps the
// source encoding.
type Options struct {
	Width   uint
	Height  uint
	Quality int
	Format  string
}

// Result is the proxied image plus response metadata.
type Result struct {
	Data        []byte
	ContentType string
	CacheHit    bool
}

// cacheEntry is the stored shape of a processed image.
type cacheEntry struct {
	Data        []byte `json:"data"`
	ContentType string `json:"contentType"`
}

// ImageService fetches, processes and caches upstream images.
type ImageService struct {
	deps    interfaces.Dependencies
	headers *fetch.HeaderTable
	ttl     time.Duration
	timeout time.Duration
}

// NewImageService creates an image service. headers is shared with the
// feed fetcher so both speak each publisher's dialect; nil gets the
// default table.
func NewImageService(deps interfaces.Dependencies, headers *fetch.HeaderTable, ttl time.Duration) *ImageService {
	if headers == nil {
		headers = fetch.NewHeaderTable()
	}
	return &ImageService{
		deps:    deps,
		headers: headers,
		ttl:     ttl,
		timeout: 10 * time.Second,
	}
}

// GetImage returns the image at imageURL, processed per opts. Results are
// cached under a key covering the URL and every processing parameter.
func (s *ImageService) GetImage(ctx context.Context, imageURL string, opts Options) (*Result, error) {
	if imageURL == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url parameter is required"}
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url must be an absolute http(s) URL"}
	}
	if opts.Quality == 0 {
		opts.Quality = defaultQuality
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, &coreerrors.InputError{Field: "quality", Message: "quality must be between 1 and 100"}
	}

	key := imageCacheKey(imageURL, opts)
	if cached := s.cachedResult(ctx, key); cached != nil {
		return cached, nil
	}

	data, contentType, err := s.fetchImage(ctx, imageURL, parsed.Hostname())
	if err != nil {
		return nil, err
	}

	if needsProcessing(opts) {
		data, contentType = s.processImage(data, contentType, opts)
	}

	s.cacheResult(ctx, key, data, contentType)

	return &Result{Data: data, ContentType: contentType, CacheHit: false}, nil
}

func (s *ImageService) fetchImage(ctx context.Context, imageURL, host string) ([]byte, string, error) {
	headers := s.headers.For(host)
	headers["Accept"] = "image/webp,image/apng,image/*,*/*;q=0.8"
	if headers["Referer"] == "" {
		headers["Referer"] = "https://" + host + "/"
		headers["Origin"] = "https://" + host
	}

	resp, err := s.deps.HTTPClient.GetWithOptions(ctx, imageURL, interfaces.RequestOptions{
		Headers:            headers,
		Timeout:            s.timeout,
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, "", &coreerrors.UpstreamError{URL: imageURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return nil, "", &coreerrors.UpstreamError{
			URL:        imageURL,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("image fetch returned status %d", resp.StatusCode()),
		}
	}

	data := new(bytes.Buffer)
	if _, err := data.ReadFrom(resp.Body()); err != nil {
		return nil, "", &coreerrors.UpstreamError{URL: imageURL, Message: err.Error()}
	}

	contentType := resp.Header("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data.Bytes(), contentType, nil
}

// processImage resizes and re-encodes. Undecodable input degrades to the
// original bytes rather than failing the request.
func (s *ImageService) processImage(data []byte, contentType string, opts Options) ([]byte, string) {
	img, sourceFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.logProcessingFailure(err)
		return data, contentType
	}

	if opts.Width > 0 || opts.Height > 0 {
		// A zero dimension preserves the aspect ratio.
		img = resize.Resize(opts.Width, opts.Height, img, resize.Lanczos3)
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = sourceFormat
	}

	var out bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&out, img)
		contentType = "image/png"
	default:
		// jpeg, jpg and anything unrecognized.
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: opts.Quality})
		contentType = "image/jpeg"
	}
	if err != nil {
		s.logProcessingFailure(err)
		return data, contentType
	}

	return out.Bytes(), contentType
}

func (s *ImageService) cachedResult(ctx context.Context, key string) *Result {
	if s.deps.Cache == nil {
		return nil
	}

	data, err := s.deps.Cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	return &Result{Data: entry.Data, ContentType: entry.ContentType, CacheHit: true}
}

func (s *ImageService) cacheResult(ctx context.Context, key string, data []byte, contentType string) {
	if s.deps.Cache == nil {
		return
	}

	encoded, err := json.Marshal(cacheEntry{Data: data, ContentType: contentType})
	if err != nil {
		return
	}

	if err := s.deps.Cache.Set(ctx, key, encoded, s.ttl); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("failed to cache image", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *ImageService) logProcessingFailure(err error) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Warn("image processing failed, serving original bytes", map[string]interface{}{
		"error": err.Error(),
	})
}

func needsProcessing(opts Options) bool {
	return opts.Width > 0 || opts.Height > 0 || opts.Format != "" || opts.Quality != defaultQuality
}

// imageCacheKey covers every parameter that changes the output bytes.
func imageCacheKey(imageURL string, opts Options) string {
	return fmt.Sprintf("image:%s-%d-%d-%d-%s", imageURL, opts.Width, opts.Height, opts.Quality, opts.Format)
}
